// Copyright (c) 2026 PasskeyRP Authors. All rights reserved.
// Use of this source code is governed by Apache License 2.0 found in the LICENSE file.

package webauthn

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/fxamacker/cbor/v2"
	"github.com/ldclabs/cose/iana"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// COSEKey represents a credential public key decoded from COSE_Key format,
// used to verify assertion signatures.
type COSEKey struct {
	Raw []byte
	SignatureAlgorithm
	crypto.PublicKey
}

// MarshalPKIXPublicKeyPEM serializes public key to PEM-encoded PKIX format.
func (k *COSEKey) MarshalPKIXPublicKeyPEM() ([]byte, error) {
	publicKeyPKIX, err := x509.MarshalPKIXPublicKey(k.PublicKey)
	if err != nil {
		return nil, err
	}
	publicKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicKeyPKIX,
	})
	return publicKeyPEM, nil
}

// Verify verifies the signature of message using the key's algorithm and public key.
func (k *COSEKey) Verify(message []byte, signature []byte) error {
	switch pk := k.PublicKey.(type) {
	case *rsa.PublicKey:
		h := k.Hash.New()
		h.Write(message)
		digest := h.Sum(nil)
		if k.IsRSAPSS() {
			return rsa.VerifyPSS(pk, k.Hash, digest, signature, &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto})
		}
		return rsa.VerifyPKCS1v15(pk, k.Hash, digest, signature)
	case *ecdsa.PublicKey:
		h := k.Hash.New()
		h.Write(message)
		digest := h.Sum(nil)
		r, s, err := parseECDSASignature(signature)
		if err != nil {
			return err
		}
		if r.Sign() <= 0 || s.Sign() <= 0 {
			return errors.New("ECDSA signature contained zero or negative values")
		}
		if !ecdsa.Verify(pk, digest, r, s) {
			return errors.New("ECDSA signature verification failed")
		}
		return nil
	case ed25519.PublicKey:
		// Ed25519 signs the full message, no prehash.
		if !ed25519.Verify(pk, message, signature) {
			return errors.New("Ed25519 signature verification failed")
		}
		return nil
	default:
		return &UnsupportedFeatureError{Feature: fmt.Sprintf("credential public key of type %T", k.PublicKey)}
	}
}

// parseECDSASignature parses an ASN.1 DER encoded ECDSA signature, rejecting
// non-minimal encodings and trailing data.
func parseECDSASignature(signature []byte) (r, s *big.Int, err error) {
	r, s = new(big.Int), new(big.Int)
	input := cryptobyte.String(signature)
	var inner cryptobyte.String
	if !input.ReadASN1(&inner, cryptobyte_asn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(r) ||
		!inner.ReadASN1Integer(s) ||
		!inner.Empty() {
		return nil, nil, errors.New("invalid ASN.1 encoded ECDSA signature")
	}
	return r, s, nil
}

func coseCurve(crv int) elliptic.Curve {
	switch crv {
	case int(iana.EllipticCurveP_256):
		return elliptic.P256()
	case int(iana.EllipticCurveP_384):
		return elliptic.P384()
	case int(iana.EllipticCurveP_521):
		return elliptic.P521()
	default:
		return nil
	}
}

// ParseCOSEKey parses a credential public key encoded in COSE_Key format and
// returns the decoded key along with any bytes following its encoding.
func ParseCOSEKey(coseKeyData []byte) (k *COSEKey, rest []byte, err error) {
	type rawCOSEKey struct {
		Kty    int             `cbor:"1,keyasint"`
		Alg    int             `cbor:"3,keyasint"`
		CrvOrN cbor.RawMessage `cbor:"-1,keyasint"`
		XOrE   cbor.RawMessage `cbor:"-2,keyasint"`
		Y      cbor.RawMessage `cbor:"-3,keyasint"`
	}
	var raw rawCOSEKey
	decoder := cbor.NewDecoder(bytes.NewReader(coseKeyData))
	if err = decoder.Decode(&raw); err != nil {
		return nil, nil, &UnmarshalSyntaxError{Type: "cose key", Msg: err.Error()}
	}
	encoded := coseKeyData[:decoder.NumBytesRead()]
	rest = coseKeyData[decoder.NumBytesRead():]

	signatureAlgorithm, err := CoseAlgToSignatureAlgorithm(raw.Alg)
	if err != nil {
		return nil, nil, err
	}

	switch raw.Kty {
	case int(iana.KeyTypeRSA):
		if !signatureAlgorithm.IsRSA() {
			return nil, nil, &UnmarshalBadDataError{Kind: KindUnsupportedAlgorithm, Type: "cose key", Msg: "COSE key type " + strconv.Itoa(raw.Kty) + " and algorithm " + strconv.Itoa(raw.Alg) + " are mismatched"}
		}
		if raw.CrvOrN == nil {
			return nil, nil, &UnmarshalMissingFieldError{Type: "cose key", Field: "RSA n"}
		}
		if raw.XOrE == nil {
			return nil, nil, &UnmarshalMissingFieldError{Type: "cose key", Field: "RSA e"}
		}
		var nb []byte
		if err := cbor.Unmarshal(raw.CrvOrN, &nb); err != nil {
			return nil, nil, &UnmarshalBadDataError{Type: "cose key", Msg: "invalid RSA n"}
		}
		var eb []byte
		if err := cbor.Unmarshal(raw.XOrE, &eb); err != nil {
			return nil, nil, &UnmarshalBadDataError{Type: "cose key", Msg: "invalid RSA e"}
		}
		n := new(big.Int).SetBytes(nb)
		e := new(big.Int).SetBytes(eb)
		return &COSEKey{encoded, signatureAlgorithm, &rsa.PublicKey{N: n, E: int(e.Int64())}}, rest, nil

	case int(iana.KeyTypeEC2):
		if !signatureAlgorithm.IsECDSA() {
			return nil, nil, &UnmarshalBadDataError{Kind: KindUnsupportedAlgorithm, Type: "cose key", Msg: "COSE key type " + strconv.Itoa(raw.Kty) + " and algorithm " + strconv.Itoa(raw.Alg) + " are mismatched"}
		}
		if raw.CrvOrN == nil {
			return nil, nil, &UnmarshalMissingFieldError{Type: "cose key", Field: "EC2 curve"}
		}
		if raw.XOrE == nil {
			return nil, nil, &UnmarshalMissingFieldError{Type: "cose key", Field: "EC2 x"}
		}
		if raw.Y == nil {
			return nil, nil, &UnmarshalMissingFieldError{Type: "cose key", Field: "EC2 y"}
		}
		var crvID int
		if err := cbor.Unmarshal(raw.CrvOrN, &crvID); err != nil {
			return nil, nil, &UnmarshalBadDataError{Type: "cose key", Msg: "invalid EC2 curve"}
		}
		curve := coseCurve(crvID)
		if curve == nil {
			return nil, nil, &UnsupportedFeatureError{Feature: "COSE curve " + strconv.Itoa(crvID)}
		}
		var xb []byte
		if err := cbor.Unmarshal(raw.XOrE, &xb); err != nil {
			return nil, nil, &UnmarshalBadDataError{Type: "cose key", Msg: "invalid EC2 x"}
		}
		var yb []byte
		if err := cbor.Unmarshal(raw.Y, &yb); err != nil {
			return nil, nil, &UnmarshalBadDataError{Type: "cose key", Msg: "invalid EC2 y"}
		}
		x := new(big.Int).SetBytes(xb)
		y := new(big.Int).SetBytes(yb)
		return &COSEKey{encoded, signatureAlgorithm, &ecdsa.PublicKey{Curve: curve, X: x, Y: y}}, rest, nil

	case int(iana.KeyTypeOKP):
		if !signatureAlgorithm.IsEdDSA() {
			return nil, nil, &UnmarshalBadDataError{Kind: KindUnsupportedAlgorithm, Type: "cose key", Msg: "COSE key type " + strconv.Itoa(raw.Kty) + " and algorithm " + strconv.Itoa(raw.Alg) + " are mismatched"}
		}
		if raw.CrvOrN == nil {
			return nil, nil, &UnmarshalMissingFieldError{Type: "cose key", Field: "OKP curve"}
		}
		if raw.XOrE == nil {
			return nil, nil, &UnmarshalMissingFieldError{Type: "cose key", Field: "OKP x"}
		}
		var crvID int
		if err := cbor.Unmarshal(raw.CrvOrN, &crvID); err != nil {
			return nil, nil, &UnmarshalBadDataError{Type: "cose key", Msg: "invalid OKP curve"}
		}
		if crvID != int(iana.EllipticCurveEd25519) {
			return nil, nil, &UnsupportedFeatureError{Feature: "COSE curve " + strconv.Itoa(crvID)}
		}
		var xb []byte
		if err := cbor.Unmarshal(raw.XOrE, &xb); err != nil {
			return nil, nil, &UnmarshalBadDataError{Type: "cose key", Msg: "invalid OKP x"}
		}
		if len(xb) != ed25519.PublicKeySize {
			return nil, nil, &UnmarshalBadDataError{Type: "cose key", Msg: "OKP x must be " + strconv.Itoa(ed25519.PublicKeySize) + " bytes"}
		}
		return &COSEKey{encoded, signatureAlgorithm, ed25519.PublicKey(xb)}, rest, nil
	}

	return nil, nil, &UnsupportedFeatureError{Feature: "COSE key type " + strconv.Itoa(raw.Kty) + " and algorithm " + strconv.Itoa(raw.Alg)}
}

// Encode serializes the public key back to COSE_Key format.
func (k *COSEKey) Encode() ([]byte, error) {
	switch pk := k.PublicKey.(type) {
	case *ecdsa.PublicKey:
		var crv int
		switch pk.Curve {
		case elliptic.P256():
			crv = int(iana.EllipticCurveP_256)
		case elliptic.P384():
			crv = int(iana.EllipticCurveP_384)
		case elliptic.P521():
			crv = int(iana.EllipticCurveP_521)
		default:
			return nil, &UnsupportedFeatureError{Feature: "elliptic curve " + pk.Curve.Params().Name}
		}
		byteLen := (pk.Curve.Params().BitSize + 7) / 8
		return cbor.Marshal(&struct {
			Kty int    `cbor:"1,keyasint"`
			Alg int    `cbor:"3,keyasint"`
			Crv int    `cbor:"-1,keyasint"`
			X   []byte `cbor:"-2,keyasint"`
			Y   []byte `cbor:"-3,keyasint"`
		}{
			Kty: int(iana.KeyTypeEC2),
			Alg: k.COSEAlgorithm,
			Crv: crv,
			X:   pk.X.FillBytes(make([]byte, byteLen)),
			Y:   pk.Y.FillBytes(make([]byte, byteLen)),
		})
	case *rsa.PublicKey:
		return cbor.Marshal(&struct {
			Kty int    `cbor:"1,keyasint"`
			Alg int    `cbor:"3,keyasint"`
			N   []byte `cbor:"-1,keyasint"`
			E   []byte `cbor:"-2,keyasint"`
		}{
			Kty: int(iana.KeyTypeRSA),
			Alg: k.COSEAlgorithm,
			N:   pk.N.Bytes(),
			E:   big.NewInt(int64(pk.E)).Bytes(),
		})
	case ed25519.PublicKey:
		return cbor.Marshal(&struct {
			Kty int    `cbor:"1,keyasint"`
			Alg int    `cbor:"3,keyasint"`
			Crv int    `cbor:"-1,keyasint"`
			X   []byte `cbor:"-2,keyasint"`
		}{
			Kty: int(iana.KeyTypeOKP),
			Alg: k.COSEAlgorithm,
			Crv: int(iana.EllipticCurveEd25519),
			X:   pk,
		})
	default:
		return nil, &UnsupportedFeatureError{Feature: fmt.Sprintf("credential public key of type %T", k.PublicKey)}
	}
}
