// Copyright (c) 2026 PasskeyRP Authors. All rights reserved.
// Use of this source code is governed by Apache License 2.0 found in the LICENSE file.

// Package apple verifies apple anonymous attestation statements.  Importing it
// registers the "apple" format.
//
// Apple does not embed its WebAuthn root certificate here.  Callers must supply
// the Apple WebAuthn Root CA as a trust anchor, available from
// https://www.apple.com/certificateauthority/private/.
package apple

import (
	"bytes"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/passkeyrp/webauthn"
)

// Certificate extension holding the expected nonce on the credential certificate.
var oidAppleCertificateExt = asn1.ObjectIdentifier{1, 2, 840, 113635, 100, 8, 2}

type appleAttestationStatement struct {
	credCert *x509.Certificate   // Credential certificate issued for the attested key.
	caCerts  []*x509.Certificate // Credential certificate chain.
}

func parseAttestation(data []byte) (webauthn.AttestationStatement, error) {
	type rawAttStmt struct {
		X5C [][]byte `cbor:"x5c"` // Credential certificate followed by its certificate chain, in X.509 encoding.
	}

	var raw rawAttStmt
	var err error
	if err = cbor.Unmarshal(data, &raw); err != nil {
		return nil, &webauthn.UnmarshalSyntaxError{Type: "Apple attestation", Msg: err.Error()}
	}

	if len(raw.X5C) == 0 {
		return nil, &webauthn.UnmarshalMissingFieldError{Type: "Apple attestation", Field: "x5c"}
	}

	attStmt := &appleAttestationStatement{}

	for i := 0; i < len(raw.X5C); i++ {
		c, err := x509.ParseCertificate(raw.X5C[i])
		if err != nil {
			return nil, &webauthn.UnmarshalSyntaxError{Type: "Apple attestation", Field: fmt.Sprintf("x5c[%d]", i), Msg: err.Error()}
		}
		if i == 0 {
			attStmt.credCert = c
		} else {
			attStmt.caCerts = append(attStmt.caCerts, c)
		}
	}

	return attStmt, nil
}

// Verify implements the webauthn.AttestationStatement interface.  It follows
// apple attestation statement verification procedure defined in
// https://w3c.github.io/webauthn/#sctn-apple-anonymous-attestation
func (attStmt *appleAttestationStatement) Verify(clientDataHash []byte, authnData *webauthn.AuthenticatorData, roots *x509.CertPool) (attType webauthn.AttestationType, trustPath interface{}, err error) {
	// Concatenate authenticatorData and clientDataHash to form nonceToHash.
	rawAuthnData := authnData.Raw
	nonceToHash := make([]byte, len(rawAuthnData)+len(clientDataHash))
	copy(nonceToHash, rawAuthnData)
	copy(nonceToHash[len(rawAuthnData):], clientDataHash)

	// Perform SHA-256 hash of nonceToHash to produce nonce.
	nonce := sha256.Sum256(nonceToHash)

	// Verify that nonce equals the value of the extension with OID 1.2.840.113635.100.8.2
	// in credCert.
	if err = matchNonceWithCertificateExtension(attStmt.credCert, nonce[:]); err != nil {
		err = &webauthn.VerificationError{Kind: webauthn.KindInvalidAttestation, Type: "Apple attestation", Field: "certificate extension " + oidAppleCertificateExt.String(), Msg: err.Error()}
		return
	}

	// Verify that the credential public key equals the Subject Public Key of credCert.
	if !reflect.DeepEqual(attStmt.credCert.PublicKey, authnData.Key.PublicKey) {
		err = &webauthn.VerificationError{Kind: webauthn.KindInvalidAttestation, Type: "Apple attestation", Field: "certificate public key", Msg: "certificate public key does not match credential public key"}
		return
	}

	// Verify credCert by building certificate chain up to the Apple WebAuthn Root CA.
	if roots == nil {
		err = &webauthn.VerificationError{Kind: webauthn.KindInvalidAttestation, Type: "Apple attestation", Field: "certificate", Msg: "Apple WebAuthn root certificate is required"}
		return
	}
	verifyOptions := x509.VerifyOptions{Roots: roots}
	if len(attStmt.caCerts) > 0 {
		verifyOptions.Intermediates = x509.NewCertPool()
		for _, c := range attStmt.caCerts {
			verifyOptions.Intermediates.AddCert(c)
		}
	}
	var chains [][]*x509.Certificate
	if chains, err = attStmt.credCert.Verify(verifyOptions); err != nil {
		err = &webauthn.VerificationError{Kind: webauthn.KindInvalidAttestation, Type: "Apple attestation", Field: "certificate", Msg: err.Error()}
		return
	}

	// If successful, return implementation-specific values representing attestation type
	// AnonCA and attestation trust path x5c.
	return webauthn.AttestationTypeCA, chains[0], nil
}

func matchNonceWithCertificateExtension(c *x509.Certificate, nonce []byte) error {
	for _, ext := range c.Extensions {
		if ext.Id.Equal(oidAppleCertificateExt) {
			// The extension value is a single field ASN.1 sequence:
			// AppleAnonymousAttestation ::= SEQUENCE { nonce [1] EXPLICIT OCTET STRING }
			var value struct {
				Nonce []byte `asn1:"tag:1,explicit"`
			}
			if rest, err := asn1.Unmarshal(ext.Value, &value); err != nil {
				return errors.New("failed to unmarshal certificate extension: " + err.Error())
			} else if len(rest) != 0 {
				return errors.New("trailing data after certificate extension")
			}
			if !bytes.Equal(value.Nonce, nonce) {
				return errors.New("nonce does not match certificate extension")
			}
			return nil
		}
	}
	return errors.New("missing certificate extension")
}

func init() {
	webauthn.RegisterAttestationFormat("apple", parseAttestation)
}
