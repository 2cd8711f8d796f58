// Copyright (c) 2026 PasskeyRP Authors. All rights reserved.
// Use of this source code is governed by Apache License 2.0 found in the LICENSE file.

package webauthn

import (
	"crypto"
	"crypto/x509"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/ldclabs/cose/iana"
)

// Supported COSE algorithm identifiers registered in the IANA COSE Algorithms registry.
const (
	COSEAlgES256 = int(iana.AlgorithmES256) // ECDSA with SHA-256
	COSEAlgES384 = int(iana.AlgorithmES384) // ECDSA with SHA-384
	COSEAlgES512 = int(iana.AlgorithmES512) // ECDSA with SHA-512
	COSEAlgEdDSA = int(iana.AlgorithmEdDSA) // EdDSA with Ed25519
	COSEAlgPS256 = int(iana.AlgorithmPS256) // RSASSA-PSS with SHA-256
	COSEAlgPS384 = int(iana.AlgorithmPS384) // RSASSA-PSS with SHA-384
	COSEAlgPS512 = int(iana.AlgorithmPS512) // RSASSA-PSS with SHA-512
	COSEAlgRS1   = int(iana.AlgorithmRS1)   // RSASSA-PKCS1-v1_5 with SHA-1
	COSEAlgRS256 = int(iana.AlgorithmRS256) // RSASSA-PKCS1-v1_5 with SHA-256
	COSEAlgRS384 = int(iana.AlgorithmRS384) // RSASSA-PKCS1-v1_5 with SHA-384
	COSEAlgRS512 = int(iana.AlgorithmRS512) // RSASSA-PKCS1-v1_5 with SHA-512
)

// SignatureAlgorithm represents signature algorithm, and its corresponding public key algorithm,
// hash function, and COSE algorithm identifier.
type SignatureAlgorithm struct {
	Algorithm          x509.SignatureAlgorithm
	PublicKeyAlgorithm x509.PublicKeyAlgorithm
	Hash               crypto.Hash
	COSEAlgorithm      int
}

// IsRSA returns if signature algorithm uses RSA public key.
func (alg SignatureAlgorithm) IsRSA() bool {
	return alg.PublicKeyAlgorithm == x509.RSA
}

// IsRSAPSS returns if signature algorithm uses RSAPSS public key.
func (alg SignatureAlgorithm) IsRSAPSS() bool {
	switch alg.Algorithm {
	case x509.SHA256WithRSAPSS, x509.SHA384WithRSAPSS, x509.SHA512WithRSAPSS:
		return true
	default:
		return false
	}
}

// IsECDSA returns if signature algorithm uses ECDSA public key.
func (alg SignatureAlgorithm) IsECDSA() bool {
	return alg.PublicKeyAlgorithm == x509.ECDSA
}

// IsEdDSA returns if signature algorithm uses Ed25519 public key.
func (alg SignatureAlgorithm) IsEdDSA() bool {
	return alg.PublicKeyAlgorithm == x509.Ed25519
}

// CoseAlgToSignatureAlgorithm returns signature algorithm of given COSE algorithm identifier.
func CoseAlgToSignatureAlgorithm(coseAlg int) (SignatureAlgorithm, error) {
	algs, _ := atomicCOSEAlgorithms.Load().([]SignatureAlgorithm)
	for _, alg := range algs {
		if alg.COSEAlgorithm == coseAlg {
			return alg, nil
		}
	}
	return SignatureAlgorithm{}, &UnregisteredFeatureError{Feature: "COSE algorithm " + strconv.Itoa(coseAlg)}
}

var (
	coseAlgorithmsMu     sync.Mutex
	atomicCOSEAlgorithms atomic.Value
)

// RegisterSignatureAlgorithm registers the given COSE algorithm identifier with corresponding
// signature algorithm, public key algorithm, and hash function.
func RegisterSignatureAlgorithm(coseAlg int, sigAlg x509.SignatureAlgorithm, pkAlg x509.PublicKeyAlgorithm, hash crypto.Hash) {
	registered := false
	coseAlgorithmsMu.Lock()
	algs, _ := atomicCOSEAlgorithms.Load().([]SignatureAlgorithm)
	for i := 0; i < len(algs); i++ {
		if algs[i].COSEAlgorithm == coseAlg {
			algs[i] = SignatureAlgorithm{sigAlg, pkAlg, hash, coseAlg}
			registered = true
			break
		}
	}
	if registered {
		atomicCOSEAlgorithms.Store(algs)
	} else {
		atomicCOSEAlgorithms.Store(append(algs, SignatureAlgorithm{sigAlg, pkAlg, hash, coseAlg}))
	}
	coseAlgorithmsMu.Unlock()
}

// UnregisterSignatureAlgorithm unregisters the given COSE algorithm.
func UnregisterSignatureAlgorithm(coseAlg int) {
	coseAlgorithmsMu.Lock()
	algs, _ := atomicCOSEAlgorithms.Load().([]SignatureAlgorithm)
	for i := 0; i < len(algs); i++ {
		if algs[i].COSEAlgorithm == coseAlg {
			atomicCOSEAlgorithms.Store(append(algs[:i], algs[i+1:]...))
			break
		}
	}
	coseAlgorithmsMu.Unlock()
}

// signatureAlgorithmRegistered returns if the given COSE algorithm is registered.
func signatureAlgorithmRegistered(coseAlg int) bool {
	algs, _ := atomicCOSEAlgorithms.Load().([]SignatureAlgorithm)
	for _, alg := range algs {
		if alg.COSEAlgorithm == coseAlg {
			return true
		}
	}
	return false
}

func init() {
	RegisterSignatureAlgorithm(COSEAlgES256, x509.ECDSAWithSHA256, x509.ECDSA, crypto.SHA256)
	RegisterSignatureAlgorithm(COSEAlgES384, x509.ECDSAWithSHA384, x509.ECDSA, crypto.SHA384)
	RegisterSignatureAlgorithm(COSEAlgES512, x509.ECDSAWithSHA512, x509.ECDSA, crypto.SHA512)
	RegisterSignatureAlgorithm(COSEAlgEdDSA, x509.PureEd25519, x509.Ed25519, crypto.Hash(0))
	RegisterSignatureAlgorithm(COSEAlgPS256, x509.SHA256WithRSAPSS, x509.RSA, crypto.SHA256)
	RegisterSignatureAlgorithm(COSEAlgPS384, x509.SHA384WithRSAPSS, x509.RSA, crypto.SHA384)
	RegisterSignatureAlgorithm(COSEAlgPS512, x509.SHA512WithRSAPSS, x509.RSA, crypto.SHA512)
	RegisterSignatureAlgorithm(COSEAlgRS1, x509.SHA1WithRSA, x509.RSA, crypto.SHA1)
	RegisterSignatureAlgorithm(COSEAlgRS256, x509.SHA256WithRSA, x509.RSA, crypto.SHA256)
	RegisterSignatureAlgorithm(COSEAlgRS384, x509.SHA384WithRSA, x509.RSA, crypto.SHA384)
	RegisterSignatureAlgorithm(COSEAlgRS512, x509.SHA512WithRSA, x509.RSA, crypto.SHA512)
}
