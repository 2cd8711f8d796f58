// Copyright (c) 2026 PasskeyRP Authors. All rights reserved.
// Use of this source code is governed by Apache License 2.0 found in the LICENSE file.

package webauthn

import (
	"crypto"
	"crypto/x509"
	"errors"
	"strings"
	"testing"
)

func TestSignatureAlgorithm(t *testing.T) {
	testCases := []struct {
		coseAlg       int
		wantSigAlg    x509.SignatureAlgorithm
		wantPubKeyAlg x509.PublicKeyAlgorithm
		wantHash      crypto.Hash
		wantIsRSA     bool
		wantIsRSAPSS  bool
		wantIsECDSA   bool
		wantIsEdDSA   bool
	}{
		{COSEAlgES256, x509.ECDSAWithSHA256, x509.ECDSA, crypto.SHA256, false, false, true, false},
		{COSEAlgES384, x509.ECDSAWithSHA384, x509.ECDSA, crypto.SHA384, false, false, true, false},
		{COSEAlgES512, x509.ECDSAWithSHA512, x509.ECDSA, crypto.SHA512, false, false, true, false},
		{COSEAlgEdDSA, x509.PureEd25519, x509.Ed25519, crypto.Hash(0), false, false, false, true},
		{COSEAlgPS256, x509.SHA256WithRSAPSS, x509.RSA, crypto.SHA256, true, true, false, false},
		{COSEAlgPS384, x509.SHA384WithRSAPSS, x509.RSA, crypto.SHA384, true, true, false, false},
		{COSEAlgPS512, x509.SHA512WithRSAPSS, x509.RSA, crypto.SHA512, true, true, false, false},
		{COSEAlgRS1, x509.SHA1WithRSA, x509.RSA, crypto.SHA1, true, false, false, false},
		{COSEAlgRS256, x509.SHA256WithRSA, x509.RSA, crypto.SHA256, true, false, false, false},
		{COSEAlgRS384, x509.SHA384WithRSA, x509.RSA, crypto.SHA384, true, false, false, false},
		{COSEAlgRS512, x509.SHA512WithRSA, x509.RSA, crypto.SHA512, true, false, false, false},
	}

	for _, tc := range testCases {
		if sigAlg, err := CoseAlgToSignatureAlgorithm(tc.coseAlg); err != nil {
			t.Errorf("CoseAlgToSignatureAlgorithm(%d) returns error %q", tc.coseAlg, err)
		} else {
			if sigAlg.Algorithm != tc.wantSigAlg {
				t.Errorf("CoseAlgToSignatureAlgorithm(%d).Algorithm = %s, want %s", tc.coseAlg, sigAlg.Algorithm, tc.wantSigAlg)
			}
			if sigAlg.PublicKeyAlgorithm != tc.wantPubKeyAlg {
				t.Errorf("CoseAlgToSignatureAlgorithm(%d).PublicKeyAlgorithm = %s, want %s", tc.coseAlg, sigAlg.PublicKeyAlgorithm, tc.wantPubKeyAlg)
			}
			if sigAlg.Hash != tc.wantHash {
				t.Errorf("CoseAlgToSignatureAlgorithm(%d).Hash = %v, want %v", tc.coseAlg, sigAlg.Hash, tc.wantHash)
			}
			if sigAlg.IsRSA() != tc.wantIsRSA {
				t.Errorf("CoseAlgToSignatureAlgorithm(%d).IsRSA() = %t, want %t", tc.coseAlg, sigAlg.IsRSA(), tc.wantIsRSA)
			}
			if sigAlg.IsRSAPSS() != tc.wantIsRSAPSS {
				t.Errorf("CoseAlgToSignatureAlgorithm(%d).IsRSAPSS() = %t, want %t", tc.coseAlg, sigAlg.IsRSAPSS(), tc.wantIsRSAPSS)
			}
			if sigAlg.IsECDSA() != tc.wantIsECDSA {
				t.Errorf("CoseAlgToSignatureAlgorithm(%d).IsECDSA() = %t, want %t", tc.coseAlg, sigAlg.IsECDSA(), tc.wantIsECDSA)
			}
			if sigAlg.IsEdDSA() != tc.wantIsEdDSA {
				t.Errorf("CoseAlgToSignatureAlgorithm(%d).IsEdDSA() = %t, want %t", tc.coseAlg, sigAlg.IsEdDSA(), tc.wantIsEdDSA)
			}
			if !signatureAlgorithmRegistered(tc.coseAlg) {
				t.Errorf("signatureAlgorithmRegistered(%d) returns false, want true", tc.coseAlg)
			}
		}
	}
}

func TestRegisterAndUnregisterSignatureAlgorithm(t *testing.T) {
	coseAlgTest := -70001 // private use range

	RegisterSignatureAlgorithm(coseAlgTest, x509.SHA1WithRSA, x509.RSA, crypto.SHA1)

	if sigAlg, err := CoseAlgToSignatureAlgorithm(coseAlgTest); err != nil {
		t.Errorf("CoseAlgToSignatureAlgorithm(%d) returns error %q", coseAlgTest, err)
	} else {
		if sigAlg.Algorithm != x509.SHA1WithRSA {
			t.Errorf("CoseAlgToSignatureAlgorithm(%d).Algorithm = %s, want %s", coseAlgTest, sigAlg.Algorithm, x509.SHA1WithRSA)
		}
		if sigAlg.PublicKeyAlgorithm != x509.RSA {
			t.Errorf("CoseAlgToSignatureAlgorithm(%d).PublicKeyAlgorithm = %s, want %s", coseAlgTest, sigAlg.PublicKeyAlgorithm, x509.RSA)
		}
		if sigAlg.Hash != crypto.SHA1 {
			t.Errorf("CoseAlgToSignatureAlgorithm(%d).Hash = %v, want %v", coseAlgTest, sigAlg.Hash, crypto.SHA1)
		}
	}

	if !signatureAlgorithmRegistered(coseAlgTest) {
		t.Errorf("signatureAlgorithmRegistered(%d) returns false, want true", coseAlgTest)
	}

	UnregisterSignatureAlgorithm(coseAlgTest)

	if _, err := CoseAlgToSignatureAlgorithm(coseAlgTest); err == nil {
		t.Errorf("CoseAlgToSignatureAlgorithm(%d) returns no error, want unregistered feature error", coseAlgTest)
	}

	if signatureAlgorithmRegistered(coseAlgTest) {
		t.Errorf("signatureAlgorithmRegistered(%d) returns true, want false", coseAlgTest)
	}
}

func TestUnregisteredSignatureAlgorithm(t *testing.T) {
	coseAlgUnknown := -99999

	_, err := CoseAlgToSignatureAlgorithm(coseAlgUnknown)
	if err == nil {
		t.Fatalf("CoseAlgToSignatureAlgorithm(%d) returns no error, want unregistered feature error", coseAlgUnknown)
	}
	if !strings.Contains(err.Error(), "COSE algorithm -99999") {
		t.Errorf("CoseAlgToSignatureAlgorithm(%d) returns error %q, want error containing substring \"COSE algorithm -99999\"", coseAlgUnknown, err)
	}
	var unregisteredErr *UnregisteredFeatureError
	if !errors.As(err, &unregisteredErr) {
		t.Errorf("CoseAlgToSignatureAlgorithm(%d) returns error of type %T, want *UnregisteredFeatureError", coseAlgUnknown, err)
	}
}
