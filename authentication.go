// Copyright (c) 2026 PasskeyRP Authors. All rights reserved.
// Use of this source code is governed by Apache License 2.0 found in the LICENSE file.

package webauthn

import (
	"bytes"
	"fmt"
)

// ClonePolicy selects how a non-increasing signature counter is handled.
type ClonePolicy int

// Clone policies.
const (
	// ClonePolicyReject fails the authentication when the counter does not increase.
	ClonePolicyReject ClonePolicy = iota
	// ClonePolicyObserve lets the authentication succeed and sets CloneWarning on the
	// result so the Relying Party can flag the credential.
	ClonePolicyObserve
)

// AuthenticationExpectedData represents data needed to verify authentications.
type AuthenticationExpectedData struct {
	Origin            string
	RPID              string
	Challenge         []byte
	UserVerification  UserVerificationRequirement
	UserID            []byte
	UserCredentialIDs [][]byte
	PrevCounter       uint32
	Key               *COSEKey
	ClonePolicy       ClonePolicy
}

// VerifiedAuthentication is the result of a verified authentication.  The Relying Party
// stores the new sign count and acts on CloneWarning if set.
type VerifiedAuthentication struct {
	CredentialID []byte               // Raw credential ID that produced the assertion.
	SignCount    uint32               // Signature counter reported by the authenticator.
	UserVerified bool                 // User was verified during authentication.
	DeviceType   CredentialDeviceType // Single-device or multi-device, from the BE flag.
	BackedUp     bool                 // Credential is currently backed up (BS flag).
	CloneWarning bool                 // Counter did not increase under ClonePolicyObserve.
}

// VerifyAuthentication verifies an authentication ceremony response, as defined in
// http://w3c.github.io/webauthn/#sctn-verifying-assertion
func VerifyAuthentication(credentialAssertion *PublicKeyCredentialAssertion, expected *AuthenticationExpectedData) (*VerifiedAuthentication, error) {
	// Verify that credential.id identifies one of the public key credentials listed in
	// options.allowCredentials.
	if len(expected.UserCredentialIDs) > 0 {
		found := false
		for _, id := range expected.UserCredentialIDs {
			if bytes.Equal(id, credentialAssertion.RawID) {
				found = true
				break
			}
		}
		if !found {
			return nil, &VerificationError{Type: "authentication", Field: "credential ID", Msg: "credential ID is not allowed"}
		}
	}

	// Verify that userHandle also is the owner of the public key credential.
	if len(credentialAssertion.UserHandle) > 0 {
		if !bytes.Equal(credentialAssertion.UserHandle, expected.UserID) {
			return nil, &VerificationError{Type: "authentication", Field: "user handle", Msg: fmt.Sprintf("expected %02x, got %02x", expected.UserID, credentialAssertion.UserHandle)}
		}
	}

	// Verify client data type, challenge, and origin.
	if err := credentialAssertion.ClientData.verify(ceremonyGet, expected.Challenge, expected.Origin); err != nil {
		return nil, err
	}

	authnData := credentialAssertion.AuthnData

	// Verify that the rpIdHash in authData is the SHA-256 hash of the RP ID expected by the Relying Party.
	if err := authnData.VerifyRPIDHash(expected.RPID); err != nil {
		return nil, err
	}

	// Verify that the User Present bit of the flags in authData is set.
	if !authnData.Flags.UserPresent() {
		return nil, &VerificationError{Kind: KindUserNotPresent, Type: "authentication", Field: "user present", Msg: "user wasn't present"}
	}

	// If user verification is required for this authentication, verify that the User Verified
	// bit of the flags in authData is set.
	if expected.UserVerification == UserVerificationRequired && !authnData.Flags.UserVerified() {
		return nil, &VerificationError{Kind: KindUserNotVerified, Type: "authentication", Field: "user verification", Msg: "user didn't verify"}
	}

	// Using the credential public key, verify that sig is a valid signature over the binary
	// concatenation of authData and hash.
	if err := credentialAssertion.verifySignature(expected.Key); err != nil {
		return nil, err
	}

	result := &VerifiedAuthentication{
		CredentialID: credentialAssertion.RawID,
		SignCount:    authnData.Counter,
		UserVerified: authnData.Flags.UserVerified(),
		DeviceType:   authnData.Flags.DeviceType(),
		BackedUp:     authnData.Flags.BackedUp(),
	}

	// Verify that authData.signCount does not roll back.  When both counters are zero the
	// authenticator doesn't implement a counter and no inference is made.
	if authnData.Counter != 0 || expected.PrevCounter != 0 {
		if authnData.Counter <= expected.PrevCounter {
			if expected.ClonePolicy == ClonePolicyObserve {
				result.CloneWarning = true
			} else {
				return nil, &VerificationError{Kind: KindPossibleCloneDetected, Type: "authentication", Field: "counter", Msg: "cloned authenticator is detected"}
			}
		}
	}

	return result, nil
}
