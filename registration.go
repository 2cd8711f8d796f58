// Copyright (c) 2026 PasskeyRP Authors. All rights reserved.
// Use of this source code is governed by Apache License 2.0 found in the LICENSE file.

package webauthn

import (
	"bytes"
	"context"
	"crypto/x509"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// CredentialExistsFunc reports whether credentialID is already registered.
// It is typically backed by a credential store lookup.
type CredentialExistsFunc func(ctx context.Context, credentialID []byte) (bool, error)

// RegistrationExpectedData represents data needed to verify registrations.
type RegistrationExpectedData struct {
	Origin           string
	RPID             string
	CredentialAlgs   []int
	Challenge        []byte
	UserVerification UserVerificationRequirement
	Attestation      AttestationPolicy
	TrustedRoots     map[string]*x509.CertPool
	CredentialExists CredentialExistsFunc
}

// Credential is the result of a verified registration.  The Relying Party persists it
// and supplies it back when verifying authentications.
type Credential struct {
	ID              string          // Base64url encoded credential ID.
	RawID           []byte          // Raw credential ID.
	AAGUID          uuid.UUID       // AAGUID of the authenticator that created the credential.
	PublicKey       []byte          // Credential public key in COSE_Key format.
	Key             *COSEKey        // Decoded credential public key.
	SignCount       uint32          // Signature counter at registration time.
	BackupEligible  bool            // Credential may be backed up (BE flag).
	BackedUp        bool            // Credential is currently backed up (BS flag).
	UserVerified    bool            // User was verified during registration.
	AttestationType AttestationType // Trust model of the verified attestation statement.
	TrustPath       interface{}     // Certificate chain or other trust material from the statement.
	RawAttestation  []byte          // Raw attestation object, kept for audit.
	RawClientData   []byte          // Raw clientDataJSON, kept for audit.
}

// VerifyRegistration verifies a registration ceremony response, as defined in
// http://w3c.github.io/webauthn/#sctn-registering-a-new-credential
//
// The CredentialExists callback, when set, runs after all cryptographic checks and is
// called at most once.  ctx is passed through to it unchanged.
func VerifyRegistration(ctx context.Context, credentialAttestation *PublicKeyCredentialAttestation, expected *RegistrationExpectedData) (*Credential, error) {
	// Verify client data type, challenge, and origin.
	if err := credentialAttestation.ClientData.verify(ceremonyCreate, expected.Challenge, expected.Origin); err != nil {
		return nil, err
	}

	authnData := credentialAttestation.AuthnData

	// Verify that attested credential data is present.
	if !authnData.Flags.AttestedCredentialData() || authnData.Key == nil {
		return nil, &VerificationError{Kind: KindMissingAttestedCredentialData, Type: "registration", Field: "attested credential data", Msg: "authenticator data has no attested credential data"}
	}

	// Verify that authData's credential id matches the credential's raw id.
	if !bytes.Equal(credentialAttestation.RawID, authnData.CredentialID) {
		return nil, &VerificationError{Kind: KindDecoding, Type: "registration", Field: "credential ID", Msg: "attestation's raw ID does not match credential ID"}
	}

	// Verify that the rpIdHash in authData is the SHA-256 hash of the RP ID expected by the Relying Party.
	if err := authnData.VerifyRPIDHash(expected.RPID); err != nil {
		return nil, err
	}

	// Verify that the User Present bit of the flags in authData is set.
	if !authnData.Flags.UserPresent() {
		return nil, &VerificationError{Kind: KindUserNotPresent, Type: "registration", Field: "user present", Msg: "user wasn't present"}
	}

	// If user verification is required for this registration, verify that the User Verified bit
	// of the flags in authData is set.
	if expected.UserVerification == UserVerificationRequired && !authnData.Flags.UserVerified() {
		return nil, &VerificationError{Kind: KindUserNotVerified, Type: "registration", Field: "user verification", Msg: "user didn't verify"}
	}

	// Verify that the "alg" parameter in the credential public key in authData matches the alg
	// attribute of one of the items in options.pubKeyCredParams.
	if !lo.Contains(expected.CredentialAlgs, authnData.Key.COSEAlgorithm) {
		return nil, &VerificationError{Kind: KindUnsupportedPublicKeyAlgorithm, Type: "registration", Field: "credential algorithm", Msg: "credential algorithm is not among options.pubKeyCredParams"}
	}

	// Verify the attestation statement according to the Relying Party's policy.
	attType, trustPath, err := credentialAttestation.VerifyAttestationStatement(expected.Attestation, expected.TrustedRoots)
	if err != nil {
		return nil, err
	}

	credential := &Credential{
		ID:              credentialAttestation.ID,
		RawID:           credentialAttestation.RawID,
		AAGUID:          authnData.AAGUID,
		PublicKey:       authnData.Key.Raw,
		Key:             authnData.Key,
		SignCount:       authnData.Counter,
		BackupEligible:  authnData.Flags.BackupEligible(),
		BackedUp:        authnData.Flags.BackedUp(),
		UserVerified:    authnData.Flags.UserVerified(),
		AttestationType: attType,
		TrustPath:       trustPath,
		RawAttestation:  credentialAttestation.Raw,
		RawClientData:   credentialAttestation.ClientData.Raw,
	}

	// Verify that the credential id is not registered to another user.  This runs last so
	// the store lookup is only paid for responses that passed every cryptographic check.
	if expected.CredentialExists != nil {
		exists, err := expected.CredentialExists(ctx, credential.RawID)
		if err != nil {
			return nil, fmt.Errorf("webauthn/registration: credential id lookup: %w", err)
		}
		if exists {
			return nil, &VerificationError{Kind: KindCredentialIDAlreadyExists, Type: "registration", Field: "credential ID", Msg: "credential ID is already registered"}
		}
	}

	return credential, nil
}
