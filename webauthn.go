// Copyright (c) 2026 PasskeyRP Authors. All rights reserved.
// Use of this source code is governed by Apache License 2.0 found in the LICENSE file.

/*
Package webauthn verifies Web Authentication registration and authentication
ceremonies on the server side.  It is decoupled from `net/http` for easy
integration with existing projects.

The engine is modular so projects only import what is needed.  Attestation
statement formats live in their own subpackages: packed, fidou2f,
androidkeystore, androidsafetynet, tpm, and apple.  Importing a format
subpackage registers it.

Every failure is returned as a typed error carrying an ErrorKind, so callers
classify outcomes with KindOf instead of matching error strings.
*/
package webauthn

import (
	"context"
	"encoding/json"
	"errors"
	"io"
)

// User represents user data for which the Relying Party requests a registration or
// authentication ceremony.
type User struct {
	ID            []byte
	Name          string
	DisplayName   string
	CredentialIDs [][]byte
}

// RelyingParty verifies ceremonies with settings from a validated Config.
type RelyingParty struct {
	config *Config
}

// New returns a RelyingParty using config with defaults applied.  config is copied and
// may be reused by the caller.
func New(config *Config) (*RelyingParty, error) {
	cfg := *config
	cfg.applyDefaults()
	if err := cfg.Valid(); err != nil {
		return nil, err
	}
	return &RelyingParty{config: &cfg}, nil
}

// Config returns the validated configuration the RelyingParty operates with.
func (rp *RelyingParty) Config() *Config {
	return rp.config
}

// BeginRegistration returns creation options with a fresh challenge for user.  The
// caller keeps options.Challenge in the session for FinishRegistration.
func (rp *RelyingParty) BeginRegistration(user *User) (*PublicKeyCredentialCreationOptions, error) {
	if len(user.Name) == 0 {
		return nil, errors.New("user name is required")
	}
	if len(user.ID) == 0 {
		return nil, errors.New("user id is required")
	}
	if len(user.DisplayName) == 0 {
		return nil, errors.New("user display name is required")
	}

	challenge, err := newChallenge(rp.config.Rand, rp.config.ChallengeLength)
	if err != nil {
		return nil, err
	}

	var excludeCredentials []PublicKeyCredentialDescriptor
	for _, id := range user.CredentialIDs {
		excludeCredentials = append(excludeCredentials, PublicKeyCredentialDescriptor{Type: PublicKeyCredentialTypePublicKey, ID: id})
	}

	var credentialParams []PublicKeyCredentialParameters
	for _, alg := range rp.config.CredentialAlgs {
		credentialParams = append(credentialParams, PublicKeyCredentialParameters{PublicKeyCredentialTypePublicKey, alg})
	}

	options := &PublicKeyCredentialCreationOptions{
		RP: PublicKeyCredentialRpEntity{
			Name: rp.config.RPName,
			ID:   rp.config.RPID,
		},
		User: PublicKeyCredentialUserEntity{
			Name:        user.Name,
			ID:          user.ID,
			DisplayName: user.DisplayName,
		},
		Challenge:          challenge,
		PubKeyCredParams:   credentialParams,
		Timeout:            rp.config.Timeout,
		ExcludeCredentials: excludeCredentials,
		AuthenticatorSelection: AuthenticatorSelectionCriteria{
			AuthenticatorAttachment: rp.config.AuthenticatorAttachment,
			RequireResidentKey:      rp.config.ResidentKey == ResidentKeyRequired,
			ResidentKey:             rp.config.ResidentKey,
			UserVerification:        rp.config.UserVerification,
		},
		Attestation: rp.config.Attestation,
	}

	return options, nil
}

// FinishRegistration verifies a registration response against the challenge saved by
// BeginRegistration and returns the credential to persist.  exists, when non-nil, is
// consulted once after all cryptographic checks to guarantee credential ID uniqueness.
func (rp *RelyingParty) FinishRegistration(ctx context.Context, credentialAttestation *PublicKeyCredentialAttestation, challenge []byte, exists CredentialExistsFunc) (*Credential, error) {
	expected := &RegistrationExpectedData{
		Origin:           rp.config.RPOrigin,
		RPID:             rp.config.RPID,
		CredentialAlgs:   rp.config.CredentialAlgs,
		Challenge:        challenge,
		UserVerification: rp.config.UserVerification,
		Attestation:      rp.config.AttestationPolicy,
		TrustedRoots:     rp.config.TrustedRoots,
		CredentialExists: exists,
	}
	return VerifyRegistration(ctx, credentialAttestation, expected)
}

// BeginAuthentication returns request options with a fresh challenge.  user may carry
// the credential IDs allowed for this ceremony.  The caller keeps options.Challenge in
// the session for FinishAuthentication.
func (rp *RelyingParty) BeginAuthentication(user *User) (*PublicKeyCredentialRequestOptions, error) {
	challenge, err := newChallenge(rp.config.Rand, rp.config.ChallengeLength)
	if err != nil {
		return nil, err
	}

	var allowCredentials []PublicKeyCredentialDescriptor
	for _, id := range user.CredentialIDs {
		allowCredentials = append(allowCredentials, PublicKeyCredentialDescriptor{Type: PublicKeyCredentialTypePublicKey, ID: id})
	}

	options := &PublicKeyCredentialRequestOptions{
		Challenge:        challenge,
		Timeout:          rp.config.Timeout,
		RPID:             rp.config.RPID,
		AllowCredentials: allowCredentials,
		UserVerification: rp.config.UserVerification,
	}

	return options, nil
}

// FinishAuthentication verifies an authentication response against the challenge saved
// by BeginAuthentication and the stored credential, and returns the verified result
// with the new sign count.
func (rp *RelyingParty) FinishAuthentication(credentialAssertion *PublicKeyCredentialAssertion, challenge []byte, user *User, credential *Credential) (*VerifiedAuthentication, error) {
	key := credential.Key
	if key == nil {
		var err error
		if key, _, err = ParseCOSEKey(credential.PublicKey); err != nil {
			return nil, err
		}
	}

	expected := &AuthenticationExpectedData{
		Origin:            rp.config.RPOrigin,
		RPID:              rp.config.RPID,
		Challenge:         challenge,
		UserVerification:  rp.config.UserVerification,
		UserID:            user.ID,
		UserCredentialIDs: [][]byte{credential.RawID},
		PrevCounter:       credential.SignCount,
		Key:               key,
		ClonePolicy:       rp.config.ClonePolicy,
	}
	return VerifyAuthentication(credentialAssertion, expected)
}

// ParseRegistration parses a registration ceremony response produced by
// navigator.credentials.create().
func ParseRegistration(r io.Reader) (*PublicKeyCredentialAttestation, error) {
	var credentialAttestation PublicKeyCredentialAttestation
	if err := json.NewDecoder(r).Decode(&credentialAttestation); err != nil {
		return nil, err
	}
	return &credentialAttestation, nil
}

// ParseAuthentication parses an authentication ceremony response produced by
// navigator.credentials.get().
func ParseAuthentication(r io.Reader) (*PublicKeyCredentialAssertion, error) {
	var credentialAssertion PublicKeyCredentialAssertion
	if err := json.NewDecoder(r).Decode(&credentialAssertion); err != nil {
		return nil, err
	}
	return &credentialAssertion, nil
}
