// Copyright (c) 2026 PasskeyRP Authors. All rights reserved.
// Use of this source code is governed by Apache License 2.0 found in the LICENSE file.

package webauthn

import (
	"crypto/rand"
	"crypto/x509"
	"errors"
	"io"
	"net/url"
	"strconv"
	"strings"
)

// Config represents Relying Party settings used to create ceremony options and to verify
// ceremony responses.  Zero value Config is not valid; New applies defaults before
// validating.
type Config struct {
	ChallengeLength         int
	Timeout                 uint64
	RPID                    string
	RPName                  string
	RPOrigin                string
	AuthenticatorAttachment AuthenticatorAttachment
	ResidentKey             ResidentKeyRequirement
	UserVerification        UserVerificationRequirement
	Attestation             AttestationConveyancePreference
	AttestationPolicy       AttestationPolicy
	ClonePolicy             ClonePolicy
	CredentialAlgs          []int
	TrustedRoots            map[string]*x509.CertPool
	Rand                    io.Reader
}

const defaultTimeout = uint64(60000)

// applyDefaults fills unset optional settings.
func (c *Config) applyDefaults() {
	if c.ChallengeLength == 0 {
		c.ChallengeLength = DefaultChallengeLength
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.ResidentKey == "" {
		c.ResidentKey = ResidentKeyPreferred
	}
	if c.UserVerification == "" {
		c.UserVerification = UserVerificationPreferred
	}
	if c.Attestation == "" {
		c.Attestation = AttestationNone
	}
	if len(c.CredentialAlgs) == 0 {
		c.CredentialAlgs = []int{COSEAlgES256, COSEAlgEdDSA, COSEAlgRS256}
	}
	if c.Rand == nil {
		c.Rand = rand.Reader
	}
}

// Valid checks Config settings and returns error if it is invalid.
func (c *Config) Valid() error {
	if c.RPName == "" {
		return errors.New("rp name is required")
	}
	if c.RPID == "" {
		return errors.New("rp id is required")
	}
	if _, err := url.Parse(c.RPID); err != nil {
		return errors.New("rp id " + c.RPID + " is not a valid URI: " + err.Error())
	}
	if c.RPOrigin == "" {
		return errors.New("rp origin is required")
	}
	if u, err := url.Parse(c.RPOrigin); err != nil {
		return errors.New("rp origin " + c.RPOrigin + " is not a valid URL: " + err.Error())
	} else if u.Scheme == "" || u.Host == "" {
		return errors.New("rp origin " + c.RPOrigin + " must include scheme and host")
	} else if u.Hostname() != c.RPID && !strings.HasSuffix(u.Hostname(), "."+c.RPID) {
		return errors.New("rp id " + c.RPID + " is not a registrable suffix of rp origin " + c.RPOrigin)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be a positive number")
	}
	if c.ChallengeLength < challengeMinLength {
		return errors.New("challenge must be at least " + strconv.Itoa(challengeMinLength) + " bytes long")
	}
	if c.ChallengeLength > challengeMaxLength {
		return errors.New("challenge must be no more than " + strconv.Itoa(challengeMaxLength) + " bytes long")
	}
	if c.AuthenticatorAttachment != "" &&
		c.AuthenticatorAttachment != AuthenticatorPlatform &&
		c.AuthenticatorAttachment != AuthenticatorCrossPlatform {
		return errors.New("authenticator attachment must be \"\", \"platform\", or \"cross-platform\"")
	}
	if c.ResidentKey != ResidentKeyRequired &&
		c.ResidentKey != ResidentKeyPreferred &&
		c.ResidentKey != ResidentKeyDiscouraged {
		return errors.New("resident key must be \"required\", \"preferred\", or \"discouraged\"")
	}
	if c.UserVerification != UserVerificationRequired &&
		c.UserVerification != UserVerificationPreferred &&
		c.UserVerification != UserVerificationDiscouraged {
		return errors.New("user verification must be \"required\", \"preferred\", or \"discouraged\"")
	}
	if c.Attestation != AttestationNone &&
		c.Attestation != AttestationIndirect &&
		c.Attestation != AttestationDirect {
		return errors.New("attestation must be \"none\", \"indirect\", or \"direct\"")
	}
	if c.AttestationPolicy != AttestationPolicyStrict && c.AttestationPolicy != AttestationPolicySelf {
		return errors.New("attestation policy must be strict or self")
	}
	if c.ClonePolicy != ClonePolicyReject && c.ClonePolicy != ClonePolicyObserve {
		return errors.New("clone policy must be reject or observe")
	}
	if len(c.CredentialAlgs) == 0 {
		return errors.New("there must be at least one credential algorithm")
	}
	for _, alg := range c.CredentialAlgs {
		if !signatureAlgorithmRegistered(alg) {
			return errors.New("credential algorithm " + strconv.Itoa(alg) + " is not registered")
		}
	}

	return nil
}
