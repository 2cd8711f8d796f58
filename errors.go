// Copyright (c) 2026 PasskeyRP Authors. All rights reserved.
// Use of this source code is governed by Apache License 2.0 found in the LICENSE file.

package webauthn

import (
	"errors"
	"strings"
)

// ErrorKind classifies every failure the verification engine can return.
// Callers branch on KindOf(err) instead of matching error strings.
type ErrorKind int

// Error kinds.
const (
	KindUnknown ErrorKind = iota
	KindDecoding
	KindMalformedAuthenticatorData
	KindTypeMismatch
	KindChallengeMismatch
	KindOriginMismatch
	KindRelyingPartyMismatch
	KindUserNotPresent
	KindUserNotVerified
	KindMissingAttestedCredentialData
	KindUnsupportedPublicKeyAlgorithm
	KindUnsupportedAttestationFormat
	KindInvalidAttestation
	KindUnsupportedAlgorithm
	KindInvalidSignature
	KindPossibleCloneDetected
	KindCredentialIDAlreadyExists
	KindInvalidCredentialType
)

func (k ErrorKind) String() string {
	switch k {
	case KindDecoding:
		return "Decoding"
	case KindMalformedAuthenticatorData:
		return "MalformedAuthenticatorData"
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindChallengeMismatch:
		return "ChallengeMismatch"
	case KindOriginMismatch:
		return "OriginMismatch"
	case KindRelyingPartyMismatch:
		return "RelyingPartyMismatch"
	case KindUserNotPresent:
		return "UserNotPresent"
	case KindUserNotVerified:
		return "UserNotVerified"
	case KindMissingAttestedCredentialData:
		return "MissingAttestedCredentialData"
	case KindUnsupportedPublicKeyAlgorithm:
		return "UnsupportedPublicKeyAlgorithm"
	case KindUnsupportedAttestationFormat:
		return "UnsupportedAttestationFormat"
	case KindInvalidAttestation:
		return "InvalidAttestation"
	case KindUnsupportedAlgorithm:
		return "UnsupportedAlgorithm"
	case KindInvalidSignature:
		return "InvalidSignature"
	case KindPossibleCloneDetected:
		return "PossibleCloneDetected"
	case KindCredentialIDAlreadyExists:
		return "CredentialIDAlreadyExists"
	case KindInvalidCredentialType:
		return "InvalidCredentialType"
	default:
		return "Unknown"
	}
}

// KindOf returns the kind carried by err, or KindUnknown if err carries none.
func KindOf(err error) ErrorKind {
	var kinded interface{ ErrorKind() ErrorKind }
	if errors.As(err, &kinded) {
		return kinded.ErrorKind()
	}
	return KindUnknown
}

// UnmarshalSyntaxError describes a syntax error resulting from parsing webauthn data.
type UnmarshalSyntaxError struct {
	Kind  ErrorKind
	Type  string
	Field string
	Msg   string
}

func (e *UnmarshalSyntaxError) Error() string {
	if e.Field == "" {
		return "webauthn/" + transformType(e.Type) + ": failed to unmarshal: " + e.Msg
	}
	return "webauthn/" + transformType(e.Type) + ": failed to unmarshal " + e.Field + ": " + e.Msg
}

// ErrorKind returns the kind of e, defaulting to KindDecoding.
func (e *UnmarshalSyntaxError) ErrorKind() ErrorKind {
	if e.Kind != KindUnknown {
		return e.Kind
	}
	return KindDecoding
}

// UnmarshalMissingFieldError results when a required field is missing.
type UnmarshalMissingFieldError struct {
	Kind  ErrorKind
	Type  string
	Field string
}

func (e *UnmarshalMissingFieldError) Error() string {
	return "webauthn/" + transformType(e.Type) + ": missing " + e.Field
}

// ErrorKind returns the kind of e, defaulting to KindDecoding.
func (e *UnmarshalMissingFieldError) ErrorKind() ErrorKind {
	if e.Kind != KindUnknown {
		return e.Kind
	}
	return KindDecoding
}

// UnmarshalBadDataError results when invalid data is detected.
type UnmarshalBadDataError struct {
	Kind ErrorKind
	Type string
	Msg  string
}

func (e *UnmarshalBadDataError) Error() string {
	return "webauthn/" + transformType(e.Type) + ": " + e.Msg
}

// ErrorKind returns the kind of e, defaulting to KindDecoding.
func (e *UnmarshalBadDataError) ErrorKind() ErrorKind {
	if e.Kind != KindUnknown {
		return e.Kind
	}
	return KindDecoding
}

// UnsupportedFeatureError describes a feature that is not supported.
type UnsupportedFeatureError struct {
	Kind    ErrorKind
	Feature string
}

func (e *UnsupportedFeatureError) Error() string {
	return "webauthn: " + e.Feature + " is not supported"
}

// ErrorKind returns the kind of e, defaulting to KindUnsupportedAlgorithm.
func (e *UnsupportedFeatureError) ErrorKind() ErrorKind {
	if e.Kind != KindUnknown {
		return e.Kind
	}
	return KindUnsupportedAlgorithm
}

// UnregisteredFeatureError describes a feature that is not registered.
type UnregisteredFeatureError struct {
	Kind    ErrorKind
	Feature string
}

func (e *UnregisteredFeatureError) Error() string {
	return "webauthn: " + e.Feature + " is not registered"
}

// ErrorKind returns the kind of e, defaulting to KindUnsupportedAlgorithm.
func (e *UnregisteredFeatureError) ErrorKind() ErrorKind {
	if e.Kind != KindUnknown {
		return e.Kind
	}
	return KindUnsupportedAlgorithm
}

// VerificationError describes an error resulting from verifying webauthn data.
type VerificationError struct {
	Kind  ErrorKind
	Type  string
	Field string
	Msg   string
}

func (e *VerificationError) Error() string {
	s := "webauthn/" + transformType(e.Type) + ": failed to verify " + e.Field
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

// ErrorKind returns the kind of e.
func (e *VerificationError) ErrorKind() ErrorKind {
	return e.Kind
}

func transformType(typ string) string {
	return strings.Replace(strings.ToLower(typ), " ", "_", -1)
}
