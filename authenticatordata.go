// Copyright (c) 2026 PasskeyRP Authors. All rights reserved.
// Use of this source code is governed by Apache License 2.0 found in the LICENSE file.

package webauthn

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// Flags is the flags byte of authenticator data,
// as defined in http://w3c.github.io/webauthn/#sctn-authenticator-data
type Flags byte

// UserPresent returns if the UP bit (0) is set.
func (f Flags) UserPresent() bool {
	return f&0x01 != 0
}

// UserVerified returns if the UV bit (2) is set.
func (f Flags) UserVerified() bool {
	return f&0x04 != 0
}

// BackupEligible returns if the BE bit (3) is set.
func (f Flags) BackupEligible() bool {
	return f&0x08 != 0
}

// BackedUp returns if the BS bit (4) is set.
func (f Flags) BackedUp() bool {
	return f&0x10 != 0
}

// AttestedCredentialData returns if the AT bit (6) is set.
func (f Flags) AttestedCredentialData() bool {
	return f&0x40 != 0
}

// Extensions returns if the ED bit (7) is set.
func (f Flags) Extensions() bool {
	return f&0x80 != 0
}

// CredentialDeviceType classifies the authenticator that produced a credential.
// Backup eligible credentials are synced across devices.
type CredentialDeviceType string

// Credential device types.
const (
	DeviceTypeSingleDevice CredentialDeviceType = "single-device"
	DeviceTypeMultiDevice  CredentialDeviceType = "multi-device"
)

// DeviceType returns the credential device type implied by the BE bit.
func (f Flags) DeviceType() CredentialDeviceType {
	if f.BackupEligible() {
		return DeviceTypeMultiDevice
	}
	return DeviceTypeSingleDevice
}

// AuthenticatorData represents the Web Authentication structure of the same name,
// as defined in http://w3c.github.io/webauthn/#sctn-authenticator-data
type AuthenticatorData struct {
	Raw          []byte                 // Complete raw authenticator data content.
	RPIDHash     []byte                 // SHA-256 hash of the RP ID the credential is scoped to.
	Flags        Flags                  // Authenticator data flags.
	Counter      uint32                 // Signature counter.
	AAGUID       uuid.UUID              // AAGUID of the authenticator (zero when no attested credential data).
	CredentialID []byte                 // Identifier of a public key credential source (optional).
	Key          *COSEKey               // Public key portion of a Relying Party-specific credential key pair (optional).
	Extensions   map[string]interface{} // Extension-defined authenticator data (optional).
}

// VerifyRPIDHash verifies that the rpIdHash is the SHA-256 hash of rpID.
func (authnData *AuthenticatorData) VerifyRPIDHash(rpID string) error {
	computedRPIDHash := sha256.Sum256([]byte(rpID))
	if !bytes.Equal(authnData.RPIDHash, computedRPIDHash[:]) {
		return &VerificationError{Kind: KindRelyingPartyMismatch, Type: "authenticator data", Field: "rp ID", Msg: "rp ID hash does not match computed rp ID hash"}
	}
	return nil
}

// parseAuthenticatorData parses authenticator data and consumes all of data.
// Trailing bytes not accounted for by the flags are rejected.
func parseAuthenticatorData(data []byte) (authnData *AuthenticatorData, err error) {
	if len(data) < 37 {
		return nil, &UnmarshalSyntaxError{Kind: KindMalformedAuthenticatorData, Type: "authenticator data", Msg: "unexpected EOF"}
	}

	authnData = &AuthenticatorData{Raw: data}

	authnData.RPIDHash = make([]byte, 32)
	copy(authnData.RPIDHash, data)

	authnData.Flags = Flags(data[32])
	authnData.Counter = binary.BigEndian.Uint32(data[33:37])

	rest := data[37:]

	if authnData.Flags.AttestedCredentialData() {
		if len(rest) < 18 {
			return nil, &UnmarshalSyntaxError{Kind: KindMalformedAuthenticatorData, Type: "authenticator data", Msg: "unexpected EOF"}
		}

		authnData.AAGUID = uuid.UUID(rest[:16])

		idLength := binary.BigEndian.Uint16(rest[16:18])

		if len(rest[18:]) < int(idLength) {
			return nil, &UnmarshalSyntaxError{Kind: KindMalformedAuthenticatorData, Type: "authenticator data", Msg: "unexpected EOF"}
		}
		authnData.CredentialID = make([]byte, idLength)
		copy(authnData.CredentialID, rest[18:])

		if authnData.Key, rest, err = ParseCOSEKey(rest[18+int(idLength):]); err != nil {
			return nil, err
		}
	}

	if authnData.Flags.Extensions() {
		decoder := cbor.NewDecoder(bytes.NewReader(rest))
		if err = decoder.Decode(&authnData.Extensions); err != nil {
			return nil, &UnmarshalSyntaxError{Kind: KindMalformedAuthenticatorData, Type: "authenticator data", Field: "extensions", Msg: err.Error()}
		}
		rest = rest[decoder.NumBytesRead():]
	}

	if len(rest) != 0 {
		return nil, &UnmarshalSyntaxError{Kind: KindMalformedAuthenticatorData, Type: "authenticator data", Msg: "trailing bytes after authenticator data"}
	}

	return authnData, nil
}
