// Copyright (c) 2026 PasskeyRP Authors. All rights reserved.
// Use of this source code is governed by Apache License 2.0 found in the LICENSE file.

package webauthn

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Ceremony type values carried in collected client data.
const (
	ceremonyCreate = "webauthn.create"
	ceremonyGet    = "webauthn.get"
)

// TokenBindingStatus represents the Web Authentication enumeration of the same name,
// as defined in http://w3c.github.io/webauthn/#dictionary-client-data
type TokenBindingStatus string

// TokenBindingStatus enumeration.
const (
	TokenBindingPresent   TokenBindingStatus = "present"   // Token binding was used when communicating with the Relying Party.
	TokenBindingSupported TokenBindingStatus = "supported" // Client supports token binding, but it was not negotiated when communicating with the Relying Party.
)

// TokenBinding represents the Web Authentication structure of the same name,
// as defined in http://w3c.github.io/webauthn/#dictionary-client-data
type TokenBinding struct {
	Status TokenBindingStatus `json:"status"`
	ID     string             `json:"id"` // Base64url encoded Token Binding ID that was used when communicating with the Relying Party (required if status is "present").
}

// CollectedClientData represents the Web Authentication structure of the same name,
// as defined in http://w3c.github.io/webauthn/#dictionary-client-data
type CollectedClientData struct {
	Raw          []byte        `json:"-"`            // Complete raw client data content.
	Type         string        `json:"type"`         // "webauthn.create" when creating new credentials, and "webauthn.get" when getting an assertion.
	Challenge    string        `json:"challenge"`    // Base64url encoded challenge provided by the Relying Party.
	Origin       string        `json:"origin"`       // Fully qualified origin of the requester.
	CrossOrigin  bool          `json:"crossOrigin"`  // Set when the request came from a cross-origin iframe.
	TokenBinding *TokenBinding `json:"tokenBinding"` // State of the Token Binding protocol used when communicating with the Relying Party.  Its absence indicates that the client doesn't support token binding.
}

func parseClientData(data []byte) (clientData *CollectedClientData, err error) {
	clientData = &CollectedClientData{Raw: data}
	if err = json.Unmarshal(data, &clientData); err != nil {
		return nil, &UnmarshalSyntaxError{Type: "client data", Msg: err.Error()}
	}
	// Verify required fields (type, challenge, origin) are not empty.
	if len(clientData.Type) == 0 {
		return nil, &UnmarshalMissingFieldError{Type: "client data", Field: "type"}
	}
	if len(clientData.Challenge) == 0 {
		return nil, &UnmarshalMissingFieldError{Type: "client data", Field: "challenge"}
	}
	if len(clientData.Origin) == 0 {
		return nil, &UnmarshalMissingFieldError{Type: "client data", Field: "origin"}
	}
	// Verify TokenBinding required field (status) is not empty.
	if clientData.TokenBinding != nil && len(clientData.TokenBinding.Status) == 0 {
		return nil, &UnmarshalMissingFieldError{Type: "client data", Field: "token binding status"}
	}
	return
}

// verify checks client data against the expected ceremony type, challenge, and origin.
// The challenge comparison is constant time.
func (clientData *CollectedClientData) verify(ceremony string, challenge []byte, origin string) error {
	if clientData.Type != ceremony {
		return &VerificationError{Kind: KindTypeMismatch, Type: "client data", Field: "type", Msg: "expected \"" + ceremony + "\", got \"" + clientData.Type + "\""}
	}
	gotChallenge, err := base64DecodeString(clientData.Challenge)
	if err != nil {
		return &VerificationError{Kind: KindChallengeMismatch, Type: "client data", Field: "challenge", Msg: "failed to base64 decode challenge"}
	}
	if subtle.ConstantTimeCompare(gotChallenge, challenge) != 1 {
		return &VerificationError{Kind: KindChallengeMismatch, Type: "client data", Field: "challenge", Msg: "challenge does not match expected challenge"}
	}
	if clientData.Origin != origin {
		return &VerificationError{Kind: KindOriginMismatch, Type: "client data", Field: "origin", Msg: "expected \"" + origin + "\", got \"" + clientData.Origin + "\""}
	}
	return nil
}

func base64DecodeString(s string) ([]byte, error) {
	if len(s) > 1 {
		// remove padding
		if s[len(s)-2] == '=' {
			s = s[:len(s)-2]
		} else if s[len(s)-1] == '=' {
			s = s[:len(s)-1]
		}
	}

	// convert base64 URL to base64 Std
	s = strings.Replace(s, "-", "+", -1)
	s = strings.Replace(s, "_", "/", -1)

	return base64.RawStdEncoding.DecodeString(s)
}
