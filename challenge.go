// Copyright (c) 2026 PasskeyRP Authors. All rights reserved.
// Use of this source code is governed by Apache License 2.0 found in the LICENSE file.

package webauthn

import (
	"errors"
	"io"
	"strconv"
)

// Challenge length bounds in bytes.
const (
	challengeMinLength = 16
	challengeMaxLength = 64

	// DefaultChallengeLength is used when Config.ChallengeLength is zero.
	DefaultChallengeLength = 32
)

// newChallenge returns length cryptographically random bytes read from r.
// A short or failed read is returned as an error, never as a partial challenge.
func newChallenge(r io.Reader, length int) ([]byte, error) {
	if length < challengeMinLength || length > challengeMaxLength {
		return nil, errors.New("webauthn: challenge length " + strconv.Itoa(length) + " is out of range [" + strconv.Itoa(challengeMinLength) + ", " + strconv.Itoa(challengeMaxLength) + "]")
	}
	challenge := make([]byte, length)
	if _, err := io.ReadFull(r, challenge); err != nil {
		return nil, errors.New("webauthn: failed to generate challenge: " + err.Error())
	}
	return challenge, nil
}
