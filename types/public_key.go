// Copyright 2024 Fantom Foundation
// This file is part of Aida Testing Infrastructure for Sonic
//
// Aida is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Aida is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Aida. If not, see <http://www.gnu.org/licenses/>.

package types

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/Fantom-foundation/contract-runtime/bytesrepr"
)

// Algorithm identifies the signature scheme of a PublicKey.
type Algorithm uint8

const (
	System    Algorithm = 0
	Ed25519   Algorithm = 1
	Secp256k1 Algorithm = 2
)

const (
	Ed25519KeyLength   = 32
	Secp256k1KeyLength = 33
)

var ErrInvalidPublicKey = errors.New("invalid public key")

func (a Algorithm) keyLength() (int, bool) {
	switch a {
	case System:
		return 0, true
	case Ed25519:
		return Ed25519KeyLength, true
	case Secp256k1:
		return Secp256k1KeyLength, true
	}
	return 0, false
}

func (a Algorithm) String() string {
	switch a {
	case System:
		return "system"
	case Ed25519:
		return "ed25519"
	case Secp256k1:
		return "secp256k1"
	}
	return fmt.Sprintf("unknown(%d)", uint8(a))
}

// PublicKey is the identity of an account, validator or delegator. Its
// underlying value is the canonical encoding, i.e. the algorithm tag followed
// by the raw key. Keys are comparable and ordered by tag, then by key bytes.
// The zero value is not a valid key.
type PublicKey string

// SystemPublicKey is the identity used by the system itself.
const SystemPublicKey = PublicKey("\x00")

// NewPublicKey creates a key of the given algorithm from raw key bytes.
func NewPublicKey(algorithm Algorithm, raw []byte) (PublicKey, error) {
	length, ok := algorithm.keyLength()
	if !ok {
		return "", fmt.Errorf("%w; unknown algorithm %d", ErrInvalidPublicKey, algorithm)
	}
	if len(raw) != length {
		return "", fmt.Errorf("%w; %v key must have %d bytes, got %d", ErrInvalidPublicKey, algorithm, length, len(raw))
	}
	return PublicKey(append([]byte{byte(algorithm)}, raw...)), nil
}

// MustPublicKey is like NewPublicKey but panics on invalid input.
func MustPublicKey(algorithm Algorithm, raw []byte) PublicKey {
	key, err := NewPublicKey(algorithm, raw)
	if err != nil {
		panic(err)
	}
	return key
}

// ParsePublicKey parses the hex form produced by PublicKey.String.
func ParsePublicKey(s string) (PublicKey, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("%w; %v", ErrInvalidPublicKey, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w; empty key", ErrInvalidPublicKey)
	}
	return NewPublicKey(Algorithm(data[0]), data[1:])
}

func (k PublicKey) Algorithm() Algorithm {
	if len(k) == 0 {
		return System
	}
	return Algorithm(k[0])
}

// Raw returns the key bytes without the algorithm tag.
func (k PublicKey) Raw() []byte {
	if len(k) == 0 {
		return nil
	}
	return []byte(k[1:])
}

// Bytes returns the canonical encoding of the key.
func (k PublicKey) Bytes() []byte {
	return []byte(k)
}

func (k PublicKey) IsValid() bool {
	if len(k) == 0 {
		return false
	}
	length, ok := k.Algorithm().keyLength()
	return ok && len(k) == length+1
}

func (k PublicKey) String() string {
	return hex.EncodeToString([]byte(k))
}

func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PublicKey) UnmarshalText(text []byte) error {
	key, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*k = key
	return nil
}

func (k PublicKey) Encode(w *bytesrepr.Writer) {
	w.WriteFixed([]byte(k))
}

// ReadPublicKey decodes a key written by PublicKey.Encode.
func ReadPublicKey(r *bytesrepr.Reader) (PublicKey, error) {
	tag, err := r.ReadU8()
	if err != nil {
		return "", err
	}
	length, ok := Algorithm(tag).keyLength()
	if !ok {
		return "", fmt.Errorf("%w; unknown public key tag %d", bytesrepr.ErrFormatting, tag)
	}
	raw, err := r.ReadFixed(length)
	if err != nil {
		return "", err
	}
	return PublicKey(append([]byte{tag}, raw...)), nil
}
