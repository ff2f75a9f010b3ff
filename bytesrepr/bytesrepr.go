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

// Package bytesrepr implements the canonical byte encoding used for hashing
// and persisting consensus relevant records. Integers are little endian,
// big integers are length prefixed with trailing zero bytes stripped, and
// sequences carry a u32 element count.
package bytesrepr

import (
	"errors"
	"fmt"
)

var (
	// ErrEarlyEndOfStream is returned if the input ends before a value is complete.
	ErrEarlyEndOfStream = errors.New("early end of stream")
	// ErrFormatting is returned if the input does not hold a valid encoding.
	ErrFormatting = errors.New("formatting error")
	// ErrLeftOverBytes is returned if bytes remain after decoding a top level value.
	ErrLeftOverBytes = errors.New("left over bytes")
	// ErrOutOfMemory is returned if a length prefix exceeds the remaining input.
	ErrOutOfMemory = errors.New("length prefix exceeds input")
)

// Serializable is implemented by all values with a canonical encoding.
type Serializable interface {
	Encode(w *Writer)
}

// Deserializable is implemented by pointers to values which can be decoded
// from their canonical encoding.
type Deserializable interface {
	Decode(r *Reader) error
}

// ToBytes returns the canonical encoding of the given value.
func ToBytes(v Serializable) []byte {
	w := NewWriter()
	v.Encode(w)
	return w.Bytes()
}

// FromBytes decodes v from data and demands that every byte is consumed.
func FromBytes(data []byte, v Deserializable) error {
	r := NewReader(data)
	if err := v.Decode(r); err != nil {
		return err
	}
	if r.Remaining() != 0 {
		return fmt.Errorf("%w; %d bytes remaining", ErrLeftOverBytes, r.Remaining())
	}
	return nil
}
