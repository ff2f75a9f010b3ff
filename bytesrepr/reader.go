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

package bytesrepr

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
)

const u256MaxLength = 32

// Reader consumes a canonical encoding from a byte slice.
type Reader struct {
	data []byte
	pos  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining returns the number of bytes not consumed yet.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ErrEarlyEndOfStream
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadU8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w; invalid bool value %d", ErrFormatting, b)
	}
}

func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadFixed reads exactly n raw bytes. The result is a copy.
func (r *Reader) ReadFixed(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// ReadBytes reads a u32 length prefixed byte string.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if int(n) > r.Remaining() {
		return nil, ErrOutOfMemory
	}
	return r.ReadFixed(int(n))
}

func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadU256 reads a value written by Writer.WriteU256. Encodings longer than
// 32 bytes or carrying trailing zero bytes are rejected, so that every
// accepted input re-encodes to the very same bytes.
func (r *Reader) ReadU256() (*uint256.Int, error) {
	n, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	if n > u256MaxLength {
		return nil, fmt.Errorf("%w; u256 length %d exceeds %d", ErrFormatting, n, u256MaxLength)
	}
	le, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	if n > 0 && le[n-1] == 0 {
		return nil, fmt.Errorf("%w; non-canonical u256 encoding", ErrFormatting)
	}
	be := make([]byte, n)
	for i := range le {
		be[int(n)-1-i] = le[i]
	}
	return new(uint256.Int).SetBytes(be), nil
}

// ReadList reads a u32 element count followed by the elements.
func ReadList[T any](r *Reader, read func(*Reader) (T, error)) ([]T, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	// every element occupies at least one byte
	if int(n) > r.Remaining() {
		return nil, ErrOutOfMemory
	}
	res := make([]T, 0, n)
	for i := uint32(0); i < n; i++ {
		item, err := read(r)
		if err != nil {
			return nil, err
		}
		res = append(res, item)
	}
	return res, nil
}
