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
	"bytes"
	"encoding/binary"

	"github.com/holiman/uint256"
)

// Writer accumulates a canonical encoding.
type Writer struct {
	buf bytes.Buffer
}

func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the encoding written so far.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *Writer) WriteU8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

// WriteFixed writes raw bytes without a length prefix.
func (w *Writer) WriteFixed(b []byte) {
	w.buf.Write(b)
}

// WriteBytes writes a u32 length prefix followed by the bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteU32(uint32(len(b)))
	w.buf.Write(b)
}

func (w *Writer) WriteString(s string) {
	w.WriteBytes([]byte(s))
}

// WriteU256 writes one length byte followed by the little endian
// representation of v without trailing zero bytes. Zero is encoded as a
// single 0x00 byte.
func (w *Writer) WriteU256(v *uint256.Int) {
	be := v.Bytes() // big endian, no leading zeros
	w.buf.WriteByte(uint8(len(be)))
	for i := len(be) - 1; i >= 0; i-- {
		w.buf.WriteByte(be[i])
	}
}

// WriteList writes a u32 element count and calls write for every index.
func WriteList[T any](w *Writer, items []T, write func(*Writer, T)) {
	w.WriteU32(uint32(len(items)))
	for _, item := range items {
		write(w, item)
	}
}
