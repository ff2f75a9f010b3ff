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

package globalstate

import (
	"fmt"

	"github.com/Fantom-foundation/contract-runtime/bytesrepr"
	"github.com/holiman/uint256"
)

// Transform is an operation applied to the value stored under a key.
type Transform interface {
	// Apply computes the new value from the current one. If keep is false,
	// the key is removed from state.
	Apply(current []byte, exists bool) (value []byte, keep bool, err error)
	// Kind names the transform in summaries and logs.
	Kind() string
}

// Write replaces the value of a key.
type Write struct {
	Value []byte
}

func (t Write) Apply([]byte, bool) ([]byte, bool, error) {
	return append([]byte(nil), t.Value...), true, nil
}

func (Write) Kind() string { return "write" }

// AddUInt256 adds Delta to an existing U256 value.
type AddUInt256 struct {
	Delta uint256.Int
}

func (t AddUInt256) Apply(current []byte, exists bool) ([]byte, bool, error) {
	if !exists {
		return nil, false, fmt.Errorf("%w; cannot add to missing value", ErrTransform)
	}
	value := new(uint256.Int)
	if err := bytesrepr.FromBytes(current, (*u256Value)(value)); err != nil {
		return nil, false, fmt.Errorf("%w; stored value is not a u256; %v", ErrTransform, err)
	}
	if _, overflow := value.AddOverflow(value, &t.Delta); overflow {
		return nil, false, fmt.Errorf("%w; u256 overflow", ErrTransform)
	}
	return EncodeU256(value), true, nil
}

func (AddUInt256) Kind() string { return "add_u256" }

// Prune removes a key.
type Prune struct{}

func (Prune) Apply([]byte, bool) ([]byte, bool, error) {
	return nil, false, nil
}

func (Prune) Kind() string { return "prune" }

type u256Value uint256.Int

func (v *u256Value) Decode(r *bytesrepr.Reader) error {
	res, err := r.ReadU256()
	if err != nil {
		return err
	}
	*v = u256Value(*res)
	return nil
}

// EncodeU256 returns the stored form of a numeric value.
func EncodeU256(v *uint256.Int) []byte {
	w := bytesrepr.NewWriter()
	w.WriteU256(v)
	return w.Bytes()
}

// DecodeU256 parses a value written by EncodeU256.
func DecodeU256(data []byte) (*uint256.Int, error) {
	value := new(uint256.Int)
	if err := bytesrepr.FromBytes(data, (*u256Value)(value)); err != nil {
		return nil, err
	}
	return value, nil
}
