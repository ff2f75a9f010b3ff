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

package auction

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Fantom-foundation/contract-runtime/bytesrepr"
	"github.com/Fantom-foundation/contract-runtime/types"
	"github.com/holiman/uint256"
)

// AllocationKind is the tag of a SeigniorageAllocation. Its numeric value is
// the tag byte of the canonical encoding.
type AllocationKind uint8

const (
	ValidatorAllocation AllocationKind = 0
	DelegatorAllocation AllocationKind = 1
)

func (k AllocationKind) String() string {
	switch k {
	case ValidatorAllocation:
		return "validator"
	case DelegatorAllocation:
		return "delegator"
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// SeigniorageAllocation records an amount of newly minted stake paid out at
// the end of an era, either to a validator or to one of its delegators.
// Allocations are immutable and comparable with ==.
type SeigniorageAllocation struct {
	kind      AllocationKind
	delegator types.PublicKey // only set for delegator allocations
	validator types.PublicKey
	amount    uint256.Int
}

// NewValidatorAllocation creates the allocation of a validator's own reward.
func NewValidatorAllocation(validator types.PublicKey, amount *uint256.Int) SeigniorageAllocation {
	return SeigniorageAllocation{
		kind:      ValidatorAllocation,
		validator: validator,
		amount:    *amount,
	}
}

// NewDelegatorAllocation creates the allocation of a delegator's share of the
// reward of the given validator.
func NewDelegatorAllocation(delegator, validator types.PublicKey, amount *uint256.Int) SeigniorageAllocation {
	return SeigniorageAllocation{
		kind:      DelegatorAllocation,
		delegator: delegator,
		validator: validator,
		amount:    *amount,
	}
}

func (a SeigniorageAllocation) Kind() AllocationKind {
	return a.kind
}

func (a SeigniorageAllocation) IsDelegator() bool {
	return a.kind == DelegatorAllocation
}

func (a SeigniorageAllocation) ValidatorPublicKey() types.PublicKey {
	return a.validator
}

// DelegatorPublicKey returns the delegator of a delegator allocation. The
// result is false for validator allocations.
func (a SeigniorageAllocation) DelegatorPublicKey() (types.PublicKey, bool) {
	return a.delegator, a.kind == DelegatorAllocation
}

func (a SeigniorageAllocation) Amount() *uint256.Int {
	return a.amount.Clone()
}

// matches reports whether the allocation was paid to the given key, which is
// the validator for validator allocations and the delegator otherwise.
func (a SeigniorageAllocation) matches(key types.PublicKey) bool {
	switch a.kind {
	case ValidatorAllocation:
		return a.validator == key
	case DelegatorAllocation:
		return a.delegator == key
	}
	return false
}

func (a SeigniorageAllocation) String() string {
	switch a.kind {
	case ValidatorAllocation:
		return fmt.Sprintf("Validator{validator: %v, amount: %v}", a.validator, a.amount.ToBig())
	case DelegatorAllocation:
		return fmt.Sprintf("Delegator{delegator: %v, validator: %v, amount: %v}", a.delegator, a.validator, a.amount.ToBig())
	}
	return fmt.Sprintf("Unknown(%d)", uint8(a.kind))
}

// Compare defines the total order of allocations: by tag first, then by the
// variant's fields in declaration order. It returns -1, 0 or +1.
func Compare(a, b SeigniorageAllocation) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	if a.kind == DelegatorAllocation {
		if c := strings.Compare(string(a.delegator), string(b.delegator)); c != 0 {
			return c
		}
	}
	if c := strings.Compare(string(a.validator), string(b.validator)); c != 0 {
		return c
	}
	return a.amount.Cmp(&b.amount)
}

// SortAllocations sorts the given allocations in place according to Compare.
func SortAllocations(allocations []SeigniorageAllocation) {
	sort.SliceStable(allocations, func(i, j int) bool {
		return Compare(allocations[i], allocations[j]) < 0
	})
}

// Encode writes the tag byte followed by the variant's fields.
func (a SeigniorageAllocation) Encode(w *bytesrepr.Writer) {
	w.WriteU8(uint8(a.kind))
	if a.kind == DelegatorAllocation {
		a.delegator.Encode(w)
	}
	a.validator.Encode(w)
	w.WriteU256(&a.amount)
}

func (a *SeigniorageAllocation) Decode(r *bytesrepr.Reader) error {
	res, err := ReadSeigniorageAllocation(r)
	if err != nil {
		return err
	}
	*a = res
	return nil
}

// ReadSeigniorageAllocation decodes an allocation written by Encode. Tags
// other than 0 and 1 are rejected with bytesrepr.ErrFormatting.
func ReadSeigniorageAllocation(r *bytesrepr.Reader) (SeigniorageAllocation, error) {
	tag, err := r.ReadU8()
	if err != nil {
		return SeigniorageAllocation{}, err
	}
	switch AllocationKind(tag) {
	case ValidatorAllocation:
		validator, err := types.ReadPublicKey(r)
		if err != nil {
			return SeigniorageAllocation{}, err
		}
		amount, err := r.ReadU256()
		if err != nil {
			return SeigniorageAllocation{}, err
		}
		return NewValidatorAllocation(validator, amount), nil
	case DelegatorAllocation:
		delegator, err := types.ReadPublicKey(r)
		if err != nil {
			return SeigniorageAllocation{}, err
		}
		validator, err := types.ReadPublicKey(r)
		if err != nil {
			return SeigniorageAllocation{}, err
		}
		amount, err := r.ReadU256()
		if err != nil {
			return SeigniorageAllocation{}, err
		}
		return NewDelegatorAllocation(delegator, validator, amount), nil
	}
	return SeigniorageAllocation{}, fmt.Errorf("%w; unknown seigniorage allocation tag %d", bytesrepr.ErrFormatting, tag)
}
