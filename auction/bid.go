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
	"errors"
	"fmt"
	"sort"

	"github.com/Fantom-foundation/contract-runtime/bytesrepr"
	"github.com/Fantom-foundation/contract-runtime/types"
	"github.com/holiman/uint256"
)

// Delegator is stake delegated by an account to a validator's bid.
type Delegator struct {
	Delegator types.PublicKey
	Amount    uint256.Int
}

// Bid is the stake a validator bonded into the auction, including the stake
// delegated to it.
type Bid struct {
	Validator    types.PublicKey
	StakedAmount uint256.Int
	Inactive     bool
	Delegators   []Delegator // ordered by delegator key
}

// ErrStakeOverflow reports a stake exceeding the U256 range.
var ErrStakeOverflow = errors.New("stake overflows u256")

// TotalStake returns the validator's own stake plus all delegations.
func (b *Bid) TotalStake() (*uint256.Int, error) {
	total := b.StakedAmount.Clone()
	for i := range b.Delegators {
		if _, overflow := total.AddOverflow(total, &b.Delegators[i].Amount); overflow {
			return nil, fmt.Errorf("%w; total stake of %v", ErrStakeOverflow, b.Validator)
		}
	}
	return total, nil
}

// Bond adds amount to the validator's own stake. The total stake of the bid
// has to stay within the U256 range.
func (b *Bid) Bond(amount *uint256.Int) error {
	if err := b.checkGrowth(amount); err != nil {
		return err
	}
	b.StakedAmount.Add(&b.StakedAmount, amount)
	return nil
}

// Delegate adds amount to the delegation of the given delegator. The total
// stake of the bid has to stay within the U256 range.
func (b *Bid) Delegate(delegator types.PublicKey, amount *uint256.Int) error {
	if err := b.checkGrowth(amount); err != nil {
		return err
	}
	for i := range b.Delegators {
		if b.Delegators[i].Delegator == delegator {
			b.Delegators[i].Amount.Add(&b.Delegators[i].Amount, amount)
			return nil
		}
	}
	b.Delegators = append(b.Delegators, Delegator{Delegator: delegator, Amount: *amount})
	sort.Slice(b.Delegators, func(i, j int) bool {
		return b.Delegators[i].Delegator < b.Delegators[j].Delegator
	})
	return nil
}

// checkGrowth verifies that amount can be added to the total stake.
func (b *Bid) checkGrowth(amount *uint256.Int) error {
	total, err := b.TotalStake()
	if err != nil {
		return err
	}
	if _, overflow := total.AddOverflow(total, amount); overflow {
		return fmt.Errorf("%w; adding %v to the stake of %v", ErrStakeOverflow, amount.ToBig(), b.Validator)
	}
	return nil
}

func (b *Bid) Encode(w *bytesrepr.Writer) {
	b.Validator.Encode(w)
	w.WriteU256(&b.StakedAmount)
	w.WriteBool(b.Inactive)
	bytesrepr.WriteList(w, b.Delegators, func(w *bytesrepr.Writer, d Delegator) {
		d.Delegator.Encode(w)
		w.WriteU256(&d.Amount)
	})
}

func readDelegator(r *bytesrepr.Reader) (Delegator, error) {
	key, err := types.ReadPublicKey(r)
	if err != nil {
		return Delegator{}, err
	}
	amount, err := r.ReadU256()
	if err != nil {
		return Delegator{}, err
	}
	return Delegator{Delegator: key, Amount: *amount}, nil
}

func readBid(r *bytesrepr.Reader) (*Bid, error) {
	validator, err := types.ReadPublicKey(r)
	if err != nil {
		return nil, err
	}
	staked, err := r.ReadU256()
	if err != nil {
		return nil, err
	}
	inactive, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	delegators, err := bytesrepr.ReadList(r, readDelegator)
	if err != nil {
		return nil, err
	}
	return &Bid{Validator: validator, StakedAmount: *staked, Inactive: inactive, Delegators: delegators}, nil
}

// Bids is the registry of all bids, ordered by validator key.
type Bids []*Bid

// Find returns the bid of the given validator or nil.
func (b Bids) Find(validator types.PublicKey) *Bid {
	for _, bid := range b {
		if bid.Validator == validator {
			return bid
		}
	}
	return nil
}

// Upsert returns the bid of the given validator, creating it if needed.
func (b *Bids) Upsert(validator types.PublicKey) *Bid {
	if bid := b.Find(validator); bid != nil {
		return bid
	}
	bid := &Bid{Validator: validator}
	*b = append(*b, bid)
	sort.Slice(*b, func(i, j int) bool {
		return (*b)[i].Validator < (*b)[j].Validator
	})
	return bid
}

// Remove drops the bid of the given validator and reports whether it existed.
func (b *Bids) Remove(validator types.PublicKey) bool {
	for i, bid := range *b {
		if bid.Validator == validator {
			*b = append((*b)[:i], (*b)[i+1:]...)
			return true
		}
	}
	return false
}

func (b Bids) Encode(w *bytesrepr.Writer) {
	bytesrepr.WriteList(w, b, func(w *bytesrepr.Writer, bid *Bid) {
		bid.Encode(w)
	})
}

func (b *Bids) Decode(r *bytesrepr.Reader) error {
	bids, err := bytesrepr.ReadList(r, readBid)
	if err != nil {
		return err
	}
	*b = bids
	return nil
}

// ParseBids decodes a complete canonical encoding of a bid registry.
func ParseBids(data []byte) (Bids, error) {
	var bids Bids
	if err := bytesrepr.FromBytes(data, &bids); err != nil {
		return nil, err
	}
	return bids, nil
}
