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

package native

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/contract-runtime/auction"
	"github.com/Fantom-foundation/contract-runtime/bytesrepr"
	"github.com/Fantom-foundation/contract-runtime/globalstate"
	"github.com/Fantom-foundation/contract-runtime/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// trackingCopy is a write-through view on a snapshot recording every write as
// an effect. Reads observe earlier writes of the same copy. The first fault of
// the underlying store is kept and reported by Err.
type trackingCopy struct {
	state   globalstate.GlobalState
	root    common.Hash
	values  map[globalstate.Key][]byte
	effects globalstate.Effects
	err     error
}

func newTrackingCopy(state globalstate.GlobalState, root common.Hash) *trackingCopy {
	return &trackingCopy{
		state:  state,
		root:   root,
		values: map[globalstate.Key][]byte{},
	}
}

// fork creates a child observing all writes of c. Effects of the child are
// only visible to c after merge.
func (c *trackingCopy) fork() *trackingCopy {
	child := newTrackingCopy(c.state, c.root)
	for k, v := range c.values {
		child.values[k] = v
	}
	child.err = c.err
	return child
}

func (c *trackingCopy) merge(child *trackingCopy) {
	for k, v := range child.values {
		c.values[k] = v
	}
	c.effects.Append(child.effects)
	if c.err == nil {
		c.err = child.err
	}
}

func (c *trackingCopy) Err() error {
	return c.err
}

func (c *trackingCopy) read(key globalstate.Key) ([]byte, bool) {
	if v, found := c.values[key]; found {
		return v, true
	}
	v, err := c.state.Get(c.root, key)
	if errors.Is(err, globalstate.ErrKeyNotFound) {
		return nil, false
	}
	if err != nil {
		if c.err == nil {
			c.err = fmt.Errorf("cannot read %v; %w", key, err)
		}
		return nil, false
	}
	c.values[key] = v
	return v, true
}

func (c *trackingCopy) write(key globalstate.Key, value []byte) {
	c.values[key] = value
	c.effects.Add(key, globalstate.Write{Value: value})
}

func (c *trackingCopy) balance(account types.PublicKey) *uint256.Int {
	data, found := c.read(globalstate.BalanceKey(account))
	if !found {
		return new(uint256.Int)
	}
	value, err := globalstate.DecodeU256(data)
	if err != nil {
		if c.err == nil {
			c.err = fmt.Errorf("corrupted balance of %v; %w", account, err)
		}
		return new(uint256.Int)
	}
	return value
}

// credit adds amount to the balance of the account. Existing balances are
// increased with an add transform, new ones written.
func (c *trackingCopy) credit(account types.PublicKey, amount *uint256.Int) error {
	key := globalstate.BalanceKey(account)
	_, exists := c.read(key)
	current := c.balance(account)
	sum, overflow := new(uint256.Int).AddOverflow(current, amount)
	if overflow {
		return fmt.Errorf("balance of %v overflows", account)
	}
	if !exists {
		c.write(key, globalstate.EncodeU256(sum))
		return nil
	}
	c.values[key] = globalstate.EncodeU256(sum)
	c.effects.Add(key, globalstate.AddUInt256{Delta: *amount})
	return nil
}

// debit subtracts amount from the balance of the account.
func (c *trackingCopy) debit(account types.PublicKey, amount *uint256.Int) error {
	current := c.balance(account)
	if current.Lt(amount) {
		return fmt.Errorf("%w; balance %v, required %v", ErrInsufficientFunds, current.ToBig(), amount.ToBig())
	}
	c.write(globalstate.BalanceKey(account), globalstate.EncodeU256(new(uint256.Int).Sub(current, amount)))
	return nil
}

func (c *trackingCopy) bids() auction.Bids {
	data, found := c.read(globalstate.BidsKey())
	if !found {
		return nil
	}
	bids, err := auction.ParseBids(data)
	if err != nil {
		if c.err == nil {
			c.err = fmt.Errorf("corrupted bids; %w", err)
		}
		return nil
	}
	return bids
}

func (c *trackingCopy) writeBids(bids auction.Bids) {
	c.write(globalstate.BidsKey(), bytesrepr.ToBytes(bids))
}

func (c *trackingCopy) eraInfo(era types.EraID) *auction.AuctionInfo {
	data, found := c.read(globalstate.EraInfoKey(era))
	if !found {
		return auction.NewAuctionInfo()
	}
	info, err := auction.ParseAuctionInfo(data)
	if err != nil {
		if c.err == nil {
			c.err = fmt.Errorf("corrupted era info of era %v; %w", era, err)
		}
		return auction.NewAuctionInfo()
	}
	return info
}

func (c *trackingCopy) eraValidators(era types.EraID) (types.ValidatorWeights, bool) {
	data, found := c.read(globalstate.EraValidatorsKey(era))
	if !found {
		return nil, false
	}
	weights, err := auction.ParseValidatorWeights(data)
	if err != nil {
		if c.err == nil {
			c.err = fmt.Errorf("corrupted validators of era %v; %w", era, err)
		}
		return nil, false
	}
	return weights, true
}
