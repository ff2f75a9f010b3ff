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
	"encoding/binary"
	"fmt"

	"github.com/Fantom-foundation/contract-runtime/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyTag selects the kind of record addressed by a Key.
type KeyTag uint8

const (
	BalanceKeyTag KeyTag = iota
	BidsKeyTag
	EraInfoKeyTag
	EraValidatorsKeyTag
)

func (t KeyTag) String() string {
	switch t {
	case BalanceKeyTag:
		return "balance"
	case BidsKeyTag:
		return "bids"
	case EraInfoKeyTag:
		return "era-info"
	case EraValidatorsKeyTag:
		return "era-validators"
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

const keyLength = 1 + common.HashLength

// Key addresses a single value in global state.
type Key struct {
	Tag KeyTag
	ID  common.Hash
}

// BalanceKey addresses the balance of an account.
func BalanceKey(account types.PublicKey) Key {
	return Key{Tag: BalanceKeyTag, ID: crypto.Keccak256Hash(account.Bytes())}
}

// BidsKey addresses the registry of all auction bids.
func BidsKey() Key {
	return Key{Tag: BidsKeyTag}
}

// EraInfoKey addresses the seigniorage allocations paid for an era.
func EraInfoKey(era types.EraID) Key {
	return Key{Tag: EraInfoKeyTag, ID: eraID(era)}
}

// EraValidatorsKey addresses the validator set elected for an era.
func EraValidatorsKey(era types.EraID) Key {
	return Key{Tag: EraValidatorsKeyTag, ID: eraID(era)}
}

func eraID(era types.EraID) common.Hash {
	var id common.Hash
	binary.BigEndian.PutUint64(id[common.HashLength-8:], uint64(era))
	return id
}

// Bytes returns the tag byte followed by the 32 byte id.
func (k Key) Bytes() []byte {
	res := make([]byte, 0, keyLength)
	res = append(res, byte(k.Tag))
	return append(res, k.ID[:]...)
}

// ParseKey is the inverse of Key.Bytes.
func ParseKey(data []byte) (Key, error) {
	if len(data) != keyLength {
		return Key{}, fmt.Errorf("invalid key length %d", len(data))
	}
	return Key{Tag: KeyTag(data[0]), ID: common.BytesToHash(data[1:])}, nil
}

func (k Key) String() string {
	return fmt.Sprintf("%v-%x", k.Tag, k.ID[:])
}
