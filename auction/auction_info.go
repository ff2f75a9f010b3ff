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
	"github.com/Fantom-foundation/contract-runtime/bytesrepr"
	"github.com/Fantom-foundation/contract-runtime/types"
)

// AuctionInfo holds the seigniorage allocations paid out at the end of an
// era. The zero value is an empty record. Allocations can only be appended.
type AuctionInfo struct {
	allocations []SeigniorageAllocation
}

func NewAuctionInfo() *AuctionInfo {
	return &AuctionInfo{}
}

// Append records further allocations.
func (i *AuctionInfo) Append(allocations ...SeigniorageAllocation) {
	i.allocations = append(i.allocations, allocations...)
}

// Allocations returns a copy of all allocations in insertion order.
func (i *AuctionInfo) Allocations() []SeigniorageAllocation {
	return append([]SeigniorageAllocation(nil), i.allocations...)
}

func (i *AuctionInfo) Len() int {
	return len(i.allocations)
}

// Select returns, in insertion order, all allocations paid to the given key:
// validator allocations whose validator matches and delegator allocations
// whose delegator matches.
func (i *AuctionInfo) Select(key types.PublicKey) []SeigniorageAllocation {
	var res []SeigniorageAllocation
	for _, a := range i.allocations {
		if a.matches(key) {
			res = append(res, a)
		}
	}
	return res
}

// Equal reports whether both records hold the same allocations in the same order.
func (i *AuctionInfo) Equal(o *AuctionInfo) bool {
	if len(i.allocations) != len(o.allocations) {
		return false
	}
	for k := range i.allocations {
		if i.allocations[k] != o.allocations[k] {
			return false
		}
	}
	return true
}

func (i *AuctionInfo) Encode(w *bytesrepr.Writer) {
	bytesrepr.WriteList(w, i.allocations, func(w *bytesrepr.Writer, a SeigniorageAllocation) {
		a.Encode(w)
	})
}

func (i *AuctionInfo) Decode(r *bytesrepr.Reader) error {
	allocations, err := bytesrepr.ReadList(r, ReadSeigniorageAllocation)
	if err != nil {
		return err
	}
	i.allocations = allocations
	return nil
}

// ParseAuctionInfo decodes a complete canonical encoding of an AuctionInfo.
func ParseAuctionInfo(data []byte) (*AuctionInfo, error) {
	info := NewAuctionInfo()
	if err := bytesrepr.FromBytes(data, info); err != nil {
		return nil, err
	}
	return info, nil
}
