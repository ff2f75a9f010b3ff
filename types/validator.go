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
	"sort"

	"github.com/holiman/uint256"
)

// ValidatorWeight is the voting weight of a single validator in an era.
type ValidatorWeight struct {
	Validator PublicKey
	Weight    uint256.Int
}

// ValidatorWeights is a validator set ordered by public key.
type ValidatorWeights []ValidatorWeight

// Sort orders the set by validator key.
func (w ValidatorWeights) Sort() {
	sort.Slice(w, func(i, j int) bool {
		return w[i].Validator < w[j].Validator
	})
}

// Get returns the weight of the given validator.
func (w ValidatorWeights) Get(validator PublicKey) (*uint256.Int, bool) {
	for i := range w {
		if w[i].Validator == validator {
			return w[i].Weight.Clone(), true
		}
	}
	return nil, false
}

// TotalWeight sums up the weights of all validators in the set.
func (w ValidatorWeights) TotalWeight() *uint256.Int {
	total := new(uint256.Int)
	for i := range w {
		total.Add(total, &w[i].Weight)
	}
	return total
}
