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

// EncodeValidatorWeights returns the canonical encoding of an era's
// validator set, a list of public key and weight pairs.
func EncodeValidatorWeights(weights types.ValidatorWeights) []byte {
	w := bytesrepr.NewWriter()
	bytesrepr.WriteList(w, weights, func(w *bytesrepr.Writer, v types.ValidatorWeight) {
		v.Validator.Encode(w)
		w.WriteU256(&v.Weight)
	})
	return w.Bytes()
}

// ParseValidatorWeights decodes a validator set written by EncodeValidatorWeights.
func ParseValidatorWeights(data []byte) (types.ValidatorWeights, error) {
	var res validatorWeights
	if err := bytesrepr.FromBytes(data, &res); err != nil {
		return nil, err
	}
	return types.ValidatorWeights(res), nil
}

type validatorWeights types.ValidatorWeights

func (v *validatorWeights) Decode(r *bytesrepr.Reader) error {
	list, err := bytesrepr.ReadList(r, func(r *bytesrepr.Reader) (types.ValidatorWeight, error) {
		key, err := types.ReadPublicKey(r)
		if err != nil {
			return types.ValidatorWeight{}, err
		}
		weight, err := r.ReadU256()
		if err != nil {
			return types.ValidatorWeight{}, err
		}
		return types.ValidatorWeight{Validator: key, Weight: *weight}, nil
	})
	if err != nil {
		return err
	}
	*v = list
	return nil
}
