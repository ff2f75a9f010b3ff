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
	"encoding/json"
	"fmt"
	"os"

	"github.com/Fantom-foundation/contract-runtime/auction"
	"github.com/Fantom-foundation/contract-runtime/bytesrepr"
	"github.com/Fantom-foundation/contract-runtime/engine"
	"github.com/Fantom-foundation/contract-runtime/globalstate"
	"github.com/Fantom-foundation/contract-runtime/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// GenesisAccount is an account existing before the first block. A non-zero
// bonded amount creates an active bid of the account.
type GenesisAccount struct {
	PublicKey    types.PublicKey
	Balance      uint256.Int
	BondedAmount uint256.Int
}

type genesisAccountJSON struct {
	PublicKey    types.PublicKey `json:"public_key"`
	Balance      string          `json:"balance"`
	BondedAmount string          `json:"bonded_amount"`
}

// LoadGenesis reads genesis accounts from a JSON file.
func LoadGenesis(path string) ([]GenesisAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read genesis file; %v", err)
	}
	var entries []genesisAccountJSON
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("cannot parse genesis file %v; %v", path, err)
	}
	accounts := make([]GenesisAccount, 0, len(entries))
	for i, entry := range entries {
		account := GenesisAccount{PublicKey: entry.PublicKey}
		if entry.Balance != "" {
			balance, err := types.ParseAmount(entry.Balance)
			if err != nil {
				return nil, fmt.Errorf("invalid balance of genesis account %d; %v", i, err)
			}
			account.Balance = *balance
		}
		if entry.BondedAmount != "" {
			bonded, err := types.ParseAmount(entry.BondedAmount)
			if err != nil {
				return nil, fmt.Errorf("invalid bonded amount of genesis account %d; %v", i, err)
			}
			account.BondedAmount = *bonded
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// Genesis commits the genesis accounts on top of the empty root. It returns
// the genesis root and the validators of era 0.
func (e *Engine) Genesis(accounts []GenesisAccount) (common.Hash, types.ValidatorWeights, error) {
	var effects globalstate.Effects
	var bids auction.Bids
	seen := map[types.PublicKey]bool{}
	for _, account := range accounts {
		if !account.PublicKey.IsValid() {
			return common.Hash{}, nil, fmt.Errorf("invalid genesis account %v", account.PublicKey)
		}
		if seen[account.PublicKey] {
			return common.Hash{}, nil, fmt.Errorf("duplicate genesis account %v", account.PublicKey)
		}
		seen[account.PublicKey] = true

		effects.Add(globalstate.BalanceKey(account.PublicKey), globalstate.Write{Value: globalstate.EncodeU256(&account.Balance)})
		if !account.BondedAmount.IsZero() {
			bid := bids.Upsert(account.PublicKey)
			bid.StakedAmount = account.BondedAmount
		}
	}

	validators, err := e.runAuction(bids)
	if err != nil {
		return common.Hash{}, nil, fmt.Errorf("cannot select genesis validators; %w", err)
	}
	if len(validators) == 0 {
		return common.Hash{}, nil, fmt.Errorf("%w; genesis has no bonded accounts", engine.ErrInsufficientStake)
	}
	effects.Add(globalstate.BidsKey(), globalstate.Write{Value: bytesrepr.ToBytes(bids)})
	effects.Add(globalstate.EraValidatorsKey(0), globalstate.Write{Value: auction.EncodeValidatorWeights(validators)})

	root, err := e.state.Commit(e.state.EmptyRoot(), effects)
	if err != nil {
		return common.Hash{}, nil, fmt.Errorf("cannot commit genesis; %w", err)
	}
	e.log.Noticef("Genesis root %v with %d accounts and %d validators", root, len(accounts), len(validators))
	return root, validators, nil
}
