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
	"fmt"
	"sort"

	"github.com/Fantom-foundation/contract-runtime/auction"
	"github.com/Fantom-foundation/contract-runtime/bytesrepr"
	"github.com/Fantom-foundation/contract-runtime/engine"
	"github.com/Fantom-foundation/contract-runtime/globalstate"
	"github.com/Fantom-foundation/contract-runtime/types"
	"github.com/holiman/uint256"
)

// CommitStep distributes the era seigniorage, applies slashing and evictions,
// runs the auction and commits the resulting effects.
func (e *Engine) CommitStep(request engine.StepRequest) (engine.StepSuccess, error) {
	if err := e.checkRoot(request.PreStateHash); err != nil {
		return engine.StepSuccess{}, &engine.StepError{Err: err}
	}
	endingEra := request.NextEraID.Predecessor()
	tc := newTrackingCopy(e.state, request.PreStateHash)

	bids := tc.bids()
	info := tc.eraInfo(endingEra)
	allocations, err := e.distributeRewards(bids, request.RewardItems)
	if err != nil {
		return engine.StepSuccess{}, &engine.StepError{Err: err}
	}
	info.Append(allocations...)

	for _, item := range request.SlashItems {
		if bids.Remove(item.Validator) {
			e.log.Noticef("Slashed validator %v", item.Validator)
		}
	}
	for _, item := range request.EvictItems {
		if bid := bids.Find(item.Validator); bid != nil {
			bid.Inactive = true
		}
	}
	tc.writeBids(bids)
	tc.write(globalstate.EraInfoKey(endingEra), bytesrepr.ToBytes(info))

	var validators types.ValidatorWeights
	if request.RunAuction {
		validators, err = e.runAuction(bids)
		if err != nil {
			return engine.StepSuccess{}, &engine.StepError{Err: err}
		}
		if len(validators) == 0 {
			return engine.StepSuccess{}, &engine.StepError{Err: fmt.Errorf("%w; no active bids for era %v", engine.ErrInsufficientStake, request.NextEraID)}
		}
		tc.write(globalstate.EraValidatorsKey(request.NextEraID), auction.EncodeValidatorWeights(validators))
	} else {
		validators, _ = tc.eraValidators(request.NextEraID)
	}

	if err := tc.Err(); err != nil {
		return engine.StepSuccess{}, &engine.StepError{Err: err}
	}
	root, err := e.state.Commit(request.PreStateHash, tc.effects)
	if err != nil {
		return engine.StepSuccess{}, &engine.StepError{Err: fmt.Errorf("cannot commit step effects; %w", err)}
	}
	e.log.Infof("Era %v ended: %d allocations, %d validators selected for era %v", endingEra, info.Len(), len(validators), request.NextEraID)
	return engine.StepSuccess{
		PostStateHash:     root,
		NextEraValidators: validators,
		ExecutionEffect:   tc.effects,
	}, nil
}

// distributeRewards splits the era seigniorage between the rewarded
// validators proportionally to their reward weights. Within a bid the
// delegators get a share proportional to their stake, the validator the rest.
// All payouts are bonded into the bids.
func (e *Engine) distributeRewards(bids auction.Bids, rewards []engine.RewardItem) ([]auction.SeigniorageAllocation, error) {
	total := new(uint256.Int)
	for _, item := range rewards {
		total.Add(total, uint256.NewInt(item.Value)) // a sum of uint64 values fits
	}
	if total.IsZero() || e.eraSeigniorage == 0 {
		return nil, nil
	}
	seigniorage := uint256.NewInt(e.eraSeigniorage)

	var res []auction.SeigniorageAllocation
	for _, item := range rewards {
		bid := bids.Find(item.Validator)
		if bid == nil {
			e.log.Warningf("Reward for validator %v without bid is dropped", item.Validator)
			continue
		}
		payout, _ := new(uint256.Int).MulDivOverflow(seigniorage, uint256.NewInt(item.Value), total)
		if payout.IsZero() {
			continue
		}

		stake, err := bid.TotalStake()
		if err != nil {
			return nil, err
		}
		if _, overflow := new(uint256.Int).AddOverflow(stake, payout); overflow {
			return nil, fmt.Errorf("%w; reward of %v", auction.ErrStakeOverflow, bid.Validator)
		}

		// shares never exceed the payout since every delegation is part of the stake
		remainder := payout.Clone()
		var delegations []auction.SeigniorageAllocation
		for i := range bid.Delegators {
			d := &bid.Delegators[i]
			share, _ := new(uint256.Int).MulDivOverflow(payout, &d.Amount, stake)
			if share.IsZero() {
				continue
			}
			remainder.Sub(remainder, share)
			d.Amount.Add(&d.Amount, share)
			delegations = append(delegations, auction.NewDelegatorAllocation(d.Delegator, bid.Validator, share))
		}
		bid.StakedAmount.Add(&bid.StakedAmount, remainder)
		res = append(res, auction.NewValidatorAllocation(bid.Validator, remainder))
		res = append(res, delegations...)
	}
	return res, nil
}

// runAuction selects up to validatorSlots active bids with the largest total
// stake. Ties are broken by the validator key.
func (e *Engine) runAuction(bids auction.Bids) (types.ValidatorWeights, error) {
	candidates := make(types.ValidatorWeights, 0, len(bids))
	for _, bid := range bids {
		if bid.Inactive {
			continue
		}
		stake, err := bid.TotalStake()
		if err != nil {
			return nil, err
		}
		if stake.IsZero() {
			continue
		}
		candidates = append(candidates, types.ValidatorWeight{Validator: bid.Validator, Weight: *stake})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if c := candidates[i].Weight.Cmp(&candidates[j].Weight); c != 0 {
			return c > 0
		}
		return candidates[i].Validator < candidates[j].Validator
	})
	if e.validatorSlots > 0 && len(candidates) > e.validatorSlots {
		candidates = candidates[:e.validatorSlots]
	}
	candidates.Sort()
	return candidates, nil
}
