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

package executor

import (
	"fmt"
	"time"

	"github.com/Fantom-foundation/contract-runtime/engine"
	"github.com/Fantom-foundation/contract-runtime/types"
	"github.com/ethereum/go-ethereum/common"
)

// CommitStep runs the era end step on top of root. Rewards and evictions are
// taken from the era report, nothing is slashed and the auction always runs.
func (e *BlockExecutor) CommitStep(
	root common.Hash,
	protocolVersion types.ProtocolVersion,
	report *types.EraReport,
	eraEndTimestamp types.Timestamp,
	nextEraID types.EraID,
) (engine.StepSuccess, error) {
	rewards := make([]engine.RewardItem, 0, len(report.Rewards))
	for _, reward := range report.Rewards {
		rewards = append(rewards, engine.RewardItem{Validator: reward.Validator, Value: reward.Weight})
	}
	evictions := make([]engine.EvictItem, 0, len(report.InactiveValidators))
	for _, validator := range report.InactiveValidators {
		evictions = append(evictions, engine.EvictItem{Validator: validator})
	}

	request := engine.StepRequest{
		PreStateHash:          root,
		ProtocolVersion:       protocolVersion,
		RewardItems:           rewards,
		SlashItems:            []engine.SlashItem{},
		EvictItems:            evictions,
		RunAuction:            true,
		NextEraID:             nextEraID,
		EraEndTimestampMillis: eraEndTimestamp.Millis(),
	}

	start := time.Now()
	result, err := e.engine.CommitStep(request)
	observeSince(e.metrics.commitStep, start)
	if err != nil {
		return engine.StepSuccess{}, fmt.Errorf("%w; next era %v; %w", ErrStep, nextEraID, err)
	}
	return result, nil
}
