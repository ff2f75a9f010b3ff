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
	"github.com/Fantom-foundation/contract-runtime/globalstate"
	"github.com/Fantom-foundation/contract-runtime/types"
	"github.com/ethereum/go-ethereum/common"
)

// Commit applies the effects on top of root and returns the new root. Engine
// faults are fatal and wrapped into ErrEngine.
func (e *BlockExecutor) Commit(root common.Hash, effects globalstate.Effects) (common.Hash, error) {
	start := time.Now()
	next, err := e.engine.ApplyEffect(root, effects)
	observeSince(e.metrics.applyEffect, start)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w; cannot commit effects to %v; %w", ErrEngine, root, err)
	}
	return next, nil
}

// CommitExecutionEffects commits the raw outcome of executing a single deploy
// against root. Failed deploys are committed as well since they still carry
// effects and cost. Anything but exactly one raw result is rejected without
// committing.
func (e *BlockExecutor) CommitExecutionEffects(root common.Hash, deployHash types.DeployHash, results []engine.ExecutionResult) (common.Hash, types.ExecutionResult, error) {
	if len(results) != 1 {
		return common.Hash{}, types.ExecutionResult{}, fmt.Errorf("%w; got %d for deploy %v", ErrMoreThanOneExecutionResult, len(results), deployHash)
	}
	raw := results[0]

	result := types.ExecutionResult{
		Outcome: types.Success,
		Effect:  raw.Effect.Summary(),
		Cost:    raw.Cost,
	}
	if raw.IsSuccess() {
		e.log.Debugf("Deploy %v succeeded, cost %v", deployHash, raw.Cost.ToBig())
	} else {
		result.Outcome = types.Failure
		result.ErrorMessage = raw.Err.Error()
		e.log.Debugf("Deploy %v failed, cost %v, error %v", deployHash, raw.Cost.ToBig(), raw.Err)
	}

	next, err := e.Commit(root, raw.Effect)
	if err != nil {
		return common.Hash{}, types.ExecutionResult{}, err
	}
	return next, result, nil
}

// execute runs a single deploy against root.
func (e *BlockExecutor) execute(root common.Hash, deploy *types.Deploy, block *types.FinalizedBlock, protocolVersion types.ProtocolVersion) ([]engine.ExecutionResult, error) {
	start := time.Now()
	results, err := e.engine.RunExecute(engine.ExecuteRequest{
		ParentStateHash: root,
		BlockTime:       block.Timestamp,
		Deploys:         []*types.Deploy{deploy},
		ProtocolVersion: protocolVersion,
		Proposer:        block.Proposer,
	})
	observeSince(e.metrics.runExecute, start)
	if err != nil {
		return nil, fmt.Errorf("%w; cannot execute deploy %v; %w", ErrEngine, deploy.Hash(), err)
	}
	return results, nil
}
