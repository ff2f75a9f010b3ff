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

package engine

//go:generate mockgen -source engine.go -destination engine_mocks.go -package engine

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/contract-runtime/globalstate"
	"github.com/Fantom-foundation/contract-runtime/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// EngineState is the execution engine consumed by the block executor. It runs
// deploys against a state root, commits effects and performs the era end step.
type EngineState interface {
	// RunExecute executes the deploys of the request against its parent
	// state root without committing anything. It returns one result per
	// deploy. An error reports a fault of the engine, never a failed deploy.
	RunExecute(request ExecuteRequest) ([]ExecutionResult, error)

	// ApplyEffect commits the effects on top of the given root and returns
	// the resulting root.
	ApplyEffect(root common.Hash, effects globalstate.Effects) (common.Hash, error)

	// CommitStep runs the era end step and commits its effects.
	CommitStep(request StepRequest) (StepSuccess, error)
}

// ExecuteRequest asks the engine to execute deploys against a state root.
type ExecuteRequest struct {
	ParentStateHash common.Hash
	BlockTime       types.Timestamp
	Deploys         []*types.Deploy
	ProtocolVersion types.ProtocolVersion
	Proposer        types.PublicKey
}

// ExecutionResult is the raw outcome of executing a single deploy. Failed
// deploys carry their effects and cost as well.
type ExecutionResult struct {
	Effect globalstate.Effects
	Cost   uint256.Int
	Err    error // nil on success
}

func (r *ExecutionResult) IsSuccess() bool {
	return r.Err == nil
}

// RewardItem is the reward weight of a validator for the ending era.
type RewardItem struct {
	Validator types.PublicKey
	Value     uint64
}

// SlashItem removes the bid of a validator.
type SlashItem struct {
	Validator types.PublicKey
}

// EvictItem deactivates the bid of a validator.
type EvictItem struct {
	Validator types.PublicKey
}

// StepRequest describes the era end step.
type StepRequest struct {
	PreStateHash          common.Hash
	ProtocolVersion       types.ProtocolVersion
	RewardItems           []RewardItem
	SlashItems            []SlashItem
	EvictItems            []EvictItem
	RunAuction            bool
	NextEraID             types.EraID
	EraEndTimestampMillis uint64
}

// StepSuccess is the outcome of a committed step.
type StepSuccess struct {
	PostStateHash     common.Hash
	NextEraValidators types.ValidatorWeights
	ExecutionEffect   globalstate.Effects
}

var ErrInsufficientStake = errors.New("insufficient bonded stake to select validators")

// StepError reports that the era end step could not be computed or committed.
type StepError struct {
	Err error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step failed; %v", e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
