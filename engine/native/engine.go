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

	"github.com/Fantom-foundation/contract-runtime/engine"
	"github.com/Fantom-foundation/contract-runtime/globalstate"
	"github.com/Fantom-foundation/contract-runtime/logger"
	"github.com/Fantom-foundation/contract-runtime/types"
	"github.com/Fantom-foundation/contract-runtime/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrUnknownValidator    = errors.New("unknown validator")
	ErrInvalidChainName    = errors.New("invalid chain name")
	ErrZeroAmount          = errors.New("amount must not be zero")
)

// Base costs of the native sessions, multiplied by the gas price of a deploy.
const (
	TransferCost = 10_000
	AddBidCost   = 25_000
	DelegateCost = 25_000
)

// Engine is a deterministic engine executing native transfers, bids and
// delegations on top of a GlobalState. It also runs the auction at era end.
type Engine struct {
	state          globalstate.GlobalState
	chainName      string
	eraSeigniorage uint64
	validatorSlots int
	log            logger.Logger
}

// MakeEngine creates a native engine configured by cfg.
func MakeEngine(state globalstate.GlobalState, cfg *utils.Config) *Engine {
	return NewEngine(state, cfg, logger.NewLogger(cfg.LogLevel, "Engine"))
}

func NewEngine(state globalstate.GlobalState, cfg *utils.Config, log logger.Logger) *Engine {
	return &Engine{
		state:          state,
		chainName:      cfg.ChainName,
		eraSeigniorage: cfg.EraSeigniorage,
		validatorSlots: cfg.ValidatorSlots,
		log:            log,
	}
}

func (e *Engine) State() globalstate.GlobalState {
	return e.state
}

// RunExecute executes the deploys in order. Later deploys observe the effects
// of earlier ones, each result only carries the effects of its own deploy.
func (e *Engine) RunExecute(request engine.ExecuteRequest) ([]engine.ExecutionResult, error) {
	if err := e.checkRoot(request.ParentStateHash); err != nil {
		return nil, err
	}
	base := newTrackingCopy(e.state, request.ParentStateHash)
	results := make([]engine.ExecutionResult, 0, len(request.Deploys))
	for _, deploy := range request.Deploys {
		tc := base.fork()
		result := e.execute(tc, deploy, request.Proposer)
		if err := tc.Err(); err != nil {
			return nil, fmt.Errorf("cannot execute deploy %v; %w", deploy.Hash(), err)
		}
		base.merge(tc)
		results = append(results, result)
	}
	return results, nil
}

func (e *Engine) ApplyEffect(root common.Hash, effects globalstate.Effects) (common.Hash, error) {
	return e.state.Commit(root, effects)
}

func (e *Engine) checkRoot(root common.Hash) error {
	found, err := e.state.HasRoot(root)
	if err != nil {
		return fmt.Errorf("cannot look up root %v; %w", root, err)
	}
	if !found {
		return fmt.Errorf("%w; %v", globalstate.ErrRootNotFound, root)
	}
	return nil
}

func sessionCost(kind types.SessionKind) (uint64, error) {
	switch kind {
	case types.TransferSession:
		return TransferCost, nil
	case types.AddBidSession:
		return AddBidCost, nil
	case types.DelegateSession:
		return DelegateCost, nil
	}
	return 0, fmt.Errorf("unsupported session kind %v", kind)
}

// execute runs a single deploy on tc. Failures are reported in the result.
// Failed payments leave no effects, failed sessions keep the payment.
func (e *Engine) execute(tc *trackingCopy, deploy *types.Deploy, proposer types.PublicKey) engine.ExecutionResult {
	if err := deploy.Validate(); err != nil {
		return engine.ExecutionResult{Err: err}
	}
	if e.chainName != "" && deploy.Header().ChainName != e.chainName {
		return engine.ExecutionResult{Err: fmt.Errorf("%w; expected %q, got %q", ErrInvalidChainName, e.chainName, deploy.Header().ChainName)}
	}
	base, err := sessionCost(deploy.Session().Kind)
	if err != nil {
		return engine.ExecutionResult{Err: err}
	}

	var cost uint256.Int
	if _, overflow := cost.MulOverflow(uint256.NewInt(base), uint256.NewInt(deploy.Header().GasPrice)); overflow {
		return engine.ExecutionResult{Err: fmt.Errorf("%w; cost overflows", ErrInsufficientPayment)}
	}
	if deploy.Payment().Lt(&cost) {
		return engine.ExecutionResult{Cost: cost, Err: fmt.Errorf("%w; offered %v, required %v", ErrInsufficientPayment, deploy.Payment().ToBig(), cost.ToBig())}
	}

	payment := tc.fork()
	err = e.pay(payment, deploy.Account(), proposer, &cost)
	if payment.Err() != nil {
		tc.merge(payment) // reported as a fault by the caller
		return engine.ExecutionResult{}
	}
	if err != nil {
		return engine.ExecutionResult{Cost: cost, Err: fmt.Errorf("%w; %v", ErrInsufficientPayment, err)}
	}
	tc.merge(payment)

	session := tc.fork()
	err = e.runSession(session, deploy.Account(), deploy.Session())
	if err == nil || session.Err() != nil {
		tc.merge(session)
	}
	return engine.ExecutionResult{Effect: tc.effects, Cost: cost, Err: err}
}

func (e *Engine) pay(tc *trackingCopy, account, proposer types.PublicKey, cost *uint256.Int) error {
	if err := tc.debit(account, cost); err != nil {
		return err
	}
	if !proposer.IsValid() || proposer == types.SystemPublicKey {
		return nil // burnt
	}
	return tc.credit(proposer, cost)
}
