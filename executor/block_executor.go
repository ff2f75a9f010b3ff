package executor

import (
	"fmt"

	"github.com/Fantom-foundation/contract-runtime/engine"
	"github.com/Fantom-foundation/contract-runtime/globalstate"
	"github.com/Fantom-foundation/contract-runtime/logger"
	"github.com/Fantom-foundation/contract-runtime/types"
	"github.com/Fantom-foundation/contract-runtime/utils"
)

// BlockExecutor executes finalized blocks on an engine. It commits every
// deploy in block order, threading the state root from one deploy to the
// next, and runs the era end step for switch blocks.
type BlockExecutor struct {
	engine     engine.EngineState
	metrics    *Metrics
	log        logger.Logger
	extensions []Extension
}

// BlockAndExecutionEffects is the outcome of executing a finalized block.
type BlockAndExecutionEffects struct {
	Block *types.Block
	// ExecutionResults holds one entry per deploy of the block.
	ExecutionResults map[types.DeployHash]types.DeployResult
	// StepEffects is nil if the block did not end an era.
	StepEffects *globalstate.Effects
}

// MakeBlockExecutor creates a block executor logging with the configured level.
func MakeBlockExecutor(cfg *utils.Config, engine engine.EngineState, metrics *Metrics, extensions ...Extension) *BlockExecutor {
	return NewBlockExecutor(engine, metrics, logger.NewLogger(cfg.LogLevel, "Executor"), extensions...)
}

func NewBlockExecutor(engine engine.EngineState, metrics *Metrics, log logger.Logger, extensions ...Extension) *BlockExecutor {
	return &BlockExecutor{
		engine:     engine,
		metrics:    metrics,
		log:        log,
		extensions: extensions,
	}
}

// ExecuteFinalizedBlock executes all deploys of the block on top of the
// pre-state and, if the block ends an era, runs the step. Any fault aborts
// the block. Roots committed before the fault are not rolled back.
func (e *BlockExecutor) ExecuteFinalizedBlock(
	protocolVersion types.ProtocolVersion,
	preState types.ExecutionPreState,
	block *types.FinalizedBlock,
) (*BlockAndExecutionEffects, error) {
	return e.executeFinalizedBlock(protocolVersion, preState, block, "")
}

// executeFinalizedBlock exposes the state-db directory to extensions.
func (e *BlockExecutor) executeFinalizedBlock(
	protocolVersion types.ProtocolVersion,
	preState types.ExecutionPreState,
	block *types.FinalizedBlock,
	stateDbPath string,
) (*BlockAndExecutionEffects, error) {
	if preState.NextBlockHeight != block.Height {
		return nil, fmt.Errorf("%w; pre-state expects %d, block has %d", ErrHeightMismatch, preState.NextBlockHeight, block.Height)
	}
	if err := checkUniqueDeploys(block); err != nil {
		return nil, err
	}

	state := State{Block: block.Height}
	ctx := &Context{
		StateRoot:      preState.PreStateRootHash,
		FinalizedBlock: block,
		StateDbPath:    stateDbPath,
	}
	if err := signalPreBlock(state, ctx, e.extensions); err != nil {
		return nil, err
	}

	results := make(map[types.DeployHash]types.DeployResult, len(block.Deploys))
	for i, deploy := range block.Deploys {
		state.Transaction = i
		state.Deploy = deploy
		if err := signalPreTransaction(state, ctx, e.extensions); err != nil {
			return nil, err
		}

		raw, err := e.execute(ctx.StateRoot, deploy, block, protocolVersion)
		if err != nil {
			return nil, err
		}
		root, result, err := e.CommitExecutionEffects(ctx.StateRoot, deploy.Hash(), raw)
		if err != nil {
			return nil, err
		}
		results[deploy.Hash()] = types.DeployResult{Header: deploy.Header(), Result: result}
		ctx.StateRoot = root
		ctx.ExecutionResult = &result

		if err := signalPostTransaction(state, ctx, e.extensions); err != nil {
			return nil, err
		}
	}
	state.Deploy = nil
	ctx.ExecutionResult = nil

	var stepEffects *globalstate.Effects
	var nextEraValidators types.ValidatorWeights
	if block.EraReport != nil {
		step, err := e.CommitStep(ctx.StateRoot, protocolVersion, block.EraReport, block.Timestamp, block.EraID.Successor())
		if err != nil {
			return nil, err
		}
		ctx.StateRoot = step.PostStateHash
		nextEraValidators = step.NextEraValidators
		if nextEraValidators == nil {
			nextEraValidators = types.ValidatorWeights{}
		}
		stepEffects = &step.ExecutionEffect
	}

	e.metrics.chainHeight.Set(float64(block.Height))

	produced, err := types.NewBlock(preState.ParentHash, preState.ParentSeed, ctx.StateRoot, block, nextEraValidators, protocolVersion)
	if err != nil {
		return nil, fmt.Errorf("cannot assemble block %d; %w", block.Height, err)
	}
	ctx.Block = produced

	if err := signalPostBlock(state, ctx, e.extensions); err != nil {
		return nil, err
	}

	return &BlockAndExecutionEffects{
		Block:            produced,
		ExecutionResults: results,
		StepEffects:      stepEffects,
	}, nil
}

func checkUniqueDeploys(block *types.FinalizedBlock) error {
	seen := make(map[types.DeployHash]struct{}, len(block.Deploys))
	for _, hash := range block.DeployHashes() {
		if _, found := seen[hash]; found {
			return fmt.Errorf("%w; deploy %v in block %d", ErrDuplicateDeploy, hash, block.Height)
		}
		seen[hash] = struct{}{}
	}
	return nil
}
