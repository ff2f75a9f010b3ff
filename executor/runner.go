package executor

import (
	"errors"
	"sync"

	"github.com/Fantom-foundation/contract-runtime/types"
)

// Runner executes the blocks of a provider one after the other, deriving the
// pre-state of each block from its parent. Runs on the same Runner are
// serialized.
type Runner struct {
	mu              sync.Mutex
	executor        *BlockExecutor
	provider        BlockProvider
	protocolVersion types.ProtocolVersion
	stateDbPath     string
}

func NewRunner(executor *BlockExecutor, provider BlockProvider, protocolVersion types.ProtocolVersion, stateDbPath string) *Runner {
	return &Runner{
		executor:        executor,
		provider:        provider,
		protocolVersion: protocolVersion,
		stateDbPath:     stateDbPath,
	}
}

// Run executes the blocks with heights in [from,to) on top of preState. It
// returns the pre-state of the block following the last executed block. If
// a block fails, the pre-state of the failed block is returned along with
// the error.
func (r *Runner) Run(from uint64, to uint64, preState types.ExecutionPreState) (next types.ExecutionPreState, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	extensions := r.executor.extensions
	state := State{Block: from}
	ctx := &Context{StateRoot: preState.PreStateRootHash, StateDbPath: r.stateDbPath}
	next = preState

	defer func() {
		// Skip PostRun actions if a panic occurred. In such a case there is no guarantee
		// on the state of anything, and PostRun operations may deadlock or cause damage.
		if r := recover(); r != nil {
			panic(r) // just forward
		}
		err = errors.Join(
			err,
			signalPostRun(state, ctx, err, extensions),
		)
	}()

	if err = signalPreRun(state, ctx, extensions); err != nil {
		return next, err
	}

	err = r.provider.Run(from, to, func(block *types.FinalizedBlock) error {
		state.Block = block.Height
		res, err := r.executor.executeFinalizedBlock(r.protocolVersion, next, block, r.stateDbPath)
		if err != nil {
			return err
		}
		next = types.NextExecutionPreState(res.Block)
		ctx.StateRoot = next.PreStateRootHash
		ctx.Block = res.Block
		return nil
	})
	if err != nil {
		return next, err
	}
	state.Block = next.NextBlockHeight
	return next, nil
}
