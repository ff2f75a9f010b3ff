package executor

//go:generate mockgen -source extension.go -destination extension_mocks.go -package executor

import (
	"errors"

	"github.com/Fantom-foundation/contract-runtime/types"
	"github.com/ethereum/go-ethereum/common"
)

// Extension is an interface for modular annotations to the execution of
// blocks. During various stages, methods of extensions are called, enabling
// them to monitor and/or interfere with the execution. Block execution is
// strictly sequential, callbacks are never invoked concurrently.
//
// The execution of a range of blocks is structured as follows:
//
//	PreRun()
//	for each block {
//	   PreBlock()
//	   for each deploy {
//	       PreTransaction()
//	       execute and commit the deploy
//	       PostTransaction()
//	   }
//	   era end step, if the block ends an era
//	   PostBlock()
//	}
//	PostRun()
//
// If an extension reports an error, the current block is aborted. PreXXX
// events are delivered in the given order, PostXXX events in reverse order.
type Extension interface {
	// PreRun is called once before the first block of a run, even if the
	// range is empty. The state lists the first block of the range.
	PreRun(State, *Context) error

	// PostRun is guaranteed to be called at the end of each run. On
	// success the state lists the first block not executed, otherwise the
	// block that failed. The error causing the abort is passed along.
	PostRun(State, *Context, error) error

	// PreBlock is called before the first deploy of a block. The context
	// holds the finalized block and its pre-state root.
	PreBlock(State, *Context) error

	// PostBlock is called once the block was assembled. The context holds
	// the produced block.
	PostBlock(State, *Context) error

	// PreTransaction is called before each deploy with the state listing
	// the block height, the deploy index and the deploy.
	PreTransaction(State, *Context) error

	// PostTransaction is called after each deploy was committed. The
	// context holds its result and the resulting state root.
	PostTransaction(State, *Context) error
}

// State summarizes the current state of an execution and is passed to
// Extensions as an input for their actions.
type State struct {
	// Block is the height of the current block.
	Block uint64

	// Transaction is the index of the current deploy within its block. It is
	// only valid for Pre- and PostTransaction events.
	Transaction int

	// Deploy is the current deploy. It is only valid for Pre- and
	// PostTransaction events.
	Deploy *types.Deploy
}

// Context summarizes context data for the current execution and is passed as
// a mutable object to Extensions.
type Context struct {
	// StateRoot is the root the next deploy is executed against. After the
	// last deploy and the step it is the post state root of the block.
	StateRoot common.Hash

	// FinalizedBlock is the block being executed.
	FinalizedBlock *types.FinalizedBlock

	// ExecutionResult is the result of the last deploy, valid for
	// PostTransaction events.
	ExecutionResult *types.ExecutionResult

	// Block is the produced block, valid for PostBlock events.
	Block *types.Block

	// StateDbPath contains path to the global state directory
	StateDbPath string
}

func signalPreRun(state State, context *Context, extensions []Extension) error {
	return forEachForward(extensions, func(extension Extension) error {
		return extension.PreRun(state, context)
	})
}

func signalPostRun(state State, context *Context, err error, extensions []Extension) error {
	return forEachBackward(extensions, func(extension Extension) error {
		return extension.PostRun(state, context, err)
	})
}

func signalPreBlock(state State, context *Context, extensions []Extension) error {
	return forEachForward(extensions, func(extension Extension) error {
		return extension.PreBlock(state, context)
	})
}

func signalPostBlock(state State, context *Context, extensions []Extension) error {
	return forEachBackward(extensions, func(extension Extension) error {
		return extension.PostBlock(state, context)
	})
}

func signalPreTransaction(state State, context *Context, extensions []Extension) error {
	return forEachForward(extensions, func(extension Extension) error {
		return extension.PreTransaction(state, context)
	})
}

func signalPostTransaction(state State, context *Context, extensions []Extension) error {
	return forEachBackward(extensions, func(extension Extension) error {
		return extension.PostTransaction(state, context)
	})
}

// The event is delivered to all extensions, even if one of them fails.
func forEachForward(extensions []Extension, op func(extension Extension) error) error {
	errs := []error{}
	for _, extension := range extensions {
		if err := op(extension); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func forEachBackward(extensions []Extension, op func(extension Extension) error) error {
	errs := []error{}
	for i := len(extensions) - 1; i >= 0; i-- {
		if err := op(extensions[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
