package executor

//go:generate mockgen -source provider.go -destination provider_mocks.go -package executor

import (
	"fmt"

	"github.com/Fantom-foundation/contract-runtime/types"
)

// BlockProvider is a source of finalized blocks.
type BlockProvider interface {
	// Run iterates through the blocks with heights in [from,to) in order and
	// forwards them to the provided consumer. Execution aborts if the
	// consumer returns an error or an error during block retrieval occurred.
	Run(from uint64, to uint64, consumer Consumer) error
	// Close releases resources held by the provider implementation. After this
	// no more operations are allowed on the same instance.
	Close()
}

// Consumer is a type alias for the type of function to which blocks can be
// forwarded by a BlockProvider.
type Consumer func(*types.FinalizedBlock) error

// NewSliceProvider provides the given blocks, which have to be ordered by
// height.
func NewSliceProvider(blocks []*types.FinalizedBlock) BlockProvider {
	return sliceProvider{blocks}
}

type sliceProvider struct {
	blocks []*types.FinalizedBlock
}

func (p sliceProvider) Run(from uint64, to uint64, consumer Consumer) error {
	var last *types.FinalizedBlock
	for _, block := range p.blocks {
		if last != nil && block.Height <= last.Height {
			return fmt.Errorf("blocks are not ordered by height, %d follows %d", block.Height, last.Height)
		}
		last = block
		if block.Height < from {
			continue
		}
		if block.Height >= to {
			return nil
		}
		if err := consumer(block); err != nil {
			return err
		}
	}
	return nil
}

func (sliceProvider) Close() {}
