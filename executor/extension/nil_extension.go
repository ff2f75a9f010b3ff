package extension

import "github.com/Fantom-foundation/contract-runtime/executor"

// NilExtension is an extension ignoring all events. It may be embedded by
// extensions only interested in a subset of the events.
type NilExtension struct{}

func (NilExtension) PreRun(executor.State, *executor.Context) error          { return nil }
func (NilExtension) PostRun(executor.State, *executor.Context, error) error  { return nil }
func (NilExtension) PreBlock(executor.State, *executor.Context) error        { return nil }
func (NilExtension) PostBlock(executor.State, *executor.Context) error       { return nil }
func (NilExtension) PreTransaction(executor.State, *executor.Context) error  { return nil }
func (NilExtension) PostTransaction(executor.State, *executor.Context) error { return nil }
