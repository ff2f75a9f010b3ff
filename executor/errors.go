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

import "errors"

var (
	// ErrMoreThanOneExecutionResult reports an engine returning other than
	// exactly one result for a single deploy.
	ErrMoreThanOneExecutionResult = errors.New("expected exactly one execution result")
	// ErrHeightMismatch reports a pre-state not matching the block height.
	ErrHeightMismatch = errors.New("pre-state height does not match block height")
	// ErrDuplicateDeploy reports a block listing the same deploy twice.
	ErrDuplicateDeploy = errors.New("duplicate deploy in block")
	// ErrEngine wraps faults of the execution engine and the global state.
	ErrEngine = errors.New("engine error")
	// ErrStep wraps failures of the era end step.
	ErrStep = errors.New("step error")
)
