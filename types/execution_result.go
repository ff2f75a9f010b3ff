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

package types

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Outcome tags an ExecutionResult.
type Outcome uint8

const (
	Success Outcome = iota
	Failure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	}
	return fmt.Sprintf("unknown(%d)", uint8(o))
}

// TransformEntry names a state key touched by a deploy and the kind of
// transform applied to it. Values are deliberately not recorded.
type TransformEntry struct {
	Key       string
	Transform string
}

// ExecutionResult is the externally visible outcome of executing a deploy.
// Failed deploys still carry the effect that was committed and their cost.
type ExecutionResult struct {
	Outcome      Outcome
	Effect       []TransformEntry
	Cost         uint256.Int
	ErrorMessage string // only set for failures
}

func (r *ExecutionResult) IsSuccess() bool {
	return r.Outcome == Success
}

func (r *ExecutionResult) String() string {
	if r.IsSuccess() {
		return fmt.Sprintf("Success{cost: %v, transforms: %d}", r.Cost.ToBig(), len(r.Effect))
	}
	return fmt.Sprintf("Failure{cost: %v, transforms: %d, error: %s}", r.Cost.ToBig(), len(r.Effect), r.ErrorMessage)
}

// DeployResult pairs the header of an executed deploy with its result.
type DeployResult struct {
	Header DeployHeader
	Result ExecutionResult
}
