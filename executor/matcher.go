// Copyright 2024 Fantom Foundation
// This file is part of Aida Testing Infrastructure for Sonic
//
// Aida is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Aida is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Aida. If not, see <http://www.gnu.org/licenses/>.

package executor

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/mock/gomock"
)

// ----------------------------------------------------------------------------
//                                   Matcher
// ----------------------------------------------------------------------------

// AtBlock matches executor.State instances with the given block height.
func AtBlock(block uint64) gomock.Matcher {
	return atBlock{block}
}

// AtTransaction matches executor.State instances with the given block height
// and deploy index.
func AtTransaction(block uint64, transaction int) gomock.Matcher {
	return atTransaction{block, transaction}
}

// WithStateRoot matches executor.Context instances with the given state root.
func WithStateRoot(root common.Hash) gomock.Matcher {
	return withStateRoot{root}
}

// WithError matches errors wrapping the given error.
func WithError(err error) gomock.Matcher {
	return withError{err}
}

// Lt matches every value less than the given limit.
func Lt(limit float64) gomock.Matcher {
	return lt{limit}
}

// Gt matches every value greater than the given limit.
func Gt(limit float64) gomock.Matcher {
	return gt{limit}
}

// ----------------------------------------------------------------------------

type atBlock struct {
	expectedBlock uint64
}

func (m atBlock) Matches(value any) bool {
	state, ok := value.(State)
	return ok && state.Block == m.expectedBlock
}

func (m atBlock) String() string {
	return fmt.Sprintf("at block %d", m.expectedBlock)
}

type atTransaction struct {
	expectedBlock       uint64
	expectedTransaction int
}

func (m atTransaction) Matches(value any) bool {
	state, ok := value.(State)
	return ok && state.Block == m.expectedBlock && state.Transaction == m.expectedTransaction && state.Deploy != nil
}

func (m atTransaction) String() string {
	return fmt.Sprintf("at transaction %d/%d", m.expectedBlock, m.expectedTransaction)
}

type withStateRoot struct {
	root common.Hash
}

func (m withStateRoot) Matches(value any) bool {
	if ctx, ok := value.(Context); ok {
		return ctx.StateRoot == m.root
	}
	if ctx, ok := value.(*Context); ok {
		return ctx.StateRoot == m.root
	}
	return false
}

func (m withStateRoot) String() string {
	return fmt.Sprintf("with state root %v", m.root)
}

type withError struct {
	err error
}

func (m withError) Matches(value any) bool {
	err, ok := value.(error)
	return ok && errors.Is(err, m.err)
}

func (m withError) String() string {
	return fmt.Sprintf("error wrapping %v", m.err)
}

type lt struct {
	limit float64
}

func (m lt) Matches(value any) bool {
	v, ok := value.(float64)
	return ok && v < m.limit
}

func (m lt) String() string {
	return fmt.Sprintf("less than %v", m.limit)
}

type gt struct {
	limit float64
}

func (m gt) Matches(value any) bool {
	v, ok := value.(float64)
	return ok && v > m.limit
}

func (m gt) String() string {
	return fmt.Sprintf("greater than %v", m.limit)
}

// ----------------------------------------------------------------------------

func MatchRate(constraint gomock.Matcher, name string) gomock.Matcher {
	return matchRate{constraint, name}
}

type matchRate struct {
	constraint gomock.Matcher
	name       string
}

func (m matchRate) Matches(value any) bool {
	rate, ok := value.(float64)
	return ok && m.constraint.Matches(rate)
}

func (m matchRate) String() string {
	return fmt.Sprintf("log should have a %v that is %v", m.name, m.constraint)
}
