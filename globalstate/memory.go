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

package globalstate

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MakeInMemoryGlobalState creates a GlobalState keeping all snapshots in
// memory. It is intended for tests and short lived runs.
func MakeInMemoryGlobalState() GlobalState {
	empty := snapshot{}
	root, err := empty.root()
	if err != nil {
		panic(fmt.Sprintf("cannot hash empty snapshot; %v", err))
	}
	return &inMemoryGlobalState{
		snapshots: map[common.Hash]snapshot{root: empty},
		empty:     root,
	}
}

type inMemoryGlobalState struct {
	mu        sync.RWMutex
	snapshots map[common.Hash]snapshot
	empty     common.Hash
}

func (s *inMemoryGlobalState) EmptyRoot() common.Hash {
	return s.empty
}

func (s *inMemoryGlobalState) get(root common.Hash) (snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, found := s.snapshots[root]
	if !found {
		return nil, fmt.Errorf("%w; %v", ErrRootNotFound, root)
	}
	return snap, nil
}

func (s *inMemoryGlobalState) Commit(root common.Hash, effects Effects) (common.Hash, error) {
	snap, err := s.get(root)
	if err != nil {
		return common.Hash{}, err
	}
	next, err := snap.apply(effects)
	if err != nil {
		return common.Hash{}, err
	}
	nextRoot, err := next.root()
	if err != nil {
		return common.Hash{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.snapshots[nextRoot]; !found {
		s.snapshots[nextRoot] = next
	}
	return nextRoot, nil
}

func (s *inMemoryGlobalState) Get(root common.Hash, key Key) ([]byte, error) {
	snap, err := s.get(root)
	if err != nil {
		return nil, err
	}
	value, found := snap[key]
	if !found {
		return nil, fmt.Errorf("%w; %v", ErrKeyNotFound, key)
	}
	return append([]byte(nil), value...), nil
}

func (s *inMemoryGlobalState) HasRoot(root common.Hash) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, found := s.snapshots[root]
	return found, nil
}

func (s *inMemoryGlobalState) Close() error {
	return nil
}
