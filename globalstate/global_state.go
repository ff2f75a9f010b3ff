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
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/Fantom-foundation/contract-runtime/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/trie"
)

var (
	ErrRootNotFound = errors.New("state root not found")
	ErrKeyNotFound  = errors.New("key not found")
	ErrTransform    = errors.New("transform failed")
)

// GlobalState is a content addressed key-value store. Every committed set of
// effects produces a new immutable snapshot identified by its state root;
// older snapshots stay readable.
type GlobalState interface {
	// EmptyRoot returns the root of the empty snapshot, which always exists.
	EmptyRoot() common.Hash
	// Commit applies the effects to the snapshot identified by root and
	// returns the root of the resulting snapshot.
	Commit(root common.Hash, effects Effects) (common.Hash, error)
	// Get returns the value of the key in the snapshot identified by root.
	Get(root common.Hash, key Key) ([]byte, error)
	// HasRoot reports whether a snapshot with the given root exists.
	HasRoot(root common.Hash) (bool, error)
	// Close releases all resources held by the store.
	Close() error
}

// MakeGlobalState opens the store implementation selected in the config.
func MakeGlobalState(cfg *utils.Config) (GlobalState, error) {
	switch cfg.StateDbImpl {
	case "", "memory":
		return MakeInMemoryGlobalState(), nil
	case "leveldb":
		if cfg.StateDbPath == "" {
			return nil, errors.New("leveldb global state requires a state-db path")
		}
		return MakeLevelDbGlobalState(cfg.StateDbPath, cfg.StateDbCacheSize)
	}
	return nil, fmt.Errorf("unknown state-db implementation %q", cfg.StateDbImpl)
}

// snapshot is one immutable version of global state.
type snapshot map[Key][]byte

func (s snapshot) sortedKeys() []Key {
	keys := make([]Key, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i].Bytes(), keys[j].Bytes()) < 0
	})
	return keys
}

// root computes the hash of a trie holding all key-value pairs.
func (s snapshot) root() (common.Hash, error) {
	st := trie.NewStackTrie(nil)
	for _, k := range s.sortedKeys() {
		if err := st.TryUpdate(k.Bytes(), s[k]); err != nil {
			return common.Hash{}, fmt.Errorf("cannot hash key %v; %v", k, err)
		}
	}
	return st.Hash(), nil
}

// apply returns a new snapshot with all effects applied, leaving s unchanged.
func (s snapshot) apply(effects Effects) (snapshot, error) {
	res := make(snapshot, len(s)+effects.Len())
	for k, v := range s {
		res[k] = v
	}
	err := effects.ForEach(func(key Key, transform Transform) error {
		current, exists := res[key]
		value, keep, err := transform.Apply(current, exists)
		if err != nil {
			return fmt.Errorf("cannot apply %v to %v; %w", transform.Kind(), key, err)
		}
		if !keep {
			delete(res, key)
			return nil
		}
		// the trie does not hold empty values
		if len(value) == 0 {
			return fmt.Errorf("%w; empty value written to %v", ErrTransform, key)
		}
		res[key] = value
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
