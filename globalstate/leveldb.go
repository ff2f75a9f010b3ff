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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

const (
	snapshotPrefix       = "s"
	defaultLruCacheSize  = 128 // in snapshots
	levelDbBlockCacheMiB = 16
)

// MakeLevelDbGlobalState opens, or creates, a GlobalState persisting its
// snapshots in a LevelDB database at the given path. Decoded snapshots are
// kept in an LRU cache of the given size.
func MakeLevelDbGlobalState(path string, cacheSize int) (GlobalState, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		BlockCacheCapacity: levelDbBlockCacheMiB * opt.MiB,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open state-db %v; %v", path, err)
	}
	state, err := newLevelDbGlobalState(db, cacheSize)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return state, nil
}

func newLevelDbGlobalState(db *leveldb.DB, cacheSize int) (*levelDbGlobalState, error) {
	if cacheSize <= 0 {
		cacheSize = defaultLruCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("cannot create snapshot cache; %v", err)
	}

	empty := snapshot{}
	root, err := empty.root()
	if err != nil {
		return nil, err
	}
	s := &levelDbGlobalState{db: db, cache: cache, empty: root}
	if err := s.store(root, empty); err != nil {
		return nil, err
	}
	return s, nil
}

type levelDbGlobalState struct {
	db    *leveldb.DB
	cache *lru.Cache // root -> snapshot
	empty common.Hash
}

type entryRLP struct {
	Key   []byte
	Value []byte
}

func snapshotKey(root common.Hash) []byte {
	return append([]byte(snapshotPrefix), root[:]...)
}

func (s *levelDbGlobalState) store(root common.Hash, snap snapshot) error {
	entries := make([]entryRLP, 0, len(snap))
	for _, k := range snap.sortedKeys() {
		entries = append(entries, entryRLP{Key: k.Bytes(), Value: snap[k]})
	}
	data, err := rlp.EncodeToBytes(entries)
	if err != nil {
		return fmt.Errorf("cannot encode snapshot %v; %v", root, err)
	}
	if err := s.db.Put(snapshotKey(root), data, nil); err != nil {
		return fmt.Errorf("cannot write snapshot %v; %v", root, err)
	}
	s.cache.Add(root, snap)
	return nil
}

func (s *levelDbGlobalState) load(root common.Hash) (snapshot, error) {
	if snap, found := s.cache.Get(root); found {
		return snap.(snapshot), nil
	}
	data, err := s.db.Get(snapshotKey(root), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, fmt.Errorf("%w; %v", ErrRootNotFound, root)
		}
		return nil, fmt.Errorf("cannot read snapshot %v; %v", root, err)
	}
	var entries []entryRLP
	if err := rlp.DecodeBytes(data, &entries); err != nil {
		return nil, fmt.Errorf("corrupted snapshot %v; %v", root, err)
	}
	snap := make(snapshot, len(entries))
	for _, entry := range entries {
		key, err := ParseKey(entry.Key)
		if err != nil {
			return nil, fmt.Errorf("corrupted snapshot %v; %v", root, err)
		}
		snap[key] = entry.Value
	}
	s.cache.Add(root, snap)
	return snap, nil
}

func (s *levelDbGlobalState) EmptyRoot() common.Hash {
	return s.empty
}

func (s *levelDbGlobalState) Commit(root common.Hash, effects Effects) (common.Hash, error) {
	snap, err := s.load(root)
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
	if err := s.store(nextRoot, next); err != nil {
		return common.Hash{}, err
	}
	return nextRoot, nil
}

func (s *levelDbGlobalState) Get(root common.Hash, key Key) ([]byte, error) {
	snap, err := s.load(root)
	if err != nil {
		return nil, err
	}
	value, found := snap[key]
	if !found {
		return nil, fmt.Errorf("%w; %v", ErrKeyNotFound, key)
	}
	return append([]byte(nil), value...), nil
}

func (s *levelDbGlobalState) HasRoot(root common.Hash) (bool, error) {
	if s.cache.Contains(root) {
		return true, nil
	}
	return s.db.Has(snapshotKey(root), nil)
}

func (s *levelDbGlobalState) Close() error {
	s.cache.Purge()
	return s.db.Close()
}
