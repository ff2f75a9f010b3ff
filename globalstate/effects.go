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

import "github.com/Fantom-foundation/contract-runtime/types"

// Effects is an ordered list of transforms produced by executing a deploy
// or a step. Transforms are applied in insertion order. The zero value is
// an empty effect set.
type Effects struct {
	entries []effect
}

type effect struct {
	key       Key
	transform Transform
}

// Add appends a transform of the given key.
func (e *Effects) Add(key Key, transform Transform) {
	e.entries = append(e.entries, effect{key: key, transform: transform})
}

// Append adds all transforms of other after the ones already present.
func (e *Effects) Append(other Effects) {
	e.entries = append(e.entries, other.entries...)
}

func (e Effects) Len() int {
	return len(e.entries)
}

func (e Effects) IsEmpty() bool {
	return len(e.entries) == 0
}

// ForEach visits all transforms in order and stops at the first error.
func (e Effects) ForEach(visit func(Key, Transform) error) error {
	for _, entry := range e.entries {
		if err := visit(entry.key, entry.transform); err != nil {
			return err
		}
	}
	return nil
}

// Summary lists the touched keys and transform kinds, omitting values.
func (e Effects) Summary() []types.TransformEntry {
	res := make([]types.TransformEntry, 0, len(e.entries))
	for _, entry := range e.entries {
		res = append(res, types.TransformEntry{
			Key:       entry.key.String(),
			Transform: entry.transform.Kind(),
		})
	}
	return res
}
