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
	"strconv"
	"strings"
	"time"

	"github.com/Fantom-foundation/contract-runtime/bytesrepr"
)

// EraID is the sequence number of a consensus era.
type EraID uint64

// Successor returns the id of the era following e.
func (e EraID) Successor() EraID {
	return e + 1
}

// Predecessor returns the id of the era preceding e, or 0 for the first era.
func (e EraID) Predecessor() EraID {
	if e == 0 {
		return 0
	}
	return e - 1
}

func (e EraID) String() string {
	return fmt.Sprintf("era %d", uint64(e))
}

// Timestamp is a point in time in milliseconds since the unix epoch.
type Timestamp uint64

func (t Timestamp) Millis() uint64 {
	return uint64(t)
}

func (t Timestamp) Time() time.Time {
	return time.UnixMilli(int64(t)).UTC()
}

// ProtocolVersion is the semantic version of the protocol rules used to
// execute a block.
type ProtocolVersion struct {
	Major uint32
	Minor uint32
	Patch uint32
}

var ProtocolVersionV1 = ProtocolVersion{Major: 1}

// ParseProtocolVersion parses strings of the form "major.minor.patch".
func ParseProtocolVersion(s string) (ProtocolVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return ProtocolVersion{}, fmt.Errorf("invalid protocol version %q; expected major.minor.patch", s)
	}
	var res [3]uint32
	for i, part := range parts {
		v, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return ProtocolVersion{}, fmt.Errorf("invalid protocol version %q; %v", s, err)
		}
		res[i] = uint32(v)
	}
	return ProtocolVersion{Major: res[0], Minor: res[1], Patch: res[2]}, nil
}

func (v ProtocolVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v ProtocolVersion) Encode(w *bytesrepr.Writer) {
	w.WriteU32(v.Major)
	w.WriteU32(v.Minor)
	w.WriteU32(v.Patch)
}
