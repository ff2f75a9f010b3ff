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
	"errors"
	"fmt"

	"github.com/Fantom-foundation/contract-runtime/bytesrepr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var ErrInvalidDeploy = errors.New("invalid deploy")

// DeployHash identifies a deploy. It is the Keccak-256 hash of the
// canonical encoding of the deploy header.
type DeployHash common.Hash

func (h DeployHash) String() string {
	return common.Hash(h).Hex()
}

// SessionKind enumerates the native operations a deploy may request.
type SessionKind uint8

const (
	// TransferSession moves Amount from the deploy account to Target.
	TransferSession SessionKind = iota
	// AddBidSession bonds Amount into the bid of the deploy account.
	AddBidSession
	// DelegateSession delegates Amount to the validator Target.
	DelegateSession
)

func (k SessionKind) String() string {
	switch k {
	case TransferSession:
		return "transfer"
	case AddBidSession:
		return "add_bid"
	case DelegateSession:
		return "delegate"
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// ParseSessionKind is the inverse of SessionKind.String.
func ParseSessionKind(s string) (SessionKind, error) {
	for _, k := range []SessionKind{TransferSession, AddBidSession, DelegateSession} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown session kind %q", s)
}

type Session struct {
	Kind   SessionKind
	Target PublicKey // unused by AddBidSession
	Amount uint256.Int
}

func (s Session) Encode(w *bytesrepr.Writer) {
	w.WriteU8(uint8(s.Kind))
	w.WriteBool(s.Target != "")
	if s.Target != "" {
		s.Target.Encode(w)
	}
	w.WriteU256(&s.Amount)
}

type DeployHeader struct {
	Account   PublicKey
	Timestamp Timestamp
	TTL       uint64 // in milliseconds
	GasPrice  uint64
	BodyHash  common.Hash
	ChainName string
}

func (h DeployHeader) Encode(w *bytesrepr.Writer) {
	h.Account.Encode(w)
	w.WriteU64(uint64(h.Timestamp))
	w.WriteU64(h.TTL)
	w.WriteU64(h.GasPrice)
	w.WriteFixed(h.BodyHash[:])
	w.WriteString(h.ChainName)
}

// Deploy is a transaction submitted for execution.
type Deploy struct {
	hash    DeployHash
	header  DeployHeader
	payment uint256.Int
	session Session
}

// NewDeploy assembles a deploy and computes its body and deploy hash.
func NewDeploy(account PublicKey, timestamp Timestamp, ttl uint64, gasPrice uint64, chainName string, payment *uint256.Int, session Session) *Deploy {
	d := &Deploy{
		header: DeployHeader{
			Account:   account,
			Timestamp: timestamp,
			TTL:       ttl,
			GasPrice:  gasPrice,
			ChainName: chainName,
		},
		payment: *payment,
		session: session,
	}
	d.header.BodyHash = d.computeBodyHash()
	d.hash = computeDeployHash(d.header)
	return d
}

func (d *Deploy) computeBodyHash() common.Hash {
	w := bytesrepr.NewWriter()
	w.WriteU256(&d.payment)
	d.session.Encode(w)
	return crypto.Keccak256Hash(w.Bytes())
}

func computeDeployHash(header DeployHeader) DeployHash {
	return DeployHash(crypto.Keccak256Hash(bytesrepr.ToBytes(header)))
}

func (d *Deploy) Hash() DeployHash {
	return d.hash
}

func (d *Deploy) Header() DeployHeader {
	return d.header
}

func (d *Deploy) Account() PublicKey {
	return d.header.Account
}

// Payment is the maximum amount the account is willing to pay for execution.
func (d *Deploy) Payment() *uint256.Int {
	return d.payment.Clone()
}

func (d *Deploy) Session() Session {
	return d.session
}

// Validate checks that the deploy names valid keys for its account and, where
// the session needs one, its target. Signatures are not checked.
func (d *Deploy) Validate() error {
	if !d.header.Account.IsValid() {
		return fmt.Errorf("%w; deploy %v has invalid account", ErrInvalidDeploy, d.hash)
	}
	switch d.session.Kind {
	case TransferSession, DelegateSession:
		if !d.session.Target.IsValid() {
			return fmt.Errorf("%w; %v session of deploy %v has invalid target", ErrInvalidDeploy, d.session.Kind, d.hash)
		}
	case AddBidSession:
	default:
		return fmt.Errorf("%w; deploy %v has unknown session kind %d", ErrInvalidDeploy, d.hash, d.session.Kind)
	}
	return nil
}
