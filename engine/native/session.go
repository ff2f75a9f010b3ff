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

package native

import (
	"fmt"

	"github.com/Fantom-foundation/contract-runtime/types"
)

func (e *Engine) runSession(tc *trackingCopy, account types.PublicKey, session types.Session) error {
	if session.Amount.IsZero() {
		return ErrZeroAmount
	}
	switch session.Kind {
	case types.TransferSession:
		return transfer(tc, account, session)
	case types.AddBidSession:
		return addBid(tc, account, session)
	case types.DelegateSession:
		return delegate(tc, account, session)
	}
	return fmt.Errorf("unsupported session kind %v", session.Kind)
}

func transfer(tc *trackingCopy, account types.PublicKey, session types.Session) error {
	if err := tc.debit(account, &session.Amount); err != nil {
		return err
	}
	return tc.credit(session.Target, &session.Amount)
}

// addBid bonds the amount into the bid of the account, reactivating it.
func addBid(tc *trackingCopy, account types.PublicKey, session types.Session) error {
	if err := tc.debit(account, &session.Amount); err != nil {
		return err
	}
	bids := tc.bids()
	bid := bids.Upsert(account)
	if err := bid.Bond(&session.Amount); err != nil {
		return err
	}
	bid.Inactive = false
	tc.writeBids(bids)
	return nil
}

func delegate(tc *trackingCopy, account types.PublicKey, session types.Session) error {
	bids := tc.bids()
	bid := bids.Find(session.Target)
	if bid == nil {
		return fmt.Errorf("%w; %v", ErrUnknownValidator, session.Target)
	}
	if err := tc.debit(account, &session.Amount); err != nil {
		return err
	}
	if err := bid.Delegate(account, &session.Amount); err != nil {
		return err
	}
	tc.writeBids(bids)
	return nil
}
