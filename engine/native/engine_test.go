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
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Fantom-foundation/contract-runtime/auction"
	"github.com/Fantom-foundation/contract-runtime/engine"
	"github.com/Fantom-foundation/contract-runtime/globalstate"
	"github.com/Fantom-foundation/contract-runtime/logger"
	"github.com/Fantom-foundation/contract-runtime/types"
	"github.com/Fantom-foundation/contract-runtime/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const testChain = "test-chain"

func account(seed byte) types.PublicKey {
	return types.MustPublicKey(types.Ed25519, bytes.Repeat([]byte{seed}, types.Ed25519KeyLength))
}

var (
	alice     = account(1)
	bob       = account(2)
	carol     = account(3)
	validator = account(10)
	other     = account(11)
)

func makeDeploy(from types.PublicKey, kind types.SessionKind, target types.PublicKey, amount uint64, payment uint64) *types.Deploy {
	session := types.Session{Kind: kind, Target: target, Amount: *uint256.NewInt(amount)}
	return types.NewDeploy(from, 1_000, 3_600_000, 1, testChain, uint256.NewInt(payment), session)
}

func makeTestEngine(t *testing.T, slots int, accounts ...GenesisAccount) (*Engine, common.Hash) {
	cfg := &utils.Config{ChainName: testChain, EraSeigniorage: 1_000, ValidatorSlots: slots}
	e := NewEngine(globalstate.MakeInMemoryGlobalState(), cfg, logger.NewLogger("critical", "Test"))
	root, _, err := e.Genesis(accounts)
	if err != nil {
		t.Fatalf("cannot create genesis; %v", err)
	}
	return e, root
}

func genesisAccount(key types.PublicKey, balance, bonded uint64) GenesisAccount {
	return GenesisAccount{PublicKey: key, Balance: *uint256.NewInt(balance), BondedAmount: *uint256.NewInt(bonded)}
}

func defaultAccounts() []GenesisAccount {
	return []GenesisAccount{
		genesisAccount(alice, 1_000_000, 0),
		genesisAccount(validator, 0, 1_000),
	}
}

func balanceOf(t *testing.T, e *Engine, root common.Hash, key types.PublicKey) uint64 {
	t.Helper()
	data, err := e.State().Get(root, globalstate.BalanceKey(key))
	if errors.Is(err, globalstate.ErrKeyNotFound) {
		return 0
	}
	if err != nil {
		t.Fatalf("cannot read balance; %v", err)
	}
	value, err := globalstate.DecodeU256(data)
	if err != nil {
		t.Fatalf("invalid balance; %v", err)
	}
	return value.Uint64()
}

func execute(t *testing.T, e *Engine, root common.Hash, deploys ...*types.Deploy) []engine.ExecutionResult {
	t.Helper()
	results, err := e.RunExecute(engine.ExecuteRequest{
		ParentStateHash: root,
		Deploys:         deploys,
		ProtocolVersion: types.ProtocolVersionV1,
		Proposer:        validator,
	})
	if err != nil {
		t.Fatalf("execution failed; %v", err)
	}
	if len(results) != len(deploys) {
		t.Fatalf("unexpected number of results %d", len(results))
	}
	return results
}

func apply(t *testing.T, e *Engine, root common.Hash, effects globalstate.Effects) common.Hash {
	t.Helper()
	next, err := e.ApplyEffect(root, effects)
	if err != nil {
		t.Fatalf("cannot apply effects; %v", err)
	}
	return next
}

func TestEngine_TransferMovesFundsAndChargesPayment(t *testing.T) {
	e, root := makeTestEngine(t, 10, defaultAccounts()...)

	results := execute(t, e, root, makeDeploy(alice, types.TransferSession, bob, 500, TransferCost))
	if !results[0].IsSuccess() {
		t.Fatalf("transfer failed; %v", results[0].Err)
	}
	if got := results[0].Cost.Uint64(); got != TransferCost {
		t.Errorf("unexpected cost %d", got)
	}

	root = apply(t, e, root, results[0].Effect)
	if got, want := balanceOf(t, e, root, alice), uint64(1_000_000-TransferCost-500); got != want {
		t.Errorf("unexpected balance of sender, wanted %d, got %d", want, got)
	}
	if got := balanceOf(t, e, root, bob); got != 500 {
		t.Errorf("unexpected balance of receiver %d", got)
	}
	if got := balanceOf(t, e, root, validator); got != TransferCost {
		t.Errorf("payment was not credited to proposer, got %d", got)
	}
}

func TestEngine_InsufficientPaymentLeavesNoEffects(t *testing.T) {
	e, root := makeTestEngine(t, 10, defaultAccounts()...)

	results := execute(t, e, root,
		makeDeploy(alice, types.TransferSession, bob, 1, TransferCost-1),
		makeDeploy(bob, types.TransferSession, alice, 1, TransferCost),
	)
	for i, result := range results {
		if !errors.Is(result.Err, ErrInsufficientPayment) {
			t.Errorf("unexpected error of deploy %d: %v", i, result.Err)
		}
		if !result.Effect.IsEmpty() {
			t.Errorf("failed payment of deploy %d produced effects", i)
		}
		if result.Cost.Uint64() != TransferCost {
			t.Errorf("cost of deploy %d not recorded", i)
		}
	}
}

func TestEngine_FailedSessionStillChargesPayment(t *testing.T) {
	e, root := makeTestEngine(t, 10, defaultAccounts()...)

	results := execute(t, e, root, makeDeploy(alice, types.TransferSession, bob, 2_000_000, TransferCost))
	if !errors.Is(results[0].Err, ErrInsufficientFunds) {
		t.Fatalf("unexpected error %v", results[0].Err)
	}
	if results[0].Effect.IsEmpty() {
		t.Fatalf("failed deploy has no payment effects")
	}

	root = apply(t, e, root, results[0].Effect)
	if got, want := balanceOf(t, e, root, alice), uint64(1_000_000-TransferCost); got != want {
		t.Errorf("unexpected balance of sender, wanted %d, got %d", want, got)
	}
	if got := balanceOf(t, e, root, bob); got != 0 {
		t.Errorf("failed transfer credited receiver with %d", got)
	}
}

func TestEngine_InvalidDeploysFail(t *testing.T) {
	e, root := makeTestEngine(t, 10, defaultAccounts()...)

	wrongChain := types.NewDeploy(alice, 1_000, 3_600_000, 1, "other-chain", uint256.NewInt(TransferCost),
		types.Session{Kind: types.TransferSession, Target: bob, Amount: *uint256.NewInt(1)})
	noTarget := makeDeploy(alice, types.TransferSession, "", 1, TransferCost)
	zeroAmount := makeDeploy(alice, types.TransferSession, bob, 0, TransferCost)

	results := execute(t, e, root, wrongChain, noTarget, zeroAmount)
	if !errors.Is(results[0].Err, ErrInvalidChainName) {
		t.Errorf("unexpected error %v", results[0].Err)
	}
	if !errors.Is(results[1].Err, types.ErrInvalidDeploy) {
		t.Errorf("unexpected error %v", results[1].Err)
	}
	if !errors.Is(results[2].Err, ErrZeroAmount) {
		t.Errorf("unexpected error %v", results[2].Err)
	}
}

func TestEngine_DeploysOfOneRequestObserveEachOther(t *testing.T) {
	e, root := makeTestEngine(t, 10, defaultAccounts()...)

	results := execute(t, e, root,
		makeDeploy(alice, types.TransferSession, bob, 20_000, TransferCost),
		makeDeploy(bob, types.TransferSession, carol, 5_000, TransferCost),
	)
	for i, result := range results {
		if !result.IsSuccess() {
			t.Fatalf("deploy %d failed; %v", i, result.Err)
		}
	}
	root = apply(t, e, root, results[0].Effect)
	root = apply(t, e, root, results[1].Effect)
	if got := balanceOf(t, e, root, carol); got != 5_000 {
		t.Errorf("unexpected balance %d", got)
	}
	if got := balanceOf(t, e, root, bob); got != 20_000-TransferCost-5_000 {
		t.Errorf("unexpected balance %d", got)
	}
}

func TestEngine_DelegateRequiresKnownValidator(t *testing.T) {
	e, root := makeTestEngine(t, 10, defaultAccounts()...)

	results := execute(t, e, root, makeDeploy(alice, types.DelegateSession, bob, 100, DelegateCost))
	if !errors.Is(results[0].Err, ErrUnknownValidator) {
		t.Errorf("unexpected error %v", results[0].Err)
	}
}

func TestEngine_RunExecuteOnUnknownRootFails(t *testing.T) {
	e, _ := makeTestEngine(t, 10, defaultAccounts()...)
	_, err := e.RunExecute(engine.ExecuteRequest{ParentStateHash: common.Hash{1}})
	if !errors.Is(err, globalstate.ErrRootNotFound) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestEngine_StepDistributesSeigniorageBetweenValidatorAndDelegators(t *testing.T) {
	e, root := makeTestEngine(t, 10, defaultAccounts()...)

	results := execute(t, e, root, makeDeploy(alice, types.DelegateSession, validator, 1_000, DelegateCost))
	if !results[0].IsSuccess() {
		t.Fatalf("delegation failed; %v", results[0].Err)
	}
	root = apply(t, e, root, results[0].Effect)

	step, err := e.CommitStep(engine.StepRequest{
		PreStateHash: root,
		RewardItems:  []engine.RewardItem{{Validator: validator, Value: 1}},
		RunAuction:   true,
		NextEraID:    1,
	})
	if err != nil {
		t.Fatalf("step failed; %v", err)
	}
	if step.ExecutionEffect.IsEmpty() {
		t.Errorf("step has no effects")
	}

	data, err := e.State().Get(step.PostStateHash, globalstate.EraInfoKey(0))
	if err != nil {
		t.Fatalf("no era info stored; %v", err)
	}
	info, err := auction.ParseAuctionInfo(data)
	if err != nil {
		t.Fatalf("invalid era info; %v", err)
	}
	want := auction.NewAuctionInfo()
	want.Append(
		auction.NewValidatorAllocation(validator, uint256.NewInt(500)),
		auction.NewDelegatorAllocation(alice, validator, uint256.NewInt(500)),
	)
	if !info.Equal(want) {
		t.Errorf("unexpected allocations %v", info.Allocations())
	}

	if len(step.NextEraValidators) != 1 || step.NextEraValidators[0].Validator != validator {
		t.Fatalf("unexpected validators %v", step.NextEraValidators)
	}
	if got := step.NextEraValidators[0].Weight.Uint64(); got != 3_000 {
		t.Errorf("rewards were not bonded, weight %d", got)
	}
	data, err = e.State().Get(step.PostStateHash, globalstate.EraValidatorsKey(1))
	if err != nil {
		t.Fatalf("no validators stored; %v", err)
	}
	stored, err := auction.ParseValidatorWeights(data)
	if err != nil || len(stored) != 1 || stored[0].Weight.Uint64() != 3_000 {
		t.Errorf("unexpected stored validators %v; %v", stored, err)
	}
}

func TestEngine_StepSplitsLargeDelegationsExactly(t *testing.T) {
	wealth := new(uint256.Int).Lsh(uint256.NewInt(1), 250)
	e, root := makeTestEngine(t, 10,
		GenesisAccount{PublicKey: alice, Balance: *wealth},
		genesisAccount(validator, 0, 1),
	)

	delegation := new(uint256.Int).Sub(wealth, uint256.NewInt(1_000_000))
	session := types.Session{Kind: types.DelegateSession, Target: validator, Amount: *delegation}
	deploy := types.NewDeploy(alice, 1_000, 3_600_000, 1, testChain, uint256.NewInt(DelegateCost), session)
	results := execute(t, e, root, deploy)
	if !results[0].IsSuccess() {
		t.Fatalf("delegation failed; %v", results[0].Err)
	}
	root = apply(t, e, root, results[0].Effect)

	step, err := e.CommitStep(engine.StepRequest{
		PreStateHash: root,
		RewardItems:  []engine.RewardItem{{Validator: validator, Value: 1}},
		RunAuction:   true,
		NextEraID:    1,
	})
	if err != nil {
		t.Fatalf("step failed; %v", err)
	}
	data, err := e.State().Get(step.PostStateHash, globalstate.EraInfoKey(0))
	if err != nil {
		t.Fatalf("no era info stored; %v", err)
	}
	info, err := auction.ParseAuctionInfo(data)
	if err != nil {
		t.Fatalf("invalid era info; %v", err)
	}
	want := auction.NewAuctionInfo()
	want.Append(
		auction.NewValidatorAllocation(validator, uint256.NewInt(1)),
		auction.NewDelegatorAllocation(alice, validator, uint256.NewInt(999)),
	)
	if !info.Equal(want) {
		t.Errorf("unexpected allocations %v", info.Allocations())
	}

	weight := new(uint256.Int).Add(delegation, uint256.NewInt(1+1_000))
	if len(step.NextEraValidators) != 1 || !step.NextEraValidators[0].Weight.Eq(weight) {
		t.Errorf("unexpected validators %v", step.NextEraValidators)
	}
}

func TestEngine_StakeOverflowFailsSession(t *testing.T) {
	max := new(uint256.Int).SetAllOne()
	e, root := makeTestEngine(t, 10,
		genesisAccount(alice, 1_000_000, 0),
		GenesisAccount{PublicKey: validator, Balance: *uint256.NewInt(1_000_000), BondedAmount: *max},
	)

	// the proposer is the validator, so its own payment flows back to it
	tests := map[string]struct {
		deploy  *types.Deploy
		balance uint64
	}{
		"delegate": {makeDeploy(alice, types.DelegateSession, validator, 100, DelegateCost), 1_000_000 - DelegateCost},
		"add-bid":  {makeDeploy(validator, types.AddBidSession, "", 100, AddBidCost), 1_000_000},
	}
	for name, test := range tests {
		deploy := test.deploy
		balance := test.balance
		t.Run(name, func(t *testing.T) {
			results := execute(t, e, root, deploy)
			if !errors.Is(results[0].Err, auction.ErrStakeOverflow) {
				t.Fatalf("unexpected error %v", results[0].Err)
			}
			next := apply(t, e, root, results[0].Effect)
			if got := balanceOf(t, e, next, deploy.Account()); got != balance {
				t.Errorf("only the payment should be charged, balance %d", got)
			}
			data, err := e.State().Get(next, globalstate.BidsKey())
			if err != nil {
				t.Fatalf("no bids stored; %v", err)
			}
			bids, err := auction.ParseBids(data)
			if err != nil {
				t.Fatalf("invalid bids; %v", err)
			}
			bid := bids.Find(validator)
			if bid == nil || !bid.StakedAmount.Eq(max) || len(bid.Delegators) != 0 {
				t.Errorf("failed session modified the bid: %v", bid)
			}
		})
	}
}

func TestEngine_StepRewardOverflowIsStepError(t *testing.T) {
	max := new(uint256.Int).SetAllOne()
	e, root := makeTestEngine(t, 10, GenesisAccount{PublicKey: validator, BondedAmount: *max})

	_, err := e.CommitStep(engine.StepRequest{
		PreStateHash: root,
		RewardItems:  []engine.RewardItem{{Validator: validator, Value: 1}},
		RunAuction:   true,
		NextEraID:    1,
	})
	var stepErr *engine.StepError
	if !errors.As(err, &stepErr) || !errors.Is(err, auction.ErrStakeOverflow) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestEngine_StepEvictsInactiveValidators(t *testing.T) {
	e, root := makeTestEngine(t, 10, append(defaultAccounts(), genesisAccount(other, 0, 500))...)

	step, err := e.CommitStep(engine.StepRequest{
		PreStateHash: root,
		EvictItems:   []engine.EvictItem{{Validator: validator}},
		RunAuction:   true,
		NextEraID:    1,
	})
	if err != nil {
		t.Fatalf("step failed; %v", err)
	}
	if len(step.NextEraValidators) != 1 || step.NextEraValidators[0].Validator != other {
		t.Errorf("unexpected validators %v", step.NextEraValidators)
	}

	_, err = e.CommitStep(engine.StepRequest{
		PreStateHash: step.PostStateHash,
		EvictItems:   []engine.EvictItem{{Validator: other}},
		RunAuction:   true,
		NextEraID:    2,
	})
	var stepErr *engine.StepError
	if !errors.As(err, &stepErr) || !errors.Is(err, engine.ErrInsufficientStake) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestEngine_StepSlashingRemovesBids(t *testing.T) {
	e, root := makeTestEngine(t, 10, append(defaultAccounts(), genesisAccount(other, 0, 500))...)

	step, err := e.CommitStep(engine.StepRequest{
		PreStateHash: root,
		SlashItems:   []engine.SlashItem{{Validator: other}},
		RunAuction:   true,
		NextEraID:    1,
	})
	if err != nil {
		t.Fatalf("step failed; %v", err)
	}
	data, err := e.State().Get(step.PostStateHash, globalstate.BidsKey())
	if err != nil {
		t.Fatalf("no bids stored; %v", err)
	}
	bids, err := auction.ParseBids(data)
	if err != nil || bids.Find(other) != nil {
		t.Errorf("slashed bid still present; %v", err)
	}
}

func TestEngine_AuctionSelectsLargestStakes(t *testing.T) {
	e, root := makeTestEngine(t, 2,
		genesisAccount(account(20), 0, 100),
		genesisAccount(account(21), 0, 300),
		genesisAccount(account(22), 0, 200),
		genesisAccount(account(23), 0, 300),
	)

	step, err := e.CommitStep(engine.StepRequest{PreStateHash: root, RunAuction: true, NextEraID: 1})
	if err != nil {
		t.Fatalf("step failed; %v", err)
	}
	got := step.NextEraValidators
	if len(got) != 2 || got[0].Validator != account(21) || got[1].Validator != account(23) {
		t.Errorf("unexpected validators %v", got)
	}
}

func TestEngine_AddBidCreatesValidator(t *testing.T) {
	e, root := makeTestEngine(t, 10, defaultAccounts()...)

	results := execute(t, e, root, makeDeploy(alice, types.AddBidSession, "", 10_000, AddBidCost))
	if !results[0].IsSuccess() {
		t.Fatalf("bid failed; %v", results[0].Err)
	}
	root = apply(t, e, root, results[0].Effect)

	step, err := e.CommitStep(engine.StepRequest{PreStateHash: root, RunAuction: true, NextEraID: 1})
	if err != nil {
		t.Fatalf("step failed; %v", err)
	}
	if weight, found := step.NextEraValidators.Get(alice); !found || weight.Uint64() != 10_000 {
		t.Errorf("new bidder was not selected, validators %v", step.NextEraValidators)
	}
}

func TestEngine_StepOnUnknownRootFails(t *testing.T) {
	e, _ := makeTestEngine(t, 10, defaultAccounts()...)
	_, err := e.CommitStep(engine.StepRequest{PreStateHash: common.Hash{1}, RunAuction: true, NextEraID: 1})
	var stepErr *engine.StepError
	if !errors.As(err, &stepErr) || !errors.Is(err, globalstate.ErrRootNotFound) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestGenesis_RequiresBondedAccount(t *testing.T) {
	e := NewEngine(globalstate.MakeInMemoryGlobalState(), &utils.Config{ValidatorSlots: 1}, logger.NewLogger("critical", "Test"))
	if _, _, err := e.Genesis([]GenesisAccount{genesisAccount(alice, 10, 0)}); !errors.Is(err, engine.ErrInsufficientStake) {
		t.Errorf("unexpected error %v", err)
	}
	if _, _, err := e.Genesis([]GenesisAccount{genesisAccount(alice, 0, 1), genesisAccount(alice, 0, 1)}); err == nil {
		t.Errorf("duplicate accounts accepted")
	}
}

func TestLoadGenesis_ReadsJsonFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.json")
	content := `[{"public_key":"` + alice.String() + `","balance":"1000"},` +
		`{"public_key":"` + validator.String() + `","bonded_amount":"115792089237316195423570985008687907853269984665640564039457584007913129639935"}]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("cannot write genesis; %v", err)
	}
	accounts, err := LoadGenesis(path)
	if err != nil {
		t.Fatalf("cannot load genesis; %v", err)
	}
	if len(accounts) != 2 || accounts[0].PublicKey != alice || accounts[0].Balance.Uint64() != 1000 {
		t.Errorf("unexpected accounts %v", accounts)
	}
	if !accounts[1].BondedAmount.Eq(new(uint256.Int).SetAllOne()) {
		t.Errorf("unexpected bonded amount %v", accounts[1].BondedAmount.ToBig())
	}

	if err := os.WriteFile(path, []byte(`[{"public_key":"zz"}]`), 0644); err != nil {
		t.Fatalf("cannot write genesis; %v", err)
	}
	if _, err := LoadGenesis(path); err == nil {
		t.Errorf("invalid public key accepted")
	}
}
