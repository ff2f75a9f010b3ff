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

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Fantom-foundation/contract-runtime/executor"
	"github.com/Fantom-foundation/contract-runtime/globalstate"
	"github.com/Fantom-foundation/contract-runtime/types"
	"github.com/Fantom-foundation/contract-runtime/utils"
	"github.com/holiman/uint256"
)

const testChain = "test-chain"

func testKey(seed byte) types.PublicKey {
	return types.MustPublicKey(types.Ed25519, bytes.Repeat([]byte{seed}, types.Ed25519KeyLength))
}

var (
	alice     = testKey(1)
	bob       = testKey(2)
	validator = testKey(10)
)

func writeGenesis(t *testing.T) string {
	t.Helper()
	content := `[
		{"public_key": "` + alice.String() + `", "balance": "1000000", "bonded_amount": "0"},
		{"public_key": "` + validator.String() + `", "balance": "0", "bonded_amount": "1000"}
	]`
	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("cannot write genesis file; %v", err)
	}
	return path
}

func testBlocks() []*types.FinalizedBlock {
	transfer := types.Session{Kind: types.TransferSession, Target: bob, Amount: *uint256.NewInt(500)}
	delegate := types.Session{Kind: types.DelegateSession, Target: validator, Amount: *uint256.NewInt(1_000)}
	return []*types.FinalizedBlock{
		{
			Height:    0,
			Timestamp: 1_000,
			Proposer:  validator,
			Deploys: []*types.Deploy{
				types.NewDeploy(alice, 900, 60_000, 1, testChain, uint256.NewInt(10_000), transfer),
				types.NewDeploy(alice, 901, 60_000, 1, testChain, uint256.NewInt(25_000), delegate),
			},
		},
		{
			Height:    1,
			Timestamp: 2_000,
			Proposer:  validator,
			EraReport: &types.EraReport{Rewards: []types.Reward{{Validator: validator, Weight: 1}}},
		},
		{
			Height:    2,
			EraID:     1,
			Timestamp: 3_000,
			Proposer:  validator,
		},
	}
}

func testConfig(t *testing.T) *utils.Config {
	cfg := utils.NewTestConfig(t, 0, 2)
	cfg.ChainName = testChain
	cfg.EraSeigniorage = 2_000
	cfg.StateDbImpl = "leveldb"
	cfg.StateDbPath = t.TempDir()
	cfg.GenesisFile = writeGenesis(t)
	return cfg
}

func TestRun_ExecutesBlocksFromGenesis(t *testing.T) {
	cfg := testConfig(t)

	next, err := runBlocks(cfg, executor.NewSliceProvider(testBlocks()), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := next.NextBlockHeight, uint64(3); got != want {
		t.Errorf("unexpected next block, wanted %d, got %d", want, got)
	}

	state, err := globalstate.MakeGlobalState(cfg)
	if err != nil {
		t.Fatalf("cannot reopen global state; %v", err)
	}
	defer state.Close()
	data, err := state.Get(next.PreStateRootHash, globalstate.BalanceKey(bob))
	if err != nil {
		t.Fatalf("cannot read balance; %v", err)
	}
	balance, err := globalstate.DecodeU256(data)
	if err != nil {
		t.Fatalf("cannot decode balance; %v", err)
	}
	if got, want := balance.Uint64(), uint64(500); got != want {
		t.Errorf("unexpected balance, wanted %d, got %d", want, got)
	}
}

func TestRun_ResumesFromStateRoot(t *testing.T) {
	cfg := testConfig(t)
	cfg.Last = 0

	first, err := runBlocks(cfg, executor.NewSliceProvider(testBlocks()), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.First, cfg.Last = 1, 1
	cfg.StateRoot = first.PreStateRootHash.Hex()
	next, err := runBlocks(cfg, executor.NewSliceProvider(testBlocks()), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := next.NextBlockHeight, uint64(2); got != want {
		t.Errorf("unexpected next block, wanted %d, got %d", want, got)
	}
	if next.PreStateRootHash == first.PreStateRootHash {
		t.Errorf("era end should change the state root")
	}
}

func TestRun_RequiresKnownStateRoot(t *testing.T) {
	cfg := testConfig(t)
	cfg.StateRoot = "0x" + "11" + hexRepeat("00", 31)

	_, err := runBlocks(cfg, executor.NewSliceProvider(testBlocks()), nil)
	if !errors.Is(err, globalstate.ErrRootNotFound) {
		t.Errorf("unexpected error, wanted %v, got %v", globalstate.ErrRootNotFound, err)
	}
}

func TestRun_GenesisRequiresFirstBlock(t *testing.T) {
	cfg := testConfig(t)
	cfg.First = 1

	if _, err := runBlocks(cfg, executor.NewSliceProvider(testBlocks()), nil); err == nil {
		t.Errorf("execution from genesis must start at block 0")
	}
}

func TestAuctionInfo_ListsAllocationsOfEra(t *testing.T) {
	cfg := testConfig(t)
	next, err := runBlocks(cfg, executor.NewSliceProvider(testBlocks()), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.StateRoot = next.PreStateRootHash.Hex()
	cfg.Era = 0
	allocations, err := queryAuctionInfo(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// one allocation of the validator and one of its delegator
	if got, want := len(allocations), 2; got != want {
		t.Fatalf("unexpected number of allocations, wanted %d, got %d", want, got)
	}
	if allocations[0].IsDelegator() || allocations[0].ValidatorPublicKey() != validator {
		t.Errorf("first allocation should belong to the validator, got %v", allocations[0])
	}
	if delegator, ok := allocations[1].DelegatorPublicKey(); !ok || delegator != alice {
		t.Errorf("second allocation should belong to the delegator, got %v", allocations[1])
	}
	total := new(uint256.Int).Add(allocations[0].Amount(), allocations[1].Amount())
	if got, want := total.Uint64(), cfg.EraSeigniorage; got != want {
		t.Errorf("unexpected total payout, wanted %d, got %d", want, got)
	}

	cfg.PublicKey = alice.String()
	selected, err := queryAuctionInfo(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(selected) != 1 {
		t.Errorf("unexpected allocations of delegator %v", selected)
	}

	cfg.PublicKey = ""
	cfg.Era = 5
	empty, err := queryAuctionInfo(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("era without payouts should have no allocations, got %v", empty)
	}
}

func TestParseStateRoot_RejectsInvalidInput(t *testing.T) {
	for _, input := range []string{"", "0x1234", "zz"} {
		if _, err := parseStateRoot(input); err == nil {
			t.Errorf("state root %q should be rejected", input)
		}
	}
}

func hexRepeat(s string, n int) string {
	return string(bytes.Repeat([]byte(s), n))
}
