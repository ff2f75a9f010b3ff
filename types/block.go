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
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrEraEndMismatch is returned if a block is created with only one of an
// era report and a next era validator set.
var ErrEraEndMismatch = errors.New("era report and next era validators must be given together")

// Reward is the reward weight earned by a validator during an era.
type Reward struct {
	Validator PublicKey
	Weight    uint64
}

// EraReport summarizes the behaviour of validators in an ending era. It is
// produced by consensus and consumed by the era end step.
type EraReport struct {
	// Equivocators are informational only, they are not slashed.
	Equivocators       []PublicKey
	Rewards            []Reward
	InactiveValidators []PublicKey
}

// FinalizedBlock is a block ordered by consensus but not executed yet.
type FinalizedBlock struct {
	Deploys   []*Deploy
	Timestamp Timestamp
	// EraReport is only set for the last block of an era.
	EraReport *EraReport
	EraID     EraID
	Height    uint64
	Proposer  PublicKey
	RandomBit bool
}

// IsSwitchBlock returns whether the block ends its era.
func (b *FinalizedBlock) IsSwitchBlock() bool {
	return b.EraReport != nil
}

func (b *FinalizedBlock) DeployHashes() []DeployHash {
	hashes := make([]DeployHash, 0, len(b.Deploys))
	for _, d := range b.Deploys {
		hashes = append(hashes, d.Hash())
	}
	return hashes
}

// ExecutionPreState is the immutable starting point for executing a block.
type ExecutionPreState struct {
	NextBlockHeight  uint64
	PreStateRootHash common.Hash
	ParentHash       common.Hash
	ParentSeed       common.Hash
}

// GenesisPreState returns the pre-state of the first block executed on top of
// the given genesis state root.
func GenesisPreState(genesisRoot common.Hash) ExecutionPreState {
	return ExecutionPreState{PreStateRootHash: genesisRoot}
}

// NextExecutionPreState returns the pre-state of the child of the given block.
func NextExecutionPreState(block *Block) ExecutionPreState {
	return ExecutionPreState{
		NextBlockHeight:  block.Header().Height + 1,
		PreStateRootHash: block.Header().StateRootHash,
		ParentHash:       block.Hash(),
		ParentSeed:       block.Header().AccumulatedSeed,
	}
}

// EraEnd is attached to the header of the last block of an era.
type EraEnd struct {
	EraReport               EraReport
	NextEraValidatorWeights ValidatorWeights
}

type BlockHeader struct {
	ParentHash      common.Hash
	StateRootHash   common.Hash
	BodyHash        common.Hash
	RandomBit       bool
	AccumulatedSeed common.Hash
	EraEnd          *EraEnd
	Timestamp       Timestamp
	EraID           EraID
	Height          uint64
	ProtocolVersion ProtocolVersion
}

type BlockBody struct {
	Proposer     PublicKey
	DeployHashes []DeployHash
}

// Block is an executed block.
type Block struct {
	hash   common.Hash
	header BlockHeader
	body   BlockBody
}

// NewBlock creates the executed form of a finalized block. The validator set
// of the next era must be given if and only if the block carries an era report.
func NewBlock(
	parentHash common.Hash,
	parentSeed common.Hash,
	stateRootHash common.Hash,
	finalized *FinalizedBlock,
	nextEraValidatorWeights ValidatorWeights,
	protocolVersion ProtocolVersion,
) (*Block, error) {
	var eraEnd *EraEnd
	switch {
	case finalized.EraReport != nil && nextEraValidatorWeights != nil:
		weights := append(ValidatorWeights(nil), nextEraValidatorWeights...)
		weights.Sort()
		eraEnd = &EraEnd{EraReport: *finalized.EraReport, NextEraValidatorWeights: weights}
	case finalized.EraReport != nil || nextEraValidatorWeights != nil:
		return nil, fmt.Errorf("%w; block %d", ErrEraEndMismatch, finalized.Height)
	}

	body := BlockBody{
		Proposer:     finalized.Proposer,
		DeployHashes: finalized.DeployHashes(),
	}
	header := BlockHeader{
		ParentHash:      parentHash,
		StateRootHash:   stateRootHash,
		BodyHash:        body.hash(),
		RandomBit:       finalized.RandomBit,
		AccumulatedSeed: accumulateSeed(parentSeed, finalized.RandomBit),
		EraEnd:          eraEnd,
		Timestamp:       finalized.Timestamp,
		EraID:           finalized.EraID,
		Height:          finalized.Height,
		ProtocolVersion: protocolVersion,
	}
	return &Block{hash: header.hash(), header: header, body: body}, nil
}

func accumulateSeed(parentSeed common.Hash, randomBit bool) common.Hash {
	bit := []byte{0}
	if randomBit {
		bit[0] = 1
	}
	return crypto.Keccak256Hash(parentSeed[:], bit)
}

func (b *Block) Hash() common.Hash {
	return b.hash
}

func (b *Block) Header() *BlockHeader {
	return &b.header
}

func (b *Block) Body() *BlockBody {
	return &b.body
}

func (b *Block) Height() uint64 {
	return b.header.Height
}

// NextEraValidatorWeights returns the validator set of the next era, or nil
// if the block does not end an era.
func (b *Block) NextEraValidatorWeights() ValidatorWeights {
	if b.header.EraEnd == nil {
		return nil
	}
	return b.header.EraEnd.NextEraValidatorWeights
}

// The RLP encoding does not support uint256 values and optional structs, the
// following mirror the header in an encodable form.

type rewardRLP struct {
	Validator PublicKey
	Weight    uint64
}

type validatorWeightRLP struct {
	Validator PublicKey
	Weight    *big.Int
}

type eraEndRLP struct {
	Equivocators            []PublicKey
	Rewards                 []rewardRLP
	InactiveValidators      []PublicKey
	NextEraValidatorWeights []validatorWeightRLP
}

type headerRLP struct {
	ParentHash      common.Hash
	StateRootHash   common.Hash
	BodyHash        common.Hash
	RandomBit       bool
	AccumulatedSeed common.Hash
	EraEnd          []eraEndRLP // empty, or exactly one entry
	Timestamp       uint64
	EraID           uint64
	Height          uint64
	ProtocolVersion ProtocolVersion
}

type bodyRLP struct {
	Proposer     PublicKey
	DeployHashes []common.Hash
}

func (h *BlockHeader) hash() common.Hash {
	enc := headerRLP{
		ParentHash:      h.ParentHash,
		StateRootHash:   h.StateRootHash,
		BodyHash:        h.BodyHash,
		RandomBit:       h.RandomBit,
		AccumulatedSeed: h.AccumulatedSeed,
		EraEnd:          []eraEndRLP{},
		Timestamp:       uint64(h.Timestamp),
		EraID:           uint64(h.EraID),
		Height:          h.Height,
		ProtocolVersion: h.ProtocolVersion,
	}
	if e := h.EraEnd; e != nil {
		end := eraEndRLP{
			Equivocators:            append([]PublicKey{}, e.EraReport.Equivocators...),
			Rewards:                 make([]rewardRLP, 0, len(e.EraReport.Rewards)),
			InactiveValidators:      append([]PublicKey{}, e.EraReport.InactiveValidators...),
			NextEraValidatorWeights: make([]validatorWeightRLP, 0, len(e.NextEraValidatorWeights)),
		}
		for _, r := range e.EraReport.Rewards {
			end.Rewards = append(end.Rewards, rewardRLP(r))
		}
		for _, w := range e.NextEraValidatorWeights {
			end.NextEraValidatorWeights = append(end.NextEraValidatorWeights, validatorWeightRLP{
				Validator: w.Validator,
				Weight:    w.Weight.ToBig(),
			})
		}
		enc.EraEnd = append(enc.EraEnd, end)
	}
	return RlpHash(&enc)
}

func (b BlockBody) hash() common.Hash {
	hashes := make([]common.Hash, 0, len(b.DeployHashes))
	for _, h := range b.DeployHashes {
		hashes = append(hashes, common.Hash(h))
	}
	return RlpHash(&bodyRLP{Proposer: b.Proposer, DeployHashes: hashes})
}
