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

package executor

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Fantom-foundation/contract-runtime/types"
)

type finalizedBlockJSON struct {
	Height    uint64          `json:"height"`
	EraID     uint64          `json:"era_id"`
	Timestamp uint64          `json:"timestamp"`
	Proposer  types.PublicKey `json:"proposer"`
	RandomBit bool            `json:"random_bit,omitempty"`
	Deploys   []deployJSON    `json:"deploys"`
	EraReport *eraReportJSON  `json:"era_report,omitempty"`
}

type deployJSON struct {
	Account   types.PublicKey `json:"account"`
	Timestamp uint64          `json:"timestamp"`
	TTL       uint64          `json:"ttl"`
	GasPrice  uint64          `json:"gas_price"`
	ChainName string          `json:"chain_name"`
	Payment   string          `json:"payment"`
	Session   sessionJSON     `json:"session"`
}

type sessionJSON struct {
	Kind   string           `json:"kind"`
	Target *types.PublicKey `json:"target,omitempty"`
	Amount string           `json:"amount"`
}

type eraReportJSON struct {
	Equivocators       []types.PublicKey `json:"equivocators"`
	Rewards            []rewardJSON      `json:"rewards"`
	InactiveValidators []types.PublicKey `json:"inactive_validators"`
}

type rewardJSON struct {
	Validator types.PublicKey `json:"validator"`
	Weight    uint64          `json:"weight"`
}

// OpenJsonBlockProvider loads the finalized blocks of a JSON file. The blocks
// have to be listed in increasing height.
func OpenJsonBlockProvider(path string) (BlockProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read blocks file; %v", err)
	}
	blocks, err := ParseJsonBlocks(data)
	if err != nil {
		return nil, fmt.Errorf("cannot parse blocks file %v; %v", path, err)
	}
	return NewSliceProvider(blocks), nil
}

// ParseJsonBlocks decodes a JSON list of finalized blocks.
func ParseJsonBlocks(data []byte) ([]*types.FinalizedBlock, error) {
	var entries []finalizedBlockJSON
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	blocks := make([]*types.FinalizedBlock, 0, len(entries))
	for _, entry := range entries {
		block, err := entry.toBlock()
		if err != nil {
			return nil, fmt.Errorf("invalid block %d; %v", entry.Height, err)
		}
		if n := len(blocks); n > 0 && blocks[n-1].Height >= block.Height {
			return nil, fmt.Errorf("block %d follows block %d", block.Height, blocks[n-1].Height)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// MarshalJsonBlocks encodes finalized blocks in the format read by
// ParseJsonBlocks.
func MarshalJsonBlocks(blocks []*types.FinalizedBlock) ([]byte, error) {
	entries := make([]finalizedBlockJSON, 0, len(blocks))
	for _, block := range blocks {
		entries = append(entries, blockToJSON(block))
	}
	return json.MarshalIndent(entries, "", "  ")
}

func (b *finalizedBlockJSON) toBlock() (*types.FinalizedBlock, error) {
	block := &types.FinalizedBlock{
		Timestamp: types.Timestamp(b.Timestamp),
		EraID:     types.EraID(b.EraID),
		Height:    b.Height,
		Proposer:  b.Proposer,
		RandomBit: b.RandomBit,
	}
	for i, d := range b.Deploys {
		deploy, err := d.toDeploy()
		if err != nil {
			return nil, fmt.Errorf("invalid deploy %d; %v", i, err)
		}
		block.Deploys = append(block.Deploys, deploy)
	}
	if b.EraReport != nil {
		report := &types.EraReport{
			Equivocators:       b.EraReport.Equivocators,
			InactiveValidators: b.EraReport.InactiveValidators,
		}
		for _, r := range b.EraReport.Rewards {
			report.Rewards = append(report.Rewards, types.Reward{Validator: r.Validator, Weight: r.Weight})
		}
		block.EraReport = report
	}
	return block, nil
}

func (d *deployJSON) toDeploy() (*types.Deploy, error) {
	payment, err := types.ParseAmount(d.Payment)
	if err != nil {
		return nil, fmt.Errorf("invalid payment; %v", err)
	}
	kind, err := types.ParseSessionKind(d.Session.Kind)
	if err != nil {
		return nil, err
	}
	amount, err := types.ParseAmount(d.Session.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid session amount; %v", err)
	}
	session := types.Session{Kind: kind, Amount: *amount}
	if d.Session.Target != nil {
		session.Target = *d.Session.Target
	}
	return types.NewDeploy(d.Account, types.Timestamp(d.Timestamp), d.TTL, d.GasPrice, d.ChainName, payment, session), nil
}

func blockToJSON(block *types.FinalizedBlock) finalizedBlockJSON {
	res := finalizedBlockJSON{
		Height:    block.Height,
		EraID:     uint64(block.EraID),
		Timestamp: uint64(block.Timestamp),
		Proposer:  block.Proposer,
		RandomBit: block.RandomBit,
		Deploys:   []deployJSON{},
	}
	for _, deploy := range block.Deploys {
		header := deploy.Header()
		session := deploy.Session()
		d := deployJSON{
			Account:   header.Account,
			Timestamp: uint64(header.Timestamp),
			TTL:       header.TTL,
			GasPrice:  header.GasPrice,
			ChainName: header.ChainName,
			Payment:   deploy.Payment().ToBig().String(),
			Session: sessionJSON{
				Kind:   session.Kind.String(),
				Amount: session.Amount.ToBig().String(),
			},
		}
		if session.Target != "" {
			target := session.Target
			d.Session.Target = &target
		}
		res.Deploys = append(res.Deploys, d)
	}
	if report := block.EraReport; report != nil {
		r := &eraReportJSON{
			Equivocators:       report.Equivocators,
			Rewards:            []rewardJSON{},
			InactiveValidators: report.InactiveValidators,
		}
		for _, reward := range report.Rewards {
			r.Rewards = append(r.Rewards, rewardJSON{Validator: reward.Validator, Weight: reward.Weight})
		}
		res.EraReport = r
	}
	return res
}
