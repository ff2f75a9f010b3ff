package main

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/contract-runtime/auction"
	"github.com/Fantom-foundation/contract-runtime/globalstate"
	"github.com/Fantom-foundation/contract-runtime/logger"
	"github.com/Fantom-foundation/contract-runtime/types"
	"github.com/Fantom-foundation/contract-runtime/utils"
	"github.com/urfave/cli/v2"
)

var AuctionInfoCmd = cli.Command{
	Action: AuctionInfo,
	Name:   "auction-info",
	Usage:  "Prints the seigniorage allocations of an era",
	Flags: []cli.Flag{
		&utils.StateDbImplementationFlag,
		&utils.StateDbPathFlag,
		&utils.StateDbCacheSizeFlag,
		&utils.StateRootFlag,
		&utils.EraFlag,
		&utils.PublicKeyFlag,
		&logger.LogLevelFlag,
	},
	Description: `
The auction-info command reads the seigniorage allocations paid out at the
end of --era from the persistent global state at --state-root. With
--public-key only allocations of that validator or delegator are printed.`,
}

// AuctionInfo prints the seigniorage allocations of an era.
func AuctionInfo(ctx *cli.Context) error {
	cfg, err := utils.NewConfig(ctx, utils.NoArgs)
	if err != nil {
		return err
	}
	allocations, err := queryAuctionInfo(cfg)
	if err != nil {
		return err
	}
	for _, allocation := range allocations {
		fmt.Println(allocation)
	}
	return nil
}

func queryAuctionInfo(cfg *utils.Config) (res []auction.SeigniorageAllocation, err error) {
	root, err := parseStateRoot(cfg.StateRoot)
	if err != nil {
		return nil, err
	}
	var key types.PublicKey
	if cfg.PublicKey != "" {
		if key, err = types.ParsePublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	}

	state, err := globalstate.MakeGlobalState(cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, state.Close())
	}()

	data, err := state.Get(root, globalstate.EraInfoKey(types.EraID(cfg.Era)))
	if errors.Is(err, globalstate.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	info, err := auction.ParseAuctionInfo(data)
	if err != nil {
		return nil, fmt.Errorf("cannot decode auction info of era %d; %w", cfg.Era, err)
	}
	if key == "" {
		return info.Allocations(), nil
	}
	return info.Select(key), nil
}
