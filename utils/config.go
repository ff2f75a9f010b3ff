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

package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"testing"

	"github.com/Fantom-foundation/contract-runtime/logger"
	"github.com/Fantom-foundation/contract-runtime/types"
	"github.com/urfave/cli/v2"
)

type ArgumentMode int

// An enums of argument modes used by subcommands
const (
	BlockRangeArgs ArgumentMode = iota // accepts either no arguments or first and last block
	NoArgs                             // requires no arguments
)

const (
	defaultValidatorSlots          = 100
	defaultProgressReportFrequency = 1_000
)

// GitCommit represents the commit hash the app was built from.
var GitCommit = "0000000000000000000000000000000000000000"

// Config represents execution configuration for contract runtime tools.
type Config struct {
	AppName     string
	CommandName string

	First uint64 // first block height
	Last  uint64 // last block height, inclusive

	BlocksFile              string                // JSON file with finalized blocks
	ChainName               string                // chain name deploys are created for
	Era                     uint64                // era to be queried
	EraSeigniorage          uint64                // stake minted per era
	GenesisFile             string                // JSON file with genesis accounts
	LogLevel                string                // level of the logging of the app action
	MetricsAddr             string                // address of the prometheus endpoint, disabled if empty
	ProgressReportFrequency int                   // number of blocks between progress reports
	ProtocolVersion         types.ProtocolVersion // protocol version of produced blocks
	PublicKey               string                // key filtering query output
	StateDbCacheSize        int                   // number of decoded snapshots kept in memory
	StateDbImpl             string                // global state implementation
	StateDbPath             string                // directory of a persistent global state
	StateRoot               string                // state root to be queried
	TrackProgress           bool                  // enables track progress logging
	ValidatorSlots          int                   // maximum size of a validator set
}

type configContext struct {
	cfg *Config       // run configuration
	log logger.Logger // logger for printing logs in config functions
	ctx *cli.Context  // command line context for accessing flags and command line arguments
}

func NewConfigContext(cfg *Config, ctx *cli.Context) *configContext {
	return &configContext{
		log: logger.NewLogger(cfg.LogLevel, "Config"),
		cfg: cfg,
		ctx: ctx,
	}
}

// NewTestConfig creates a new config for test purpose
func NewTestConfig(t *testing.T, first, last uint64) *Config {
	return &Config{
		First:                   first,
		Last:                    last,
		ChainName:               ChainNameFlag.Value,
		EraSeigniorage:          EraSeigniorageFlag.Value,
		LogLevel:                "Critical",
		ProgressReportFrequency: defaultProgressReportFrequency,
		ProtocolVersion:         types.ProtocolVersionV1,
		StateDbImpl:             "memory",
		StateDbPath:             t.TempDir(),
		ValidatorSlots:          defaultValidatorSlots,
	}
}

// NewConfig creates and initializes Config with commandline arguments.
func NewConfig(ctx *cli.Context, mode ArgumentMode) (*Config, error) {
	// create config with user flag values, if not set default values are used
	cfg, _, err := createConfigFromFlags(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot read flags; %v", err)
	}

	cc := NewConfigContext(cfg, ctx)

	version, _, _ := getFlagValue(ctx, ProtocolVersionFlag)
	cfg.ProtocolVersion, err = types.ParseProtocolVersion(version.(string))
	if err != nil {
		return nil, fmt.Errorf("cannot parse protocol version; %v", err)
	}

	if err = cc.updateConfigBlockRange(ctx.Args().Slice(), mode); err != nil {
		return nil, fmt.Errorf("unable to parse cli arguments; %v", err)
	}

	if err = cc.adjustMissingConfigValues(); err != nil {
		return nil, fmt.Errorf("cannot adjust missing config values; %v", err)
	}

	cc.reportNewConfig()

	return cfg, nil
}

// SetBlockRange parses the first and last block height.
func SetBlockRange(firstArg string, lastArg string) (uint64, uint64, error) {
	first, ferr := strconv.ParseUint(firstArg, 10, 64)
	last, lerr := strconv.ParseUint(lastArg, 10, 64)
	if err := errors.Join(ferr, lerr); err != nil {
		return 0, 0, err
	}
	if first > last {
		return 0, 0, fmt.Errorf("first block has larger number than last block")
	}
	return first, last, nil
}

func (cc *configContext) updateConfigBlockRange(args []string, mode ArgumentMode) error {
	switch mode {
	case BlockRangeArgs:
		switch len(args) {
		case 0:
			cc.cfg.First, cc.cfg.Last = 0, math.MaxUint64
		case 2:
			first, last, err := SetBlockRange(args[0], args[1])
			if err != nil {
				return err
			}
			cc.cfg.First, cc.cfg.Last = first, last
		default:
			return fmt.Errorf("command requires either no arguments or 2 arguments (first and last block)")
		}
	case NoArgs:
		if len(args) != 0 {
			return fmt.Errorf("command does not accept arguments")
		}
	default:
		return fmt.Errorf("unknown mode; unable to process commandline arguments")
	}
	return nil
}

// adjustMissingConfigValues fills and checks the values depending on each other
func (cc *configContext) adjustMissingConfigValues() error {
	cfg := cc.cfg
	log := cc.log

	if cfg.StateDbImpl == "" {
		cfg.StateDbImpl = "memory"
	}
	if cfg.StateDbImpl == "leveldb" && cfg.StateDbPath == "" {
		return fmt.Errorf("leveldb global state requires --%v", StateDbPathFlag.Name)
	}
	if cfg.StateDbImpl == "memory" && cfg.StateDbPath != "" {
		log.Warningf("State-db path %v is ignored by the in-memory global state.", cfg.StateDbPath)
	}

	if cfg.ValidatorSlots <= 0 {
		log.Warningf("Invalid number of validator slots %d, using %d.", cfg.ValidatorSlots, defaultValidatorSlots)
		cfg.ValidatorSlots = defaultValidatorSlots
	}

	if cfg.TrackProgress && cfg.ProgressReportFrequency <= 0 {
		cfg.ProgressReportFrequency = defaultProgressReportFrequency
	}
	return nil
}

// reportNewConfig logs out the state of config in current run
func (cc *configContext) reportNewConfig() {
	cfg := cc.cfg
	log := cc.log

	log.Noticef("Run config:")
	if cfg.Last == math.MaxUint64 {
		log.Infof("Block range: %v to end", cfg.First)
	} else {
		log.Infof("Block range: %v to %v", cfg.First, cfg.Last)
	}
	log.Infof("Protocol version: %v", cfg.ProtocolVersion)
	log.Infof("Chain name: %v", cfg.ChainName)
	log.Noticef("Used global state implementation: %v", cfg.StateDbImpl)
	if cfg.StateDbPath != "" {
		log.Infof("Global state directory: %v", cfg.StateDbPath)
	}
	log.Infof("Era seigniorage: %v, validator slots: %v", cfg.EraSeigniorage, cfg.ValidatorSlots)
	if cfg.MetricsAddr != "" {
		log.Infof("Serving metrics on %v", cfg.MetricsAddr)
	}
}
