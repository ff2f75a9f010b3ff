package main

import (
	"errors"
	"fmt"
	"math"

	"github.com/Fantom-foundation/contract-runtime/engine/native"
	"github.com/Fantom-foundation/contract-runtime/executor"
	"github.com/Fantom-foundation/contract-runtime/executor/extension"
	"github.com/Fantom-foundation/contract-runtime/executor/extension/tracker"
	"github.com/Fantom-foundation/contract-runtime/globalstate"
	"github.com/Fantom-foundation/contract-runtime/logger"
	"github.com/Fantom-foundation/contract-runtime/types"
	"github.com/Fantom-foundation/contract-runtime/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

var RunCmd = cli.Command{
	Action:    Run,
	Name:      "run",
	Usage:     "Executes finalized blocks into a global state",
	ArgsUsage: "[<blockNumFirst> <blockNumLast>]",
	Flags: []cli.Flag{
		// Input
		&utils.GenesisFileFlag,
		&utils.BlocksFileFlag,
		&utils.StateRootFlag,

		// GlobalState
		&utils.StateDbImplementationFlag,
		&utils.StateDbPathFlag,
		&utils.StateDbCacheSizeFlag,

		// Engine
		&utils.ChainNameFlag,
		&utils.EraSeigniorageFlag,
		&utils.ValidatorSlotsFlag,
		&utils.ProtocolVersionFlag,

		// Utils
		&utils.MetricsAddrFlag,
		&utils.TrackProgressFlag,
		&utils.ProgressReportFrequencyFlag,
		&logger.LogLevelFlag,
	},
	Description: `
The run command executes the finalized blocks listed in the blocks file.
Without arguments all blocks are executed, otherwise the inclusive range
<blockNumFirst> <blockNumLast>.

Execution starts from the genesis accounts of the genesis file, or from an
existing state root of a persistent global state given by --state-root.`,
}

// Run executes the finalized blocks of a blocks file.
func Run(ctx *cli.Context) error {
	cfg, err := utils.NewConfig(ctx, utils.BlockRangeArgs)
	if err != nil {
		return err
	}
	if cfg.BlocksFile == "" {
		return fmt.Errorf("run requires --%v", utils.BlocksFileFlag.Name)
	}

	provider, err := executor.OpenJsonBlockProvider(cfg.BlocksFile)
	if err != nil {
		return err
	}
	defer provider.Close()

	_, err = runBlocks(cfg, provider, nil)
	return err
}

func runBlocks(cfg *utils.Config, provider executor.BlockProvider, extra []executor.Extension) (res types.ExecutionPreState, err error) {
	log := logger.NewLogger(cfg.LogLevel, "Run")

	state, err := globalstate.MakeGlobalState(cfg)
	if err != nil {
		return res, err
	}
	defer func() {
		err = errors.Join(err, state.Close())
	}()

	engine := native.MakeEngine(state, cfg)
	preState, err := initialPreState(cfg, engine)
	if err != nil {
		return res, err
	}

	reg := prometheus.NewRegistry()
	metrics, err := executor.NewMetrics(reg)
	if err != nil {
		return res, err
	}

	// order of extensionList has to be maintained
	extensionList := []executor.Extension{
		extension.MakeMetricsServer(cfg, reg),
		tracker.MakeProgressTracker(cfg, cfg.ProgressReportFrequency),
	}
	extensionList = append(extensionList, extra...)

	to := cfg.Last
	if to != math.MaxUint64 {
		to++
	}
	// the in-memory global state ignores the state-db path
	stateDbPath := cfg.StateDbPath
	if cfg.StateDbImpl != "leveldb" {
		stateDbPath = ""
	}
	blockExecutor := executor.MakeBlockExecutor(cfg, engine, metrics, extensionList...)
	res, err = executor.NewRunner(blockExecutor, provider, cfg.ProtocolVersion, stateDbPath).Run(cfg.First, to, preState)
	if err != nil {
		return res, err
	}
	log.Noticef("Next block %d, state root %v", res.NextBlockHeight, res.PreStateRootHash)
	return res, nil
}

// initialPreState derives the pre-state of the first block, either from an
// existing state root or by committing the genesis accounts.
func initialPreState(cfg *utils.Config, engine *native.Engine) (types.ExecutionPreState, error) {
	if cfg.StateRoot != "" {
		root, err := parseStateRoot(cfg.StateRoot)
		if err != nil {
			return types.ExecutionPreState{}, err
		}
		exists, err := engine.State().HasRoot(root)
		if err != nil {
			return types.ExecutionPreState{}, err
		}
		if !exists {
			return types.ExecutionPreState{}, fmt.Errorf("%w; %v", globalstate.ErrRootNotFound, root)
		}
		return types.ExecutionPreState{NextBlockHeight: cfg.First, PreStateRootHash: root}, nil
	}

	if cfg.GenesisFile == "" {
		return types.ExecutionPreState{}, fmt.Errorf("either --%v or --%v is required", utils.GenesisFileFlag.Name, utils.StateRootFlag.Name)
	}
	if cfg.First != 0 {
		return types.ExecutionPreState{}, fmt.Errorf("execution from genesis has to start at block 0, got %d", cfg.First)
	}
	accounts, err := native.LoadGenesis(cfg.GenesisFile)
	if err != nil {
		return types.ExecutionPreState{}, err
	}
	root, _, err := engine.Genesis(accounts)
	if err != nil {
		return types.ExecutionPreState{}, err
	}
	return types.GenesisPreState(root), nil
}

// parseStateRoot parses a hex encoded state root.
func parseStateRoot(s string) (common.Hash, error) {
	data := common.FromHex(s)
	if len(data) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid state root %q", s)
	}
	return common.BytesToHash(data), nil
}
