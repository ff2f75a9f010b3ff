package utils

import (
	"github.com/urfave/cli/v2"
)

var (
	BlocksFileFlag = cli.PathFlag{
		Name:  "blocks",
		Usage: "JSON file containing the finalized blocks to execute",
	}
	ChainNameFlag = cli.StringFlag{
		Name:  "chain-name",
		Usage: "name of the chain deploys have to be created for",
		Value: "casper-test",
	}
	EraSeigniorageFlag = cli.Uint64Flag{
		Name:  "era-seigniorage",
		Usage: "amount of stake minted and distributed at the end of each era",
		Value: 1_000_000,
	}
	EraFlag = cli.Uint64Flag{
		Name:  "era",
		Usage: "era to be queried",
	}
	GenesisFileFlag = cli.PathFlag{
		Name:  "genesis",
		Usage: "JSON file describing the genesis accounts and bids",
	}
	MetricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "address serving prometheus metrics, disabled if empty",
	}
	ProgressReportFrequencyFlag = cli.IntFlag{
		Name:  "report-frequency",
		Usage: "number of blocks between two progress reports",
		Value: 1_000,
	}
	ProtocolVersionFlag = cli.StringFlag{
		Name:  "protocol-version",
		Usage: "protocol version stamped into produced blocks",
		Value: "1.0.0",
	}
	PublicKeyFlag = cli.StringFlag{
		Name:  "public-key",
		Usage: "hex encoded public key used to filter the output",
	}
	StateDbCacheSizeFlag = cli.IntFlag{
		Name:  "state-db-cache",
		Usage: "number of decoded state snapshots kept in memory",
		Value: 128,
	}
	StateDbImplementationFlag = cli.StringFlag{
		Name:  "state-db-impl",
		Usage: "select global state implementation (\"memory\", \"leveldb\")",
		Value: "memory",
	}
	StateDbPathFlag = cli.PathFlag{
		Name:  "state-db",
		Usage: "directory of the leveldb global state",
	}
	StateRootFlag = cli.StringFlag{
		Name:  "state-root",
		Usage: "hex encoded state root to be queried",
	}
	TrackProgressFlag = cli.BoolFlag{
		Name:  "track-progress",
		Usage: "enables periodic logging of the execution progress",
	}
	ValidatorSlotsFlag = cli.IntFlag{
		Name:  "validator-slots",
		Usage: "maximum number of validators selected by the auction",
		Value: 100,
	}
)
