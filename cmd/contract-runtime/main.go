package main

import (
	"log"
	"os"

	"github.com/Fantom-foundation/contract-runtime/utils"
	"github.com/urfave/cli/v2"
)

// ContractRuntimeApp data structure
var ContractRuntimeApp = cli.App{
	Name:      "Contract Runtime",
	Usage:     "executes finalized blocks and inspects the resulting global state",
	Copyright: "(c) 2023 Fantom Foundation",
	Version:   utils.GitCommit,
	Commands: []*cli.Command{
		&RunCmd,
		&AuctionInfoCmd,
	},
}

// main implements contract-runtime cli.
func main() {
	if err := ContractRuntimeApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
