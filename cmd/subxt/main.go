// Command subxt submits extrinsics to a substrate node and inspects its metadata.
package main

import (
	"os"
	"sort"

	"github.com/anyswap/substrate-client/cmd/utils"
	"github.com/anyswap/substrate-client/log"
	"github.com/urfave/cli/v2"
)

var (
	clientIdentifier = "subxt"
	// Git SHA1 commit hash of the release (set via linker flags)
	gitCommit = ""
	gitDate   = ""
	// The app that holds all commands and flags.
	app = utils.NewApp(clientIdentifier, gitCommit, gitDate, "the substrate client command line interface")
)

func initApp() {
	app.HideVersion = true // we have a command to print the version
	app.Copyright = "Copyright 2020 The substrate-client Authors"
	app.Commands = []*cli.Command{
		metadataCommand,
		storageKeyCommand,
		transferCommand,
		receiptCommand,
		serveCommand,
		utils.VersionCommand,
	}
	app.Flags = append([]cli.Flag{
		utils.ConfigFileFlag,
		utils.GatewayFlag,
	}, utils.CommonLogFlags...)
	app.Before = func(ctx *cli.Context) error {
		utils.SetLogger(ctx)
		return nil
	}
	sort.Sort(cli.CommandsByName(app.Commands))
}

func main() {
	initApp()
	if err := app.Run(os.Args); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
