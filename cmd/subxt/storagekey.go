package main

import (
	"context"
	"fmt"

	"github.com/anyswap/substrate-client/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
)

var storageKeyCommand = &cli.Command{
	Action:    storageKeyAction,
	Name:      "storagekey",
	Usage:     "derive the storage key of a plain or map entry",
	ArgsUsage: "<module> <entry> [hex encoded map key]",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "fetch",
			Usage: "also fetch the storage value",
		},
	},
}

func storageKeyAction(ctx *cli.Context) error {
	if ctx.NArg() < 2 || ctx.NArg() > 3 {
		return fmt.Errorf("wrong number of arguments, usage: %v", ctx.Command.ArgsUsage)
	}
	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	c, err := newClient(context.Background(), config, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	module, err := c.Metadata().Module(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	entry, err := module.Storage(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	var key []byte
	if ctx.NArg() == 2 {
		key, err = entry.Plain()
	} else {
		smap, errm := entry.Map()
		if errm != nil {
			return errm
		}
		key = smap.Key(common.FromHex(ctx.Args().Get(2)))
	}
	if err != nil {
		return err
	}
	fmt.Println(hexutil.Encode(key))

	if ctx.Bool("fetch") {
		value, err := c.FetchStorage(context.Background(), key)
		if err != nil {
			return err
		}
		fmt.Println(hexutil.Encode(value))
	}
	return nil
}
