package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	rawFlag = &cli.BoolFlag{
		Name:  "raw",
		Usage: "print the hex encoded metadata blob",
	}
	runtimeFlag = &cli.BoolFlag{
		Name:  "runtime",
		Usage: "print the runtime version",
	}

	metadataCommand = &cli.Command{
		Action:    metadataAction,
		Name:      "metadata",
		Usage:     "show modules with their storage, calls and events",
		ArgsUsage: " ",
		Flags:     []cli.Flag{rawFlag, runtimeFlag},
	}

	moduleStyle  = color.New(color.FgCyan, color.Bold)
	storageStyle = color.New(color.FgYellow)
	callStyle    = color.New(color.FgGreen)
	eventStyle   = color.New(color.FgMagenta)
)

func metadataAction(ctx *cli.Context) error {
	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	c, err := newClient(context.Background(), config, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	if ctx.Bool(runtimeFlag.Name) {
		version, err := c.RuntimeVersion(context.Background())
		if err != nil {
			return err
		}
		bs, _ := json.MarshalIndent(version, "", "  ")
		fmt.Println(string(bs))
		return nil
	}
	if ctx.Bool(rawFlag.Name) {
		blob, err := c.FetchMetadataBlob(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(hexutil.Encode(blob))
		return nil
	}

	for _, module := range c.Metadata().Modules() {
		_, _ = moduleStyle.Println(module.Name())
		for _, name := range module.StorageNames() {
			_, _ = storageStyle.Println(" s ", name)
		}
		for _, name := range module.CallNames() {
			_, _ = callStyle.Println(" c ", name)
		}
		for _, event := range module.Events() {
			_, _ = eventStyle.Println(" e ", event.Name)
		}
	}
	if missing := c.Decoder().CheckMissingTypeSizes(); missing.Cardinality() > 0 {
		_, _ = color.New(color.FgRed).Println("event types without size:", missing)
	}
	return nil
}
