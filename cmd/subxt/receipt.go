package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anyswap/substrate-client/cmd/utils"
	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/store"
	"github.com/urfave/cli/v2"
)

var receiptCommand = &cli.Command{
	Action:    receiptAction,
	Name:      "receipt",
	Usage:     "show a stored receipt",
	ArgsUsage: "<extrinsic hash>",
}

func receiptAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("wrong number of arguments, usage: %v", ctx.Command.ArgsUsage)
	}
	txHash := common.HexToHash(ctx.Args().Get(0))
	if utils.GetConfigFilePath(ctx) == "" {
		return errors.New("receipts are read from the stores of the config file")
	}
	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	stores, err := openStores(config)
	if err != nil {
		return err
	}
	defer closeStores(stores)
	if len(stores) == 0 {
		return errors.New("no store in config")
	}

	for _, st := range stores {
		receipt, err := st.GetReceipt(txHash)
		if errors.Is(err, store.ErrReceiptNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		bs, _ := json.MarshalIndent(receipt, "", "  ")
		fmt.Println(string(bs))
		return nil
	}
	return fmt.Errorf("%w: %v", store.ErrReceiptNotFound, txHash)
}
