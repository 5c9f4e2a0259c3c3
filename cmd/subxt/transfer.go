package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/anyswap/substrate-client/frame"
	"github.com/anyswap/substrate-client/log"
	"github.com/anyswap/substrate-client/signer"
	"github.com/anyswap/substrate-client/store"
	"github.com/anyswap/substrate-client/types"
	"github.com/urfave/cli/v2"
)

var (
	keyFileFlag = &cli.StringFlag{
		Name:  "keyfile",
		Usage: "hex encoded ed25519 seed file, overrides the config",
	}
	destFlag = &cli.StringFlag{
		Name:     "to",
		Usage:    "hex encoded destination account id",
		Required: true,
	}
	valueFlag = &cli.StringFlag{
		Name:     "value",
		Usage:    "amount to transfer",
		Required: true,
	}

	transferCommand = &cli.Command{
		Action:    transferAction,
		Name:      "transfer",
		Usage:     "transfer balance and wait until finalized",
		ArgsUsage: " ",
		Flags:     []cli.Flag{keyFileFlag, destFlag, valueFlag},
	}
)

func transferAction(ctx *cli.Context) error {
	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	keyFile := ctx.String(keyFileFlag.Name)
	if keyFile == "" && config.Signer != nil {
		keyFile = config.Signer.KeyFile
	}
	if keyFile == "" {
		return fmt.Errorf("no key file, specify --%v or a signer in the config", keyFileFlag.Name)
	}
	s, err := signer.LoadKeyFile(keyFile)
	if err != nil {
		return err
	}
	dest, err := types.HexToAccountID(ctx.String(destFlag.Name))
	if err != nil {
		return err
	}
	value, ok := new(big.Int).SetString(ctx.String(valueFlag.Name), 0)
	if !ok || value.Sign() < 0 {
		return fmt.Errorf("wrong value %q", ctx.String(valueFlag.Name))
	}

	stores, err := openStores(config)
	if err != nil {
		return err
	}
	defer closeStores(stores)

	c, err := newClient(context.Background(), config, stores)
	if err != nil {
		return err
	}
	defer c.Close()

	registry := frame.NewRegistry(frame.System, frame.Balances)
	if err = registry.Check(c.Metadata()); err != nil {
		return err
	}
	registry.RegisterTypes(c.Decoder())

	log.Info("transfer start", "from", s.AccountID(), "to", dest, "value", value)
	result, err := frame.TransferAndWatch(context.Background(), c, s, dest, value)
	if err != nil {
		return err
	}
	for _, st := range stores {
		if err := st.PutReceipt(result); err != nil {
			log.Warn("store receipt failed", "extrinsic", result.Extrinsic, "err", err)
		}
	}
	event, err := frame.FindTransfer(result)
	if err != nil {
		return err
	}
	log.Info("transfer finalized", "extrinsic", result.Extrinsic, "block", result.Block, "amount", event.Amount)

	bs, _ := json.MarshalIndent(store.NewReceipt(result), "", "  ")
	fmt.Println(string(bs))
	return nil
}
