package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anyswap/substrate-client/internal/clientapi"
	"github.com/anyswap/substrate-client/log"
	"github.com/anyswap/substrate-client/params"
	"github.com/anyswap/substrate-client/rpc/server"
	"github.com/anyswap/substrate-client/store"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Action:    serveAction,
	Name:      "serve",
	Usage:     "serve node schema and stored receipts over json-rpc and rest",
	ArgsUsage: " ",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "port",
			Usage: "api server port, overrides the config",
		},
	},
}

func serveAction(ctx *cli.Context) error {
	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	params.SetConfig(config)
	apiConfig := config.APIServer
	if port := ctx.Int("port"); port != 0 {
		apiConfig = &params.APIServerConfig{Port: port}
		if config.APIServer != nil {
			apiConfig.AllowedOrigins = config.APIServer.AllowedOrigins
		}
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

	receiptStores := make([]store.ReceiptStore, 0, len(stores))
	for _, st := range stores {
		receiptStores = append(receiptStores, st)
	}
	svr := server.StartAPIServer(apiConfig, clientapi.NewService(c, receiptStores...))

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signalCh
	log.Info("api server shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return svr.Shutdown(shutdownCtx)
}
