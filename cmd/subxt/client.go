package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anyswap/substrate-client/cmd/utils"
	"github.com/anyswap/substrate-client/log"
	"github.com/anyswap/substrate-client/params"
	"github.com/anyswap/substrate-client/rpc/client"
	"github.com/anyswap/substrate-client/rpc/wsclient"
	"github.com/anyswap/substrate-client/store"
	"github.com/anyswap/substrate-client/substrate"
	"github.com/urfave/cli/v2"
)

var errNoGateway = errors.New("no gateway, specify --gateway or a config file")

// loadConfig loads the config file if specified,
// the --gateway flag overrides the gateway of the config.
func loadConfig(ctx *cli.Context) (*params.Config, error) {
	config := &params.Config{}
	if configFile := utils.GetConfigFilePath(ctx); configFile != "" {
		config = params.LoadConfig(configFile)
	}
	if gateway := utils.GetGateway(ctx); gateway != "" {
		gatewayConfig := &params.GatewayConfig{}
		if strings.HasPrefix(gateway, "ws") {
			gatewayConfig.WSAddress = gateway
		} else {
			gatewayConfig.APIAddress = []string{gateway}
		}
		if config.Gateway != nil {
			gatewayConfig.RPCTimeout = config.Gateway.RPCTimeout
		}
		if err := gatewayConfig.CheckConfig(); err != nil {
			return nil, err
		}
		config.Gateway = gatewayConfig
	}
	if config.Gateway == nil {
		return nil, errNoGateway
	}
	return config, nil
}

// newRequester prefers the websocket gateway, the http gateway can not watch extrinsics
func newRequester(ctx context.Context, gateway *params.GatewayConfig) (substrate.Requester, error) {
	if gateway.WSAddress != "" {
		remote, err := wsclient.NewRemote(ctx, gateway.WSAddress)
		if err != nil {
			return nil, err
		}
		return substrate.NewWSTransport(remote), nil
	}
	return client.NewClient(gateway.GetRPCTimeout(), gateway.APIAddress...), nil
}

// openStores opens the configured stores, leveldb first
func openStores(config *params.Config) (stores []store.Store, err error) {
	if config.LevelDB != nil {
		db, err := store.NewLevelDB(config.LevelDB.Path, config.LevelDB.Cache, config.LevelDB.Handles)
		if err != nil {
			return nil, fmt.Errorf("open leveldb %v: %w", config.LevelDB.Path, err)
		}
		stores = append(stores, db)
	}
	if config.MongoDB != nil {
		mongo, err := store.DialMongo(config.MongoDB)
		if err != nil {
			closeStores(stores)
			return nil, fmt.Errorf("dial mongodb: %w", err)
		}
		stores = append(stores, mongo)
	}
	return stores, nil
}

func closeStores(stores []store.Store) {
	for _, s := range stores {
		if err := s.Close(); err != nil {
			log.Warn("close store failed", "err", err)
		}
	}
}

// newClient connects the gateway, metadata is cached in the first store
func newClient(ctx context.Context, config *params.Config, stores []store.Store) (*substrate.Client, error) {
	requester, err := newRequester(ctx, config.Gateway)
	if err != nil {
		return nil, err
	}
	var c *substrate.Client
	if len(stores) > 0 {
		c, err = substrate.NewCachedClient(ctx, requester, stores[0])
	} else {
		c, err = substrate.NewClient(ctx, requester)
	}
	if err != nil {
		if closer, ok := requester.(interface{ Close() }); ok {
			closer.Close()
		}
		return nil, err
	}
	if config.Events != nil {
		decoder := c.Decoder()
		for name, size := range config.Events.TypeSizes {
			decoder.RegisterTypeSize(name, size)
		}
		for name, expr := range config.Events.TypeAliases {
			if err = decoder.RegisterTypeAlias(name, expr); err != nil {
				c.Close()
				return nil, fmt.Errorf("type alias %v: %w", name, err)
			}
		}
	}
	return c, nil
}
