package main

import (
	"flag"
	"testing"

	"github.com/anyswap/substrate-client/cmd/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newContext(t *testing.T, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String(utils.ConfigFileFlag.Name, "", "")
	set.String(utils.GatewayFlag.Name, "", "")
	require.Nil(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestLoadConfigGateway(t *testing.T) {
	config, err := loadConfig(newContext(t, "--gateway", "ws://127.0.0.1:9944"))
	require.Nil(t, err)
	assert.Equal(t, "ws://127.0.0.1:9944", config.Gateway.WSAddress)
	assert.Empty(t, config.Gateway.APIAddress)

	config, err = loadConfig(newContext(t, "--gateway", "http://127.0.0.1:9933"))
	require.Nil(t, err)
	assert.Equal(t, []string{"http://127.0.0.1:9933"}, config.Gateway.APIAddress)

	_, err = loadConfig(newContext(t, "--gateway", "ftp://127.0.0.1"))
	assert.NotNil(t, err)

	_, err = loadConfig(newContext(t))
	assert.Equal(t, errNoGateway, err)
}

func TestOpenNoStores(t *testing.T) {
	config, err := loadConfig(newContext(t, "--gateway", "ws://127.0.0.1:9944"))
	require.Nil(t, err)
	stores, err := openStores(config)
	require.Nil(t, err)
	assert.Empty(t, stores)
}
