package params

import (
	"errors"
	"fmt"
	"net/url"
)

// CheckConfig check config, fill in defaults
func (c *Config) CheckConfig() (err error) {
	if c.Identifier == "" {
		return errors.New("must config non empty 'Identifier'")
	}
	if c.Gateway == nil {
		return errors.New("must config 'Gateway'")
	}
	if err = c.Gateway.CheckConfig(); err != nil {
		return err
	}
	if c.Signer != nil && c.Signer.KeyFile == "" {
		return errors.New("must config non empty 'Signer.KeyFile'")
	}
	if c.LevelDB != nil {
		if err = c.LevelDB.CheckConfig(); err != nil {
			return err
		}
	}
	if c.MongoDB != nil {
		if err = c.MongoDB.CheckConfig(); err != nil {
			return err
		}
	}
	if c.APIServer != nil && (c.APIServer.Port < 0 || c.APIServer.Port > 65535) {
		return fmt.Errorf("wrong 'APIServer.Port': %v", c.APIServer.Port)
	}
	if c.Events != nil {
		for name, size := range c.Events.TypeSizes {
			if size < 0 {
				return fmt.Errorf("wrong 'Events.TypeSizes' of %v: %v", name, size)
			}
		}
	}
	return nil
}

// CheckConfig check gateway config
func (c *GatewayConfig) CheckConfig() error {
	if len(c.APIAddress) == 0 && c.WSAddress == "" {
		return errors.New("must config 'Gateway.APIAddress' or 'Gateway.WSAddress'")
	}
	for _, apiAddress := range c.APIAddress {
		if err := checkURL(apiAddress, "http", "https"); err != nil {
			return fmt.Errorf("wrong 'Gateway.APIAddress': %w", err)
		}
	}
	if c.WSAddress != "" {
		if err := checkURL(c.WSAddress, "ws", "wss"); err != nil {
			return fmt.Errorf("wrong 'Gateway.WSAddress': %w", err)
		}
	}
	return nil
}

// CheckConfig check leveldb config
func (c *LevelDBConfig) CheckConfig() error {
	if c.Path == "" {
		return errors.New("must config non empty 'LevelDB.Path'")
	}
	if c.Cache < defaultLevelDBCache {
		c.Cache = defaultLevelDBCache
	}
	if c.Handles < defaultLevelDBHandles {
		c.Handles = defaultLevelDBHandles
	}
	return nil
}

// CheckConfig check mongodb config
func (c *MongoDBConfig) CheckConfig() error {
	if c.DBURL == "" {
		return errors.New("must config non empty 'MongoDB.DBURL'")
	}
	if c.DBName == "" {
		return errors.New("must config non empty 'MongoDB.DBName'")
	}
	return nil
}

func checkURL(rawurl string, schemes ...string) error {
	u, err := url.Parse(rawurl)
	if err != nil {
		return err
	}
	for _, scheme := range schemes {
		if u.Scheme == scheme && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%v is not a %v url", rawurl, schemes)
}
