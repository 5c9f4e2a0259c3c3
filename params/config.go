package params

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/log"
)

const (
	defaultRPCTimeout     = 60 // seconds
	defaultLevelDBCache   = 16 // megabytes
	defaultLevelDBHandles = 16
	defaultAPIPort        = 11556
)

var (
	clientConfig      *Config
	loadConfigStarter sync.Once
)

// Config config items (decode from toml file)
type Config struct {
	Identifier string
	Gateway    *GatewayConfig
	Signer     *SignerConfig    `toml:",omitempty" json:",omitempty"`
	Events     *EventsConfig    `toml:",omitempty" json:",omitempty"`
	LevelDB    *LevelDBConfig   `toml:",omitempty" json:",omitempty"`
	MongoDB    *MongoDBConfig   `toml:",omitempty" json:",omitempty"`
	APIServer  *APIServerConfig `toml:",omitempty" json:",omitempty"`
}

// GatewayConfig node endpoints
type GatewayConfig struct {
	APIAddress []string // http json-rpc
	WSAddress  string   // websocket json-rpc, needed for subscriptions
	RPCTimeout uint64   `toml:",omitempty" json:",omitempty"` // seconds
}

// SignerConfig signer config
type SignerConfig struct {
	KeyFile string
}

// EventsConfig extra event argument types of the node's runtime
type EventsConfig struct {
	TypeSizes   map[string]int    `toml:",omitempty" json:",omitempty"`
	TypeAliases map[string]string `toml:",omitempty" json:",omitempty"`
}

// LevelDBConfig leveldb config
type LevelDBConfig struct {
	Path    string
	Cache   int `toml:",omitempty" json:",omitempty"` // megabytes
	Handles int `toml:",omitempty" json:",omitempty"`
}

// APIServerConfig api server config
type APIServerConfig struct {
	Port           int
	AllowedOrigins []string `toml:",omitempty" json:",omitempty"`
}

// GetAPIPort get api service port
func (c *APIServerConfig) GetAPIPort() int {
	if c == nil || c.Port == 0 {
		return defaultAPIPort
	}
	return c.Port
}

// MongoDBConfig mongodb config
type MongoDBConfig struct {
	DBURL    string
	DBName   string
	UserName string `json:"-"`
	Password string `json:"-"`
}

// GetURL get url
func (c *MongoDBConfig) GetURL() string {
	if c.UserName == "" && c.Password == "" {
		return c.DBURL
	}
	return fmt.Sprintf("%s:%s@%s", c.UserName, c.Password, c.DBURL)
}

// GetRPCTimeout get rpc timeout
func (c *GatewayConfig) GetRPCTimeout() time.Duration {
	if c.RPCTimeout == 0 {
		return defaultRPCTimeout * time.Second
	}
	return time.Duration(c.RPCTimeout) * time.Second
}

// GetConfig get config items structure
func GetConfig() *Config {
	return clientConfig
}

// SetConfig set config items
func SetConfig(config *Config) {
	clientConfig = config
}

// GetIdentifier get identifier, empty if no config is loaded
func GetIdentifier() string {
	if clientConfig == nil {
		return ""
	}
	return clientConfig.Identifier
}

// ParseConfig decode and check config file
func ParseConfig(configFile string) (*Config, error) {
	if configFile == "" {
		return nil, fmt.Errorf("no config file specified")
	}
	if !common.FileExist(configFile) {
		return nil, fmt.Errorf("config file %v not exist", configFile)
	}
	config := &Config{}
	if _, err := toml.DecodeFile(configFile, config); err != nil {
		return nil, fmt.Errorf("toml DecodeFile: %w", err)
	}
	if err := config.CheckConfig(); err != nil {
		return nil, fmt.Errorf("check config failed. %w", err)
	}
	return config, nil
}

// LoadConfig load config
func LoadConfig(configFile string) *Config {
	loadConfigStarter.Do(func() {
		log.Println("Config file is", configFile)
		config, err := ParseConfig(configFile)
		if err != nil {
			log.Fatalf("LoadConfig error: %v", err)
		}
		SetConfig(config)
		var bs []byte
		if log.JSONFormat {
			bs, _ = json.Marshal(config)
		} else {
			bs, _ = json.MarshalIndent(config, "", "  ")
		}
		log.Println("LoadConfig finished.", string(bs))
		log.Info("Check config success", "configFile", configFile)
	})
	return clientConfig
}
