package clientapi

import (
	"github.com/anyswap/substrate-client/store"
	"github.com/anyswap/substrate-client/types"
)

// Receipt type alias
type Receipt = store.Receipt

// RuntimeVersion type alias
type RuntimeVersion = types.RuntimeVersion

// ServerInfo server info
type ServerInfo struct {
	Identifier string   `json:"identifier"`
	Version    string   `json:"version"`
	Modules    []string `json:"modules"`
	Stores     int      `json:"stores"`
}

// ModuleInfo calls, storage entries and events of a module
type ModuleInfo struct {
	Name    string      `json:"name"`
	Calls   []string    `json:"calls"`
	Storage []string    `json:"storage"`
	Events  []EventInfo `json:"events"`
}

// EventInfo event name and argument types
type EventInfo struct {
	Name string   `json:"name"`
	Args []string `json:"args"`
}

// StorageKeyArgs storage entry, key is the hex encoded map key of map entries
type StorageKeyArgs struct {
	Module string `json:"module"`
	Entry  string `json:"entry"`
	Key    string `json:"key,omitempty"`
}
