// Package rpcapi provides the json-rpc 2.0 api service.
package rpcapi

import (
	"net/http"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/internal/clientapi"
	"github.com/anyswap/substrate-client/params"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RPCAPI rpc api handler
type RPCAPI struct {
	service *clientapi.Service
}

// NewRPCAPI new rpc api handler
func NewRPCAPI(service *clientapi.Service) *RPCAPI {
	return &RPCAPI{service: service}
}

// RPCNullArgs null args
type RPCNullArgs struct{}

// GetVersionInfo api
func (s *RPCAPI) GetVersionInfo(r *http.Request, args *RPCNullArgs, result *string) error {
	version := params.VersionWithMeta
	*result = version
	return nil
}

// GetServerInfo api
func (s *RPCAPI) GetServerInfo(r *http.Request, args *RPCNullArgs, result *clientapi.ServerInfo) error {
	*result = *s.service.GetServerInfo()
	return nil
}

// GetModule api
func (s *RPCAPI) GetModule(r *http.Request, name *string, result *clientapi.ModuleInfo) error {
	res, err := s.service.GetModule(*name)
	if err == nil && res != nil {
		*result = *res
	}
	return err
}

// GetStorageKey api
func (s *RPCAPI) GetStorageKey(r *http.Request, args *clientapi.StorageKeyArgs, result *hexutil.Bytes) error {
	res, err := s.service.GetStorageKey(args)
	if err == nil {
		*result = res
	}
	return err
}

// GetStorage api
func (s *RPCAPI) GetStorage(r *http.Request, args *clientapi.StorageKeyArgs, result *hexutil.Bytes) error {
	res, err := s.service.GetStorage(r.Context(), args)
	if err == nil {
		*result = res
	}
	return err
}

// GetRuntimeVersion api
func (s *RPCAPI) GetRuntimeVersion(r *http.Request, args *RPCNullArgs, result *clientapi.RuntimeVersion) error {
	res, err := s.service.GetRuntimeVersion(r.Context())
	if err == nil && res != nil {
		*result = *res
	}
	return err
}

// GetFinalizedHead api
func (s *RPCAPI) GetFinalizedHead(r *http.Request, args *RPCNullArgs, result *common.Hash) error {
	res, err := s.service.GetFinalizedHead(r.Context())
	if err == nil {
		*result = res
	}
	return err
}

// GetReceipt api
func (s *RPCAPI) GetReceipt(r *http.Request, txHash *string, result *clientapi.Receipt) error {
	res, err := s.service.GetReceipt(*txHash)
	if err == nil && res != nil {
		*result = *res
	}
	return err
}
