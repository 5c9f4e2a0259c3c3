// Package clientapi answers queries about the node schema and stored receipts.
package clientapi

import (
	"context"
	"errors"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/log"
	"github.com/anyswap/substrate-client/params"
	"github.com/anyswap/substrate-client/store"
	"github.com/anyswap/substrate-client/substrate"
	"github.com/ethereum/go-ethereum/common/hexutil"
	rpcjson "github.com/gorilla/rpc/v2/json2"
)

var (
	errWrongHash        = newRPCError(-32099, "wrong extrinsic hash")
	errReceiptNotFound  = newRPCError(-32098, "receipt not found")
	errNoStore          = newRPCError(-32097, "no receipt store")
	errStorageNotFound  = newRPCError(-32096, "storage value not found")
	errNodeNotAvailable = newRPCError(-32095, "node not available")
)

func newRPCError(ec rpcjson.ErrorCode, message string) error {
	return &rpcjson.Error{
		Code:    ec,
		Message: message,
	}
}

func newRPCInternalError(err error) error {
	return newRPCError(-32000, "rpcError: "+err.Error())
}

// Service query service over the client and receipt stores
type Service struct {
	client *substrate.Client
	stores []store.ReceiptStore
}

// NewService new service, stores are searched in order
func NewService(client *substrate.Client, stores ...store.ReceiptStore) *Service {
	return &Service{client: client, stores: stores}
}

// GetServerInfo api
func (s *Service) GetServerInfo() *ServerInfo {
	log.Debug("[api] receive GetServerInfo")
	info := &ServerInfo{
		Identifier: params.GetIdentifier(),
		Version:    params.VersionWithMeta,
		Stores:     len(s.stores),
	}
	for _, module := range s.client.Metadata().Modules() {
		info.Modules = append(info.Modules, module.Name())
	}
	return info
}

// GetModule api
func (s *Service) GetModule(name string) (*ModuleInfo, error) {
	log.Debug("[api] receive GetModule", "module", name)
	module, err := s.client.Metadata().Module(name)
	if err != nil {
		return nil, newRPCInternalError(err)
	}
	info := &ModuleInfo{
		Name:    module.Name(),
		Calls:   module.CallNames(),
		Storage: module.StorageNames(),
	}
	for _, event := range module.Events() {
		args := make([]string, 0, len(event.Arguments))
		for _, arg := range event.Arguments {
			args = append(args, arg.String())
		}
		info.Events = append(info.Events, EventInfo{Name: event.Name, Args: args})
	}
	return info, nil
}

// GetStorageKey api
func (s *Service) GetStorageKey(args *StorageKeyArgs) (hexutil.Bytes, error) {
	log.Debug("[api] receive GetStorageKey", "module", args.Module, "entry", args.Entry, "key", args.Key)
	module, err := s.client.Metadata().Module(args.Module)
	if err != nil {
		return nil, newRPCInternalError(err)
	}
	entry, err := module.Storage(args.Entry)
	if err != nil {
		return nil, newRPCInternalError(err)
	}
	if args.Key == "" {
		key, err := entry.Plain()
		if err != nil {
			return nil, newRPCInternalError(err)
		}
		return key, nil
	}
	mapKey, err := hexutil.Decode(args.Key)
	if err != nil {
		return nil, newRPCInternalError(err)
	}
	smap, err := entry.Map()
	if err != nil {
		return nil, newRPCInternalError(err)
	}
	return smap.Key(mapKey), nil
}

// GetStorage api
func (s *Service) GetStorage(ctx context.Context, args *StorageKeyArgs) (hexutil.Bytes, error) {
	key, err := s.GetStorageKey(args)
	if err != nil {
		return nil, err
	}
	value, err := s.client.FetchStorage(ctx, key)
	switch {
	case errors.Is(err, substrate.ErrStorageValueNotFound):
		return nil, errStorageNotFound
	case err != nil:
		return nil, nodeError(err)
	}
	return value, nil
}

// GetRuntimeVersion api
func (s *Service) GetRuntimeVersion(ctx context.Context) (*RuntimeVersion, error) {
	log.Debug("[api] receive GetRuntimeVersion")
	version, err := s.client.RuntimeVersion(ctx)
	if err != nil {
		return nil, nodeError(err)
	}
	return version, nil
}

// GetFinalizedHead api
func (s *Service) GetFinalizedHead(ctx context.Context) (common.Hash, error) {
	log.Debug("[api] receive GetFinalizedHead")
	head, err := s.client.FinalizedHead(ctx)
	if err != nil {
		return common.Hash{}, nodeError(err)
	}
	return head, nil
}

// GetReceipt api
func (s *Service) GetReceipt(txHash string) (*Receipt, error) {
	log.Debug("[api] receive GetReceipt", "extrinsic", txHash)
	hash, err := parseHash(txHash)
	if err != nil {
		return nil, err
	}
	if len(s.stores) == 0 {
		return nil, errNoStore
	}
	for _, st := range s.stores {
		receipt, err := st.GetReceipt(hash)
		if errors.Is(err, store.ErrReceiptNotFound) {
			continue
		}
		if err != nil {
			return nil, newRPCInternalError(err)
		}
		return receipt, nil
	}
	return nil, errReceiptNotFound
}

func parseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, errWrongHash
	}
	return common.BytesToHash(b), nil
}

// nodeError maps failed and unanswered node requests to node not available
func nodeError(err error) error {
	if common.IsTransportOrNotFoundError(err) {
		log.Warn("[api] node request failed", "err", err)
		return errNodeNotAvailable
	}
	return newRPCInternalError(err)
}
