package types

import (
	"encoding/json"
	"fmt"

	"github.com/anyswap/substrate-client/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RPCHeader struct
type RPCHeader struct {
	ParentHash     *common.Hash `json:"parentHash"`
	Number         *hexutil.Big `json:"number"`
	StateRoot      *common.Hash `json:"stateRoot"`
	ExtrinsicsRoot *common.Hash `json:"extrinsicsRoot"`
	Digest         *RPCDigest   `json:"digest"`
}

// RPCDigest struct
type RPCDigest struct {
	Logs []hexutil.Bytes `json:"logs"`
}

// RPCBlock struct
type RPCBlock struct {
	Header     *RPCHeader      `json:"header"`
	Extrinsics []hexutil.Bytes `json:"extrinsics"`
}

// RPCSignedBlock struct
type RPCSignedBlock struct {
	Block         RPCBlock       `json:"block"`
	Justification *hexutil.Bytes `json:"justification"`
}

// ExtrinsicIndex returns the position of the extrinsic with the hash, or -1
func (b *RPCSignedBlock) ExtrinsicIndex(hash common.Hash) int {
	for i, ext := range b.Block.Extrinsics {
		if ExtrinsicHash(ext) == hash {
			return i
		}
	}
	return -1
}

// RuntimeVersion result of state_getRuntimeVersion
type RuntimeVersion struct {
	SpecName           string           `json:"specName"`
	ImplName           string           `json:"implName"`
	AuthoringVersion   uint32           `json:"authoringVersion"`
	SpecVersion        uint32           `json:"specVersion"`
	ImplVersion        uint32           `json:"implVersion"`
	Apis               [][2]interface{} `json:"apis,omitempty"`
	TransactionVersion uint32           `json:"transactionVersion,omitempty"`
}

// StorageChange a changed storage key and its new value (nil if removed)
type StorageChange struct {
	Key  hexutil.Bytes
	Data *hexutil.Bytes
}

// MarshalJSON encodes as [key, data]
func (c StorageChange) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{c.Key, c.Data})
}

// UnmarshalJSON decodes [key, data]
func (c *StorageChange) UnmarshalJSON(input []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(input, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: storage change has %d elements", common.ErrEncoding, len(pair))
	}
	if err := json.Unmarshal(pair[0], &c.Key); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &c.Data)
}

// StorageChangeSet storage changes of a block
type StorageChangeSet struct {
	Block   common.Hash     `json:"block"`
	Changes []StorageChange `json:"changes"`
}

// Find returns the value of key in the change set
func (s *StorageChangeSet) Find(key []byte) (data []byte, found bool) {
	for _, change := range s.Changes {
		if string(change.Key) == string(key) {
			if change.Data == nil {
				return nil, true
			}
			return *change.Data, true
		}
	}
	return nil, false
}

// StatusKind transaction pool status kind
type StatusKind uint8

// transaction pool status kinds
const (
	StatusFuture StatusKind = iota
	StatusReady
	StatusBroadcast
	StatusInBlock
	StatusRetracted
	StatusFinalityTimeout
	StatusFinalized
	StatusUsurped
	StatusDropped
	StatusInvalid
)

var statusNames = []string{
	"future",
	"ready",
	"broadcast",
	"inBlock",
	"retracted",
	"finalityTimeout",
	"finalized",
	"usurped",
	"dropped",
	"invalid",
}

// String implements the stringer interface
func (k StatusKind) String() string {
	if int(k) < len(statusNames) {
		return statusNames[k]
	}
	return fmt.Sprintf("StatusKind(%d)", uint8(k))
}

func statusKindOf(name string) (StatusKind, bool) {
	for i, statusName := range statusNames {
		if statusName == name {
			return StatusKind(i), true
		}
	}
	return 0, false
}

// TransactionStatus status reported by author_submitAndWatchExtrinsic.
// Unit statuses are json strings, the others single key objects,
// eg. "ready", {"broadcast":["peer"]}, {"finalized":"0x.."}.
type TransactionStatus struct {
	Kind  StatusKind
	Block common.Hash // inBlock, retracted, finalityTimeout, finalized
	By    common.Hash // usurped
	Peers []string    // broadcast
}

// IsTerminal is final status of the transaction
func (s *TransactionStatus) IsTerminal() bool {
	switch s.Kind {
	case StatusFinalized, StatusFinalityTimeout, StatusUsurped, StatusDropped, StatusInvalid:
		return true
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler
func (s TransactionStatus) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case StatusFuture, StatusReady, StatusDropped, StatusInvalid:
		return json.Marshal(s.Kind.String())
	case StatusBroadcast:
		peers := s.Peers
		if peers == nil {
			peers = []string{}
		}
		return json.Marshal(map[string]interface{}{s.Kind.String(): peers})
	case StatusUsurped:
		return json.Marshal(map[string]interface{}{s.Kind.String(): s.By})
	default:
		return json.Marshal(map[string]interface{}{s.Kind.String(): s.Block})
	}
}

// UnmarshalJSON implements json.Unmarshaler
func (s *TransactionStatus) UnmarshalJSON(input []byte) error {
	var name string
	if err := json.Unmarshal(input, &name); err == nil {
		kind, ok := statusKindOf(name)
		if !ok {
			return fmt.Errorf("%w: unknown transaction status %q", common.ErrEncoding, name)
		}
		*s = TransactionStatus{Kind: kind}
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(input, &obj); err != nil {
		return fmt.Errorf("%w: transaction status: %v", common.ErrEncoding, err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("%w: transaction status has %d keys", common.ErrEncoding, len(obj))
	}
	for name, value := range obj {
		kind, ok := statusKindOf(name)
		if !ok {
			return fmt.Errorf("%w: unknown transaction status %q", common.ErrEncoding, name)
		}
		*s = TransactionStatus{Kind: kind}
		switch kind {
		case StatusBroadcast:
			return json.Unmarshal(value, &s.Peers)
		case StatusUsurped:
			return json.Unmarshal(value, &s.By)
		case StatusInBlock, StatusRetracted, StatusFinalityTimeout, StatusFinalized:
			return json.Unmarshal(value, &s.Block)
		}
	}
	return nil
}

// String implements the stringer interface
func (s TransactionStatus) String() string {
	switch s.Kind {
	case StatusInBlock, StatusRetracted, StatusFinalityTimeout, StatusFinalized:
		return fmt.Sprintf("%v(%v)", s.Kind, s.Block.TerminalString())
	case StatusUsurped:
		return fmt.Sprintf("%v(%v)", s.Kind, s.By.TerminalString())
	default:
		return s.Kind.String()
	}
}
