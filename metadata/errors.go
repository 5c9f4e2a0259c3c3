package metadata

import (
	"github.com/anyswap/substrate-client/common"
)

// metadata errors
var (
	ErrInvalidPrefix     = common.NewKindError(common.ErrSchema, "invalid metadata prefix")
	ErrInvalidVersion    = common.NewKindError(common.ErrSchema, "unsupported metadata version")
	ErrMalformedMetadata = common.NewKindError(common.ErrSchema, "malformed metadata")

	ErrModuleNotFound      = common.NewKindError(common.ErrLookup, "module not found")
	ErrCallNotFound        = common.NewKindError(common.ErrLookup, "call not found")
	ErrCallIndexNotFound   = common.NewKindError(common.ErrLookup, "module has no calls")
	ErrEventNotFound       = common.NewKindError(common.ErrLookup, "event not found")
	ErrStorageNotFound     = common.NewKindError(common.ErrLookup, "storage not found")
	ErrStorageTypeMismatch = common.NewKindError(common.ErrLookup, "storage type mismatch")

	ErrMapValueType    = common.NewKindError(common.ErrEncoding, "map value type error")
	ErrInvalidEventArg = common.NewKindError(common.ErrEncoding, "invalid event arg")
)
