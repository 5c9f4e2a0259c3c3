package substrate

import "github.com/anyswap/substrate-client/common"

// client errors
var (
	ErrGenesisNotFound      = common.NewKindError(common.ErrNotFound, "genesis hash not found")
	ErrBlockNotFound        = common.NewKindError(common.ErrNotFound, "block not found")
	ErrExtrinsicNotFound    = common.NewKindError(common.ErrNotFound, "extrinsic not found in block")
	ErrStorageValueNotFound = common.NewKindError(common.ErrNotFound, "storage value not found")

	ErrExtrinsicUsurped         = common.NewKindError(common.ErrTxOutcome, "extrinsic usurped")
	ErrExtrinsicDropped         = common.NewKindError(common.ErrTxOutcome, "extrinsic dropped")
	ErrExtrinsicInvalid         = common.NewKindError(common.ErrTxOutcome, "extrinsic invalid")
	ErrExtrinsicFinalityTimeout = common.NewKindError(common.ErrTxOutcome, "extrinsic finality timeout")

	ErrStreamTerminated        = common.NewKindError(common.ErrTransport, "stream terminated")
	ErrSubscriptionUnsupported = common.NewKindError(common.ErrTransport, "transport does not support subscriptions")
	ErrWrongSignature          = common.NewKindError(common.ErrEncoding, "wrong signature length")
)
