package types

import (
	"fmt"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/scale"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// AccountIDLength length of account id
const AccountIDLength = 32

// AccountID 32 bytes account id (public key)
type AccountID [AccountIDLength]byte

// NewAccountID new account id from bytes, b must be 32 bytes long
func NewAccountID(b []byte) (id AccountID, err error) {
	if len(b) != AccountIDLength {
		return id, fmt.Errorf("%w: account id has length %d, want %d", common.ErrEncoding, len(b), AccountIDLength)
	}
	copy(id[:], b)
	return id, nil
}

// HexToAccountID parses hex account id
func HexToAccountID(s string) (AccountID, error) {
	return NewAccountID(common.FromHex(s))
}

// Bytes returns account id bytes
func (a AccountID) Bytes() []byte { return a[:] }

// Hex returns 0x prefixed hex
func (a AccountID) Hex() string { return hexutil.Encode(a[:]) }

// String implements the stringer interface
func (a AccountID) String() string { return a.Hex() }

// MarshalText implements encoding.TextMarshaler
func (a AccountID) MarshalText() ([]byte, error) {
	return hexutil.Bytes(a[:]).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *AccountID) UnmarshalText(input []byte) error {
	var b hexutil.Bytes
	if err := b.UnmarshalText(input); err != nil {
		return err
	}
	id, err := NewAccountID(b)
	if err != nil {
		return err
	}
	*a = id
	return nil
}

// EncodeTo implements scale.Encodeable
func (a AccountID) EncodeTo(e *scale.Encoder) { e.Write(a[:]) }

// DecodeFrom implements scale.Decodeable
func (a *AccountID) DecodeFrom(d *scale.Decoder) error {
	b, err := d.Next(AccountIDLength)
	if err != nil {
		return err
	}
	copy(a[:], b)
	return nil
}

// addressIDPrefix marks an address given as a full account id
const addressIDPrefix = 0xff

// Address lookup source of an account given by its account id
type Address struct {
	AccountID AccountID
}

// EncodeTo implements scale.Encodeable
func (a Address) EncodeTo(e *scale.Encoder) {
	e.PushByte(addressIDPrefix)
	a.AccountID.EncodeTo(e)
}

// DecodeFrom implements scale.Decodeable
func (a *Address) DecodeFrom(d *scale.Decoder) error {
	prefix, err := d.ReadByte()
	if err != nil {
		return err
	}
	if prefix != addressIDPrefix {
		return fmt.Errorf("%w: unsupported address prefix %#x", common.ErrEncoding, prefix)
	}
	return a.AccountID.DecodeFrom(d)
}
