// Package scale implements the SCALE binary codec the substrate node speaks:
// little endian fixed width integers, compact integers, length prefixed
// bytes / strings / vectors and tagged options.
package scale

import (
	"bytes"
	"encoding/binary"
	"math/big"

	"github.com/anyswap/substrate-client/common"
)

const (
	// compact big integer mode carries at most 4+63 bytes
	maxCompactBits = (4 + 63) * 8

	maxSingleByte = 1<<6 - 1
	maxTwoBytes   = 1<<14 - 1
	maxFourBytes  = 1<<30 - 1
)

// codec errors
var (
	ErrUnexpectedEOF    = common.NewKindError(common.ErrEncoding, "unexpected end of input")
	ErrCompactOverflow  = common.NewKindError(common.ErrEncoding, "compact integer overflow")
	ErrInvalidBool      = common.NewKindError(common.ErrEncoding, "invalid bool byte")
	ErrInvalidOptionTag = common.NewKindError(common.ErrEncoding, "invalid option tag")
	ErrNegativeNumber   = common.NewKindError(common.ErrEncoding, "negative number")
	ErrUint128Overflow  = common.NewKindError(common.ErrEncoding, "number exceeds 128 bits")
)

// Encodeable is implemented by values with a SCALE representation
type Encodeable interface {
	EncodeTo(e *Encoder)
}

// Decodeable is implemented by values decodable from SCALE
type Decodeable interface {
	DecodeFrom(d *Decoder) error
}

// Encode encodes v to bytes
func Encode(v Encodeable) []byte {
	e := NewEncoder()
	v.EncodeTo(e)
	return e.Bytes()
}

// Decode decodes data into v
func Decode(data []byte, v Decodeable) error {
	return v.DecodeFrom(NewDecoder(data))
}

// Encoder appends SCALE encoded values to an internal buffer
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder new encoder
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the encoded bytes
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// Len returns the encoded length
func (e *Encoder) Len() int {
	return e.buf.Len()
}

// Write appends raw bytes
func (e *Encoder) Write(p []byte) {
	e.buf.Write(p)
}

// PushByte appends one raw byte
func (e *Encoder) PushByte(b byte) {
	e.buf.WriteByte(b)
}

// Encode appends v
func (e *Encoder) Encode(v Encodeable) {
	v.EncodeTo(e)
}

// EncodeBool encodes bool
func (e *Encoder) EncodeBool(v bool) {
	if v {
		e.PushByte(1)
	} else {
		e.PushByte(0)
	}
}

// EncodeUint16 encodes u16
func (e *Encoder) EncodeUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.Write(b[:])
}

// EncodeUint32 encodes u32
func (e *Encoder) EncodeUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.Write(b[:])
}

// EncodeUint64 encodes u64
func (e *Encoder) EncodeUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.Write(b[:])
}

// EncodeUint128 encodes u128, v must pass CheckUint128
func (e *Encoder) EncodeUint128(v *big.Int) {
	e.Write(littleEndian(v, 16))
}

// EncodeCompact encodes a compact unsigned integer
func (e *Encoder) EncodeCompact(v uint64) {
	switch {
	case v <= maxSingleByte:
		e.PushByte(byte(v << 2))
	case v <= maxTwoBytes:
		e.EncodeUint16(uint16(v<<2) | 0b01)
	case v <= maxFourBytes:
		e.EncodeUint32(uint32(v<<2) | 0b10)
	default:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], v)
		e.encodeBigMode(b[:])
	}
}

// EncodeCompactBig encodes a compact unsigned big integer, v must pass CheckCompactBig
func (e *Encoder) EncodeCompactBig(v *big.Int) {
	if v.IsUint64() {
		e.EncodeCompact(v.Uint64())
		return
	}
	e.encodeBigMode(littleEndian(v, (v.BitLen()+7)/8))
}

func (e *Encoder) encodeBigMode(le []byte) {
	n := len(le)
	for n > 4 && le[n-1] == 0 {
		n--
	}
	e.PushByte(byte((n-4)<<2) | 0b11)
	e.Write(le[:n])
}

// EncodeBytes encodes length prefixed bytes
func (e *Encoder) EncodeBytes(p []byte) {
	e.EncodeCompact(uint64(len(p)))
	e.Write(p)
}

// EncodeString encodes length prefixed utf8 string
func (e *Encoder) EncodeString(s string) {
	e.EncodeBytes([]byte(s))
}

// EncodeOption encodes option, v is encoded only if not nil
func (e *Encoder) EncodeOption(v Encodeable) {
	if v == nil {
		e.PushByte(0)
		return
	}
	e.PushByte(1)
	v.EncodeTo(e)
}

// CheckUint128 checks v is a non negative number of at most 128 bits
func CheckUint128(v *big.Int) error {
	if v.Sign() < 0 {
		return ErrNegativeNumber
	}
	if v.BitLen() > 128 {
		return ErrUint128Overflow
	}
	return nil
}

// CheckCompactBig checks v is a non negative number the compact big mode can carry
func CheckCompactBig(v *big.Int) error {
	if v.Sign() < 0 {
		return ErrNegativeNumber
	}
	if v.BitLen() > maxCompactBits {
		return ErrCompactOverflow
	}
	return nil
}

func littleEndian(v *big.Int, size int) []byte {
	be := v.Bytes()
	out := make([]byte, size)
	for i := 0; i < len(be) && i < size; i++ {
		out[i] = be[len(be)-1-i]
	}
	return out
}
