package scale

import (
	"math/big"
)

// Compact compact encoded unsigned integer
type Compact uint64

// EncodeTo implements Encodeable
func (c Compact) EncodeTo(e *Encoder) { e.EncodeCompact(uint64(c)) }

// DecodeFrom implements Decodeable
func (c *Compact) DecodeFrom(d *Decoder) error {
	v, err := d.DecodeCompact()
	*c = Compact(v)
	return err
}

// CompactBig compact encoded unsigned big integer (eg. balances)
type CompactBig struct {
	*big.Int
}

// NewCompactBig new compact big integer, nil is zero
func NewCompactBig(v *big.Int) (CompactBig, error) {
	if v == nil {
		v = new(big.Int)
	}
	if err := CheckCompactBig(v); err != nil {
		return CompactBig{}, err
	}
	return CompactBig{Int: v}, nil
}

// EncodeTo implements Encodeable
func (c CompactBig) EncodeTo(e *Encoder) { e.EncodeCompactBig(c.Int) }

// DecodeFrom implements Decodeable
func (c *CompactBig) DecodeFrom(d *Decoder) (err error) {
	c.Int, err = d.DecodeCompactBig()
	return err
}

// U32 fixed width u32
type U32 uint32

// EncodeTo implements Encodeable
func (u U32) EncodeTo(e *Encoder) { e.EncodeUint32(uint32(u)) }

// DecodeFrom implements Decodeable
func (u *U32) DecodeFrom(d *Decoder) error {
	v, err := d.DecodeUint32()
	*u = U32(v)
	return err
}

// U64 fixed width u64
type U64 uint64

// EncodeTo implements Encodeable
func (u U64) EncodeTo(e *Encoder) { e.EncodeUint64(uint64(u)) }

// DecodeFrom implements Decodeable
func (u *U64) DecodeFrom(d *Decoder) error {
	v, err := d.DecodeUint64()
	*u = U64(v)
	return err
}

// U128 fixed width u128
type U128 struct {
	*big.Int
}

// NewU128 new u128, nil is zero
func NewU128(v *big.Int) (U128, error) {
	if v == nil {
		v = new(big.Int)
	}
	if err := CheckUint128(v); err != nil {
		return U128{}, err
	}
	return U128{Int: v}, nil
}

// EncodeTo implements Encodeable
func (u U128) EncodeTo(e *Encoder) { e.EncodeUint128(u.Int) }

// DecodeFrom implements Decodeable
func (u *U128) DecodeFrom(d *Decoder) (err error) {
	u.Int, err = d.DecodeUint128()
	return err
}

// Bytes length prefixed byte vector
type Bytes []byte

// EncodeTo implements Encodeable
func (b Bytes) EncodeTo(e *Encoder) { e.EncodeBytes(b) }

// DecodeFrom implements Decodeable
func (b *Bytes) DecodeFrom(d *Decoder) (err error) {
	*b, err = d.DecodeBytes()
	return err
}

// Raw bytes written as they are, without length prefix
type Raw []byte

// EncodeTo implements Encodeable
func (r Raw) EncodeTo(e *Encoder) { e.Write(r) }

// Tuple encodes its members one after another
type Tuple []Encodeable

// EncodeTo implements Encodeable
func (t Tuple) EncodeTo(e *Encoder) {
	for _, v := range t {
		v.EncodeTo(e)
	}
}
