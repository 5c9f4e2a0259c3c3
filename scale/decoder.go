package scale

import (
	"encoding/binary"
	"math/big"
)

// Decoder reads SCALE encoded values from a byte slice
type Decoder struct {
	data []byte
	pos  int
}

// NewDecoder new decoder
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Offset returns count of consumed bytes
func (d *Decoder) Offset() int {
	return d.pos
}

// Remaining returns count of unconsumed bytes
func (d *Decoder) Remaining() int {
	return len(d.data) - d.pos
}

// Next reads the next n raw bytes
func (d *Decoder) Next(n int) ([]byte, error) {
	if n < 0 || d.Remaining() < n {
		return nil, ErrUnexpectedEOF
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// Skip skips n raw bytes
func (d *Decoder) Skip(n int) error {
	_, err := d.Next(n)
	return err
}

// ReadByte reads one raw byte
func (d *Decoder) ReadByte() (byte, error) {
	b, err := d.Next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Decode decodes into v
func (d *Decoder) Decode(v Decodeable) error {
	return v.DecodeFrom(d)
}

// DecodeBool decodes bool
func (d *Decoder) DecodeBool() (bool, error) {
	b, err := d.ReadByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidBool
	}
}

// DecodeUint16 decodes u16
func (d *Decoder) DecodeUint16() (uint16, error) {
	b, err := d.Next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// DecodeUint32 decodes u32
func (d *Decoder) DecodeUint32() (uint32, error) {
	b, err := d.Next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// DecodeUint64 decodes u64
func (d *Decoder) DecodeUint64() (uint64, error) {
	b, err := d.Next(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// DecodeUint128 decodes u128
func (d *Decoder) DecodeUint128() (*big.Int, error) {
	b, err := d.Next(16)
	if err != nil {
		return nil, err
	}
	return fromLittleEndian(b), nil
}

// DecodeCompact decodes a compact integer fitting in u64
func (d *Decoder) DecodeCompact() (uint64, error) {
	v, err := d.DecodeCompactBig()
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, ErrCompactOverflow
	}
	return v.Uint64(), nil
}

// DecodeCompactBig decodes a compact integer
func (d *Decoder) DecodeCompactBig() (*big.Int, error) {
	first, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	switch first & 0b11 {
	case 0b00:
		return new(big.Int).SetUint64(uint64(first >> 2)), nil
	case 0b01:
		second, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		v := (uint64(first) | uint64(second)<<8) >> 2
		return new(big.Int).SetUint64(v), nil
	case 0b10:
		rest, err := d.Next(3)
		if err != nil {
			return nil, err
		}
		v := (uint64(first) | uint64(rest[0])<<8 | uint64(rest[1])<<16 | uint64(rest[2])<<24) >> 2
		return new(big.Int).SetUint64(v), nil
	default:
		n := int(first>>2) + 4
		b, err := d.Next(n)
		if err != nil {
			return nil, err
		}
		return fromLittleEndian(b), nil
	}
}

// DecodeLength decodes a compact length and checks it against the remaining input
func (d *Decoder) DecodeLength() (int, error) {
	n, err := d.DecodeCompact()
	if err != nil {
		return 0, err
	}
	if n > uint64(d.Remaining()) {
		return 0, ErrUnexpectedEOF
	}
	return int(n), nil
}

// DecodeBytes decodes length prefixed bytes
func (d *Decoder) DecodeBytes() ([]byte, error) {
	n, err := d.DecodeLength()
	if err != nil {
		return nil, err
	}
	b, err := d.Next(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// DecodeString decodes length prefixed string
func (d *Decoder) DecodeString() (string, error) {
	b, err := d.DecodeBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeOptionTag decodes option tag, returns true if value follows
func (d *Decoder) DecodeOptionTag() (bool, error) {
	b, err := d.ReadByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidOptionTag
	}
}

// DecodeStrings decodes Vec<String>, an empty vector decodes to nil
func (d *Decoder) DecodeStrings() ([]string, error) {
	n, err := d.DecodeLength()
	if err != nil || n == 0 {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s, err := d.DecodeString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func fromLittleEndian(le []byte) *big.Int {
	be := make([]byte, len(le))
	for i := range le {
		be[len(le)-1-i] = le[i]
	}
	return new(big.Int).SetBytes(be)
}
