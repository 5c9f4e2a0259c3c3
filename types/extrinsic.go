package types

import (
	"fmt"
	"math/big"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/scale"
)

const (
	// ExtrinsicVersion transaction format version
	ExtrinsicVersion byte = 3
	// signedFlag marks a signed extrinsic in the version byte
	signedFlag byte = 0x80

	// MaxRawPayloadLength signed payloads longer than it are signed by their blake2_256 hash
	MaxRawPayloadLength = 256

	// SignatureLength ed25519 / sr25519 signature length
	SignatureLength = 64
)

// extrinsic errors
var (
	ErrUnsignedExtrinsic    = common.NewKindError(common.ErrEncoding, "unsigned extrinsic")
	ErrExtrinsicVersion     = common.NewKindError(common.ErrEncoding, "unsupported extrinsic version")
	ErrMortalEraUnsupported = common.NewKindError(common.ErrEncoding, "mortal era unsupported")
)

// Era transaction validity period, only the immortal era is produced
type Era struct {
	Immortal bool
}

// ImmortalEra immortal era
var ImmortalEra = Era{Immortal: true}

// EncodeTo implements scale.Encodeable
func (e Era) EncodeTo(enc *scale.Encoder) {
	enc.PushByte(0)
}

// DecodeFrom implements scale.Decodeable
func (e *Era) DecodeFrom(d *scale.Decoder) error {
	b, err := d.ReadByte()
	if err != nil {
		return err
	}
	if b != 0 {
		return ErrMortalEraUnsupported
	}
	e.Immortal = true
	return nil
}

// SignedExtra the extra data signed along with the call: genesis check,
// era check, nonce check, weight check and fee. Only era, nonce and
// fee have an encoding, the checks contribute nothing.
type SignedExtra struct {
	Era   Era
	Nonce uint32
	Fee   *big.Int
}

// NewSignedExtra immortal extra with zero fee
func NewSignedExtra(nonce uint32) SignedExtra {
	return SignedExtra{Era: ImmortalEra, Nonce: nonce, Fee: new(big.Int)}
}

// EncodeTo implements scale.Encodeable
func (x SignedExtra) EncodeTo(e *scale.Encoder) {
	x.Era.EncodeTo(e)
	e.EncodeCompact(uint64(x.Nonce))
	fee := x.Fee
	if fee == nil {
		fee = new(big.Int)
	}
	e.EncodeCompactBig(fee)
}

// DecodeFrom implements scale.Decodeable
func (x *SignedExtra) DecodeFrom(d *scale.Decoder) error {
	if err := x.Era.DecodeFrom(d); err != nil {
		return err
	}
	nonce, err := d.DecodeCompact()
	if err != nil {
		return err
	}
	if nonce > uint64(^uint32(0)) {
		return scale.ErrCompactOverflow
	}
	x.Nonce = uint32(nonce)
	x.Fee, err = d.DecodeCompactBig()
	return err
}

// SignedPayload the data a transaction signature covers
type SignedPayload struct {
	Call        []byte
	Extra       SignedExtra
	GenesisHash common.Hash
}

// Encode returns call ++ extra ++ genesis hash
func (p *SignedPayload) Encode() []byte {
	e := scale.NewEncoder()
	e.Write(p.Call)
	p.Extra.EncodeTo(e)
	e.Write(p.GenesisHash[:])
	return e.Bytes()
}

// SigningTarget returns the bytes to sign: the encoded payload,
// or its blake2_256 hash if it is longer than MaxRawPayloadLength
func (p *SignedPayload) SigningTarget() []byte {
	payload := p.Encode()
	if len(payload) > MaxRawPayloadLength {
		hash := common.Blake2b256(payload)
		return hash[:]
	}
	return payload
}

// Extrinsic signed transaction
type Extrinsic struct {
	Signer    AccountID
	Signature []byte
	Extra     SignedExtra
	Call      []byte
}

// Encode returns the length prefixed transaction bytes, as submitted and
// as found in block bodies
func (x *Extrinsic) Encode() []byte {
	body := scale.NewEncoder()
	body.PushByte(signedFlag | ExtrinsicVersion)
	Address{AccountID: x.Signer}.EncodeTo(body)
	body.Write(x.Signature)
	x.Extra.EncodeTo(body)
	body.Write(x.Call)

	e := scale.NewEncoder()
	e.EncodeBytes(body.Bytes())
	return e.Bytes()
}

// Hash returns the transaction hash
func (x *Extrinsic) Hash() common.Hash {
	return ExtrinsicHash(x.Encode())
}

// ExtrinsicHash hashes encoded transaction bytes
func ExtrinsicHash(encoded []byte) common.Hash {
	return common.Blake2b256(encoded)
}

// DecodeExtrinsic decodes length prefixed signed transaction bytes
func DecodeExtrinsic(encoded []byte) (*Extrinsic, error) {
	d := scale.NewDecoder(encoded)
	body, err := d.DecodeBytes()
	if err != nil {
		return nil, err
	}
	d = scale.NewDecoder(body)
	version, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	if version&signedFlag == 0 {
		return nil, ErrUnsignedExtrinsic
	}
	if version&^signedFlag != ExtrinsicVersion {
		return nil, fmt.Errorf("%w: %d", ErrExtrinsicVersion, version&^signedFlag)
	}
	x := &Extrinsic{}
	var address Address
	if err = address.DecodeFrom(d); err != nil {
		return nil, err
	}
	x.Signer = address.AccountID
	signature, err := d.Next(SignatureLength)
	if err != nil {
		return nil, err
	}
	x.Signature = append([]byte(nil), signature...)
	if err = x.Extra.DecodeFrom(d); err != nil {
		return nil, err
	}
	call, _ := d.Next(d.Remaining())
	x.Call = append([]byte(nil), call...)
	return x, nil
}
