// Package signer provides the key pairs transactions are signed with.
package signer

import (
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/types"
	"golang.org/x/crypto/ed25519"
)

// Signer signs transaction payloads
type Signer interface {
	AccountID() types.AccountID
	Sign(msg []byte) ([]byte, error)
}

// Ed25519Signer ed25519 key pair
type Ed25519Signer struct {
	key ed25519.PrivateKey
	id  types.AccountID
}

// NewEd25519Signer new signer from a 32 bytes seed
func NewEd25519Signer(seed []byte) (*Ed25519Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("wrong seed length %d, want %d", len(seed), ed25519.SeedSize)
	}
	key := ed25519.NewKeyFromSeed(seed)
	s := &Ed25519Signer{key: key}
	copy(s.id[:], key.Public().(ed25519.PublicKey))
	return s, nil
}

// LoadKeyFile load signer from a file holding the hex encoded seed
func LoadKeyFile(keyfile string) (*Ed25519Signer, error) {
	keydata, err := ioutil.ReadFile(keyfile)
	if err != nil {
		return nil, fmt.Errorf("read key file fail %v", err)
	}
	seed := common.FromHex(strings.TrimSpace(string(keydata)))
	s, err := NewEd25519Signer(seed)
	if err != nil {
		return nil, fmt.Errorf("load key file fail %v", err)
	}
	return s, nil
}

// AccountID implements Signer
func (s *Ed25519Signer) AccountID() types.AccountID {
	return s.id
}

// Sign implements Signer
func (s *Ed25519Signer) Sign(msg []byte) ([]byte, error) {
	return ed25519.Sign(s.key, msg), nil
}

// Verify verifies signature of msg by account
func Verify(account types.AccountID, msg, signature []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(account[:]), msg, signature)
}
