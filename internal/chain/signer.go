package chain

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrNoSigner indicates no decrypted signing key was supplied with the
// request. Wallet custody and decryption happen client-side; the backend
// only ever sees the key for the duration of a single confirmed action.
var ErrNoSigner = errors.New("wallet not connected")

// ParseSigningKey parses a hex-encoded private key and derives its address.
func ParseSigningKey(hexKey string) (*ecdsa.PrivateKey, common.Address, error) {
	if strings.TrimSpace(hexKey) == "" {
		return nil, common.Address{}, ErrNoSigner
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("parse signing key: %w", err)
	}
	return key, crypto.PubkeyToAddress(key.PublicKey), nil
}
