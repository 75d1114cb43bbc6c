// Package signtest provides a local key signer for tests that play the
// remote wallet's role.
package signtest

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/SIVIRA/unwallet-provider-js/pkg/sign"
)

// EthereumSigner signs with a local secp256k1 key, playing the wallet in tests.
type EthereumSigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewEthereumSigner creates a new signer from a hex-encoded private key.
func NewEthereumSigner(privateKeyHex string) (*EthereumSigner, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")
	key, err := ethcrypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("could not parse ethereum private key: %w", err)
	}
	return &EthereumSigner{
		privateKey: key,
		address:    ethcrypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// GenerateEthereumSigner creates a signer with a fresh random key.
func GenerateEthereumSigner() (*EthereumSigner, error) {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("could not generate ethereum private key: %w", err)
	}
	return &EthereumSigner{
		privateKey: key,
		address:    ethcrypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (s *EthereumSigner) Address() common.Address { return s.address }

// Sign expects the input data to be a hash (e.g., Keccak256 hash).
func (s *EthereumSigner) Sign(hash []byte) (sign.Signature, error) {
	sig, err := ethcrypto.Sign(hash, s.privateKey)
	if err != nil {
		return nil, err
	}
	// Adjust V from 0/1 to 27/28 for Ethereum compatibility.
	if sig[64] < 27 {
		sig[64] += 27
	}
	return sign.Signature(sig), nil
}

func (s *EthereumSigner) SignPersonalMessage(msg []byte) (sign.Signature, error) {
	return s.Sign(accounts.TextHash(msg))
}
