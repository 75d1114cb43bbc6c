package sign

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// RecoverAddressFromHash recovers the signing address from a pre-computed hash.
func RecoverAddressFromHash(hash []byte, sig Signature) (common.Address, error) {
	if len(sig) != 65 {
		return common.Address{}, fmt.Errorf("%w: invalid signature length", ErrInvalidSignature)
	}
	localSig := make([]byte, 65)
	copy(localSig, sig)
	if localSig[64] >= 27 {
		localSig[64] -= 27
	}
	pubKey, err := ethcrypto.SigToPub(hash, localSig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: signature recovery failed: %w", ErrInvalidSignature, err)
	}
	return ethcrypto.PubkeyToAddress(*pubKey), nil
}

// RecoverPersonalMessageSigner recovers the address that signed msg with the
// EIP-191 personal-message prefix.
func RecoverPersonalMessageSigner(msg []byte, sig Signature) (common.Address, error) {
	return RecoverAddressFromHash(accounts.TextHash(msg), sig)
}

// VerifyPersonalMessage checks that sig over msg was produced by expected.
func VerifyPersonalMessage(expected common.Address, msg []byte, sig Signature) error {
	recovered, err := RecoverPersonalMessageSigner(msg, sig)
	if err != nil {
		return err
	}
	if recovered != expected {
		return fmt.Errorf("%w: expected %s, recovered %s", ErrSignerMismatch, expected.Hex(), recovered.Hex())
	}
	return nil
}
