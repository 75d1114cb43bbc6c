package sign

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	ErrInvalidSignature = fmt.Errorf("invalid signature")
	ErrSignerMismatch   = fmt.Errorf("signature was not produced by the expected account")
)

// Signature is a 65-byte [R || S || V] secp256k1 signature.
type Signature []byte

// ParseSignature decodes a 0x-prefixed hex signature.
func ParseSignature(s string) (Signature, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	if len(b) != 65 {
		return nil, fmt.Errorf("%w: expected 65 bytes, got %d", ErrInvalidSignature, len(b))
	}
	return Signature(b), nil
}

// String returns the 0x-prefixed hex encoding.
func (s Signature) String() string {
	return hexutil.Encode(s)
}

// MarshalJSON encodes the signature as a hex string.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a hex string signature.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	sig, err := ParseSignature(str)
	if err != nil {
		return err
	}
	*s = sig
	return nil
}
