package params

import (
	"encoding/json"
	"fmt"
)

type switchChainParam struct {
	ChainID *string `json:"chainId"`
}

// SwitchChain validates wallet_switchEthereumChain params: [{chainId}] and
// returns the requested chain id.
func SwitchChain(params any) (uint64, error) {
	args, err := positional(params, 1, 1)
	if err != nil {
		return 0, err
	}
	if !isObject(args[0]) {
		return 0, fmt.Errorf("%w: param must be an object", ErrInvalidParams)
	}

	var p switchChainParam
	if err := json.Unmarshal(args[0], &p); err != nil || p.ChainID == nil {
		return 0, fmt.Errorf("%w: chainId must be a hex string", ErrInvalidChainID)
	}

	return ChainID(*p.ChainID)
}

// ChainID parses a positive hex chain id that fits in 64 bits.
func ChainID(s string) (uint64, error) {
	n, err := Quantity(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidChainID, err)
	}
	if n.Sign() <= 0 || !n.IsUint64() {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidChainID, s)
	}
	return n.Uint64(), nil
}
