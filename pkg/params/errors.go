package params

import (
	"fmt"
)

var (
	// ErrValidation is the root of every error returned by this package.
	ErrValidation = fmt.Errorf("params validation failed")

	ErrParamsUndefined = fmt.Errorf("%w: params undefined", ErrValidation)
	ErrInvalidParams   = fmt.Errorf("%w: invalid params", ErrValidation)

	ErrInvalidAddress     = fmt.Errorf("%w: invalid address", ErrInvalidParams)
	ErrInvalidHex         = fmt.Errorf("%w: invalid hex data", ErrInvalidParams)
	ErrInvalidQuantity    = fmt.Errorf("%w: invalid hex quantity", ErrInvalidParams)
	ErrInvalidTypedData   = fmt.Errorf("%w: invalid typed data", ErrInvalidParams)
	ErrInvalidTransaction = fmt.Errorf("%w: invalid transaction", ErrInvalidParams)
	ErrInvalidChainID     = fmt.Errorf("%w: invalid chain id", ErrInvalidParams)
)
