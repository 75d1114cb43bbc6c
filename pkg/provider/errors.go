package provider

import (
	"errors"
	"fmt"

	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/SIVIRA/unwallet-provider-js/pkg/params"
)

var (
	ErrConfiguration = fmt.Errorf("invalid provider configuration")

	ErrConnection   = fmt.Errorf("wallet connection error")
	ErrDisconnected = fmt.Errorf("%w: the provider is disconnected from all chains", ErrConnection)

	// ErrValidation is returned for malformed request parameters.
	ErrValidation     = params.ErrValidation
	ErrInvalidAccount = fmt.Errorf("%w: invalid account", params.ErrInvalidParams)

	ErrUserRejected      = fmt.Errorf("user rejected the request")
	ErrUnsupportedMethod = fmt.Errorf("unsupported method")
	ErrNoUpstream        = fmt.Errorf("%w: provider RPC URL not found", ErrUnsupportedMethod)
	ErrUnexpectedResult  = fmt.Errorf("unexpected result from wallet")
)

// EIP-1193 and JSON-RPC error codes.
const (
	CodeUserRejected      = 4001
	CodeUnsupportedMethod = 4200
	CodeDisconnected      = 4900
	CodeInvalidParams     = -32602
	CodeInternal          = -32603
)

// ProviderRpcError is the EIP-1193 error shape.
type ProviderRpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *ProviderRpcError) Error() string {
	return e.Message
}

// CodeOf maps err to an EIP-1193 error code. Errors from the JSON-RPC
// upstream keep their own code.
func CodeOf(err error) int {
	var perr *ProviderRpcError
	var rpcErr gethrpc.Error

	switch {
	case err == nil:
		return 0
	case errors.As(err, &perr):
		return perr.Code
	case errors.Is(err, ErrUserRejected):
		return CodeUserRejected
	case errors.Is(err, ErrUnsupportedMethod):
		return CodeUnsupportedMethod
	case errors.Is(err, ErrConnection):
		return CodeDisconnected
	case errors.Is(err, ErrValidation):
		return CodeInvalidParams
	case errors.As(err, &rpcErr):
		return rpcErr.ErrorCode()
	default:
		return CodeInternal
	}
}

// ToProviderRpcError converts err into a ProviderRpcError.
func ToProviderRpcError(err error) *ProviderRpcError {
	if err == nil {
		return nil
	}

	var perr *ProviderRpcError
	if errors.As(err, &perr) {
		return perr
	}

	out := &ProviderRpcError{Code: CodeOf(err), Message: err.Error()}

	var dataErr gethrpc.DataError
	if errors.As(err, &dataErr) {
		out.Data = dataErr.ErrorData()
	}
	return out
}

func disconnectedError() *ProviderRpcError {
	return &ProviderRpcError{
		Code:    CodeDisconnected,
		Message: "the provider is disconnected from all chains",
	}
}
