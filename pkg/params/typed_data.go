package params

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// domainTypeName is implied by the domain object and never sent to the signer.
const domainTypeName = "EIP712Domain"

// TypedDataRequest is a validated eth_signTypedData / eth_signTypedData_v4 call.
type TypedDataRequest struct {
	Address     common.Address
	Types       apitypes.Types
	PrimaryType string
	Domain      map[string]any
	Message     map[string]any

	// Normalized is the typed-data document without the EIP712Domain type.
	Normalized json.RawMessage
}

// SignTypedData validates eth_signTypedData params: [address, typedData].
// typedData may be an object or a JSON string holding one.
func SignTypedData(params any) (TypedDataRequest, error) {
	args, err := positional(params, 2, 2)
	if err != nil {
		return TypedDataRequest{}, err
	}

	rawAddr, err := stringArg(args, 0)
	if err != nil {
		return TypedDataRequest{}, err
	}
	addr, err := Address(rawAddr)
	if err != nil {
		return TypedDataRequest{}, err
	}

	req, err := NormalizeTypedData(args[1])
	if err != nil {
		return TypedDataRequest{}, err
	}
	req.Address = addr
	return req, nil
}

// NormalizeTypedData checks that raw holds domain, types and message objects
// and removes the EIP712Domain entry from types. Normalizing an already
// normalized document returns it unchanged.
func NormalizeTypedData(raw json.RawMessage) (TypedDataRequest, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return TypedDataRequest{}, fmt.Errorf("%w: %w", ErrInvalidTypedData, err)
		}
		raw = bytes.TrimSpace([]byte(s))
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return TypedDataRequest{}, fmt.Errorf("%w: must be an object", ErrInvalidTypedData)
	}

	for _, key := range []string{"domain", "types", "message"} {
		v, ok := doc[key]
		if !ok {
			return TypedDataRequest{}, fmt.Errorf("%w: missing %s", ErrInvalidTypedData, key)
		}
		if !isObject(v) {
			return TypedDataRequest{}, fmt.Errorf("%w: %s must be an object", ErrInvalidTypedData, key)
		}
	}

	var types apitypes.Types
	if err := json.Unmarshal(doc["types"], &types); err != nil {
		return TypedDataRequest{}, fmt.Errorf("%w: types: %w", ErrInvalidTypedData, err)
	}
	delete(types, domainTypeName)
	for name, fields := range types {
		for _, f := range fields {
			if f.Name == "" || f.Type == "" {
				return TypedDataRequest{}, fmt.Errorf("%w: type %s has a field without name or type", ErrInvalidTypedData, name)
			}
		}
	}

	req := TypedDataRequest{Types: types}

	if rawPrimary, ok := doc["primaryType"]; ok {
		if err := json.Unmarshal(rawPrimary, &req.PrimaryType); err != nil {
			return TypedDataRequest{}, fmt.Errorf("%w: primaryType must be a string", ErrInvalidTypedData)
		}
		if _, ok := types[req.PrimaryType]; !ok {
			return TypedDataRequest{}, fmt.Errorf("%w: primaryType %q is not defined", ErrInvalidTypedData, req.PrimaryType)
		}
	}

	if err := json.Unmarshal(doc["domain"], &req.Domain); err != nil {
		return TypedDataRequest{}, fmt.Errorf("%w: domain: %w", ErrInvalidTypedData, err)
	}
	if err := json.Unmarshal(doc["message"], &req.Message); err != nil {
		return TypedDataRequest{}, fmt.Errorf("%w: message: %w", ErrInvalidTypedData, err)
	}

	typesJSON, err := json.Marshal(types)
	if err != nil {
		return TypedDataRequest{}, fmt.Errorf("%w: %w", ErrInvalidTypedData, err)
	}
	doc["types"] = typesJSON

	normalized, err := json.Marshal(doc)
	if err != nil {
		return TypedDataRequest{}, fmt.Errorf("%w: %w", ErrInvalidTypedData, err)
	}
	req.Normalized = normalized

	return req, nil
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
