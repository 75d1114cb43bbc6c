package params

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// toJSON encodes params, treating nil and JSON null as undefined.
func toJSON(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, ErrParamsUndefined
	}

	var raw json.RawMessage
	switch p := params.(type) {
	case json.RawMessage:
		raw = p
	case []byte:
		raw = p
	default:
		b, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
		raw = b
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, ErrParamsUndefined
	}
	return raw, nil
}

// positional decodes params as a JSON array whose length is within [min, max].
func positional(params any, min, max int) ([]json.RawMessage, error) {
	raw, err := toJSON(params)
	if err != nil {
		return nil, err
	}

	var args []json.RawMessage
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("%w: params must be an array", ErrInvalidParams)
	}
	if len(args) < min || len(args) > max {
		if min == max {
			return nil, fmt.Errorf("%w: expected %d params, got %d", ErrInvalidParams, min, len(args))
		}
		return nil, fmt.Errorf("%w: expected %d to %d params, got %d", ErrInvalidParams, min, max, len(args))
	}
	return args, nil
}

// stringArg decodes the i-th positional argument as a JSON string.
func stringArg(args []json.RawMessage, i int) (string, error) {
	var s string
	if err := json.Unmarshal(args[i], &s); err != nil {
		return "", fmt.Errorf("%w: param %d must be a string", ErrInvalidParams, i)
	}
	return s, nil
}
