package params_test

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SIVIRA/unwallet-provider-js/pkg/params"
)

const (
	checksummed = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	badChecksum = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeD"
)

func TestAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		err   error
	}{
		{name: "checksummed", input: checksummed},
		{name: "lowercase", input: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"},
		{name: "uppercase", input: "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED"},
		{name: "bad checksum", input: badChecksum, err: params.ErrInvalidAddress},
		{name: "no prefix", input: "5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", err: params.ErrInvalidAddress},
		{name: "too short", input: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1bea", err: params.ErrInvalidAddress},
		{name: "not hex", input: "0xzzaeb6053f3e94c9b9a09f33669435e7ef1beaed", err: params.ErrInvalidAddress},
		{name: "empty", input: "", err: params.ErrInvalidAddress},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			addr, err := params.Address(tc.input)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				assert.ErrorIs(t, err, params.ErrInvalidParams)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, common.HexToAddress(checksummed), addr)
		})
	}
}

func TestHexDataAndQuantity(t *testing.T) {
	t.Parallel()

	b, err := params.HexData("0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, []byte(b))

	b, err = params.HexData("0x")
	require.NoError(t, err)
	assert.Empty(t, b)

	for _, bad := range []string{"", "deadbeef", "0xabc", "0xzz"} {
		_, err := params.HexData(bad)
		assert.ErrorIs(t, err, params.ErrInvalidHex, bad)
	}

	n, err := params.Quantity("0x01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n.Int64())

	for _, bad := range []string{"", "0x", "10", "0xg1", "0x-1", "0x+1", "0x-5208", "0x 1"} {
		_, err := params.Quantity(bad)
		assert.ErrorIs(t, err, params.ErrInvalidQuantity, bad)
	}
}

func TestPersonalSign(t *testing.T) {
	t.Parallel()

	req, err := params.PersonalSign([]any{"0x68656c6c6f", checksummed})
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(checksummed), req.Address)
	assert.Equal(t, []byte("hello"), []byte(req.Message))

	// Optional password.
	_, err = params.PersonalSign([]string{"0x68656c6c6f", checksummed, "secret"})
	require.NoError(t, err)

	// Raw JSON is accepted as-is.
	_, err = params.PersonalSign(json.RawMessage(`["0x68656c6c6f","` + checksummed + `"]`))
	require.NoError(t, err)

	tests := []struct {
		name   string
		params any
		err    error
	}{
		{name: "nil", params: nil, err: params.ErrParamsUndefined},
		{name: "json null", params: json.RawMessage("null"), err: params.ErrParamsUndefined},
		{name: "object", params: map[string]any{"data": "0x00"}, err: params.ErrInvalidParams},
		{name: "one param", params: []any{"0x00"}, err: params.ErrInvalidParams},
		{name: "swapped", params: []any{checksummed, "0x68656c6c6f"}, err: params.ErrInvalidAddress},
		{name: "non-hex data", params: []any{"hello", checksummed}, err: params.ErrInvalidHex},
		{name: "bad checksum", params: []any{"0x00", badChecksum}, err: params.ErrInvalidAddress},
		{name: "number", params: []any{1, checksummed}, err: params.ErrInvalidParams},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := params.PersonalSign(tc.params)
			assert.ErrorIs(t, err, tc.err)
			assert.ErrorIs(t, err, params.ErrValidation)
		})
	}
}

func TestEthSign(t *testing.T) {
	t.Parallel()

	req, err := params.EthSign([]any{checksummed, "0x68656c6c6f"})
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(checksummed), req.Address)
	assert.Equal(t, "0x68656c6c6f", req.Message.String())

	_, err = params.EthSign([]any{checksummed, "0x00", "extra"})
	assert.ErrorIs(t, err, params.ErrInvalidParams)

	_, err = params.EthSign([]any{"0x68656c6c6f", checksummed})
	assert.ErrorIs(t, err, params.ErrInvalidAddress)
}

func typedDataDoc() map[string]any {
	return map[string]any{
		"types": map[string]any{
			"EIP712Domain": []any{
				map[string]any{"name": "name", "type": "string"},
				map[string]any{"name": "chainId", "type": "uint256"},
			},
			"Mail": []any{
				map[string]any{"name": "contents", "type": "string"},
			},
		},
		"primaryType": "Mail",
		"domain":      map[string]any{"name": "Ether Mail", "chainId": 1},
		"message":     map[string]any{"contents": "Hello, Bob!"},
	}
}

func TestSignTypedData(t *testing.T) {
	t.Parallel()

	doc := typedDataDoc()
	req, err := params.SignTypedData([]any{checksummed, doc})
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress(checksummed), req.Address)
	assert.Equal(t, "Mail", req.PrimaryType)
	assert.NotContains(t, req.Types, "EIP712Domain")
	assert.Contains(t, req.Types, "Mail")
	assert.Equal(t, "Ether Mail", req.Domain["name"])
	assert.Equal(t, "Hello, Bob!", req.Message["contents"])
	assert.NotContains(t, string(req.Normalized), "EIP712Domain")

	// The caller's document is left intact.
	assert.Contains(t, doc["types"], "EIP712Domain")

	// Normalization is idempotent.
	again, err := params.NormalizeTypedData(req.Normalized)
	require.NoError(t, err)
	assert.JSONEq(t, string(req.Normalized), string(again.Normalized))

	// A JSON string holding the document is accepted.
	docJSON, err := json.Marshal(doc)
	require.NoError(t, err)
	fromString, err := params.SignTypedData([]any{checksummed, string(docJSON)})
	require.NoError(t, err)
	assert.JSONEq(t, string(req.Normalized), string(fromString.Normalized))
}

func TestSignTypedData_Invalid(t *testing.T) {
	t.Parallel()

	without := func(key string) map[string]any {
		doc := typedDataDoc()
		delete(doc, key)
		return doc
	}
	with := func(key string, value any) map[string]any {
		doc := typedDataDoc()
		doc[key] = value
		return doc
	}

	tests := []struct {
		name   string
		params any
		err    error
	}{
		{name: "undefined", params: nil, err: params.ErrParamsUndefined},
		{name: "arity", params: []any{checksummed}, err: params.ErrInvalidParams},
		{name: "bad address", params: []any{"0x1234", typedDataDoc()}, err: params.ErrInvalidAddress},
		{name: "missing domain", params: []any{checksummed, without("domain")}, err: params.ErrInvalidTypedData},
		{name: "missing types", params: []any{checksummed, without("types")}, err: params.ErrInvalidTypedData},
		{name: "missing message", params: []any{checksummed, without("message")}, err: params.ErrInvalidTypedData},
		{name: "domain not object", params: []any{checksummed, with("domain", "x")}, err: params.ErrInvalidTypedData},
		{name: "types not a table", params: []any{checksummed, with("types", map[string]any{"Mail": "x"})}, err: params.ErrInvalidTypedData},
		{name: "unknown primary type", params: []any{checksummed, with("primaryType", "Letter")}, err: params.ErrInvalidTypedData},
		{name: "domain as primary type", params: []any{checksummed, with("primaryType", "EIP712Domain")}, err: params.ErrInvalidTypedData},
		{name: "not json", params: []any{checksummed, "{"}, err: params.ErrInvalidTypedData},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := params.SignTypedData(tc.params)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestSendTransaction(t *testing.T) {
	t.Parallel()

	tx, err := params.SendTransaction([]any{map[string]any{
		"from":     checksummed,
		"to":       "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"value":    "0xde0b6b3a7640000",
		"data":     "0x",
		"gas":      "0x5208",
		"gasPrice": "0x3b9aca00",
	}})
	require.NoError(t, err)
	assert.Equal(t, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", tx.To)
	assert.Equal(t, "0xde0b6b3a7640000", tx.Value)
	assert.Equal(t, "0x5208", tx.Gas)

	tests := []struct {
		name   string
		params any
		err    error
	}{
		{name: "undefined", params: nil, err: params.ErrParamsUndefined},
		{name: "empty array", params: []any{}, err: params.ErrInvalidParams},
		{name: "not an object", params: []any{"0x00"}, err: params.ErrInvalidTransaction},
		{name: "missing to", params: []any{map[string]any{"value": "0x1"}}, err: params.ErrInvalidTransaction},
		{name: "bad to", params: []any{map[string]any{"to": badChecksum}}, err: params.ErrInvalidTransaction},
		{name: "bad value", params: []any{map[string]any{"to": checksummed, "value": "100"}}, err: params.ErrInvalidTransaction},
		{name: "numeric value", params: []any{map[string]any{"to": checksummed, "value": 100}}, err: params.ErrInvalidTransaction},
		{name: "bad gas", params: []any{map[string]any{"to": checksummed, "gas": "0x"}}, err: params.ErrInvalidTransaction},
		{name: "negative value", params: []any{map[string]any{"to": checksummed, "value": "0x-1"}}, err: params.ErrInvalidTransaction},
		{name: "signed gas", params: []any{map[string]any{"to": checksummed, "gas": "0x+5208"}}, err: params.ErrInvalidTransaction},
		{name: "bad gasPrice", params: []any{map[string]any{"to": checksummed, "gasPrice": "abc"}}, err: params.ErrInvalidTransaction},
		{name: "odd data", params: []any{map[string]any{"to": checksummed, "data": "0xabc"}}, err: params.ErrInvalidTransaction},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := params.SendTransaction(tc.params)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestSwitchChain(t *testing.T) {
	t.Parallel()

	chainID, err := params.SwitchChain([]any{map[string]any{"chainId": "0x89"}})
	require.NoError(t, err)
	assert.Equal(t, uint64(137), chainID)

	tests := []struct {
		name   string
		params any
		err    error
	}{
		{name: "undefined", params: nil, err: params.ErrParamsUndefined},
		{name: "object params", params: map[string]any{"chainId": "0x1"}, err: params.ErrInvalidParams},
		{name: "missing chainId", params: []any{map[string]any{}}, err: params.ErrInvalidChainID},
		{name: "numeric chainId", params: []any{map[string]any{"chainId": 1}}, err: params.ErrInvalidChainID},
		{name: "decimal string", params: []any{map[string]any{"chainId": "137"}}, err: params.ErrInvalidChainID},
		{name: "zero", params: []any{map[string]any{"chainId": "0x0"}}, err: params.ErrInvalidChainID},
		{name: "negative", params: []any{map[string]any{"chainId": "0x-1"}}, err: params.ErrInvalidChainID},
		{name: "overflow", params: []any{map[string]any{"chainId": "0x10000000000000000"}}, err: params.ErrInvalidChainID},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := params.SwitchChain(tc.params)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}
