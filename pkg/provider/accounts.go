package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/SIVIRA/unwallet-provider-js/pkg/params"
)

// Accounts is an immutable snapshot of the accounts the wallet granted.
type Accounts struct {
	ChainID   uint64           `json:"chainId"`
	Addresses []common.Address `json:"addresses"`
}

// Contains reports whether addr is one of the accounts.
func (a Accounts) Contains(addr common.Address) bool {
	return slices.Contains(a.Addresses, addr)
}

// Empty reports whether no account is known.
func (a Accounts) Empty() bool {
	return len(a.Addresses) == 0
}

func (a Accounts) clone() Accounts {
	a.Addresses = slices.Clone(a.Addresses)
	return a
}

// accountsKey is the cache key of the accounts of env.
func accountsKey(env Env) string {
	return "unwallet:accounts:" + string(env)
}

// chainIDHex formats a chain id for EIP-1193 results and events.
func chainIDHex(chainID uint64) string {
	return hexutil.EncodeUint64(chainID)
}

// parseAccountsValue decodes the value of an accounts message. The wallet
// reports either a plain address list or {chainId, addresses}; fallbackChainID
// is used when the message carries no chain.
func parseAccountsValue(value json.RawMessage, fallbackChainID uint64) (Accounts, error) {
	value = bytes.TrimSpace(value)
	if len(value) == 0 {
		return Accounts{}, fmt.Errorf("%w: empty accounts", ErrUnexpectedResult)
	}

	var rawAddrs []string
	chainID := fallbackChainID

	if value[0] == '{' {
		var obj struct {
			ChainID   json.RawMessage `json:"chainId"`
			Addresses []string        `json:"addresses"`
		}
		if err := json.Unmarshal(value, &obj); err != nil {
			return Accounts{}, fmt.Errorf("%w: %w", ErrUnexpectedResult, err)
		}
		if len(obj.ChainID) > 0 && string(obj.ChainID) != "null" {
			id, err := parseChainIDValue(obj.ChainID)
			if err != nil {
				return Accounts{}, err
			}
			chainID = id
		}
		rawAddrs = obj.Addresses
	} else if err := json.Unmarshal(value, &rawAddrs); err != nil {
		return Accounts{}, fmt.Errorf("%w: %w", ErrUnexpectedResult, err)
	}

	addrs := make([]common.Address, 0, len(rawAddrs))
	for _, raw := range rawAddrs {
		addr, err := params.Address(raw)
		if err != nil {
			return Accounts{}, fmt.Errorf("%w: %w", ErrUnexpectedResult, err)
		}
		addrs = append(addrs, addr)
	}

	return Accounts{ChainID: chainID, Addresses: addrs}, nil
}

// parseChainIDValue accepts a JSON number, a hex string or a decimal string.
func parseChainIDValue(raw json.RawMessage) (uint64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n uint64
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, fmt.Errorf("%w: invalid chain id %s", ErrUnexpectedResult, raw)
		}
		return n, nil
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		id, err := params.ChainID(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrUnexpectedResult, err)
		}
		return id, nil
	}

	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid chain id %q", ErrUnexpectedResult, s)
	}
	return id, nil
}
