package params

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Address parses a 0x-prefixed 20-byte hex address. All-lowercase and
// all-uppercase forms are accepted; mixed case must match the EIP-55 checksum.
func Address(s string) (common.Address, error) {
	if !has0xPrefix(s) || !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}

	addr := common.HexToAddress(s)
	body := s[2:]
	if strings.ToLower(body) != body && strings.ToUpper(body) != body && addr.Hex()[2:] != body {
		return common.Address{}, fmt.Errorf("%w: bad checksum %q", ErrInvalidAddress, s)
	}
	return addr, nil
}

// HexData parses 0x-prefixed, even-length hex. "0x" is the empty payload.
func HexData(s string) (hexutil.Bytes, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidHex, s, err)
	}
	return b, nil
}

// Quantity parses a 0x-prefixed hex number. Leading zero digits are tolerated;
// signs are not.
func Quantity(s string) (*big.Int, error) {
	if !has0xPrefix(s) || len(s) == 2 || !isHexDigits(s[2:]) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidQuantity, s)
	}

	n, ok := new(big.Int).SetString(s[2:], 16)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidQuantity, s)
	}
	return n, nil
}

func isHexDigits(s string) bool {
	for _, c := range []byte(s) {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
