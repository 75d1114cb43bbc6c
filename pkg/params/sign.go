package params

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// SignRequest is a validated personal_sign or eth_sign call.
type SignRequest struct {
	Address common.Address
	Message hexutil.Bytes
}

// PersonalSign validates personal_sign params: [data, address] with an
// optional trailing password, which is ignored.
func PersonalSign(params any) (SignRequest, error) {
	args, err := positional(params, 2, 3)
	if err != nil {
		return SignRequest{}, err
	}
	return signRequest(args, 1, 0)
}

// EthSign validates eth_sign params: [address, data].
func EthSign(params any) (SignRequest, error) {
	args, err := positional(params, 2, 2)
	if err != nil {
		return SignRequest{}, err
	}
	return signRequest(args, 0, 1)
}

func signRequest(args []json.RawMessage, addrIdx, dataIdx int) (SignRequest, error) {
	rawAddr, err := stringArg(args, addrIdx)
	if err != nil {
		return SignRequest{}, err
	}
	addr, err := Address(rawAddr)
	if err != nil {
		return SignRequest{}, err
	}

	rawData, err := stringArg(args, dataIdx)
	if err != nil {
		return SignRequest{}, err
	}
	data, err := HexData(rawData)
	if err != nil {
		return SignRequest{}, err
	}

	return SignRequest{Address: addr, Message: data}, nil
}
