package params

import (
	"encoding/json"
	"fmt"
)

// Transaction is a validated eth_sendTransaction object. Fields keep their
// original hex encoding so they can be handed to the signer window as given.
type Transaction struct {
	From     string `json:"from,omitempty" validate:"omitempty,ethaddr"`
	To       string `json:"to" validate:"required,ethaddr"`
	Value    string `json:"value,omitempty" validate:"omitempty,hexquantity"`
	Data     string `json:"data,omitempty" validate:"omitempty,hexdata"`
	Gas      string `json:"gas,omitempty" validate:"omitempty,hexquantity"`
	GasPrice string `json:"gasPrice,omitempty" validate:"omitempty,hexquantity"`
	Nonce    string `json:"nonce,omitempty" validate:"omitempty,hexquantity"`
}

// SendTransaction validates eth_sendTransaction params: [tx].
func SendTransaction(params any) (Transaction, error) {
	args, err := positional(params, 1, 1)
	if err != nil {
		return Transaction{}, err
	}
	if !isObject(args[0]) {
		return Transaction{}, fmt.Errorf("%w: transaction must be an object", ErrInvalidTransaction)
	}

	var tx Transaction
	if err := json.Unmarshal(args[0], &tx); err != nil {
		return Transaction{}, fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	if err := validate.Struct(tx); err != nil {
		return Transaction{}, fmt.Errorf("%w: %s", ErrInvalidTransaction, describe(err))
	}

	return tx, nil
}
