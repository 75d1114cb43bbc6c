package params

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = NewValidator()

// NewValidator returns a validator with the Ethereum field tags registered:
//
//	ethaddr      20-byte hex address, EIP-55 checked when mixed case
//	hexdata      0x-prefixed even-length hex
//	hexquantity  0x-prefixed hex number
func NewValidator() *validator.Validate {
	v := validator.New()

	tags := map[string]func(string) error{
		"ethaddr": func(s string) error {
			_, err := Address(s)
			return err
		},
		"hexdata": func(s string) error {
			_, err := HexData(s)
			return err
		},
		"hexquantity": func(s string) error {
			_, err := Quantity(s)
			return err
		},
	}

	for tag, check := range tags {
		check := check
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String()) == nil
		}); err != nil {
			panic(fmt.Sprintf("failed to register %s validation: %v", tag, err))
		}
	}
	return v
}

// describe flattens validator errors into "field: tag" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
