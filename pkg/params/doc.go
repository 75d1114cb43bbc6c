// Package params validates and normalizes the parameters of the signer
// methods served by the provider.
//
// Every function reads its input through a JSON round-trip, so any value that
// encodes to the expected JSON shape is accepted (slices, maps, structs or
// json.RawMessage) and the caller's value is never modified.
//
// Errors wrap ErrValidation. Missing params produce ErrParamsUndefined; a
// wrong shape, arity or malformed field produces ErrInvalidParams or one of
// its more specific children (ErrInvalidAddress, ErrInvalidHex, ...).
package params
