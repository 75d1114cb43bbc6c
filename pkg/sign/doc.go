// Package sign recovers and checks Ethereum personal-message signatures.
//
// The provider uses it to confirm that a signature returned by the remote
// wallet was produced by the account the caller asked to sign with. Tests
// that need to play the wallet's role sign with package signtest.
package sign
