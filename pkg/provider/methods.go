package provider

import (
	"context"
	"sort"

	"github.com/SIVIRA/unwallet-provider-js/pkg/rpc"
)

// Methods served locally.
const (
	MethodRequestAccounts = "eth_requestAccounts"
	MethodAccounts        = "eth_accounts"
	MethodChainID         = "eth_chainId"
	MethodPersonalSign    = "personal_sign"
	MethodEthSign         = "eth_sign"
	MethodSignTypedData   = "eth_signTypedData"
	MethodSignTypedDataV4 = "eth_signTypedData_v4"
	MethodSendTransaction = "eth_sendTransaction"
	MethodSignTransaction = "eth_signTransaction"
	MethodSwitchChain     = "wallet_switchEthereumChain"
)

// handlerFunc serves one signer method. The result is encoded as JSON.
type handlerFunc func(ctx context.Context, p *Provider, params any) (any, error)

// signerHandlers is the table of locally served methods.
var signerHandlers = map[string]handlerFunc{
	MethodRequestAccounts: handleRequestAccounts,
	MethodAccounts:        handleAccounts,
	MethodChainID:         handleChainID,
	MethodPersonalSign:    handlePersonalSign,
	MethodEthSign:         handleEthSign,
	MethodSignTypedData:   handleSignTypedData,
	MethodSignTypedDataV4: handleSignTypedData,
	MethodSendTransaction: handleSendTransaction,
	MethodSignTransaction: handleSignTransaction,
	MethodSwitchChain:     handleSwitchChain,
}

// IsSignerMethod reports whether method is served locally rather than forwarded.
func IsSignerMethod(method string) bool {
	_, ok := signerHandlers[method]
	return ok
}

// SignerMethods returns the locally served methods in sorted order.
func SignerMethods() []string {
	methods := make([]string, 0, len(signerHandlers))
	for m := range signerHandlers {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

// handlersFor returns the signer handlers enabled by cfg.
func handlersFor(cfg Config) map[string]handlerFunc {
	handlers := make(map[string]handlerFunc, len(signerHandlers))
	for m, h := range signerHandlers {
		if cfg.enabled(m) {
			handlers[m] = h
		}
	}
	return handlers
}

// flowKind is a signer window flow.
type flowKind string

const (
	flowRequestAccounts flowKind = "requestAccounts"
	flowSign            flowKind = "sign"
	flowSignTypedData   flowKind = "signTypedData"
	flowSendTransaction flowKind = "sendTransaction"
	flowSwitchChain     flowKind = "switchChain"
)

// path is the signer window path of the flow.
func (k flowKind) path() string {
	return "/x/eth/" + string(k)
}

// resultType is the message type the signer window reports the result with.
func (k flowKind) resultType() rpc.MessageType {
	switch k {
	case flowRequestAccounts:
		return rpc.MessageTypeAccounts
	case flowSendTransaction:
		return rpc.MessageTypeTransactionHash
	case flowSwitchChain:
		return rpc.MessageTypeSuccess
	default:
		return rpc.MessageTypeSignature
	}
}
