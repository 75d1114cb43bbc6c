package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"

	"github.com/SIVIRA/unwallet-provider-js/pkg/log"
	"github.com/SIVIRA/unwallet-provider-js/pkg/provider"
)

const (
	// requestTimeout bounds how long a signer flow may wait for the user.
	requestTimeout = 5 * time.Minute
	// queryTimeout bounds listings and requests that open no signer window.
	queryTimeout = 10 * time.Second
)

type Operator struct {
	provider *provider.Provider
	ui       *TerminalUI
	config   *Config
	lg       log.Logger

	mu       sync.Mutex
	nextID   int
	inflight context.CancelFunc

	events chan provider.Event
	sub    event.Subscription
	exitCh chan struct{}
	once   sync.Once
}

func NewOperator(p *provider.Provider, ui *TerminalUI, config *Config, lg log.Logger) *Operator {
	operator := &Operator{
		provider: p,
		ui:       ui,
		config:   config,
		lg:       lg.WithName("operator"),
		events:   make(chan provider.Event, 16),
		exitCh:   make(chan struct{}),
	}
	operator.sub = p.Subscribe(operator.events)
	go operator.printEvents()

	return operator
}

func (o *Operator) Complete(d prompt.Document) []prompt.Suggest {
	return prompt.FilterHasPrefix(o.complete(d), d.GetWordBeforeCursor(), true)
}

func (o *Operator) complete(d prompt.Document) []prompt.Suggest {
	args := strings.Split(d.TextBeforeCursor(), " ")

	if len(args) < 2 {
		suggestions := []prompt.Suggest{
			{Text: "connect", Description: "Request accounts from unWallet"},
			{Text: "accounts", Description: "Show the connected accounts"},
			{Text: "chain", Description: "Show the current chain"},
			{Text: "session", Description: "Show the wallet channel session"},
			{Text: "list", Description: "List accounts, chains or methods"},
			{Text: "sign", Description: "Sign a text message with the first account"},
			{Text: "sign-typed", Description: "Sign EIP-712 typed data read from a JSON file"},
			{Text: "send", Description: "Send ETH to an address"},
			{Text: "switch", Description: "Switch to another chain"},
			{Text: "call", Description: "Send a raw JSON-RPC request"},
			{Text: "abort", Description: "Stop waiting for the pending signer request"},
			{Text: "exit", Description: "Exit the application"},
		}
		if o.ui.Prompting() {
			suggestions = append([]prompt.Suggest{
				{Text: "continue", Description: "Open the blocked signer window"},
				{Text: "cancel", Description: "Dismiss the blocked signer window prompt"},
			}, suggestions...)
		}
		return suggestions
	}

	if len(args) < 3 {
		switch args[0] {
		case "list":
			return []prompt.Suggest{
				{Text: "accounts", Description: "List connected accounts and their balances"},
				{Text: "chains", Description: "List chains with a configured RPC"},
				{Text: "methods", Description: "List locally served methods"},
			}
		case "switch":
			return o.getChainSuggestions()
		case "send":
			return o.getAccountSuggestions()
		default:
			return nil
		}
	}

	return nil
}

func (o *Operator) Execute(s string) {
	args := strings.Fields(s)
	if len(args) == 0 {
		return
	}

	switch args[0] {
	case "connect":
		o.runAsync(provider.MethodRequestAccounts, nil)
	case "accounts":
		o.handleAccounts()
	case "chain":
		o.handleChain()
	case "session":
		o.handleSession()
	case "list":
		if len(args) < 2 {
			fmt.Println("Usage: list <accounts|chains|methods>")
			return
		}

		switch args[1] {
		case "accounts":
			o.handleListAccounts()
		case "chains":
			o.handleListChains()
		case "methods":
			o.handleListMethods()
		default:
			fmt.Printf("Unknown list type: %s. Use 'accounts', 'chains' or 'methods'.\n", args[1])
		}
	case "sign":
		o.handleSign(args)
	case "sign-typed":
		o.handleSignTyped(args)
	case "send":
		o.handleSend(args)
	case "switch":
		o.handleSwitch(args)
	case "call":
		o.handleCall(args)
	case "continue":
		if !o.ui.Continue() {
			fmt.Println("Nothing to continue.")
		}
	case "cancel":
		if !o.ui.Cancel() {
			fmt.Println("Nothing to cancel.")
		}
	case "abort":
		o.abort()
	case "exit":
		o.exit()
	default:
		fmt.Printf("Unknown command: %s\n", s)
	}
}

func (o *Operator) Wait() <-chan struct{} {
	return o.exitCh
}

func (o *Operator) exit() {
	o.once.Do(func() {
		o.abort()
		o.sub.Unsubscribe()
		close(o.exitCh)
	})
}

// runAsync sends a request without blocking the prompt, so a blocked window
// can still be continued.
func (o *Operator) runAsync(method string, params any) {
	ctx, cancel, id := o.begin(method)

	fmt.Printf("[#%d] %s sent\n", id, method)
	go func() {
		defer cancel()

		raw, err := o.provider.Request(ctx, provider.RequestArguments{Method: method, Params: params})
		if err != nil {
			perr := provider.ToProviderRpcError(err)
			fmt.Printf("[#%d] %s failed (%d): %s\n", id, method, perr.Code, perr.Message)
			return
		}
		fmt.Printf("[#%d] %s => %s\n", id, method, string(raw))
	}()
}

// begin numbers a request and derives its context. A signer window flow
// replaces the previous one, whose result the provider would drop anyway.
// Other requests run beside it and are not reachable from abort.
func (o *Operator) begin(method string) (context.Context, context.CancelFunc, int) {
	timeout := queryTimeout
	if opensSignerWindow(method) {
		timeout = requestTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	o.mu.Lock()
	o.nextID++
	id := o.nextID
	var prev context.CancelFunc
	if opensSignerWindow(method) {
		prev = o.inflight
		o.inflight = cancel
	}
	o.mu.Unlock()

	if prev != nil {
		prev()
	}
	return ctx, cancel, id
}

func opensSignerWindow(method string) bool {
	switch method {
	case provider.MethodRequestAccounts,
		provider.MethodPersonalSign,
		provider.MethodEthSign,
		provider.MethodSignTypedData,
		provider.MethodSignTypedDataV4,
		provider.MethodSendTransaction,
		provider.MethodSwitchChain:
		return true
	default:
		return false
	}
}

func (o *Operator) abort() {
	o.mu.Lock()
	cancel := o.inflight
	o.inflight = nil
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (o *Operator) printEvents() {
	for {
		select {
		case ev := <-o.events:
			fmt.Printf("[event] %s\n", formatEvent(ev))
		case err := <-o.sub.Err():
			if err != nil {
				o.lg.Error("event subscription failed", "error", err)
			}
			return
		case <-o.exitCh:
			return
		}
	}
}

func (o *Operator) handleAccounts() {
	accounts := o.provider.Accounts()
	if accounts.Empty() {
		fmt.Println("Not connected. Run 'connect' first.")
		return
	}
	for _, addr := range accounts.Addresses {
		fmt.Println(addr.Hex())
	}
}

func (o *Operator) handleChain() {
	chainID := o.provider.ChainID()
	if chainID == 0 {
		fmt.Println("Chain unknown.")
		return
	}
	fmt.Printf("%d (%s)\n", chainID, hexutil.EncodeUint64(chainID))
}

func (o *Operator) handleSession() {
	session := o.provider.Session()
	fmt.Printf("State: %s\n", session.State)
	if session.ConnectionID != "" {
		fmt.Printf("Connection ID: %s\n", session.ConnectionID)
	}
	fmt.Printf("Signer: %s\n", o.provider.Endpoints().BaseURL)
}

func (o *Operator) handleSign(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: sign <message>")
		return
	}
	account, ok := o.firstAccount()
	if !ok {
		return
	}

	message := strings.Join(args[1:], " ")
	o.runAsync(provider.MethodPersonalSign, []any{hexutil.Encode([]byte(message)), account.Hex()})
}

func (o *Operator) handleSignTyped(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: sign-typed <file.json>")
		return
	}
	account, ok := o.firstAccount()
	if !ok {
		return
	}

	data, err := os.ReadFile(args[1])
	if err != nil {
		fmt.Printf("Failed to read typed data: %s\n", err.Error())
		return
	}
	if !json.Valid(data) {
		fmt.Println("Typed data must be a JSON document.")
		return
	}

	o.runAsync(provider.MethodSignTypedDataV4, []any{account.Hex(), json.RawMessage(data)})
}

func (o *Operator) handleSend(args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: send <to> <amount ETH> [data]")
		return
	}
	account, ok := o.firstAccount()
	if !ok {
		return
	}
	if !common.IsHexAddress(args[1]) {
		fmt.Println("Invalid address format. Please provide a valid Ethereum address.")
		return
	}

	wei, err := parseEther(args[2])
	if err != nil {
		fmt.Printf("Invalid amount: %s\n", err.Error())
		return
	}

	tx := map[string]any{
		"from":  account.Hex(),
		"to":    args[1],
		"value": hexutil.EncodeBig(wei),
	}
	if len(args) > 3 {
		tx["data"] = args[3]
	}
	o.runAsync(provider.MethodSendTransaction, []any{tx})
}

func (o *Operator) handleSwitch(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: switch <chain id>")
		return
	}

	chainID, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil || chainID == 0 {
		fmt.Println("Chain id must be a positive decimal number.")
		return
	}
	o.runAsync(provider.MethodSwitchChain, []any{map[string]any{"chainId": hexutil.EncodeUint64(chainID)}})
}

func (o *Operator) handleCall(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: call <method> [params JSON]")
		return
	}

	var params any
	if len(args) > 2 {
		raw := json.RawMessage(strings.Join(args[2:], " "))
		if !json.Valid(raw) {
			fmt.Println("Params must be a JSON array or object.")
			return
		}
		params = raw
	}
	o.runAsync(args[1], params)
}

func (o *Operator) firstAccount() (common.Address, bool) {
	accounts := o.provider.Accounts()
	if accounts.Empty() {
		fmt.Println("Not connected. Run 'connect' first.")
		return common.Address{}, false
	}
	return accounts.Addresses[0], true
}

func (o *Operator) getChainSuggestions() []prompt.Suggest {
	suggestions := make([]prompt.Suggest, 0, len(o.config.Provider.RPC))
	for _, chainID := range sortedChainIDs(o.config.Provider.RPC) {
		suggestions = append(suggestions, prompt.Suggest{
			Text:        strconv.FormatUint(chainID, 10),
			Description: o.config.Provider.RPC[chainID],
		})
	}
	return suggestions
}

func (o *Operator) getAccountSuggestions() []prompt.Suggest {
	addrs := o.provider.Accounts().Addresses
	suggestions := make([]prompt.Suggest, 0, len(addrs))
	for _, addr := range addrs {
		suggestions = append(suggestions, prompt.Suggest{Text: addr.Hex()})
	}
	return suggestions
}

func formatEvent(ev provider.Event) string {
	switch payload := ev.Payload.(type) {
	case []common.Address:
		hexes := make([]string, len(payload))
		for i, addr := range payload {
			hexes[i] = addr.Hex()
		}
		return fmt.Sprintf("%s [%s]", ev.Type, strings.Join(hexes, ", "))
	case provider.ConnectInfo:
		if payload.ChainID == "" {
			return string(ev.Type)
		}
		return fmt.Sprintf("%s chain %s", ev.Type, payload.ChainID)
	case *provider.ProviderRpcError:
		return fmt.Sprintf("%s (%d): %s", ev.Type, payload.Code, payload.Message)
	case provider.ProviderMessage:
		return fmt.Sprintf("%s %s %s", ev.Type, payload.Type, string(payload.Data))
	default:
		return fmt.Sprintf("%s %v", ev.Type, payload)
	}
}
