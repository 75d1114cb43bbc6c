package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"slices"
	"sort"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"

	"github.com/SIVIRA/unwallet-provider-js/pkg/provider"
)

const etherDecimals = 18

func (o *Operator) handleListAccounts() {
	accounts := o.provider.Accounts()
	if accounts.Empty() {
		fmt.Println("Not connected. Run 'connect' first.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Chain", "Address", "Balance (ETH)"})
	t.AppendSeparator()

	for _, addr := range accounts.Addresses {
		balance := "N/A"

		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		wei, err := provider.Call[hexutil.Big](ctx, o.provider, "eth_getBalance", addr, "latest")
		cancel()
		if err == nil {
			balance = fmtDec(weiToEther((*big.Int)(&wei)))
		} else if !errors.Is(err, provider.ErrNoUpstream) {
			o.lg.Warn("failed to fetch balance", "address", addr, "error", err)
		}

		t.AppendRow(table.Row{accounts.ChainID, addr.Hex(), balance})
	}
	t.SetColumnConfigs(
		[]table.ColumnConfig{
			{Number: 1, AutoMerge: true},
		},
	)
	t.Render()
}

func (o *Operator) handleListChains() {
	current := o.provider.ChainID()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "RPC", "Current"})
	t.AppendSeparator()

	for _, chainID := range sortedChainIDs(o.config.Provider.RPC) {
		mark := ""
		if chainID == current {
			mark = "*"
		}
		t.AppendRow(table.Row{chainID, o.config.Provider.RPC[chainID], mark})
	}
	t.Render()
}

func (o *Operator) handleListMethods() {
	enabled := o.config.Provider.Methods

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Method", "Enabled"})
	t.AppendSeparator()

	for _, method := range provider.SignerMethods() {
		on := len(enabled) == 0 || slices.Contains(enabled, method)
		t.AppendRow(table.Row{method, on})
	}
	t.Render()
}

func sortedChainIDs(rpcURLs map[uint64]string) []uint64 {
	ids := make([]uint64, 0, len(rpcURLs))
	for id := range rpcURLs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func weiToEther(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -etherDecimals)
}

// parseEther converts a decimal ETH amount to wei.
func parseEther(amount string) (*big.Int, error) {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, err
	}
	if value.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative")
	}

	wei := value.Shift(etherDecimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("amount has more than %d decimals", etherDecimals)
	}
	return wei.BigInt(), nil
}

func fmtDec(value decimal.Decimal) string {
	if value.Equal(value.Floor()) {
		return value.StringFixed(1)
	}

	return value.String()
}
