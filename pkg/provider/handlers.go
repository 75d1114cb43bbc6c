package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/SIVIRA/unwallet-provider-js/pkg/params"
	"github.com/SIVIRA/unwallet-provider-js/pkg/sign"
)

func handleAccounts(_ context.Context, p *Provider, _ any) (any, error) {
	addrs := p.Accounts().Addresses
	if addrs == nil {
		addrs = []common.Address{}
	}
	return addrs, nil
}

func handleChainID(_ context.Context, p *Provider, _ any) (any, error) {
	chainID := p.ChainID()
	if chainID == 0 {
		return nil, nil
	}
	return chainIDHex(chainID), nil
}

func handleRequestAccounts(ctx context.Context, p *Provider, _ any) (any, error) {
	query := url.Values{}
	if chainID := p.ChainID(); chainID != 0 {
		query.Set("chainID", strconv.FormatUint(chainID, 10))
	}

	value, err := p.runFlow(ctx, flowRequestAccounts, query)
	if err != nil {
		return nil, err
	}

	accounts, err := parseAccountsValue(value, p.ChainID())
	if err != nil {
		return nil, err
	}

	p.setAccounts(ctx, accounts, true)
	return accounts.Addresses, nil
}

func handlePersonalSign(ctx context.Context, p *Provider, raw any) (any, error) {
	req, err := params.PersonalSign(raw)
	if err != nil {
		return nil, err
	}
	return p.signMessage(ctx, req)
}

func handleEthSign(ctx context.Context, p *Provider, raw any) (any, error) {
	req, err := params.EthSign(raw)
	if err != nil {
		return nil, err
	}
	return p.signMessage(ctx, req)
}

func (p *Provider) signMessage(ctx context.Context, req params.SignRequest) (any, error) {
	if err := p.checkAccount(req.Address); err != nil {
		return nil, err
	}

	value, err := p.runFlow(ctx, flowSign, url.Values{"message": {req.Message.String()}})
	if err != nil {
		return nil, err
	}

	sigHex, err := decodeHexResult(value, 65)
	if err != nil {
		return nil, err
	}

	sig, err := sign.ParseSignature(sigHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedResult, err)
	}
	if p.cfg.VerifySignatures {
		if err := sign.VerifyPersonalMessage(req.Address, req.Message, sig); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnexpectedResult, err)
		}
	}
	return sig, nil
}

func handleSignTypedData(ctx context.Context, p *Provider, raw any) (any, error) {
	req, err := params.SignTypedData(raw)
	if err != nil {
		return nil, err
	}
	if err := p.checkAccount(req.Address); err != nil {
		return nil, err
	}

	value, err := p.runFlow(ctx, flowSignTypedData, url.Values{"data": {string(req.Normalized)}})
	if err != nil {
		return nil, err
	}
	return decodeHexResult(value, 65)
}

func handleSendTransaction(ctx context.Context, p *Provider, raw any) (any, error) {
	tx, err := params.SendTransaction(raw)
	if err != nil {
		return nil, err
	}
	if tx.From != "" {
		from, err := params.Address(tx.From)
		if err != nil {
			return nil, err
		}
		if err := p.checkAccount(from); err != nil {
			return nil, err
		}
	}

	query := url.Values{"to": {tx.To}}
	for key, v := range map[string]string{
		"value":    tx.Value,
		"data":     tx.Data,
		"gas":      tx.Gas,
		"gasPrice": tx.GasPrice,
	} {
		if v != "" {
			query.Set(key, v)
		}
	}
	if chainID := p.ChainID(); chainID != 0 {
		query.Set("chainID", strconv.FormatUint(chainID, 10))
	}

	value, err := p.runFlow(ctx, flowSendTransaction, query)
	if err != nil {
		return nil, err
	}
	return decodeHexResult(value, common.HashLength)
}

func handleSignTransaction(context.Context, *Provider, any) (any, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, MethodSignTransaction)
}

func handleSwitchChain(ctx context.Context, p *Provider, raw any) (any, error) {
	chainID, err := params.SwitchChain(raw)
	if err != nil {
		return nil, err
	}

	query := url.Values{"chainID": {strconv.FormatUint(chainID, 10)}}
	if _, err := p.runFlow(ctx, flowSwitchChain, query); err != nil {
		return nil, err
	}

	p.setChainID(ctx, chainID)
	return nil, nil
}

// checkAccount rejects addresses outside the granted accounts, when known.
func (p *Provider) checkAccount(addr common.Address) error {
	accounts := p.Accounts()
	if accounts.Empty() || accounts.Contains(addr) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidAccount, addr.Hex())
}

// decodeHexResult decodes a hex string result of size bytes.
func decodeHexResult(value json.RawMessage, size int) (string, error) {
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return "", fmt.Errorf("%w: expected a hex string, got %s", ErrUnexpectedResult, value)
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnexpectedResult, err)
	}
	if len(b) != size {
		return "", fmt.Errorf("%w: expected %d bytes, got %d", ErrUnexpectedResult, size, len(b))
	}
	return s, nil
}
