package router

import (
	"context"
	"encoding/json"

	"github.com/morezero/wallet-dapp/pkg/output"
)

// TransferEther moves ether between two accounts of the DApp ledger.
type TransferEther struct {
	ledger Ledger
}

func (h *TransferEther) Execute(ctx context.Context, req json.RawMessage) (output.Output, error) {
	parsed, err := ParseAdvance(req)
	if err != nil {
		return nil, err
	}
	to, err := parsed.Args.Address("to")
	if err != nil {
		return nil, err
	}
	amount, err := parsed.Args.Amount("amount")
	if err != nil {
		return nil, err
	}
	return h.ledger.EtherTransfer(ctx, parsed.Sender, to, amount), nil
}

// TransferERC20 moves an ERC20 balance between two accounts.
type TransferERC20 struct {
	ledger Ledger
}

func (h *TransferERC20) Execute(ctx context.Context, req json.RawMessage) (output.Output, error) {
	parsed, err := ParseAdvance(req)
	if err != nil {
		return nil, err
	}
	to, err := parsed.Args.Address("to")
	if err != nil {
		return nil, err
	}
	token, err := parsed.Args.Address("erc20")
	if err != nil {
		return nil, err
	}
	amount, err := parsed.Args.Amount("amount")
	if err != nil {
		return nil, err
	}
	return h.ledger.ERC20Transfer(ctx, parsed.Sender, to, token, amount), nil
}

// TransferERC721 moves a single token between two accounts.
type TransferERC721 struct {
	ledger Ledger
}

func (h *TransferERC721) Execute(ctx context.Context, req json.RawMessage) (output.Output, error) {
	parsed, err := ParseAdvance(req)
	if err != nil {
		return nil, err
	}
	to, err := parsed.Args.Address("to")
	if err != nil {
		return nil, err
	}
	token, err := parsed.Args.Address("erc721")
	if err != nil {
		return nil, err
	}
	tokenID, err := parsed.Args.TokenID("token_id")
	if err != nil {
		return nil, err
	}
	return h.ledger.ERC721Transfer(ctx, parsed.Sender, to, token, tokenID), nil
}
