package router

import (
	"context"
	"encoding/json"

	"github.com/morezero/wallet-dapp/pkg/output"
)

// MsgRollupAddressRequired is returned by withdrawals whose voucher needs the
// DApp address before it has been relayed.
const MsgRollupAddressRequired = "DApp address is needed to withdraw the assett"

// WithdrawEther debits ether and emits a voucher against the DApp contract.
type WithdrawEther struct {
	rollupAddress
	ledger Ledger
}

func (h *WithdrawEther) Execute(ctx context.Context, req json.RawMessage) (output.Output, error) {
	parsed, err := ParseAdvance(req)
	if err != nil {
		return nil, err
	}
	rollup, ok := h.RollupAddress()
	if !ok {
		return output.Error{Message: MsgRollupAddressRequired}, nil
	}
	amount, err := parsed.Args.Amount("amount")
	if err != nil {
		return nil, err
	}
	return h.ledger.EtherWithdraw(ctx, rollup, parsed.Sender, amount), nil
}

// WithdrawERC20 debits an ERC20 balance. Its voucher targets the token
// contract, so no DApp address is involved.
type WithdrawERC20 struct {
	ledger Ledger
}

func (h *WithdrawERC20) Execute(ctx context.Context, req json.RawMessage) (output.Output, error) {
	parsed, err := ParseAdvance(req)
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
	return h.ledger.ERC20Withdraw(ctx, parsed.Sender, token, amount), nil
}

// WithdrawERC721 releases a token held by the DApp back to its owner.
type WithdrawERC721 struct {
	rollupAddress
	ledger Ledger
}

func (h *WithdrawERC721) Execute(ctx context.Context, req json.RawMessage) (output.Output, error) {
	parsed, err := ParseAdvance(req)
	if err != nil {
		return nil, err
	}
	rollup, ok := h.RollupAddress()
	if !ok {
		return output.Error{Message: MsgRollupAddressRequired}, nil
	}
	token, err := parsed.Args.Address("erc721")
	if err != nil {
		return nil, err
	}
	tokenID, err := parsed.Args.TokenID("token_id")
	if err != nil {
		return nil, err
	}
	return h.ledger.ERC721Withdraw(ctx, rollup, parsed.Sender, token, tokenID), nil
}
