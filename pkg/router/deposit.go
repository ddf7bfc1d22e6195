package router

import (
	"context"
	"encoding/json"

	"github.com/morezero/wallet-dapp/pkg/output"
)

// DepositEther credits an ether portal deposit.
type DepositEther struct {
	ledger Ledger
}

func (h *DepositEther) Execute(ctx context.Context, req json.RawMessage) (output.Output, error) {
	return h.ledger.EtherDepositProcess(ctx, req), nil
}

// DepositERC20 credits an ERC20 portal deposit.
type DepositERC20 struct {
	ledger Ledger
}

func (h *DepositERC20) Execute(ctx context.Context, req json.RawMessage) (output.Output, error) {
	return h.ledger.ERC20DepositProcess(ctx, req), nil
}

// DepositERC721 credits an ERC721 portal deposit.
type DepositERC721 struct {
	ledger Ledger
}

func (h *DepositERC721) Execute(ctx context.Context, req json.RawMessage) (output.Output, error) {
	return h.ledger.ERC721DepositProcess(ctx, req), nil
}
