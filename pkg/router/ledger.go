package router

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/morezero/wallet-dapp/pkg/output"
)

// Ledger is the asset-accounting collaborator the handlers drive. Expected
// failures (insufficient funds, malformed deposits) come back as output.Error.
type Ledger interface {
	// Deposit processing receives the raw advance request; the portal wire
	// format is the ledger's business.
	EtherDepositProcess(ctx context.Context, req json.RawMessage) output.Output
	ERC20DepositProcess(ctx context.Context, req json.RawMessage) output.Output
	ERC721DepositProcess(ctx context.Context, req json.RawMessage) output.Output

	BalanceGet(ctx context.Context, account common.Address) Balance

	EtherWithdraw(ctx context.Context, rollup, sender common.Address, amount *big.Int) output.Output
	EtherTransfer(ctx context.Context, sender, to common.Address, amount *big.Int) output.Output
	ERC20Withdraw(ctx context.Context, sender, token common.Address, amount *big.Int) output.Output
	ERC20Transfer(ctx context.Context, sender, to, token common.Address, amount *big.Int) output.Output
	ERC721Withdraw(ctx context.Context, rollup, sender, token common.Address, tokenID uint64) output.Output
	ERC721Transfer(ctx context.Context, sender, to, token common.Address, tokenID uint64) output.Output
}

// Balance is a read-only snapshot of one account.
type Balance interface {
	Ether() *big.Int
	ListERC20() map[common.Address]*big.Int
	ListERC721() map[common.Address][]uint64
}
