package router

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/morezero/wallet-dapp/pkg/output"
)

// Well-known dev-chain accounts, written in their EIP-55 form.
const (
	alice   = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	bob     = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	carol   = "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"
	dappHex = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
)

// ledgerCall records one invocation of fakeLedger.
type ledgerCall struct {
	Method  string
	Rollup  common.Address
	Sender  common.Address
	To      common.Address
	Token   common.Address
	Amount  string
	TokenID uint64
	Raw     string
}

type fakeBalance struct {
	ether  *big.Int
	erc20  map[common.Address]*big.Int
	erc721 map[common.Address][]uint64
}

func (b *fakeBalance) Ether() *big.Int                          { return b.ether }
func (b *fakeBalance) ListERC20() map[common.Address]*big.Int   { return b.erc20 }
func (b *fakeBalance) ListERC721() map[common.Address][]uint64 { return b.erc721 }

// fakeLedger answers every mutation with a notice naming the method called.
type fakeLedger struct {
	calls    []ledgerCall
	balances map[common.Address]*fakeBalance
	panicMsg string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[common.Address]*fakeBalance)}
}

func (l *fakeLedger) record(c ledgerCall) output.Output {
	l.calls = append(l.calls, c)
	return output.Notice{Payload: c.Method}
}

func (l *fakeLedger) EtherDepositProcess(_ context.Context, req json.RawMessage) output.Output {
	return l.record(ledgerCall{Method: "ether_deposit_process", Raw: string(req)})
}

func (l *fakeLedger) ERC20DepositProcess(_ context.Context, req json.RawMessage) output.Output {
	return l.record(ledgerCall{Method: "erc20_deposit_process", Raw: string(req)})
}

func (l *fakeLedger) ERC721DepositProcess(_ context.Context, req json.RawMessage) output.Output {
	return l.record(ledgerCall{Method: "erc721_deposit_process", Raw: string(req)})
}

func (l *fakeLedger) BalanceGet(_ context.Context, account common.Address) Balance {
	if l.panicMsg != "" {
		panic(l.panicMsg)
	}
	l.calls = append(l.calls, ledgerCall{Method: "balance_get", Sender: account})
	if b, ok := l.balances[account]; ok {
		return b
	}
	return &fakeBalance{ether: big.NewInt(0)}
}

func (l *fakeLedger) EtherWithdraw(_ context.Context, rollup, sender common.Address, amount *big.Int) output.Output {
	return l.record(ledgerCall{Method: "ether_withdraw", Rollup: rollup, Sender: sender, Amount: amount.String()})
}

func (l *fakeLedger) EtherTransfer(_ context.Context, sender, to common.Address, amount *big.Int) output.Output {
	return l.record(ledgerCall{Method: "ether_transfer", Sender: sender, To: to, Amount: amount.String()})
}

func (l *fakeLedger) ERC20Withdraw(_ context.Context, sender, token common.Address, amount *big.Int) output.Output {
	return l.record(ledgerCall{Method: "erc20_withdraw", Sender: sender, Token: token, Amount: amount.String()})
}

func (l *fakeLedger) ERC20Transfer(_ context.Context, sender, to, token common.Address, amount *big.Int) output.Output {
	return l.record(ledgerCall{Method: "erc20_transfer", Sender: sender, To: to, Token: token, Amount: amount.String()})
}

func (l *fakeLedger) ERC721Withdraw(_ context.Context, rollup, sender, token common.Address, tokenID uint64) output.Output {
	return l.record(ledgerCall{Method: "erc721_withdraw", Rollup: rollup, Sender: sender, Token: token, TokenID: tokenID})
}

func (l *fakeLedger) ERC721Transfer(_ context.Context, sender, to, token common.Address, tokenID uint64) output.Output {
	return l.record(ledgerCall{Method: "erc721_transfer", Sender: sender, To: to, Token: token, TokenID: tokenID})
}

// advanceRequest builds an advance envelope whose payload is the hex encoding
// of {"args": args}.
func advanceRequest(t *testing.T, sender string, args map[string]any) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"args": args})
	if err != nil {
		t.Fatalf("router:helpers_test - marshal payload: %v", err)
	}
	return rawAdvance(t, sender, hexutil.Encode(payload))
}

// rawAdvance builds an advance envelope around an already encoded payload.
func rawAdvance(t *testing.T, sender, payloadHex string) json.RawMessage {
	t.Helper()
	req, err := json.Marshal(AdvanceRequest{
		Metadata: Metadata{MsgSender: sender, Timestamp: 1700000000},
		Payload:  payloadHex,
	})
	if err != nil {
		t.Fatalf("router:helpers_test - marshal request: %v", err)
	}
	return req
}

func quoted(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}
