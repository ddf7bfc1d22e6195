package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/morezero/wallet-dapp/pkg/output"
)

const balanceLogPrefix = "router:balance"

// BalanceQuery answers inspect queries for an account's full holdings. Unlike the
// mutating handlers it never returns an error: every failure becomes an
// output.Error.
type BalanceQuery struct {
	ledger Ledger
}

// BalanceReport is the JSON document carried by the balance Report.
// ERC20 entries are [address, amount] pairs, ERC721 entries are
// [address, [token ids]] pairs; both are sorted by address.
type BalanceReport struct {
	Ether  string  `json:"ether"`
	ERC20  [][]any `json:"erc20"`
	ERC721 [][]any `json:"erc721"`
}

func (h *BalanceQuery) Execute(ctx context.Context, req json.RawMessage) (out output.Output, _ error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(fmt.Sprintf("%s - balance snapshot failed: %v", balanceLogPrefix, r))
			out = output.Error{Message: fmt.Sprint(r)}
		}
	}()

	var account string
	if err := json.Unmarshal(req, &account); err != nil {
		return output.Error{Message: fmt.Sprintf("balance query must be an address string: %v", err)}, nil
	}
	addr, err := ParseAddress(account)
	if err != nil {
		return output.Error{Message: err.Error()}, nil
	}

	report := buildBalanceReport(h.ledger.BalanceGet(ctx, addr))
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		return output.Error{Message: err.Error()}, nil
	}
	return output.Report{Payload: string(bytes.TrimRight(buf.Bytes(), "\n"))}, nil
}

func buildBalanceReport(b Balance) *BalanceReport {
	report := &BalanceReport{
		Ether:  "0",
		ERC20:  make([][]any, 0),
		ERC721: make([][]any, 0),
	}
	if b == nil {
		return report
	}
	if ether := b.Ether(); ether != nil {
		report.Ether = ether.String()
	}

	erc20 := b.ListERC20()
	for _, token := range sortedAddresses(erc20) {
		report.ERC20 = append(report.ERC20, []any{token.Hex(), erc20[token].String()})
	}

	erc721 := b.ListERC721()
	for _, token := range sortedAddresses(erc721) {
		ids := append([]uint64(nil), erc721[token]...)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		if ids == nil {
			ids = []uint64{}
		}
		report.ERC721 = append(report.ERC721, []any{token.Hex(), ids})
	}
	return report
}

func sortedAddresses[V any](m map[common.Address]V) []common.Address {
	keys := make([]common.Address, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })
	return keys
}
