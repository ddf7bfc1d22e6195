package db

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/morezero/wallet-dapp/pkg/router"
	"github.com/morezero/wallet-dapp/pkg/wallet"
)

const modelsLogPrefix = "db:models"

// AccountRow represents a row in the wallet_accounts table.
type AccountRow struct {
	Address  string    `json:"address"`
	Ether    string    `json:"ether"`
	Modified time.Time `json:"modified"`
}

// ERC20Row represents a row in the wallet_erc20 table.
type ERC20Row struct {
	Address string `json:"address"`
	Token   string `json:"token"`
	Amount  string `json:"amount"`
}

// ERC721Row represents a row in the wallet_erc721 table.
type ERC721Row struct {
	Address string `json:"address"`
	Token   string `json:"token"`
	TokenID string `json:"token_id"`
}

// AccountRows is the full stored form of one account.
type AccountRows struct {
	Account AccountRow
	ERC20   []ERC20Row
	ERC721  []ERC721Row
}

// SplitBalance flattens b into table rows. Addresses are stored lowercase.
func SplitBalance(account common.Address, b router.Balance) AccountRows {
	addr := lower(account)
	rows := AccountRows{Account: AccountRow{Address: addr, Ether: b.Ether().String()}}

	erc20 := b.ListERC20()
	for _, token := range sortedKeys(erc20) {
		rows.ERC20 = append(rows.ERC20, ERC20Row{Address: addr, Token: lower(token), Amount: erc20[token].String()})
	}
	erc721 := b.ListERC721()
	for _, token := range sortedKeys(erc721) {
		for _, id := range erc721[token] {
			rows.ERC721 = append(rows.ERC721, ERC721Row{Address: addr, Token: lower(token), TokenID: strconv.FormatUint(id, 10)})
		}
	}
	return rows
}

// BuildBalances reassembles wallet balances from table rows.
func BuildBalances(accounts []AccountRow, erc20 []ERC20Row, erc721 []ERC721Row) (map[common.Address]*wallet.Balance, error) {
	out := make(map[common.Address]*wallet.Balance, len(accounts))
	for _, row := range accounts {
		addr, err := parseStoredAddress(row.Address)
		if err != nil {
			return nil, err
		}
		ether, err := parseAmount(row.Ether)
		if err != nil {
			return nil, fmt.Errorf("%s - account %s ether: %w", modelsLogPrefix, row.Address, err)
		}
		b := wallet.NewBalance()
		b.SetEther(ether)
		out[addr] = b
	}

	balanceOf := func(address string) (*wallet.Balance, error) {
		addr, err := parseStoredAddress(address)
		if err != nil {
			return nil, err
		}
		b, ok := out[addr]
		if !ok {
			return nil, fmt.Errorf("%s - holding for unknown account %s", modelsLogPrefix, address)
		}
		return b, nil
	}

	for _, row := range erc20 {
		b, err := balanceOf(row.Address)
		if err != nil {
			return nil, err
		}
		token, err := parseStoredAddress(row.Token)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("%s - erc20 %s amount: %w", modelsLogPrefix, row.Token, err)
		}
		b.SetERC20(token, amount)
	}
	for _, row := range erc721 {
		b, err := balanceOf(row.Address)
		if err != nil {
			return nil, err
		}
		token, err := parseStoredAddress(row.Token)
		if err != nil {
			return nil, err
		}
		id, err := strconv.ParseUint(row.TokenID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s - erc721 %s token id: %w", modelsLogPrefix, row.Token, err)
		}
		b.AddERC721(token, id)
	}
	return out, nil
}

func parseStoredAddress(s string) (common.Address, error) {
	addr, err := router.ParseAddress(s)
	if err != nil {
		return common.Address{}, fmt.Errorf("%s - stored address: %w", modelsLogPrefix, err)
	}
	return addr, nil
}

func parseAmount(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("not a non-negative integer: %q", s)
	}
	return n, nil
}

func lower(addr common.Address) string {
	return "0x" + common.Bytes2Hex(addr.Bytes())
}

func sortedKeys[V any](m map[common.Address]V) []common.Address {
	keys := make([]common.Address, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Cmp(keys[j]) < 0 })
	return keys
}
