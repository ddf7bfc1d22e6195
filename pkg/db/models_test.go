package db

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"

	"github.com/morezero/wallet-dapp/pkg/wallet"
)

const modelsTestPrefix = "db:models_test"

var (
	testAccount = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	testToken   = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
)

func TestSplitBalance(t *testing.T) {
	b := wallet.NewBalance()
	b.SetEther(big.NewInt(12))
	b.SetERC20(testToken, big.NewInt(3))
	b.AddERC721(testToken, 9)
	b.AddERC721(testToken, 2)

	got := SplitBalance(testAccount, b)
	want := AccountRows{
		Account: AccountRow{Address: "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", Ether: "12"},
		ERC20: []ERC20Row{
			{Address: "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", Token: "0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc", Amount: "3"},
		},
		ERC721: []ERC721Row{
			{Address: "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", Token: "0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc", TokenID: "2"},
			{Address: "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", Token: "0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc", TokenID: "9"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("%s - SplitBalance mismatch (-want +got):\n%s", modelsTestPrefix, diff)
	}
}

func TestBuildBalances_RoundTrip(t *testing.T) {
	b := wallet.NewBalance()
	b.SetEther(new(big.Int).Lsh(big.NewInt(1), 200))
	b.SetERC20(testToken, big.NewInt(77))
	b.AddERC721(testToken, 18446744073709551615)

	rows := SplitBalance(testAccount, b)
	got, err := BuildBalances([]AccountRow{rows.Account}, rows.ERC20, rows.ERC721)
	if err != nil {
		t.Fatalf("%s - BuildBalances: %v", modelsTestPrefix, err)
	}
	restored, ok := got[testAccount]
	if !ok {
		t.Fatalf("%s - account missing after round trip", modelsTestPrefix)
	}
	if restored.Ether().Cmp(b.Ether()) != 0 {
		t.Errorf("%s - ether = %s, want %s", modelsTestPrefix, restored.Ether(), b.Ether())
	}
	if diff := cmp.Diff(b.ListERC721(), restored.ListERC721()); diff != "" {
		t.Errorf("%s - erc721 mismatch (-want +got):\n%s", modelsTestPrefix, diff)
	}
	if restored.ListERC20()[testToken].Int64() != 77 {
		t.Errorf("%s - erc20 = %v", modelsTestPrefix, restored.ListERC20())
	}
}

func TestBuildBalances_Invalid(t *testing.T) {
	acct := AccountRow{Address: "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", Ether: "1"}
	tests := []struct {
		name     string
		accounts []AccountRow
		erc20    []ERC20Row
		erc721   []ERC721Row
	}{
		{"bad address", []AccountRow{{Address: "nope", Ether: "1"}}, nil, nil},
		{"bad ether", []AccountRow{{Address: acct.Address, Ether: "-1"}}, nil, nil},
		{"orphan erc20", nil, []ERC20Row{{Address: acct.Address, Token: acct.Address, Amount: "1"}}, nil},
		{"bad token id", []AccountRow{acct}, nil, []ERC721Row{{Address: acct.Address, Token: acct.Address, TokenID: "1.5"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildBalances(tt.accounts, tt.erc20, tt.erc721); err == nil {
				t.Errorf("%s - expected error", modelsTestPrefix)
			}
		})
	}
}
