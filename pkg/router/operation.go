package router

import "strings"

// Operation is a canonical (lowercase) operation name.
type Operation string

// Built-in operations.
const (
	OpEtherDeposit   Operation = "ether_deposit"
	OpERC20Deposit   Operation = "erc20_deposit"
	OpERC721Deposit  Operation = "erc721_deposit"
	OpBalance        Operation = "balance"
	OpEtherWithdraw  Operation = "ether_withdraw"
	OpEtherTransfer  Operation = "ether_transfer"
	OpERC20Withdraw  Operation = "erc20_withdraw"
	OpERC20Transfer  Operation = "erc20_transfer"
	OpERC721Withdraw Operation = "erc721_withdraw"
	OpERC721Transfer Operation = "erc721_transfer"
	OpCreateNFT      Operation = "create_nft"
)

// NormalizeOperation lowercases name into its canonical registry key.
func NormalizeOperation(name string) Operation {
	return Operation(strings.ToLower(name))
}

func (o Operation) String() string {
	return string(o)
}
