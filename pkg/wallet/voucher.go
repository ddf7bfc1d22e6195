package wallet

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const voucherLogPrefix = "wallet:voucher"

// Calls the DApp asks the base layer to execute on withdrawal.
const voucherABIJSON = `[
  {"type":"function","name":"withdrawEther","stateMutability":"nonpayable","outputs":[],
   "inputs":[{"name":"receiver","type":"address"},{"name":"value","type":"uint256"}]},
  {"type":"function","name":"transfer","stateMutability":"nonpayable","outputs":[{"name":"","type":"bool"}],
   "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}]},
  {"type":"function","name":"safeTransferFrom","stateMutability":"nonpayable","outputs":[],
   "inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}]}
]`

var voucherABI = mustParseABI(voucherABIJSON)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("%s - parse voucher abi: %v", voucherLogPrefix, err))
	}
	return parsed
}

// EncodeWithdrawEther returns calldata for withdrawEther(receiver, value).
func EncodeWithdrawEther(receiver common.Address, value *big.Int) ([]byte, error) {
	return pack("withdrawEther", receiver, value)
}

// EncodeERC20Transfer returns calldata for transfer(to, amount).
func EncodeERC20Transfer(to common.Address, amount *big.Int) ([]byte, error) {
	return pack("transfer", to, amount)
}

// EncodeERC721SafeTransferFrom returns calldata for safeTransferFrom(from, to, tokenId).
func EncodeERC721SafeTransferFrom(from, to common.Address, tokenID uint64) ([]byte, error) {
	return pack("safeTransferFrom", from, to, new(big.Int).SetUint64(tokenID))
}

func pack(method string, args ...any) ([]byte, error) {
	data, err := voucherABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s voucher: %w", method, err)
	}
	return data, nil
}
