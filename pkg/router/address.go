package router

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInvalidAddress is returned for strings that are not 0x-prefixed 20-byte hex.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrInvalidChecksum is returned for mixed-case addresses failing EIP-55.
	ErrInvalidChecksum = errors.New("invalid address checksum")
)

// ParseAddress validates s as an EVM address. All-lowercase and all-uppercase
// forms are accepted as is; mixed-case input must carry a valid EIP-55 checksum.
func ParseAddress(s string) (common.Address, error) {
	if !strings.HasPrefix(s, "0x") || !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	body := s[2:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) {
		mixed, err := common.NewMixedcaseAddressFromString(s)
		if err != nil {
			return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		if !mixed.ValidChecksum() {
			return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidChecksum, s)
		}
	}
	return common.HexToAddress(s), nil
}
