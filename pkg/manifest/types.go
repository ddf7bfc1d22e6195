// Package manifest loads the deployment manifest of the wallet DApp: its
// identity, the portal and DApp addresses, and extra operation names.
package manifest

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/morezero/wallet-dapp/pkg/router"
	"github.com/morezero/wallet-dapp/pkg/wallet"
)

// Portals holds the portal contract addresses. Empty entries accept
// deposits from any sender.
type Portals struct {
	Ether  string `json:"ether,omitempty" yaml:"ether,omitempty"`
	ERC20  string `json:"erc20,omitempty" yaml:"erc20,omitempty"`
	ERC721 string `json:"erc721,omitempty" yaml:"erc721,omitempty"`
}

// Manifest is the root manifest document.
type Manifest struct {
	Name          string            `json:"name" yaml:"name"`
	Version       string            `json:"version" yaml:"version"`
	Description   string            `json:"description,omitempty" yaml:"description,omitempty"`
	Envelope      string            `json:"envelope,omitempty" yaml:"envelope,omitempty"`
	RollupAddress string            `json:"rollupAddress,omitempty" yaml:"rollupAddress,omitempty"`
	Portals       Portals           `json:"portals" yaml:"portals"`
	Aliases       map[string]string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Reserved      []string          `json:"reserved,omitempty" yaml:"reserved,omitempty"`
}

// Rollup returns the configured DApp address, if any.
func (m *Manifest) Rollup() (common.Address, bool, error) {
	if m.RollupAddress == "" {
		return common.Address{}, false, nil
	}
	addr, err := router.ParseAddress(m.RollupAddress)
	if err != nil {
		return common.Address{}, false, fmt.Errorf("%s - rollupAddress: %w", logPrefix, err)
	}
	return addr, true, nil
}

// WalletPortals converts the portal entries for wallet.Options.
func (m *Manifest) WalletPortals() (wallet.Portals, error) {
	var p wallet.Portals
	var err error
	if p.Ether, err = optionalAddress("portals.ether", m.Portals.Ether); err != nil {
		return p, err
	}
	if p.ERC20, err = optionalAddress("portals.erc20", m.Portals.ERC20); err != nil {
		return p, err
	}
	if p.ERC721, err = optionalAddress("portals.erc721", m.Portals.ERC721); err != nil {
		return p, err
	}
	return p, nil
}

func optionalAddress(field, s string) (*common.Address, error) {
	if s == "" {
		return nil, nil
	}
	addr, err := router.ParseAddress(s)
	if err != nil {
		return nil, fmt.Errorf("%s - %s: %w", logPrefix, field, err)
	}
	return &addr, nil
}
