package manifest

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/morezero/wallet-dapp/pkg/router"
)

const applyLogPrefix = "manifest:apply"

// Registrar is the part of router.Router a manifest configures.
type Registrar interface {
	Register(name string, h router.Handler) error
	Lookup(name string) (router.Handler, bool)
	ConfigureRollupAddressAll(addr common.Address) []router.Operation
}

// Apply registers aliases and reserved operations and relays the DApp
// address. Neither an alias nor a reserved name may shadow an existing
// operation.
func (m *Manifest) Apply(r Registrar) error {
	aliases := make([]string, 0, len(m.Aliases))
	for alias := range m.Aliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		target := m.Aliases[alias]
		if _, exists := r.Lookup(alias); exists {
			return fmt.Errorf("%s - alias %s is already registered", applyLogPrefix, alias)
		}
		h, ok := r.Lookup(target)
		if !ok {
			return fmt.Errorf("%s - alias %s: unknown operation %s", applyLogPrefix, alias, target)
		}
		if err := r.Register(alias, h); err != nil {
			return fmt.Errorf("%s - alias %s: %w", applyLogPrefix, alias, err)
		}
		slog.Debug(fmt.Sprintf("%s - alias %s -> %s", applyLogPrefix, alias, target))
	}

	for _, name := range m.Reserved {
		if _, ok := r.Lookup(name); ok {
			return fmt.Errorf("%s - reserved operation %s is already registered", applyLogPrefix, name)
		}
		if err := r.Register(name, router.Unimplemented{}); err != nil {
			return fmt.Errorf("%s - reserved %s: %w", applyLogPrefix, name, err)
		}
	}

	addr, ok, err := m.Rollup()
	if err != nil {
		return err
	}
	if ok {
		r.ConfigureRollupAddressAll(addr)
	}

	slog.Info(fmt.Sprintf("%s - applied %s@%s: %d aliases, %d reserved", applyLogPrefix, m.Name, m.Version, len(m.Aliases), len(m.Reserved)))
	return nil
}
