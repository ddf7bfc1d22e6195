// Package router maps operation names to the handlers that execute them and
// defines the request-parsing contract those handlers share.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/morezero/wallet-dapp/pkg/output"
)

const logPrefix = "router:router"

var (
	// ErrOperationNotFound is returned when configuring an unregistered operation.
	ErrOperationNotFound = errors.New("operation not registered")
	// ErrRollupAddressUnsupported is returned when the target handler does not
	// implement RollupAddressSetter.
	ErrRollupAddressUnsupported = errors.New("operation does not accept a rollup address")
	// ErrEmptyOperation is returned when registering a handler without a name.
	ErrEmptyOperation = errors.New("operation name is empty")
)

// Router is the operation registry. It is not safe for concurrent use; the
// rollup processes one input at a time.
type Router struct {
	handlers map[Operation]Handler
}

// NewEmpty returns a router with no registered operations.
func NewEmpty() *Router {
	return &Router{handlers: make(map[Operation]Handler)}
}

// New returns a router with every built-in operation bound to ledger.
func New(ledger Ledger) *Router {
	r := NewEmpty()
	r.handlers[OpEtherDeposit] = &DepositEther{ledger: ledger}
	r.handlers[OpERC20Deposit] = &DepositERC20{ledger: ledger}
	r.handlers[OpERC721Deposit] = &DepositERC721{ledger: ledger}
	r.handlers[OpBalance] = &BalanceQuery{ledger: ledger}
	r.handlers[OpEtherWithdraw] = &WithdrawEther{ledger: ledger}
	r.handlers[OpEtherTransfer] = &TransferEther{ledger: ledger}
	r.handlers[OpERC20Withdraw] = &WithdrawERC20{ledger: ledger}
	r.handlers[OpERC20Transfer] = &TransferERC20{ledger: ledger}
	r.handlers[OpERC721Withdraw] = &WithdrawERC721{ledger: ledger}
	r.handlers[OpERC721Transfer] = &TransferERC721{ledger: ledger}
	r.handlers[OpCreateNFT] = MintNFT{}
	return r
}

// Register binds name (lowercased) to h, replacing any previous binding.
func (r *Router) Register(name string, h Handler) error {
	op := NormalizeOperation(name)
	if op == "" {
		return fmt.Errorf("%s - %w", logPrefix, ErrEmptyOperation)
	}
	r.handlers[op] = h
	return nil
}

// Lookup returns the handler bound to name.
func (r *Router) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[NormalizeOperation(name)]
	return h, ok
}

// ConfigureRollupAddress stores addr on the handler bound to name.
func (r *Router) ConfigureRollupAddress(name string, addr common.Address) error {
	op := NormalizeOperation(name)
	h, ok := r.handlers[op]
	if !ok {
		return fmt.Errorf("%s - %w: %s", logPrefix, ErrOperationNotFound, op)
	}
	setter, ok := h.(RollupAddressSetter)
	if !ok {
		return fmt.Errorf("%s - %w: %s", logPrefix, ErrRollupAddressUnsupported, op)
	}
	setter.SetRollupAddress(addr)
	slog.Info(fmt.Sprintf("%s - rollup address %s set for %s", logPrefix, addr.Hex(), op))
	return nil
}

// ConfigureRollupAddressAll stores addr on every handler that accepts it and
// returns the operations it was applied to.
func (r *Router) ConfigureRollupAddressAll(addr common.Address) []Operation {
	var applied []Operation
	for _, op := range r.Operations() {
		if setter, ok := r.handlers[op].(RollupAddressSetter); ok {
			setter.SetRollupAddress(addr)
			applied = append(applied, op)
		}
	}
	slog.Info(fmt.Sprintf("%s - rollup address %s set for %v", logPrefix, addr.Hex(), applied))
	return applied
}

// Process routes req to the handler registered for name. Unknown operations
// yield an Error output; the handler's own result, error included, is
// returned unchanged.
func (r *Router) Process(ctx context.Context, name string, req json.RawMessage) (output.Output, error) {
	op := NormalizeOperation(name)
	h, ok := r.handlers[op]
	if !ok {
		return output.Error{Message: fmt.Sprintf("operation %s is not supported", op)}, nil
	}
	slog.Info(fmt.Sprintf("%s - executing operation %s", logPrefix, op))
	return h.Execute(ctx, req)
}

// Operations returns the registered operation names in lexical order.
func (r *Router) Operations() []Operation {
	ops := make([]Operation, 0, len(r.handlers))
	for op := range r.handlers {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}
