package router

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"

	"github.com/morezero/wallet-dapp/pkg/output"
)

// Handler executes one operation. A returned error is a decode or validation
// fault the caller should reject the input for; expected failures are
// reported as output.Error with a nil error.
type Handler interface {
	Execute(ctx context.Context, req json.RawMessage) (output.Output, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req json.RawMessage) (output.Output, error)

// Execute calls f.
func (f HandlerFunc) Execute(ctx context.Context, req json.RawMessage) (output.Output, error) {
	return f(ctx, req)
}

// RollupAddressSetter is implemented by handlers that need the DApp's own
// address on the base layer to build their vouchers.
type RollupAddressSetter interface {
	SetRollupAddress(addr common.Address)
	RollupAddress() (common.Address, bool)
}

type rollupAddress struct {
	addr common.Address
	set  bool
}

func (r *rollupAddress) SetRollupAddress(addr common.Address) {
	r.addr = addr
	r.set = true
}

func (r *rollupAddress) RollupAddress() (common.Address, bool) {
	return r.addr, r.set
}

// MsgNotImplemented is the Error message of Unimplemented.
const MsgNotImplemented = "Operation not implemented"

// Unimplemented is the fallback handler for operations that are reserved
// but not yet specialized.
type Unimplemented struct{}

// Execute always reports the operation as not implemented.
func (Unimplemented) Execute(context.Context, json.RawMessage) (output.Output, error) {
	return output.Error{Message: MsgNotImplemented}, nil
}
