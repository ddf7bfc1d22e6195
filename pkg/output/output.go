// Package output defines the closed set of results a handler can hand back
// to the rollup runtime.
package output

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Kind identifies an output variant.
type Kind string

const (
	KindLog     Kind = "log"
	KindNotice  Kind = "notice"
	KindReport  Kind = "report"
	KindVoucher Kind = "voucher"
	KindError   Kind = "error"
	KindSet     Kind = "set"
)

// Output is implemented by every output variant.
type Output interface {
	Kind() Kind
}

// Log is an informational message that is not emitted on-chain.
type Log struct {
	Message string
}

// Notice is a user-visible, provable statement about the DApp state.
type Notice struct {
	Payload string
}

// Report is a queryable result, typically JSON, produced by inspect calls.
type Report struct {
	Payload string
}

// Voucher instructs the rollup to call Destination with Payload as calldata.
type Voucher struct {
	Destination common.Address
	Payload     []byte
}

// Error is an expected, user-facing failure.
type Error struct {
	Message string
}

// Set groups several outputs produced by a single input.
type Set []Output

func (Log) Kind() Kind     { return KindLog }
func (Notice) Kind() Kind  { return KindNotice }
func (Report) Kind() Kind  { return KindReport }
func (Voucher) Kind() Kind { return KindVoucher }
func (Error) Kind() Kind   { return KindError }
func (Set) Kind() Kind     { return KindSet }

// Error lets an Error output be used where an error value is expected.
func (e Error) Error() string { return e.Message }

// Flatten expands sets (recursively) into a flat list. A nil output yields an empty list.
func Flatten(o Output) []Output {
	if o == nil {
		return nil
	}
	set, ok := o.(Set)
	if !ok {
		return []Output{o}
	}
	var out []Output
	for _, member := range set {
		out = append(out, Flatten(member)...)
	}
	return out
}

// IsError reports whether o is, or contains, an Error output.
func IsError(o Output) bool {
	for _, member := range Flatten(o) {
		if member.Kind() == KindError {
			return true
		}
	}
	return false
}

// Wire is the transport representation of a single output.
type Wire struct {
	Kind        Kind   `json:"kind"`
	Destination string `json:"destination,omitempty"`
	Payload     string `json:"payload,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Encode renders o for transport. Notice, report and voucher payloads are
// 0x-prefixed hex; log and error outputs carry a plain message.
func Encode(o Output) []Wire {
	members := Flatten(o)
	wires := make([]Wire, 0, len(members))
	for _, member := range members {
		switch v := member.(type) {
		case Log:
			wires = append(wires, Wire{Kind: KindLog, Message: v.Message})
		case Notice:
			wires = append(wires, Wire{Kind: KindNotice, Payload: hexutil.Encode([]byte(v.Payload))})
		case Report:
			wires = append(wires, Wire{Kind: KindReport, Payload: hexutil.Encode([]byte(v.Payload))})
		case Voucher:
			wires = append(wires, Wire{
				Kind:        KindVoucher,
				Destination: v.Destination.Hex(),
				Payload:     hexutil.Encode(v.Payload),
			})
		case Error:
			wires = append(wires, Wire{Kind: KindError, Message: v.Message})
		}
	}
	return wires
}
