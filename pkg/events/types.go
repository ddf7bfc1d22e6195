// Package events defines the events emitted for processed inputs and the
// publishers that deliver them.
package events

import "github.com/morezero/wallet-dapp/pkg/output"

// OutputsEvent is emitted once per processed advance input and carries every
// output it produced, flattened and in order.
type OutputsEvent struct {
	InputID   string        `json:"inputId"`
	Operation string        `json:"operation"`
	Status    string        `json:"status"`
	Outputs   []output.Wire `json:"outputs"`
	Timestamp string        `json:"timestamp"`
}

// OutputEvent is one output of an OutputsEvent, published on its per-kind subject.
type OutputEvent struct {
	InputID   string      `json:"inputId"`
	Operation string      `json:"operation"`
	Index     int         `json:"index"`
	Output    output.Wire `json:"output"`
}

// Split returns the per-output events of e.
func (e *OutputsEvent) Split() []OutputEvent {
	out := make([]OutputEvent, 0, len(e.Outputs))
	for i, w := range e.Outputs {
		out = append(out, OutputEvent{InputID: e.InputID, Operation: e.Operation, Index: i, Output: w})
	}
	return out
}
