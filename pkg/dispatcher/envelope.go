// Package dispatcher turns transport envelopes into router calls and
// router results into transport responses.
package dispatcher

import (
	"encoding/json"

	"github.com/morezero/wallet-dapp/pkg/output"
)

// EnvelopeVersion is the version of the InputRequest/InputResponse format.
// Manifests declare the range they were written against.
const EnvelopeVersion = "1.2.0"

// InputType selects how an input is processed.
type InputType string

const (
	// InputAdvance mutates the ledger; its outputs are published.
	InputAdvance InputType = "advance"
	// InputInspect queries the ledger; its outputs are only returned.
	InputInspect InputType = "inspect"
	// InputDAppAddress relays the DApp's own address to the router.
	InputDAppAddress InputType = "dapp_address"
)

// Response statuses.
const (
	StatusAccept = "accept"
	StatusReject = "reject"
)

// Error codes carried in ErrorDetail.
const (
	CodeInvalidInput      = "INVALID_INPUT"
	CodeOperationRejected = "OPERATION_REJECTED"
	CodeInvalidType       = "INVALID_TYPE"
	CodeInvalidAddress    = "INVALID_ADDRESS"
	CodeInternal          = "INTERNAL_ERROR"
)

// InputRequest is the JSON envelope for one rollup input.
type InputRequest struct {
	ID        string          `json:"id"`
	Type      InputType       `json:"type"`
	Operation string          `json:"operation,omitempty"`
	Request   json.RawMessage `json:"request"`
}

// InputResponse is the JSON envelope answering an InputRequest.
type InputResponse struct {
	ID      string        `json:"id"`
	Status  string        `json:"status"`
	Outputs []output.Wire `json:"outputs"`
	Error   *ErrorDetail  `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable"`
}
