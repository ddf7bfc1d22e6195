package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/morezero/wallet-dapp/pkg/commsutil"
	"github.com/morezero/wallet-dapp/pkg/events"
	"github.com/morezero/wallet-dapp/pkg/output"
	"github.com/morezero/wallet-dapp/pkg/router"
)

const logPrefix = "dispatcher:dispatch"

// Router is the part of router.Router the dispatcher drives.
type Router interface {
	Process(ctx context.Context, name string, req json.RawMessage) (output.Output, error)
	Lookup(name string) (router.Handler, bool)
	ConfigureRollupAddressAll(addr common.Address) []router.Operation
}

// Dispatcher routes input envelopes to the router.
type Dispatcher struct {
	router    Router
	publisher events.OutputPublisher
	metrics   *Metrics
	now       func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPublisher sets where accepted advance outputs are published.
func WithPublisher(p events.OutputPublisher) Option {
	return func(d *Dispatcher) { d.publisher = p }
}

// WithMetrics enables prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(r Router, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		router:    r,
		publisher: &events.NoOpPublisher{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch processes one input and returns its response. Inputs without an
// id are given one.
func (d *Dispatcher) Dispatch(ctx context.Context, req *InputRequest) *InputResponse {
	start := d.now()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	slog.Debug(fmt.Sprintf("%s - type=%s operation=%s id=%s", logPrefix, req.Type, req.Operation, req.ID))

	var resp *InputResponse
	switch req.Type {
	case InputAdvance:
		resp = d.handleAdvance(ctx, req)
	case InputInspect:
		resp = d.process(ctx, req)
	case InputDAppAddress:
		resp = d.handleDAppAddress(req)
	default:
		resp = errorResponse(req.ID, CodeInvalidType, fmt.Sprintf("Unknown input type: %q", req.Type), false)
	}

	d.metrics.observe(resp, req.Type, d.operationLabel(req), d.now().Sub(start).Seconds())
	return resp
}

// HandleMessage decodes a raw envelope, dispatches it and encodes the response.
// When allowed is non-empty, other input types are rejected with INVALID_TYPE.
func (d *Dispatcher) HandleMessage(ctx context.Context, data []byte, allowed ...InputType) []byte {
	var req InputRequest
	var resp *InputResponse
	if err := commsutil.DecodePayload(data, &req); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to decode request: %v", logPrefix, err))
		resp = errorResponse("", CodeInvalidInput, "Failed to decode request", false)
	} else if len(allowed) > 0 && !slices.Contains(allowed, req.Type) {
		resp = errorResponse(req.ID, CodeInvalidType, fmt.Sprintf("Input type %q not accepted here", req.Type), false)
	} else {
		resp = d.Dispatch(ctx, &req)
	}

	out, err := commsutil.EncodePayload(resp)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
		out, _ = commsutil.EncodePayload(errorResponse(resp.ID, CodeInternal, "Failed to encode response", true))
	}
	return out
}

func (d *Dispatcher) handleAdvance(ctx context.Context, req *InputRequest) *InputResponse {
	resp := d.process(ctx, req)
	if resp.Status != StatusAccept {
		return resp
	}
	event := &events.OutputsEvent{
		InputID:   resp.ID,
		Operation: string(router.NormalizeOperation(req.Operation)),
		Status:    resp.Status,
		Outputs:   resp.Outputs,
		Timestamp: d.now().UTC().Format(time.RFC3339),
	}
	if err := d.publisher.PublishOutputs(ctx, event); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish outputs of %s: %v", logPrefix, resp.ID, err))
		d.metrics.publishFailed(event.Operation)
	}
	return resp
}

func (d *Dispatcher) process(ctx context.Context, req *InputRequest) *InputResponse {
	out, err := d.router.Process(ctx, req.Operation, req.Request)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - input %s rejected: %v", logPrefix, req.ID, err))
		return errorResponse(req.ID, CodeInvalidInput, err.Error(), false)
	}

	resp := &InputResponse{ID: req.ID, Status: StatusAccept, Outputs: output.Encode(out)}
	if output.IsError(out) {
		resp.Status = StatusReject
		resp.Error = &ErrorDetail{Code: CodeOperationRejected, Message: firstErrorMessage(out)}
	}
	return resp
}

func (d *Dispatcher) handleDAppAddress(req *InputRequest) *InputResponse {
	var raw string
	if err := json.Unmarshal(req.Request, &raw); err != nil {
		return errorResponse(req.ID, CodeInvalidInput, "DApp address request must be a JSON string", false)
	}
	addr, err := router.ParseAddress(raw)
	if err != nil {
		return errorResponse(req.ID, CodeInvalidAddress, err.Error(), false)
	}

	applied := d.router.ConfigureRollupAddressAll(addr)
	msg := fmt.Sprintf("DApp address %s set for %d operations", addr.Hex(), len(applied))
	slog.Info(fmt.Sprintf("%s - %s", logPrefix, msg))
	return &InputResponse{
		ID:      req.ID,
		Status:  StatusAccept,
		Outputs: output.Encode(output.Log{Message: msg}),
	}
}

// operationLabel bounds metric cardinality to registered operations.
func (d *Dispatcher) operationLabel(req *InputRequest) string {
	if req.Type == InputDAppAddress {
		return string(InputDAppAddress)
	}
	if _, ok := d.router.Lookup(req.Operation); !ok {
		return "unknown"
	}
	return string(router.NormalizeOperation(req.Operation))
}

// --- helpers ---

func errorResponse(id, code, message string, retryable bool) *InputResponse {
	return &InputResponse{
		ID:      id,
		Status:  StatusReject,
		Outputs: []output.Wire{},
		Error: &ErrorDetail{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	}
}

func firstErrorMessage(o output.Output) string {
	for _, member := range output.Flatten(o) {
		if e, ok := member.(output.Error); ok {
			return e.Message
		}
	}
	return ""
}
