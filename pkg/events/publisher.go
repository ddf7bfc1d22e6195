package events

import "context"

// OutputPublisher delivers the outputs of processed inputs.
type OutputPublisher interface {
	PublishOutputs(ctx context.Context, event *OutputsEvent) error
}

// NoOpPublisher is an OutputPublisher that does nothing (for in-process usage without events).
type NoOpPublisher struct{}

// PublishOutputs is a no-op.
func (p *NoOpPublisher) PublishOutputs(_ context.Context, _ *OutputsEvent) error {
	return nil
}

// CallbackPublisher is an OutputPublisher that calls a callback function (for testing).
type CallbackPublisher struct {
	callback func(ctx context.Context, event *OutputsEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, event *OutputsEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// PublishOutputs calls the callback.
func (p *CallbackPublisher) PublishOutputs(ctx context.Context, event *OutputsEvent) error {
	return p.callback(ctx, event)
}
