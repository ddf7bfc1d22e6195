package events

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/wallet-dapp/pkg/commsutil"
)

const commsPublisherLogPrefix = "events:comms_publisher"

// CommsPublisherOpts configures CommsPublisher. Nil or zero values use defaults.
type CommsPublisherOpts struct {
	// OutputsSubject overrides the batch subject (e.g. from OUTPUTS_SUBJECT).
	OutputsSubject string
	// Namespace prefixes every subject, see commsutil.BuildServiceSubject.
	Namespace string
}

// CommsPublisher publishes processed outputs to COMMS subjects.
type CommsPublisher struct {
	nc             *comms.Conn
	outputsSubject string
	namespace      string
}

// NewCommsPublisher creates a new CommsPublisher. Pass nil for opts to use defaults.
func NewCommsPublisher(nc *comms.Conn, opts *CommsPublisherOpts) *CommsPublisher {
	outputsSubject := commsutil.SubjectOutputs
	namespace := ""
	if opts != nil {
		if opts.OutputsSubject != "" {
			outputsSubject = opts.OutputsSubject
		}
		namespace = opts.Namespace
	}
	return &CommsPublisher{
		nc:             nc,
		outputsSubject: commsutil.BuildServiceSubject(namespace, outputsSubject),
		namespace:      namespace,
	}
}

// PublishOutputs publishes each output to its per-kind subject, then the
// whole batch to the outputs subject.
func (p *CommsPublisher) PublishOutputs(_ context.Context, event *OutputsEvent) error {
	for _, single := range event.Split() {
		data, err := commsutil.EncodePayload(single)
		if err != nil {
			return fmt.Errorf("%s - failed to encode output: %w", commsPublisherLogPrefix, err)
		}
		subject := commsutil.BuildServiceSubject(p.namespace, commsutil.BuildOutputSubject(string(single.Output.Kind)))
		if err := p.nc.Publish(subject, data); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, subject, err))
			return err
		}
	}

	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", commsPublisherLogPrefix, err)
	}
	if err := p.nc.Publish(p.outputsSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, p.outputsSubject, err))
		return err
	}

	slog.Debug(fmt.Sprintf("%s - Published %d outputs for input %s", commsPublisherLogPrefix, len(event.Outputs), event.InputID))
	return nil
}
