package events

import (
	"context"
	"fmt"

	"github.com/smukkama/riskwatch/internal/protocol"
	"github.com/smukkama/riskwatch/internal/queue"
)

// Broadcaster publishes run status and supplier snapshot events.
// Emission is fire-and-forget from the orchestrator's point of view:
// failures are logged by the caller and never fail a run.
type Broadcaster interface {
	BroadcastRunStatus(ctx context.Context, msg *protocol.RunStatusMessage) error
	BroadcastSupplierSnapshot(ctx context.Context, msg *protocol.SupplierSnapshotMessage) error
}

// KafkaBroadcaster publishes events to two Kafka topics
type KafkaBroadcaster struct {
	statusProducer   *queue.Producer
	snapshotProducer *queue.Producer
}

// NewKafkaBroadcaster creates a broadcaster over the given producers
func NewKafkaBroadcaster(statusProducer, snapshotProducer *queue.Producer) *KafkaBroadcaster {
	return &KafkaBroadcaster{
		statusProducer:   statusProducer,
		snapshotProducer: snapshotProducer,
	}
}

// BroadcastRunStatus publishes a run status change, keyed by run id
func (b *KafkaBroadcaster) BroadcastRunStatus(ctx context.Context, msg *protocol.RunStatusMessage) error {
	data, err := protocol.EncodeRunStatus(msg)
	if err != nil {
		return fmt.Errorf("failed to encode run status: %w", err)
	}

	return b.statusProducer.Publish(ctx, msg.RunID, data)
}

// BroadcastSupplierSnapshot publishes a supplier snapshot, keyed by manufacturer id
func (b *KafkaBroadcaster) BroadcastSupplierSnapshot(ctx context.Context, msg *protocol.SupplierSnapshotMessage) error {
	data, err := protocol.EncodeSupplierSnapshot(msg)
	if err != nil {
		return fmt.Errorf("failed to encode supplier snapshot: %w", err)
	}

	return b.snapshotProducer.Publish(ctx, msg.ManufacturerID, data)
}
