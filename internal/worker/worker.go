// Package worker provides a NATS worker that aggregates syllable-duration
// statistics for batches of segmented files.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/syllable-stats-service/internal/aggregator"
	"github.com/book-expert/syllable-stats-service/internal/core"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const handleMessageTimeout = 120 * time.Second

// Dataset object keys carry a fresh UUID, so re-running a batch never
// clobbers an earlier dataset.
const datasetKeyFormat = "dataset-%s.json"

// ErrBoundariesKeyEmpty indicates the incoming event names no boundaries
// payload to aggregate.
var ErrBoundariesKeyEmpty = errors.New("boundaries key cannot be empty")

// NatsWorker listens for batch-boundaries events on a NATS subject, runs the
// aggregation pipeline, and persists the resulting dataset.
type NatsWorker struct {
	natsConnection   *nats.Conn
	jetstreamContext nats.JetStreamContext
	subject          string
	store            core.DatasetStore
	aggregator       *aggregator.Aggregator
	log              *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	jetstreamContext nats.JetStreamContext,
	subject string,
	store core.DatasetStore,
	agg *aggregator.Aggregator,
	log *logger.Logger,
) (*NatsWorker, error) {
	return &NatsWorker{
		natsConnection:   natsConnection,
		jetstreamContext: jetstreamContext,
		subject:          subject,
		store:            store,
		aggregator:       agg,
		log:              log,
	}, nil
}

// Run starts the worker and begins listening for messages.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	event, err := w.parseAndValidateEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse and validate event: %v", err)

		return
	}

	datasetKey, fileCount, processErr := w.processBatch(ctx, event)
	if processErr != nil {
		w.log.Error("Failed to process batch for event %s: %v", event.Header.WorkflowID, processErr)

		return
	}

	replyEvent := &core.DatasetCreatedEvent{
		Header:     event.Header,
		DatasetKey: datasetKey,
		FileCount:  fileCount,
	}

	err = w.publishReplyEvent(msg, replyEvent)
	if err != nil {
		w.log.Error("Failed to publish reply event for workflow %s: %v", event.Header.WorkflowID, err)
	}
}

// processBatch downloads the boundaries payload, aggregates it into a
// dataset, and persists the dataset as a single keyed aggregate.
func (w *NatsWorker) processBatch(ctx context.Context, event *core.BatchBoundariesEvent) (string, int, error) {
	payloadData, err := w.store.Download(ctx, event.BoundariesKey)
	if err != nil {
		return "", 0, fmt.Errorf(
			"failed to download boundaries payload for key '%s': %w",
			event.BoundariesKey, err,
		)
	}

	var payload core.BoundariesPayload

	err = json.Unmarshal(payloadData, &payload)
	if err != nil {
		return "", 0, fmt.Errorf("failed to unmarshal boundaries payload: %w", err)
	}

	dataset, err := w.aggregator.RunBatch(ctx, payload.Identifiers, payload.Boundaries)
	if err != nil {
		return "", 0, fmt.Errorf("failed to aggregate batch: %w", err)
	}

	datasetKey := fmt.Sprintf(datasetKeyFormat, uuid.NewString())

	err = w.store.SaveDataset(ctx, datasetKey, dataset)
	if err != nil {
		return "", 0, fmt.Errorf("failed to persist dataset for key '%s': %w", datasetKey, err)
	}

	return datasetKey, len(dataset), nil
}

// publishReplyEvent marshals and responds with the DatasetCreatedEvent.
func (w *NatsWorker) publishReplyEvent(msg *nats.Msg, replyEvent *core.DatasetCreatedEvent) error {
	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply event: %w", err)
	}

	return nil
}

func (w *NatsWorker) parseAndValidateEvent(msg *nats.Msg) (*core.BatchBoundariesEvent, error) {
	var event core.BatchBoundariesEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.BoundariesKey == "" {
		return nil, ErrBoundariesKeyEmpty
	}

	return &event, nil
}
