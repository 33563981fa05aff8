// Package worker_test tests the NATS batch-aggregation worker.
package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/syllable-stats-service/internal/aggregator"
	"github.com/book-expert/syllable-stats-service/internal/core"
	"github.com/book-expert/syllable-stats-service/internal/worker"
	"github.com/google/uuid"

	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errMockDownload = errors.New("mock download error")
	errMockSave     = errors.New("mock save error")
)

// mockDatasetStore is an in-memory implementation of the DatasetStore
// interface.
type mockDatasetStore struct {
	mu                 sync.Mutex
	blobs              map[string][]byte
	datasets           map[string]core.Dataset
	downloadShouldFail bool
	saveShouldFail     bool
	savedKey           string
}

func newMockDatasetStore() *mockDatasetStore {
	return &mockDatasetStore{
		mu:                 sync.Mutex{},
		blobs:              map[string][]byte{},
		datasets:           map[string]core.Dataset{},
		downloadShouldFail: false,
		saveShouldFail:     false,
		savedKey:           "",
	}
}

func (m *mockDatasetStore) Download(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.downloadShouldFail {
		return nil, errMockDownload
	}

	data, ok := m.blobs[key]
	if !ok {
		return nil, errMockDownload
	}

	return data, nil
}

func (m *mockDatasetStore) Upload(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[key] = data

	return nil
}

func (m *mockDatasetStore) SaveDataset(_ context.Context, key string, dataset core.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveShouldFail {
		return errMockSave
	}

	m.datasets[key] = dataset
	m.savedKey = key

	return nil
}

func (m *mockDatasetStore) LoadDataset(_ context.Context, key string) (core.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dataset, ok := m.datasets[key]
	if !ok {
		return nil, errMockDownload
	}

	return dataset, nil
}

func (m *mockDatasetStore) saved() (string, core.Dataset) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.savedKey, m.datasets[m.savedKey]
}

func createTestNatsClient(t *testing.T) *nats.Conn {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1 // Use a random port
	opts.JetStream = true
	server := test.RunServer(&opts)

	natsConnection, err := nats.Connect(server.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	t.Cleanup(func() {
		natsConnection.Close()
		server.Shutdown()
	})

	return natsConnection
}

func setupTest(t *testing.T) (
	*worker.NatsWorker,
	*mockDatasetStore,
	context.Context,
	context.CancelFunc,
	*nats.Conn,
) {
	t.Helper()

	mockStore := newMockDatasetStore()

	natsConnection := createTestNatsClient(t)

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	testLogger, err := logger.New(t.TempDir(), "worker-test.log")
	require.NoError(t, err)

	agg, err := aggregator.New(testLogger, nil, aggregator.CollisionOverwrite)
	require.NoError(t, err)

	workerInstance, err := worker.NewNatsWorker(
		natsConnection, jetstreamContext, "test_subject", mockStore, agg, testLogger,
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	return workerInstance, mockStore, ctx, cancel, natsConnection
}

func newTestHeader() events.EventHeader {
	return events.EventHeader{
		Timestamp:  time.Now(),
		WorkflowID: uuid.NewString(),
		EventID:    uuid.NewString(),
		UserID:     "",
		TenantID:   "",
	}
}

func TestMessageHandler_Success(t *testing.T) {
	t.Parallel()

	workerInstance, mockStore, ctx, cancel, natsConnection := setupTest(t)
	defer cancel()

	errChan := make(chan error, 1)

	go func() {
		errChan <- workerInstance.Run(ctx)
	}()

	payload := core.BoundariesPayload{
		Identifiers: []string{"speaker one", "speaker two", "speaker three"},
		Boundaries: []core.BoundarySequence{
			{0.5, 1.5, 2.5},
			{},
			{2.0, 0.3, 1.2},
		},
	}
	payloadData, err := json.Marshal(payload)
	require.NoError(t, err)

	uploadErr := mockStore.Upload(context.Background(), "test-boundaries-key", payloadData)
	require.NoError(t, uploadErr)

	testEvent := &core.BatchBoundariesEvent{
		Header:        newTestHeader(),
		BoundariesKey: "test-boundaries-key",
	}
	eventData, err := json.Marshal(testEvent)
	require.NoError(t, err)

	replyMsg, err := natsConnection.Request("test_subject", eventData, 5*time.Second)
	require.NoError(t, err, "Request should succeed and receive a reply")

	var replyEvent core.DatasetCreatedEvent

	err = json.Unmarshal(replyMsg.Data, &replyEvent)
	require.NoError(t, err)

	assert.Equal(t, 3, replyEvent.FileCount)
	assert.Equal(t, testEvent.Header.WorkflowID, replyEvent.Header.WorkflowID)

	savedKey, savedDataset := mockStore.saved()
	assert.Equal(t, savedKey, replyEvent.DatasetKey)
	require.Len(t, savedDataset, 3)

	emptyRecord, ok := savedDataset["speaker_two"]
	require.True(t, ok)
	assert.Empty(t, emptyRecord.Durations)
	assert.False(t, emptyRecord.Stats.Defined)

	unsortedRecord, ok := savedDataset["speaker_three"]
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{0.9, 0.8}, unsortedRecord.Durations, 1e-12)

	cancel()

	shutdownErr := <-errChan
	assert.NoError(t, shutdownErr, "worker.Run should not error on graceful shutdown")
}

func TestMessageHandler_DownloadFailureProducesNoReply(t *testing.T) {
	t.Parallel()

	workerInstance, mockStore, ctx, cancel, natsConnection := setupTest(t)
	defer cancel()

	mockStore.downloadShouldFail = true

	errChan := make(chan error, 1)

	go func() {
		errChan <- workerInstance.Run(ctx)
	}()

	testEvent := &core.BatchBoundariesEvent{
		Header:        newTestHeader(),
		BoundariesKey: "missing-key",
	}
	eventData, err := json.Marshal(testEvent)
	require.NoError(t, err)

	_, err = natsConnection.Request("test_subject", eventData, 500*time.Millisecond)
	require.Error(t, err, "A failed batch must not publish a reply")

	savedKey, _ := mockStore.saved()
	assert.Empty(t, savedKey, "No dataset may be persisted for a failed batch")

	cancel()
	<-errChan
}

func TestMessageHandler_MissingBoundariesKeyIsRejected(t *testing.T) {
	t.Parallel()

	workerInstance, mockStore, ctx, cancel, natsConnection := setupTest(t)
	defer cancel()

	errChan := make(chan error, 1)

	go func() {
		errChan <- workerInstance.Run(ctx)
	}()

	testEvent := &core.BatchBoundariesEvent{
		Header:        newTestHeader(),
		BoundariesKey: "",
	}
	eventData, err := json.Marshal(testEvent)
	require.NoError(t, err)

	_, err = natsConnection.Request("test_subject", eventData, 500*time.Millisecond)
	require.Error(t, err)

	savedKey, _ := mockStore.saved()
	assert.Empty(t, savedKey)

	cancel()
	<-errChan
}
