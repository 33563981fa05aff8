// Package datastore provides a NATS JetStream implementation of the
// DatasetStore interface. A batch's dataset is persisted as one JSON
// aggregate under a single key.
package datastore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/book-expert/syllable-stats-service/internal/core"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsDatasetStore implements core.DatasetStore using a NATS JetStream object
// store bucket.
type NatsDatasetStore struct {
	jetstreamContext nats.JetStreamContext
	bucket           string
	store            nats.ObjectStore
}

// New creates and initializes a new NatsDatasetStore.
func New(jetstreamContext nats.JetStreamContext, bucketName string) (*NatsDatasetStore, error) {
	// Use a "create-first" approach.
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Storage for the %s bucket.", bucketName),
		TTL:         0,
		MaxBytes:    0,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Placement:   nil,
		Metadata:    nil,
		Compression: false,
	})

	// If the bucket already exists, bind to it.
	if err != nil {
		if errors.Is(err, jetstream.ErrBucketExists) {
			store, err = jetstreamContext.ObjectStore(bucketName)
			if err != nil {
				return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucketName, err)
			}
		} else {
			// For any other error, fail.
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucketName, err)
		}
	}

	return &NatsDatasetStore{
		jetstreamContext: jetstreamContext,
		bucket:           bucketName,
		store:            store,
	}, nil
}

// SaveDataset serializes a dataset as a single JSON aggregate and uploads it
// under the given key. The upload happens once, after the batch completes; no
// partial datasets are ever written here.
func (n *NatsDatasetStore) SaveDataset(ctx context.Context, key string, dataset core.Dataset) error {
	data, err := json.Marshal(dataset)
	if err != nil {
		return fmt.Errorf("failed to marshal dataset for key '%s': %w", key, err)
	}

	return n.Upload(ctx, key, data)
}

// LoadDataset downloads and decodes a previously saved dataset.
func (n *NatsDatasetStore) LoadDataset(ctx context.Context, key string) (core.Dataset, error) {
	data, err := n.Download(ctx, key)
	if err != nil {
		return nil, err
	}

	var dataset core.Dataset

	err = json.Unmarshal(data, &dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal dataset for key '%s': %w", key, err)
	}

	return dataset, nil
}

// Download retrieves an object from the NATS object store.
func (n *NatsDatasetStore) Download(_ context.Context, key string) ([]byte, error) {
	obj, err := n.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, n.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return data, nil
}

// Upload saves an object to the NATS object store.
func (n *NatsDatasetStore) Upload(_ context.Context, key string, data []byte) error {
	reader := bytes.NewReader(data)

	_, err := n.store.Put(&nats.ObjectMeta{
		Name:        key,
		Description: "",
		Headers:     nil,
		Metadata:    nil,
		Opts:        nil,
	}, reader)
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, n.bucket, err)
	}

	return nil
}
