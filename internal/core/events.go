package core

import "github.com/book-expert/events"

// BatchBoundariesEvent announces that boundary detection finished for a batch
// of files. BoundariesKey names an object-store blob holding a
// BoundariesPayload.
type BatchBoundariesEvent struct {
	Header        events.EventHeader `json:"header"`
	BoundariesKey string             `json:"boundaries_key"`
}

// BoundariesPayload is the serialized form of a batch's segmentation output:
// parallel collections of file identifiers and per-file boundary sequences.
type BoundariesPayload struct {
	Identifiers []string           `json:"identifiers"`
	Boundaries  []BoundarySequence `json:"boundaries"`
}

// DatasetCreatedEvent is the reply published after a batch has been
// aggregated and its dataset persisted.
type DatasetCreatedEvent struct {
	Header     events.EventHeader `json:"header"`
	DatasetKey string             `json:"dataset_key"`
	FileCount  int                `json:"file_count"`
}
