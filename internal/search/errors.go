package search

import "errors"

// Stage errors. Embedding and index failures inside a single modality degrade
// that modality to an empty result set; only a total retrieval failure is
// surfaced to the caller.
var (
	// ErrRetrievalUnavailable means every enabled modality failed.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable: all modalities failed")

	// ErrNoModalities means no modality is enabled after weight validation.
	ErrNoModalities = errors.New("no search modality enabled")
)
