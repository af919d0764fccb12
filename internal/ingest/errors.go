package ingest

import "github.com/teakb/teakb/internal/types"

// Ingestion error codes
const (
	ErrCodeIngestInvalidInput     types.ErrorCode = "INGEST_INVALID_INPUT"
	ErrCodeIngestBatchFailed      types.ErrorCode = "INGEST_BATCH_FAILED"
	ErrCodeIngestRetriesExhausted types.ErrorCode = "INGEST_RETRIES_EXHAUSTED"
	ErrCodeIngestMissingNodes     types.ErrorCode = "INGEST_MISSING_NODES"
	ErrCodeIngestDatasetInvalid   types.ErrorCode = "INGEST_DATASET_INVALID"
)
