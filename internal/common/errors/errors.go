// Package errors provides standardized error handling for the churn pipeline.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Setup failures: the run cannot produce results and must abort
	// before scoring begins.
	ErrCodeConfigInvalid        ErrorCode = "CONFIG_INVALID"
	ErrCodeModelArtifactMissing ErrorCode = "MODEL_ARTIFACT_MISSING"
	ErrCodeModelArtifactInvalid ErrorCode = "MODEL_ARTIFACT_INVALID"

	// Transient external failures: the current stage fails but earlier
	// artifacts stay valid.
	ErrCodeSnapshotFetchFailed ErrorCode = "SNAPSHOT_FETCH_FAILED"
	ErrCodeSnapshotParseFailed ErrorCode = "SNAPSHOT_PARSE_FAILED"
	ErrCodeArtifactWriteFailed ErrorCode = "ARTIFACT_WRITE_FAILED"
	ErrCodeAlertDispatchFailed ErrorCode = "ALERT_DISPATCH_FAILED"
	ErrCodeResultStoreFailed   ErrorCode = "RESULT_STORE_FAILED"

	// Per-record failures: absorbed into result data, never batch-fatal.
	ErrCodeRecordMalformed   ErrorCode = "RECORD_MALFORMED"
	ErrCodePredictionFailed  ErrorCode = "PREDICTION_FAILED"
	ErrCodeTransformFailed   ErrorCode = "TRANSFORM_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// IsFatal reports whether the error aborts the whole run.
func (e *StandardError) IsFatal() bool {
	switch e.Code {
	case ErrCodeConfigInvalid, ErrCodeModelArtifactMissing, ErrCodeModelArtifactInvalid:
		return true
	}
	return false
}

// CodeOf extracts the error code from err if it wraps a StandardError.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// ==========================
// 2. Error Constructors
// ==========================

// NewConfigInvalidError creates a fatal configuration error.
func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Invalid pipeline configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewModelArtifactMissingError creates a fatal missing-artifact error.
func NewModelArtifactMissingError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelArtifactMissing,
		Message:   "Model artifact not found",
		Details:   fmt.Sprintf("path: %s, error: %v", path, err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewModelArtifactInvalidError creates a fatal corrupt-artifact error.
func NewModelArtifactInvalidError(path, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelArtifactInvalid,
		Message:   "Model artifact failed validation",
		Details:   fmt.Sprintf("path: %s, %s", path, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSnapshotFetchFailedError creates a retryable snapshot download error.
func NewSnapshotFetchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSnapshotFetchFailed,
		Message:   "Failed to fetch population snapshot",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSnapshotParseFailedError creates a non-retryable snapshot parse error.
func NewSnapshotParseFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSnapshotParseFailed,
		Message:   "Failed to parse population snapshot",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewArtifactWriteFailedError creates a retryable output-write error.
func NewArtifactWriteFailedError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeArtifactWriteFailed,
		Message:   "Failed to write output artifact",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAlertDispatchFailedError creates a retryable notification error.
// Dispatch failure never invalidates already-persisted scoring artifacts.
func NewAlertDispatchFailedError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlertDispatchFailed,
		Message:   "Failed to dispatch risk alert",
		Details:   fmt.Sprintf("provider: %s, error: %s", provider, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewResultStoreFailedError creates a retryable results-repository error.
func NewResultStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResultStoreFailed,
		Message:   "Failed to persist scored results",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordMalformedError creates a per-record structural error. The batch
// scorer absorbs it into an ERROR result row.
func NewRecordMalformedError(caregiverID, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordMalformed,
		Message:   "Caregiver record cannot be scored",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"caregiverId": caregiverID},
		Timestamp: time.Now().UTC(),
	}
}

// NewPredictionFailedError creates a per-record model error. The scorer
// absorbs it into documented fallback values.
func NewPredictionFailedError(model string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePredictionFailed,
		Message:   "Model prediction failed",
		Details:   fmt.Sprintf("model: %s, error: %s", model, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransformFailedError creates a per-record preprocessing error.
func NewTransformFailedError(model string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransformFailed,
		Message:   "Feature transform failed",
		Details:   fmt.Sprintf("model: %s, error: %s", model, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
