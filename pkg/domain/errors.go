package domain

import "errors"

// ErrConfiguration is returned when a rewrite cannot start: no document was selected,
// or the settings are unusable (for example a non-positive token budget).
var ErrConfiguration = errors.New("configuration error")

// ErrNormalization is returned when a model response contains no recoverable JSON object.
var ErrNormalization = errors.New("normalization error")

// ErrAborted is returned when the caller aborted the operation before the completion returned.
var ErrAborted = errors.New("operation aborted")

// ErrDocumentNotFound is returned when a document ID cannot be found in the store.
var ErrDocumentNotFound = errors.New("document not found")

// ErrOperationActive is returned when a rewrite is already running for the same document.
var ErrOperationActive = errors.New("operation already active")

// Normalization failure reasons.
const (
	ReasonMissingFields = "missing expected fields"
	ReasonNoJSON        = "no valid JSON found"
	ReasonInvalidFormat = "invalid response format"
)

// NormalizationError describes why a model response could not be normalized.
// It matches ErrNormalization with errors.Is.
type NormalizationError struct {
	Reason string
	Err    error
}

func (e *NormalizationError) Error() string {
	if e.Err != nil {
		return "normalization error: " + e.Reason + ": " + e.Err.Error()
	}
	return "normalization error: " + e.Reason
}

func (e *NormalizationError) Unwrap() error { return e.Err }

func (e *NormalizationError) Is(target error) bool { return target == ErrNormalization }
