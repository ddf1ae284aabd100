package retrieval

import (
	"errors"
	"fmt"
)

// Reason identifies why a retrieval call failed. Reasons are for logging and
// diagnostics; callers surface them to end users only indirectly.
type Reason string

const (
	// ReasonMissingScope means no bot identifier was supplied.
	ReasonMissingScope Reason = "missing-scope"
	// ReasonMissingQuery means the query text was empty.
	ReasonMissingQuery Reason = "missing-query"
	// ReasonEmbeddingUnavailable means the embedding provider failed or
	// returned nothing.
	ReasonEmbeddingUnavailable Reason = "embedding-unavailable"
	// ReasonFetchFailed means the candidate query against the store failed.
	ReasonFetchFailed Reason = "fetch-failed"
	// ReasonNoCandidates means the store holds no chunks for this bot.
	ReasonNoCandidates Reason = "no-candidates"
)

// Error is a typed retrieval failure. All pipeline errors are converted into
// an *Error at the step where they occur.
type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("retrieval failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("retrieval failed (%s)", e.Reason)
}

// Unwrap returns the underlying error, so context cancellation remains
// visible through errors.Is.
func (e *Error) Unwrap() error {
	return e.Err
}

// ReasonOf extracts the failure reason from an error, or "" if the error is
// not a retrieval failure.
func ReasonOf(err error) Reason {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Reason
	}
	return ""
}
