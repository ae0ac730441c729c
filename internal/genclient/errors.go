package genclient

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPollTimeout is wrapped by every PollTimeoutError.
	ErrPollTimeout = errors.New("genclient: job polling timed out")

	// ErrMissingJobID is returned when a submit response carries no job id.
	ErrMissingJobID = errors.New("genclient: service did not return a job id")

	// ErrMalformedResponse is wrapped when a response body cannot be decoded
	// or lacks the fields a result needs.
	ErrMalformedResponse = errors.New("genclient: malformed response")

	// ErrServiceRejected is wrapped when a direct service reports failure in
	// an otherwise successful HTTP response.
	ErrServiceRejected = errors.New("genclient: service rejected request")
)

// maxErrorBody caps how much of a response body is copied into errors.
const maxErrorBody = 512

// HTTPStatusError reports a non-2xx response.
type HTTPStatusError struct {
	Service    string
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("genclient: %s %s: HTTP %d: %s", e.Service, e.Op, e.StatusCode, e.Body)
}

// JobFailedError carries the error a job service reported for a failed job.
type JobFailedError struct {
	Service string
	JobID   string
	Reason  string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("genclient: %s job %s failed: %s", e.Service, e.JobID, e.Reason)
}

// PollTimeoutError reports a job that did not finish within its attempts.
type PollTimeoutError struct {
	Service  string
	JobID    string
	Attempts int
	Timeout  time.Duration
	LastErr  error
}

func (e *PollTimeoutError) Error() string {
	msg := fmt.Sprintf("genclient: %s job %s timed out after %s (%d attempts)", e.Service, e.JobID, e.Timeout, e.Attempts)
	if e.LastErr != nil {
		msg += ": last status error: " + e.LastErr.Error()
	}
	return msg
}

func (e *PollTimeoutError) Unwrap() error { return ErrPollTimeout }

func truncate(b []byte) string {
	if len(b) <= maxErrorBody {
		return string(b)
	}
	return string(b[:maxErrorBody]) + "..."
}
