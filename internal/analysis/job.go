// Package analysis is the persistent job engine behind form analysis.
// A job's lifetime is decoupled from whichever view started it: the
// dispatched request runs with no timeout on a detached goroutine, and
// settlement is broadcast over a listener bus so any currently open
// view of the document can pick up the result.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/formfieldlabs/formfield/internal/types"
)

// State is the lifecycle state of an analysis job.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// ErrJobInFlight is returned when clearing a fingerprint whose job has
// not settled yet. In-flight jobs are intentionally not cancellable.
var ErrJobInFlight = errors.New("analysis job is still in flight")

// Job is the record of one logical analysis request.
type Job struct {
	Fingerprint string    `json:"fingerprint"`
	State       State     `json:"state"`
	StartedAt   time.Time `json:"started_at"`
}

// Result is the settlement of a job. Exactly one Result is broadcast
// per fingerprint lifecycle.
type Result struct {
	Success   bool             `json:"success"`
	Fields    []types.RawField `json:"fields,omitempty"`
	Err       string           `json:"error,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Request carries the document payload for one analysis dispatch.
type Request struct {
	// Fingerprint deduplicates logical requests. Empty means derive
	// one from the file metadata.
	Fingerprint string

	FileName string
	FileSize int64
	Language string
	Content  []byte
}

// Dispatcher performs the underlying analysis call. Implementations
// must honor ctx but should expect it to never expire: the engine
// dispatches with an unbounded context by design.
type Dispatcher interface {
	Analyze(ctx context.Context, req Request) ([]types.RawField, error)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, req Request) ([]types.RawField, error)

func (f DispatcherFunc) Analyze(ctx context.Context, req Request) ([]types.RawField, error) {
	return f(ctx, req)
}

// StoredResult is the durable form of a completed result, carrying the
// request metadata alongside so stale cache entries stay explainable.
type StoredResult struct {
	Fingerprint string `json:"fingerprint"`
	Result      Result `json:"result"`
	FileName    string `json:"file_name,omitempty"`
	FileSize    int64  `json:"file_size,omitempty"`
	Language    string `json:"language,omitempty"`
}

// ResultStore persists completed results across process restarts.
// It is best-effort: absence degrades to a re-fetch, never an error
// surfaced to the caller.
type ResultStore interface {
	Put(ctx context.Context, rec StoredResult) error
	Get(ctx context.Context, fingerprint string) (StoredResult, bool, error)
	Delete(ctx context.Context, fingerprint string) error
	Clear(ctx context.Context) error
}

// Fingerprint derives a job identifier from file metadata and the
// submission time, mirroring callers that do not supply an explicit id.
func Fingerprint(fileName string, fileSize int64) string {
	return fmt.Sprintf("%s_%d_%d", fileName, fileSize, time.Now().UnixMilli())
}
