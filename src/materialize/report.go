package materialize

import (
	"asset-unpack/src/assets"
	"fmt"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"sync"
	"time"
)

type FailureKind uint8

const (
	// ListFailure: a path could not be listed, or listed a bad name. Its
	// subtree is treated as empty.
	ListFailure FailureKind = iota + 1

	// DirectoryCreateFailure: a destination directory could not be made.
	// None of its descendants are attempted.
	DirectoryCreateFailure

	// LeafTransferFailure: open, create or streaming failed for one file.
	LeafTransferFailure
)

func (k FailureKind) String() string {
	switch k {
	case ListFailure:
		return "list"
	case DirectoryCreateFailure:
		return "mkdir"
	case LeafTransferFailure:
		return "copy"
	default:
		return fmt.Sprintf("FailureKind(%d)", uint8(k))
	}
}

// Failure is the outcome of one entry or subtree that could not be
// materialized.
type Failure struct {
	Kind FailureKind
	Path assets.Path
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s %q: %v", f.Kind, f.Path.String(), f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// FatalError means the destination root could not be obtained; nothing was
// attempted.
type FatalError struct {
	Root string
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("destination root %q unavailable: %v", e.Root, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Report accumulates the results of one run. It is safe for concurrent use.
type Report struct {
	dirs   atomic.Int64
	files  atomic.Int64
	bytes  atomic.Int64
	failed atomic.Int64

	mu       sync.Mutex
	failures []*Failure
	canceled error

	Started  time.Time
	Finished time.Time
}

func (r *Report) Dirs() int64  { return r.dirs.Load() }
func (r *Report) Files() int64 { return r.files.Load() }
func (r *Report) Bytes() int64 { return r.bytes.Load() }

func (r *Report) FailureCount() int64 { return r.failed.Load() }

func (r *Report) Failures() []*Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*Failure, len(r.failures))
	copy(result, r.failures)
	return result
}

// Canceled is the context error that interrupted the run, if any.
func (r *Report) Canceled() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.canceled
}

// Err combines every failure and the cancellation cause, nil on a clean run.
func (r *Report) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	for _, f := range r.failures {
		err = multierr.Append(err, f)
	}
	return multierr.Append(err, r.canceled)
}

func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

func (r *Report) String() string {
	return fmt.Sprintf("%d dirs, %d files, %d bytes, %d failures in %v",
		r.Dirs(), r.Files(), r.Bytes(), r.FailureCount(), r.Duration())
}

func (r *Report) dirCreated() { r.dirs.Inc() }

func (r *Report) fileCopied(n int64) {
	r.files.Inc()
	r.bytes.Add(n)
}

func (r *Report) fail(f *Failure) {
	r.failed.Inc()
	r.mu.Lock()
	r.failures = append(r.failures, f)
	r.mu.Unlock()
}

func (r *Report) cancel(err error) {
	r.mu.Lock()
	if r.canceled == nil {
		r.canceled = err
	}
	r.mu.Unlock()
}
