// Package client drives a migration from the user's side: dry run, review,
// import and progress display. The Controller is the same whether the engine
// runs in-process (LocalBackend) or behind the HTTP API (HTTPBackend).
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JonMunkholm/workbook-migrate/internal/core"
)

var (
	// ErrInvalidTransition is returned when an operation is not allowed in
	// the controller's current state.
	ErrInvalidTransition = errors.New("invalid migration state transition")
	// ErrStreamEnded is returned when the progress stream closes before a
	// terminal event arrives.
	ErrStreamEnded = errors.New("progress stream ended before the import finished")
)

// State is the controller's position on the happy path.
type State string

const (
	StateIdle      State = "idle"
	StatePreview   State = "preview"
	StateImporting State = "importing"
	StateComplete  State = "complete"
)

// ImportError is the error overlay raised by an error progress event.
type ImportError struct {
	Message string
	Result  *core.MigrationResult
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import failed: %s", e.Message)
}

// Snapshot is a copy of the controller's state.
type Snapshot struct {
	State    State
	JobID    string
	FileName string
	Preview  *core.DryRunResult
	Report   *core.MigrationResult
	Last     core.ProgressEvent
	Sheets   []PhaseItem
	Tables   []PhaseItem

	// Fault is the error overlay. It is orthogonal to State and only Reset
	// clears it.
	Fault *ImportError

	// Err is the last failed operation, e.g. a rejected import start.
	Err error
}

// Option configures a Controller.
type Option func(*Controller)

// WithOnChange registers fn to receive a snapshot after every change.
// fn runs on the goroutine that made the change.
func WithOnChange(fn func(Snapshot)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// Controller is the client-side migration state machine:
//
//	idle → preview → importing → complete
//
// plus an error overlay that any state can enter on an error event.
type Controller struct {
	backend  Backend
	onChange func(Snapshot)

	mu       sync.Mutex
	state    State
	jobID    string
	fileName string
	preview  *core.DryRunResult
	report   *core.MigrationResult
	last     core.ProgressEvent
	fault    *ImportError
	err      error
	sheets   *PhaseTracker
	tables   *PhaseTracker
}

// NewController creates an idle controller over b.
func NewController(b Backend, opts ...Option) *Controller {
	c := &Controller{
		backend: b,
		state:   StateIdle,
		sheets:  NewPhaseTracker(),
		tables:  NewPhaseTracker(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Preview dry-runs a workbook and moves to preview, remembering the job id.
// A new file may be previewed again while in preview.
func (c *Controller) Preview(ctx context.Context, fileName string, data []byte) error {
	c.mu.Lock()
	if c.fault != nil || (c.state != StateIdle && c.state != StatePreview) {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: preview from %s", ErrInvalidTransition, state)
	}
	c.mu.Unlock()

	resp, err := c.backend.DryRun(ctx, fileName, data)

	c.mu.Lock()
	if err != nil {
		c.err = err
	} else {
		c.state = StatePreview
		c.jobID = resp.JobID
		c.fileName = fileName
		c.preview = resp.Preview
		c.err = nil
	}
	c.mu.Unlock()
	c.notify()
	return err
}

// Import starts the previewed job and follows its progress until the import
// completes. If the start is rejected the controller stays in preview.
func (c *Controller) Import(ctx context.Context) (*core.MigrationResult, error) {
	c.mu.Lock()
	if c.fault != nil || c.state != StatePreview {
		state := c.state
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: import from %s", ErrInvalidTransition, state)
	}
	jobID := c.jobID
	c.mu.Unlock()

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Subscribe before starting so no event is missed.
	events, err := c.backend.Progress(streamCtx, jobID)
	if err != nil {
		return nil, c.fail(err)
	}
	if _, err := c.backend.StartImport(ctx, jobID); err != nil {
		return nil, c.fail(err)
	}

	c.mu.Lock()
	c.state = StateImporting
	c.err = nil
	c.mu.Unlock()
	c.notify()

	for e := range events {
		c.Handle(e)
		if e.Terminal() {
			break
		}
	}

	snap := c.Snapshot()
	switch {
	case snap.Fault != nil:
		return snap.Fault.Result, snap.Fault
	case snap.State == StateComplete:
		return snap.Report, nil
	case ctx.Err() != nil:
		return nil, c.fail(ctx.Err())
	default:
		return nil, c.fail(ErrStreamEnded)
	}
}

// Handle applies one progress event. Events other than error are ignored
// unless an import is running.
func (c *Controller) Handle(e core.ProgressEvent) {
	c.mu.Lock()
	if e.Phase != core.PhaseError && c.state != StateImporting {
		c.mu.Unlock()
		return
	}

	c.last = e
	c.sheets.Observe(e.Sheet)
	c.tables.Observe(string(e.Table))

	switch e.Phase {
	case core.PhaseComplete:
		c.state = StateComplete
		c.report = e.Result
		c.sheets.Finish()
		c.tables.Finish()
	case core.PhaseError:
		c.fault = &ImportError{Message: e.Message, Result: e.Result}
	}
	c.mu.Unlock()
	c.notify()
}

// Reset returns to idle and clears the error overlay.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.state = StateIdle
	c.jobID = ""
	c.fileName = ""
	c.preview = nil
	c.report = nil
	c.last = core.ProgressEvent{}
	c.fault = nil
	c.err = nil
	c.sheets.Reset()
	c.tables.Reset()
	c.mu.Unlock()
	c.notify()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:    c.state,
		JobID:    c.jobID,
		FileName: c.fileName,
		Preview:  c.preview,
		Report:   c.report,
		Last:     c.last,
		Sheets:   c.sheets.Items(),
		Tables:   c.tables.Items(),
		Fault:    c.fault,
		Err:      c.err,
	}
}

func (c *Controller) fail(err error) error {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	c.notify()
	return err
}

func (c *Controller) notify() {
	if c.onChange == nil {
		return
	}
	c.onChange(c.Snapshot())
}
