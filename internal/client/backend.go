package client

import (
	"context"

	"github.com/JonMunkholm/workbook-migrate/internal/core"
)

// Backend is the migration engine as seen by a Controller.
type Backend interface {
	// DryRun parses a workbook and creates a migration job.
	DryRun(ctx context.Context, fileName string, data []byte) (*core.DryRunResponse, error)

	// StartImport starts the job's import and returns without waiting for it.
	StartImport(ctx context.Context, jobID string) (*core.ImportAck, error)

	// Progress streams the job's events until a terminal event or until ctx
	// is done. The channel is closed afterwards.
	Progress(ctx context.Context, jobID string) (<-chan core.ProgressEvent, error)
}

// LocalBackend drives an in-process Service.
type LocalBackend struct {
	svc *core.Service
}

// NewLocalBackend wraps svc.
func NewLocalBackend(svc *core.Service) *LocalBackend {
	return &LocalBackend{svc: svc}
}

func (b *LocalBackend) DryRun(ctx context.Context, fileName string, data []byte) (*core.DryRunResponse, error) {
	return b.svc.DryRun(ctx, fileName, data)
}

func (b *LocalBackend) StartImport(ctx context.Context, jobID string) (*core.ImportAck, error) {
	return b.svc.StartImport(ctx, jobID)
}

func (b *LocalBackend) Progress(ctx context.Context, jobID string) (<-chan core.ProgressEvent, error) {
	events, cancel, err := b.svc.SubscribeProgress(jobID)
	if err != nil {
		return nil, err
	}

	out := make(chan core.ProgressEvent)
	go func() {
		defer close(out)
		defer cancel()
		for {
			select {
			case e, ok := <-events:
				if !ok {
					return
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
