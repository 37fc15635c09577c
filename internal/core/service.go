package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/workbook-migrate/internal/progress"
	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/store"
)

// Defaults for Options.
const (
	DefaultImportTimeout = 10 * time.Minute
	DefaultJobTTL        = 30 * time.Minute
	DefaultSampleSize    = 3
)

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	MaxConcurrent  int           // parallel imports (default: DefaultMaxConcurrentImports)
	MaxWait        time.Duration // wait for an import slot (default: DefaultMaxWaitTime)
	ImportTimeout  time.Duration // per import (default: DefaultImportTimeout)
	JobTTL         time.Duration // idle job lifetime (default: DefaultJobTTL)
	SampleSize     int           // dry-run sample rows per table (default: DefaultSampleSize)
	ProgressLinger time.Duration // finished progress topics stay subscribable (default: progress.DefaultLinger)
}

func (o Options) withDefaults() Options {
	if o.ImportTimeout <= 0 {
		o.ImportTimeout = DefaultImportTimeout
	}
	if o.JobTTL <= 0 {
		o.JobTTL = DefaultJobTTL
	}
	if o.SampleSize <= 0 {
		o.SampleSize = DefaultSampleSize
	}
	if o.ProgressLinger <= 0 {
		o.ProgressLinger = progress.DefaultLinger
	}
	return o
}

// Service provides the migration engine's operations.
type Service struct {
	store    store.Store
	runs     store.RunLog // may be nil
	opts     Options
	limiter  *ImportLimiter
	progress *progress.Broker[ProgressEvent]
	now      func() time.Time

	running sync.WaitGroup

	mu   sync.RWMutex
	jobs map[string]*job
}

// NewService creates a Service writing to st. runs may be nil, in which case
// finished imports are not logged. Every table in record.ImportOrder must be
// registered.
func NewService(st store.Store, runs store.RunLog, opts Options) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("new service: nil store")
	}
	if missing := Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("new service: tables not registered: %v", missing)
	}

	opts = opts.withDefaults()
	return &Service{
		store:    st,
		runs:     runs,
		opts:     opts,
		limiter:  NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
		progress: progress.New(ProgressEvent.Terminal, progress.WithLinger(opts.ProgressLinger)),
		now:      time.Now,
		jobs:     make(map[string]*job),
	}, nil
}

// ListTables returns every target table in import order.
func (s *Service) ListTables() []TableInfo {
	defs := All()
	infos := make([]TableInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// ListTablesByGroup returns tables organized by source sheet.
func (s *Service) ListTablesByGroup() map[string][]TableInfo {
	result := make(map[string][]TableInfo)
	for _, group := range Groups() {
		for _, def := range ByGroup(group) {
			result[group] = append(result[group], def.Info)
		}
	}
	return result
}

// SubscribeProgress returns the progress events of jobID from now on and a
// function that ends the subscription. A job whose import is over yields its
// terminal event and a closed channel.
func (s *Service) SubscribeProgress(jobID string) (<-chan ProgressEvent, func(), error) {
	j, err := s.lookup(jobID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel, err := s.progress.Subscribe(jobID)
	if err == nil {
		return ch, cancel, nil
	}

	// The topic outlives an import only briefly; the job keeps its outcome.
	if e, ok := s.finishedEvent(j); ok {
		done := make(chan ProgressEvent, 1)
		done <- e
		close(done)
		return done, func() {}, nil
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
}

// LimiterStatus reports import slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until every background import has finished or ctx
// is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecentRuns returns the latest finished imports from the run log.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if s.runs == nil {
		return []store.Run{}, nil
	}
	runs, err := s.runs.RecentRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	return runs, nil
}

func (s *Service) publish(jobID string, e ProgressEvent) {
	s.progress.Publish(jobID, e)
}

func tableNames(tables []record.Table) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = string(t)
	}
	return out
}
