package core

import (
	"context"
	"fmt"
	"time"
)

// Requester identifies the caller behind a dry run or import. It ends up in
// the run log.
type Requester struct {
	IP        string
	UserAgent string
}

type requesterKey struct{}

// WithRequester attaches r to ctx.
func WithRequester(ctx context.Context, r Requester) context.Context {
	return context.WithValue(ctx, requesterKey{}, r)
}

func requesterFrom(ctx context.Context) Requester {
	r, _ := ctx.Value(requesterKey{}).(Requester)
	return r
}

// job is a migration created by a dry run. It keeps the workbook bytes so
// the import can re-parse them.
type job struct {
	id        string
	fileName  string
	data      []byte
	clientIP  string
	userAgent string

	state     JobState
	createdAt time.Time
	updatedAt time.Time
	preview   *DryRunResult
	result    *MigrationResult
	terminal  ProgressEvent
}

func (j *job) info() JobInfo {
	return JobInfo{
		ID:        j.id,
		FileName:  j.fileName,
		State:     j.state,
		CreatedAt: j.createdAt,
		UpdatedAt: j.updatedAt,
		Preview:   j.preview,
		Result:    j.result,
	}
}

// expired reports whether j has idled past ttl. Running imports never expire.
func (j *job) expired(now time.Time, ttl time.Duration) bool {
	return j.state != JobImporting && now.Sub(j.updatedAt) > ttl
}

// Job returns a snapshot of the job with the given id.
func (s *Service) Job(id string) (JobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, err := s.lookupLocked(id)
	if err != nil {
		return JobInfo{}, err
	}
	return j.info(), nil
}

// JobCount returns the number of tracked jobs.
func (s *Service) JobCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *Service) lookup(id string) (*job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookupLocked(id)
}

func (s *Service) lookupLocked(id string) (*job, error) {
	j, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if j.expired(s.now(), s.opts.JobTTL) {
		return nil, fmt.Errorf("%w: %s", ErrJobExpired, id)
	}
	return j, nil
}

// claim moves a previewed job to importing.
func (s *Service) claim(id string) (*job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.lookupLocked(id)
	if err != nil {
		return nil, err
	}

	switch j.state {
	case JobImporting:
		return nil, fmt.Errorf("%w: %s", ErrImportRunning, id)
	case JobComplete, JobFailed:
		return nil, fmt.Errorf("%w: %s", ErrJobConsumed, id)
	}

	j.state = JobImporting
	j.updatedAt = s.now()
	return j, nil
}

// unclaim returns a job to previewed when its import could not start.
func (s *Service) unclaim(j *job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j.state = JobPreviewed
	j.updatedAt = s.now()
}

// finish stores the import result and its terminal event, and releases the
// workbook bytes.
func (s *Service) finish(j *job, terminal ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := terminal.Result
	j.result = result
	j.terminal = terminal
	j.data = nil
	j.updatedAt = s.now()
	if result.Success {
		j.state = JobComplete
	} else {
		j.state = JobFailed
	}
}

// finishedEvent returns the terminal event of a job whose import is over.
func (s *Service) finishedEvent(j *job) (ProgressEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if j.state != JobComplete && j.state != JobFailed {
		return ProgressEvent{}, false
	}
	return j.terminal, true
}

// sweepJobs removes expired jobs and tears down their progress topics.
func (s *Service) sweepJobs() int {
	now := s.now()

	s.mu.Lock()
	var expired []string
	for id, j := range s.jobs {
		if j.expired(now, s.opts.JobTTL) {
			expired = append(expired, id)
			delete(s.jobs, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		s.progress.Close(id)
	}
	return len(expired)
}
