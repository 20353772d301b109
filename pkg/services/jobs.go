package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"scanhub/pkg/models"
	"scanhub/pkg/utils"
)

// JobStore keeps scan job records in process memory. Each write replaces the
// whole record under the lock, so a concurrent reader never observes a
// terminal status alongside half-written findings.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]models.ScanJob
	log  *utils.Logger
}

func NewJobStore(log *utils.Logger) *JobStore {
	return &JobStore{
		jobs: make(map[string]models.ScanJob),
		log:  log,
	}
}

// Put stores a new job record
func (s *JobStore) Put(job models.ScanJob) {
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
}

// Get returns a copy of the job with the given id
func (s *JobStore) Get(id string) (models.ScanJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return models.ScanJob{}, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return job, nil
}

// List returns all jobs ordered by start time, newest first
func (s *JobStore) List() []models.ScanJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]models.ScanJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartedAt.After(jobs[j].StartedAt)
	})
	return jobs
}

// Finish transitions a job to a terminal state, writing status, findings,
// summary, errors and the finish timestamp as one atomic update. Status is
// monotonic: finishing an already-terminal job is a no-op.
func (s *JobStore) Finish(id string, status models.JobStatus, findings []models.Finding, summary models.Summary, errs []string) error {
	if !status.Terminal() {
		return fmt.Errorf("finish requires a terminal status, got %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if job.Status.Terminal() {
		s.log.WithFunc().WithField("job", id).Debug("Ignoring transition on terminal job")
		return nil
	}

	now := time.Now()
	job.Status = status
	job.Findings = findings
	job.Summary = summary
	job.Errors = errs
	job.FinishedAt = &now
	s.jobs[id] = job
	return nil
}

// Prune removes terminal jobs that finished before the cutoff and returns
// how many were dropped
func (s *JobStore) Prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for id, job := range s.jobs {
		if job.Status.Terminal() && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(s.jobs, id)
			pruned++
		}
	}
	return pruned
}

// QueryFindings returns all findings across jobs matching the query,
// ordered by first-seen time
func (s *JobStore) QueryFindings(q models.FindingQuery) []models.Finding {
	s.mu.RLock()
	defer s.mu.RUnlock()

	findings := make([]models.Finding, 0)
	for _, job := range s.jobs {
		for _, f := range job.Findings {
			if q.Matches(f) {
				findings = append(findings, f)
			}
		}
	}
	sort.Slice(findings, func(i, j int) bool {
		return findings[i].FirstSeen.Before(findings[j].FirstSeen)
	})
	return findings
}

// UpdateFindingStatus applies a user-driven triage transition to a finding
func (s *JobStore) UpdateFindingStatus(findingID string, status models.FindingStatus, justification string) (models.Finding, error) {
	if !status.Valid() {
		return models.Finding{}, fmt.Errorf("%w: unknown finding status %q", ErrValidation, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for jobID, job := range s.jobs {
		for i, f := range job.Findings {
			if f.ID != findingID {
				continue
			}
			findings := make([]models.Finding, len(job.Findings))
			copy(findings, job.Findings)
			findings[i].Status = status
			findings[i].Justification = justification
			job.Findings = findings
			s.jobs[jobID] = job
			return findings[i], nil
		}
	}
	return models.Finding{}, fmt.Errorf("finding %s: %w", findingID, ErrNotFound)
}
