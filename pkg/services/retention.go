package service

import (
	"context"
	"sync"
	"time"

	"scanhub/config"
	"scanhub/pkg/utils"

	"github.com/sirupsen/logrus"
)

// RetentionSweeper prunes terminal scan jobs older than the configured
// retention window. With retention disabled (0 hours) jobs are kept
// forever.
type RetentionSweeper struct {
	cfg  *config.Config
	jobs *JobStore
	log  *utils.Logger

	mu      sync.Mutex
	running bool
}

func NewRetentionSweeper(cfg *config.Config, jobs *JobStore, log *utils.Logger) *RetentionSweeper {
	return &RetentionSweeper{cfg: cfg, jobs: jobs, log: log}
}

// Enabled reports whether a retention window is configured
func (s *RetentionSweeper) Enabled() bool {
	return s.cfg.Scan.RetentionHours > 0
}

// Run executes one sweep and returns how many jobs were pruned.
// Concurrent runs collapse into one.
func (s *RetentionSweeper) Run() int {
	if !s.Enabled() {
		return 0
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return 0
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	cutoff := time.Now().Add(-time.Duration(s.cfg.Scan.RetentionHours) * time.Hour)
	pruned := s.jobs.Prune(cutoff)
	if pruned > 0 {
		s.log.WithFunc().WithFields(logrus.Fields{
			"pruned": pruned,
			"cutoff": cutoff,
		}).Info("Pruned expired scan jobs")
	}
	return pruned
}

// Start sweeps hourly until the context is cancelled
func (s *RetentionSweeper) Start(ctx context.Context) {
	if !s.Enabled() {
		s.log.WithFunc().Debug("Job retention disabled, jobs kept forever")
		return
	}

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Run()
			}
		}
	}()
}
