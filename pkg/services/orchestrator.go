package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"scanhub/config"
	"scanhub/pkg/adapters"
	"scanhub/pkg/filter"
	"scanhub/pkg/models"
	"scanhub/pkg/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Orchestrator drives scan jobs: it resolves the target and policy, fans
// out to the allowed tool adapters concurrently, tolerates individual tool
// failure, and writes the merged, filtered result as one terminal update.
type Orchestrator struct {
	cfg      *config.Config
	log      *utils.Logger
	targets  *TargetStore
	policies *PolicyStore
	jobs     *JobStore
	archive  *ReportArchive
	tools    []adapters.Adapter

	scanSem chan struct{} // limits concurrent scan executions

	mu       sync.Mutex
	cancels  map[string]context.CancelFunc
	progress map[string]models.ScanProgress
}

// NewOrchestrator wires the orchestrator with its stores and adapters
func NewOrchestrator(
	cfg *config.Config,
	log *utils.Logger,
	targets *TargetStore,
	policies *PolicyStore,
	jobs *JobStore,
	archive *ReportArchive,
	tools []adapters.Adapter,
) *Orchestrator {
	maxScans := cfg.Scan.MaxConcurrentScans
	if maxScans <= 0 {
		maxScans = 3
	}
	return &Orchestrator{
		cfg:      cfg,
		log:      log,
		targets:  targets,
		policies: policies,
		jobs:     jobs,
		archive:  archive,
		tools:    tools,
		scanSem:  make(chan struct{}, maxScans),
		cancels:  make(map[string]context.CancelFunc),
		progress: make(map[string]models.ScanProgress),
	}
}

// Submit accepts a scan request. The job record is created and returned
// before any tool executes; the execution body runs asynchronously.
func (o *Orchestrator) Submit(targetID, policyID string) (*models.ScanSubmission, error) {
	target, err := o.targets.Get(targetID)
	if err != nil {
		return nil, err
	}
	policy, err := o.policies.Get(policyID)
	if err != nil {
		return nil, err
	}

	selected := o.resolveTools(policy)
	toolNames := make([]string, 0, len(selected))
	for _, ad := range selected {
		toolNames = append(toolNames, ad.Name())
	}

	job := models.ScanJob{
		ID:        uuid.NewString(),
		TargetID:  target.ID,
		PolicyID:  policy.ID,
		Status:    models.JobRunning,
		StartedAt: time.Now(),
		Tools:     toolNames,
		Findings:  []models.Finding{},
	}
	o.jobs.Put(job)

	ctx, cancel := context.WithCancel(context.Background())
	o.mu.Lock()
	o.cancels[job.ID] = cancel
	o.progress[job.ID] = models.ScanProgress{Phase: "queued", Message: "scan accepted"}
	o.mu.Unlock()

	o.log.WithFunc().WithFields(logrus.Fields{
		"job":    job.ID,
		"target": target.Name,
		"policy": policy.Name,
		"tools":  toolNames,
	}).Info("Scan accepted")

	go o.execute(ctx, job.ID, target, policy, selected)

	return &models.ScanSubmission{
		JobID:             job.ID,
		Status:            job.Status,
		EstimatedDuration: estimateDuration(policy, toolNames),
		Tools:             toolNames,
	}, nil
}

// GetJob returns the full job record
func (o *Orchestrator) GetJob(id string) (*models.ScanJob, error) {
	job, err := o.jobs.Get(id)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetProgress returns the coarse progress view for a job
func (o *Orchestrator) GetProgress(id string) (*models.ScanProgress, error) {
	if _, err := o.jobs.Get(id); err != nil {
		return nil, err
	}
	o.mu.Lock()
	p := o.progress[id]
	o.mu.Unlock()
	return &p, nil
}

// Cancel requests cancellation of a running job. Best-effort: in-flight
// tool calls unwind at their next poll or request boundary.
func (o *Orchestrator) Cancel(id string) (bool, error) {
	job, err := o.jobs.Get(id)
	if err != nil {
		return false, err
	}
	if job.Status.Terminal() {
		return false, nil
	}

	o.mu.Lock()
	cancel, ok := o.cancels[id]
	o.mu.Unlock()
	if !ok {
		return false, nil
	}

	o.log.WithFunc().WithField("job", id).Info("Cancellation requested")
	cancel()
	return true, nil
}

// GetReport returns the archived report for a terminal job
func (o *Orchestrator) GetReport(id string) (*models.ScanJob, error) {
	return o.archive.Load(id)
}

// execute is the asynchronous scan body: fan out, join, merge, finish
func (o *Orchestrator) execute(ctx context.Context, jobID string, target models.ScanTarget, policy models.ScanPolicy, selected []adapters.Adapter) {
	o.scanSem <- struct{}{}
	defer func() { <-o.scanSem }()

	defer func() {
		o.mu.Lock()
		delete(o.cancels, jobID)
		o.mu.Unlock()
	}()

	exclusions, err := filter.NewExclusionFilter(policy.Exclusions)
	if err != nil {
		o.fail(jobID, fmt.Errorf("compiling exclusion patterns: %w", err))
		return
	}

	o.setProgress(jobID, models.ScanProgress{Phase: "scanning", Message: "tools running"})

	var (
		resultMu  sync.Mutex
		findings  []models.Finding
		toolErrs  []string
		completed int
	)

	var wg sync.WaitGroup
	for _, ad := range selected {
		wg.Add(1)
		go func(ad adapters.Adapter) {
			defer wg.Done()

			runCtx := adapters.WithProgress(ctx, func(p models.ScanProgress) {
				o.setProgress(jobID, p)
			})

			outcome, err := ad.Run(runCtx, target, policy)

			resultMu.Lock()
			defer resultMu.Unlock()
			completed++

			switch {
			case err != nil:
				o.log.WithFunc().WithError(err).WithFields(logrus.Fields{
					"job":  jobID,
					"tool": ad.Name(),
				}).Warn("Tool failed, scan continues")
				toolErrs = append(toolErrs, fmt.Sprintf("%s: %v", ad.Name(), err))
			case outcome.Skipped:
				o.log.WithFunc().WithFields(logrus.Fields{
					"job":  jobID,
					"tool": ad.Name(),
				}).Debug("Tool not applicable, skipped")
			default:
				findings = append(findings, outcome.Findings...)
			}

			o.setProgress(jobID, models.ScanProgress{
				Progress: completed * 100 / len(selected),
				Phase:    "scanning",
				Message:  fmt.Sprintf("%d/%d tools finished", completed, len(selected)),
			})
		}(ad)
	}
	wg.Wait()

	status := models.JobCompleted
	if ctx.Err() != nil {
		status = models.JobCancelled
	}

	kept := exclusions.Apply(findings)
	var summary models.Summary
	for _, f := range kept {
		summary.Add(f.Severity)
	}

	if err := o.jobs.Finish(jobID, status, kept, summary, toolErrs); err != nil {
		o.log.WithFunc().WithError(err).WithField("job", jobID).Error("Failed to finish job")
		return
	}

	o.setProgress(jobID, models.ScanProgress{
		Progress: 100,
		Phase:    string(status),
		Message:  fmt.Sprintf("%d findings, %d tool errors", len(kept), len(toolErrs)),
	})

	if job, err := o.jobs.Get(jobID); err == nil {
		if err := o.archive.Save(job); err != nil {
			o.log.WithFunc().WithError(err).WithField("job", jobID).Warn("Failed to archive report")
		}
	}

	o.log.WithFunc().WithFields(logrus.Fields{
		"job":      jobID,
		"status":   status,
		"findings": len(kept),
		"errors":   len(toolErrs),
	}).Info("Scan finished")
}

// fail marks a job failed due to an orchestration-level error
func (o *Orchestrator) fail(jobID string, err error) {
	o.log.WithFunc().WithError(err).WithField("job", jobID).Error("Scan failed")
	if ferr := o.jobs.Finish(jobID, models.JobFailed, []models.Finding{}, models.Summary{}, []string{err.Error()}); ferr != nil {
		o.log.WithFunc().WithError(ferr).WithField("job", jobID).Error("Failed to record job failure")
	}
	o.setProgress(jobID, models.ScanProgress{Progress: 100, Phase: "failed", Message: err.Error()})
}

func (o *Orchestrator) setProgress(jobID string, p models.ScanProgress) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Keep the best-known discovery counters when an update omits them
	prev := o.progress[jobID]
	if p.URLsDiscovered == 0 {
		p.URLsDiscovered = prev.URLsDiscovered
	}
	if p.RulesCompleted == 0 {
		p.RulesCompleted = prev.RulesCompleted
	}
	o.progress[jobID] = p
}

// resolveTools intersects the policy's allowed tools with the enabled adapters
func (o *Orchestrator) resolveTools(policy models.ScanPolicy) []adapters.Adapter {
	byName := make(map[string]adapters.Adapter, len(o.tools))
	for _, ad := range o.tools {
		byName[ad.Name()] = ad
	}

	var selected []adapters.Adapter
	for _, name := range policy.AllowedTools {
		ad, ok := byName[name]
		if !ok {
			continue
		}
		if !ad.Enabled() {
			o.log.WithFunc().WithField("tool", name).Debug("Tool not configured, skipping")
			continue
		}
		selected = append(selected, ad)
	}
	return selected
}

// estimateDuration is a coarse advisory figure; web scanning dominates runtime
func estimateDuration(policy models.ScanPolicy, tools []string) string {
	hasWeb := false
	for _, t := range tools {
		if t == models.ToolWebScan {
			hasWeb = true
		}
	}
	switch {
	case hasWeb && policy.ActiveAllowed():
		return "30-45 minutes"
	case hasWeb:
		return "3-10 minutes"
	default:
		return "1-3 minutes"
	}
}
