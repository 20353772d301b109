package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"scanhub/config"
	"scanhub/pkg/adapters"
	"scanhub/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAdapter is a canned tool for orchestration tests
type stubAdapter struct {
	name    string
	enabled bool
	run     func(ctx context.Context, target models.ScanTarget, policy models.ScanPolicy) (adapters.Outcome, error)
}

func (s *stubAdapter) Name() string  { return s.name }
func (s *stubAdapter) Enabled() bool { return s.enabled }
func (s *stubAdapter) Run(ctx context.Context, target models.ScanTarget, policy models.ScanPolicy) (adapters.Outcome, error) {
	return s.run(ctx, target, policy)
}

func stubFindings(tool string, locations ...string) func(context.Context, models.ScanTarget, models.ScanPolicy) (adapters.Outcome, error) {
	return func(ctx context.Context, target models.ScanTarget, policy models.ScanPolicy) (adapters.Outcome, error) {
		var findings []models.Finding
		for _, loc := range locations {
			findings = append(findings, models.Finding{
				ID:       loc,
				Severity: models.SeverityMedium,
				Status:   models.FindingOpen,
				Tool:     tool,
				TargetID: target.ID,
				Location: loc,
			})
		}
		return adapters.Outcome{Findings: findings}, nil
	}
}

type orchestratorFixture struct {
	orch     *Orchestrator
	targetID string
	policyID string
	jobs     *JobStore
}

func newOrchestratorFixture(t *testing.T, tools []adapters.Adapter, policy models.ScanPolicy) *orchestratorFixture {
	t.Helper()
	log := testLogger()
	cfg := config.Defaults()
	cfg.Storage.Path = t.TempDir()

	targets := NewTargetStore(log)
	policies := NewPolicyStore(log)
	jobs := NewJobStore(log)
	archive := NewReportArchive(cfg.Storage.Path, log)

	target, err := targets.Create(models.ScanTarget{Name: "demo"})
	require.NoError(t, err)

	if policy.Name == "" {
		policy.Name = "test-policy"
	}
	created, err := policies.Create(policy)
	require.NoError(t, err)

	return &orchestratorFixture{
		orch:     NewOrchestrator(cfg, log, targets, policies, jobs, archive, tools),
		targetID: target.ID,
		policyID: created.ID,
		jobs:     jobs,
	}
}

func waitTerminal(t *testing.T, jobs *JobStore, jobID string) models.ScanJob {
	t.Helper()
	require.Eventually(t, func() bool {
		job, err := jobs.Get(jobID)
		return err == nil && job.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)

	job, err := jobs.Get(jobID)
	require.NoError(t, err)
	return job
}

func TestOrchestratorToolFailureDoesNotFailScan(t *testing.T) {
	tools := []adapters.Adapter{
		&stubAdapter{name: models.ToolWebScan, enabled: true, run: func(ctx context.Context, _ models.ScanTarget, _ models.ScanPolicy) (adapters.Outcome, error) {
			return adapters.Outcome{}, errors.New("scanner unreachable")
		}},
		&stubAdapter{name: models.ToolDepVuln, enabled: true, run: stubFindings(models.ToolDepVuln, "a", "b", "c")},
	}
	fx := newOrchestratorFixture(t, tools, models.ScanPolicy{
		AllowedTools: []string{models.ToolWebScan, models.ToolDepVuln},
	})

	sub, err := fx.orch.Submit(fx.targetID, fx.policyID)
	require.NoError(t, err)
	assert.Equal(t, models.JobRunning, sub.Status)
	assert.ElementsMatch(t, []string{models.ToolWebScan, models.ToolDepVuln}, sub.Tools)

	job := waitTerminal(t, fx.jobs, sub.JobID)
	assert.Equal(t, models.JobCompleted, job.Status)
	assert.Len(t, job.Findings, 3)
	require.Len(t, job.Errors, 1)
	assert.Contains(t, job.Errors[0], models.ToolWebScan)
	assert.Equal(t, 3, job.Summary.Medium)
}

func TestOrchestratorSkippedToolIsNotAnError(t *testing.T) {
	tools := []adapters.Adapter{
		&stubAdapter{name: models.ToolContainer, enabled: true, run: func(ctx context.Context, _ models.ScanTarget, _ models.ScanPolicy) (adapters.Outcome, error) {
			return adapters.Outcome{Skipped: true}, nil
		}},
	}
	fx := newOrchestratorFixture(t, tools, models.ScanPolicy{AllowedTools: []string{models.ToolContainer}})

	sub, err := fx.orch.Submit(fx.targetID, fx.policyID)
	require.NoError(t, err)

	job := waitTerminal(t, fx.jobs, sub.JobID)
	assert.Equal(t, models.JobCompleted, job.Status)
	assert.Empty(t, job.Findings)
	assert.Empty(t, job.Errors)
}

func TestOrchestratorDisabledToolsNotSelected(t *testing.T) {
	ran := false
	tools := []adapters.Adapter{
		&stubAdapter{name: models.ToolWebScan, enabled: false, run: func(ctx context.Context, _ models.ScanTarget, _ models.ScanPolicy) (adapters.Outcome, error) {
			ran = true
			return adapters.Outcome{}, nil
		}},
		&stubAdapter{name: models.ToolDepVuln, enabled: true, run: stubFindings(models.ToolDepVuln)},
	}
	fx := newOrchestratorFixture(t, tools, models.ScanPolicy{})

	sub, err := fx.orch.Submit(fx.targetID, fx.policyID)
	require.NoError(t, err)
	assert.Equal(t, []string{models.ToolDepVuln}, sub.Tools)

	waitTerminal(t, fx.jobs, sub.JobID)
	assert.False(t, ran)
}

func TestOrchestratorAppliesExclusions(t *testing.T) {
	tools := []adapters.Adapter{
		&stubAdapter{name: models.ToolWebScan, enabled: true, run: stubFindings(models.ToolWebScan,
			"http://x/api/admin/users",
			"http://x/api/public/users",
		)},
	}
	fx := newOrchestratorFixture(t, tools, models.ScanPolicy{
		AllowedTools: []string{models.ToolWebScan},
		Exclusions:   []string{"*/admin/*"},
	})

	sub, err := fx.orch.Submit(fx.targetID, fx.policyID)
	require.NoError(t, err)

	job := waitTerminal(t, fx.jobs, sub.JobID)
	require.Len(t, job.Findings, 1)
	assert.Equal(t, "http://x/api/public/users", job.Findings[0].Location)
	assert.Equal(t, 1, job.Summary.Total())
}

func TestOrchestratorCancel(t *testing.T) {
	started := make(chan struct{})
	tools := []adapters.Adapter{
		&stubAdapter{name: models.ToolWebScan, enabled: true, run: func(ctx context.Context, _ models.ScanTarget, _ models.ScanPolicy) (adapters.Outcome, error) {
			close(started)
			<-ctx.Done()
			return adapters.Outcome{}, ctx.Err()
		}},
	}
	fx := newOrchestratorFixture(t, tools, models.ScanPolicy{AllowedTools: []string{models.ToolWebScan}})

	sub, err := fx.orch.Submit(fx.targetID, fx.policyID)
	require.NoError(t, err)

	<-started
	cancelled, err := fx.orch.Cancel(sub.JobID)
	require.NoError(t, err)
	assert.True(t, cancelled)

	job := waitTerminal(t, fx.jobs, sub.JobID)
	assert.Equal(t, models.JobCancelled, job.Status)

	// Cancelling a terminal job is a no-op
	again, err := fx.orch.Cancel(sub.JobID)
	require.NoError(t, err)
	assert.False(t, again)
}

func TestOrchestratorSubmitUnknownTargetOrPolicy(t *testing.T) {
	fx := newOrchestratorFixture(t, nil, models.ScanPolicy{})

	_, err := fx.orch.Submit("11111111-1111-1111-1111-111111111111", fx.policyID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = fx.orch.Submit(fx.targetID, "22222222-2222-2222-2222-222222222222")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrchestratorProgressReachesCompletion(t *testing.T) {
	tools := []adapters.Adapter{
		&stubAdapter{name: models.ToolDepVuln, enabled: true, run: stubFindings(models.ToolDepVuln, "x")},
	}
	fx := newOrchestratorFixture(t, tools, models.ScanPolicy{AllowedTools: []string{models.ToolDepVuln}})

	sub, err := fx.orch.Submit(fx.targetID, fx.policyID)
	require.NoError(t, err)
	waitTerminal(t, fx.jobs, sub.JobID)

	require.Eventually(t, func() bool {
		p, err := fx.orch.GetProgress(sub.JobID)
		return err == nil && p.Progress == 100
	}, 5*time.Second, 10*time.Millisecond)

	p, err := fx.orch.GetProgress(sub.JobID)
	require.NoError(t, err)
	assert.Equal(t, string(models.JobCompleted), p.Phase)

	_, err = fx.orch.GetProgress("33333333-3333-3333-3333-333333333333")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrchestratorArchivesReport(t *testing.T) {
	tools := []adapters.Adapter{
		&stubAdapter{name: models.ToolDepVuln, enabled: true, run: stubFindings(models.ToolDepVuln, "x", "y")},
	}
	fx := newOrchestratorFixture(t, tools, models.ScanPolicy{AllowedTools: []string{models.ToolDepVuln}})

	sub, err := fx.orch.Submit(fx.targetID, fx.policyID)
	require.NoError(t, err)
	waitTerminal(t, fx.jobs, sub.JobID)

	require.Eventually(t, func() bool {
		_, err := fx.orch.GetReport(sub.JobID)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	report, err := fx.orch.GetReport(sub.JobID)
	require.NoError(t, err)
	assert.Equal(t, sub.JobID, report.ID)
	assert.Len(t, report.Findings, 2)
	assert.Equal(t, models.JobCompleted, report.Status)
}

func TestEstimateDuration(t *testing.T) {
	active := models.ScanPolicy{ScanMode: models.ModeActive}
	passive := models.ScanPolicy{ScanMode: models.ModePassive}

	assert.Equal(t, "30-45 minutes", estimateDuration(active, []string{models.ToolWebScan}))
	assert.Equal(t, "3-10 minutes", estimateDuration(passive, []string{models.ToolWebScan, models.ToolDepVuln}))
	assert.Equal(t, "1-3 minutes", estimateDuration(active, []string{models.ToolDepVuln}))
}
