package service

import (
	"testing"
	"time"

	"scanhub/pkg/models"
	"scanhub/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *utils.Logger {
	return utils.NewLogger(utils.Config{LogLevel: "error"})
}

func TestTargetStoreCRUD(t *testing.T) {
	store := NewTargetStore(testLogger())

	created, err := store.Create(models.ScanTarget{
		Name: "demo",
		Identifiers: []models.TargetIdentifier{
			{Type: models.IdentifierURL, Value: "https://demo.example.com"},
			{Type: models.IdentifierNPM, Value: "lodash@4.17.21"},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "demo", got.Name)

	updated, err := store.Update(created.ID, models.ScanTarget{
		Name:        "demo-renamed",
		Identifiers: created.Identifiers,
	})
	require.NoError(t, err)
	assert.Equal(t, "demo-renamed", updated.Name)
	assert.Equal(t, created.ID, updated.ID)

	require.NoError(t, store.Delete(created.ID))
	_, err = store.Get(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTargetStoreValidation(t *testing.T) {
	store := NewTargetStore(testLogger())

	tests := []struct {
		name   string
		target models.ScanTarget
	}{
		{"missing name", models.ScanTarget{}},
		{"bad url scheme", models.ScanTarget{Name: "x", Identifiers: []models.TargetIdentifier{
			{Type: models.IdentifierURL, Value: "ftp://host"},
		}}},
		{"url without host", models.ScanTarget{Name: "x", Identifiers: []models.TargetIdentifier{
			{Type: models.IdentifierURL, Value: "https://"},
		}}},
		{"bad repo slug", models.ScanTarget{Name: "x", Identifiers: []models.TargetIdentifier{
			{Type: models.IdentifierRepository, Value: "not a slug"},
		}}},
		{"unknown identifier type", models.ScanTarget{Name: "x", Identifiers: []models.TargetIdentifier{
			{Type: "dns", Value: "example.com"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(tt.target)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestTargetStoreListOrdered(t *testing.T) {
	store := NewTargetStore(testLogger())
	first, _ := store.Create(models.ScanTarget{Name: "a"})
	second, _ := store.Create(models.ScanTarget{Name: "b"})

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestPolicyStoreDefaults(t *testing.T) {
	store := NewPolicyStore(testLogger())

	created, err := store.Create(models.ScanPolicy{Name: "default"})
	require.NoError(t, err)
	assert.Equal(t, models.ModePassive, created.ScanMode)
	assert.Equal(t, models.AllTools(), created.AllowedTools)
}

func TestPolicyStoreValidation(t *testing.T) {
	store := NewPolicyStore(testLogger())

	tests := []struct {
		name   string
		policy models.ScanPolicy
	}{
		{"missing name", models.ScanPolicy{}},
		{"unknown mode", models.ScanPolicy{Name: "p", ScanMode: "aggressive"}},
		{"negative rate", models.ScanPolicy{Name: "p", MaxReqPerMin: -1}},
		{"negative depth", models.ScanPolicy{Name: "p", SpiderDepth: -2}},
		{"unknown tool", models.ScanPolicy{Name: "p", AllowedTools: []string{"nmap"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(tt.policy)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestPolicyStoreUpdate(t *testing.T) {
	store := NewPolicyStore(testLogger())
	created, err := store.Create(models.ScanPolicy{Name: "web-only"})
	require.NoError(t, err)

	updated, err := store.Update(created.ID, models.ScanPolicy{
		Name:         "web-only",
		AllowedTools: []string{models.ToolWebScan},
		ScanMode:     models.ModeActive,
		Exclusions:   []string{"/logout*"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{models.ToolWebScan}, updated.AllowedTools)
	assert.True(t, updated.ActiveAllowed())
	assert.Equal(t, created.ID, updated.ID)

	_, err = store.Update("missing-id", models.ScanPolicy{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func runningJob(id string, findings ...models.Finding) models.ScanJob {
	return models.ScanJob{
		ID:        id,
		Status:    models.JobRunning,
		StartedAt: time.Now(),
		Findings:  findings,
	}
}

func TestJobStoreFinishIsAtomicAndMonotonic(t *testing.T) {
	store := NewJobStore(testLogger())
	store.Put(runningJob("job-1"))

	findings := []models.Finding{{ID: "f-1", Severity: models.SeverityHigh}}
	var summary models.Summary
	summary.Add(models.SeverityHigh)

	require.NoError(t, store.Finish("job-1", models.JobCompleted, findings, summary, nil))

	job, err := store.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, job.Status)
	assert.Len(t, job.Findings, 1)
	assert.Equal(t, 1, job.Summary.High)
	require.NotNil(t, job.FinishedAt)

	// A later transition on a terminal job must not overwrite the record
	require.NoError(t, store.Finish("job-1", models.JobFailed, nil, models.Summary{}, []string{"late"}))
	job, _ = store.Get("job-1")
	assert.Equal(t, models.JobCompleted, job.Status)
	assert.Len(t, job.Findings, 1)
}

func TestJobStoreFinishRejectsNonTerminal(t *testing.T) {
	store := NewJobStore(testLogger())
	store.Put(runningJob("job-2"))

	err := store.Finish("job-2", models.JobRunning, nil, models.Summary{}, nil)
	require.Error(t, err)
}

func TestJobStorePrune(t *testing.T) {
	store := NewJobStore(testLogger())

	old := runningJob("job-old")
	store.Put(old)
	require.NoError(t, store.Finish("job-old", models.JobCompleted, nil, models.Summary{}, nil))

	// Backdate the finish timestamp past the cutoff
	job, _ := store.Get("job-old")
	past := job.FinishedAt.Add(-48 * time.Hour)
	job.FinishedAt = &past
	store.Put(job)

	store.Put(runningJob("job-active"))

	pruned := store.Prune(time.Now().Add(-24 * time.Hour))
	assert.Equal(t, 1, pruned)

	_, err := store.Get("job-old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get("job-active")
	assert.NoError(t, err)
}

func TestJobStoreQueryFindings(t *testing.T) {
	store := NewJobStore(testLogger())
	base := time.Now()

	store.Put(runningJob("job-a",
		models.Finding{ID: "f-1", Severity: models.SeverityHigh, Tool: models.ToolWebScan, TargetID: "t-1", Status: models.FindingOpen, FirstSeen: base.Add(2 * time.Second)},
		models.Finding{ID: "f-2", Severity: models.SeverityLow, Tool: models.ToolDepVuln, TargetID: "t-1", Status: models.FindingOpen, FirstSeen: base},
	))
	store.Put(runningJob("job-b",
		models.Finding{ID: "f-3", Severity: models.SeverityHigh, Tool: models.ToolWebScan, TargetID: "t-2", Status: models.FindingFixed, FirstSeen: base.Add(time.Second)},
	))

	all := store.QueryFindings(models.FindingQuery{})
	require.Len(t, all, 3)
	// Ordered by first-seen across jobs
	assert.Equal(t, "f-2", all[0].ID)
	assert.Equal(t, "f-3", all[1].ID)
	assert.Equal(t, "f-1", all[2].ID)

	high := store.QueryFindings(models.FindingQuery{Severity: "high"})
	assert.Len(t, high, 2)

	filtered := store.QueryFindings(models.FindingQuery{Severity: "high", TargetID: "t-1"})
	require.Len(t, filtered, 1)
	assert.Equal(t, "f-1", filtered[0].ID)

	fixed := store.QueryFindings(models.FindingQuery{Status: "fixed"})
	require.Len(t, fixed, 1)
	assert.Equal(t, "f-3", fixed[0].ID)
}

func TestJobStoreUpdateFindingStatus(t *testing.T) {
	store := NewJobStore(testLogger())
	store.Put(runningJob("job-c",
		models.Finding{ID: "f-9", Status: models.FindingOpen},
	))

	updated, err := store.UpdateFindingStatus("f-9", models.FindingAcceptedRisk, "internal tool, not exposed")
	require.NoError(t, err)
	assert.Equal(t, models.FindingAcceptedRisk, updated.Status)
	assert.Equal(t, "internal tool, not exposed", updated.Justification)

	job, _ := store.Get("job-c")
	assert.Equal(t, models.FindingAcceptedRisk, job.Findings[0].Status)

	_, err = store.UpdateFindingStatus("f-9", "bogus", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = store.UpdateFindingStatus("missing", models.FindingFixed, "")
	assert.ErrorIs(t, err, ErrNotFound)
}
