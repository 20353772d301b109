package interfaces

import "scanhub/pkg/models"

// ScanServiceInterface drives scan jobs and exposes their state for polling
type ScanServiceInterface interface {
	// Submit accepts a scan and returns before any tool executes
	Submit(targetID, policyID string) (*models.ScanSubmission, error)
	// GetJob returns the full job record
	GetJob(id string) (*models.ScanJob, error)
	// GetProgress returns a coarse, best-effort progress view
	GetProgress(id string) (*models.ScanProgress, error)
	// Cancel requests best-effort cancellation of a running job
	Cancel(id string) (bool, error)
	// GetReport returns the archived report for a terminal job
	GetReport(id string) (*models.ScanJob, error)
}

// TargetServiceInterface manages scan targets
type TargetServiceInterface interface {
	Create(target models.ScanTarget) (models.ScanTarget, error)
	Get(id string) (models.ScanTarget, error)
	List() []models.ScanTarget
	Update(id string, target models.ScanTarget) (models.ScanTarget, error)
	Delete(id string) error
}

// PolicyServiceInterface manages scan policies
type PolicyServiceInterface interface {
	Create(policy models.ScanPolicy) (models.ScanPolicy, error)
	Get(id string) (models.ScanPolicy, error)
	List() []models.ScanPolicy
	Update(id string, policy models.ScanPolicy) (models.ScanPolicy, error)
	Delete(id string) error
}

// FindingServiceInterface reads and triages findings across jobs
type FindingServiceInterface interface {
	QueryFindings(q models.FindingQuery) []models.Finding
	UpdateFindingStatus(id string, status models.FindingStatus, justification string) (models.Finding, error)
}
