package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"scanhub/pkg/models"
	"scanhub/pkg/utils"
)

// ReportArchive writes terminal job records to disk as JSON for audit.
// Archiving is best-effort: a write failure is logged by the caller and
// never fails the job itself.
type ReportArchive struct {
	dir string
	log *utils.Logger
}

func NewReportArchive(storagePath string, log *utils.Logger) *ReportArchive {
	dir := filepath.Join(storagePath, "scan-reports")
	os.MkdirAll(dir, 0755)

	return &ReportArchive{dir: dir, log: log}
}

// Save writes the job record as pretty-printed JSON keyed by job id
func (a *ReportArchive) Save(job models.ScanJob) error {
	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(a.reportPath(job.ID), data, 0644)
}

// Load reads back an archived job report
func (a *ReportArchive) Load(jobID string) (*models.ScanJob, error) {
	if err := utils.ValidateUUID(jobID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	data, err := os.ReadFile(a.reportPath(jobID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("report %s: %w", jobID, ErrNotFound)
		}
		return nil, err
	}

	var job models.ScanJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (a *ReportArchive) reportPath(jobID string) string {
	return filepath.Join(a.dir, jobID+".json")
}
