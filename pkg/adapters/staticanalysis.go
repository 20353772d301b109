package adapters

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"scanhub/config"
	"scanhub/pkg/mapping"
	"scanhub/pkg/models"
	"scanhub/pkg/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// StaticAnalysisAdapter submits scan-by-repository requests to a
// Semgrep-style static-analysis service and fetches the results once the
// scan reports complete. Disabled without an API key.
type StaticAnalysisAdapter struct {
	cfg    config.StaticConfig
	log    *utils.Logger
	client *http.Client
	clock  Clock
	poll   PollPolicy
}

func NewStaticAnalysisAdapter(cfg config.StaticConfig, log *utils.Logger) *StaticAnalysisAdapter {
	return &StaticAnalysisAdapter{
		cfg:    cfg,
		log:    log,
		client: defaultHTTPClient(),
		clock:  SystemClock,
		poll:   PollPolicy{Interval: 5 * time.Second, Timeout: 10 * time.Minute},
	}
}

func (a *StaticAnalysisAdapter) Name() string { return models.ToolStatic }

func (a *StaticAnalysisAdapter) Enabled() bool {
	return a.cfg.BaseURL != "" && a.cfg.APIKey != ""
}

func (a *StaticAnalysisAdapter) Run(ctx context.Context, target models.ScanTarget, policy models.ScanPolicy) (Outcome, error) {
	if !a.Enabled() {
		return skipped(), nil
	}
	repos := target.IdentifiersOf(models.IdentifierRepository)
	if len(repos) == 0 {
		return skipped(), nil
	}

	tr := newTransport(a.client, policy.MaxReqPerMin, map[string]string{
		"Authorization": "Bearer " + a.cfg.APIKey,
	})

	var findings []models.Finding
	for _, repo := range repos {
		results, err := a.scanRepo(ctx, tr, repo)
		if err != nil {
			return Outcome{}, fmt.Errorf("static analysis of %s: %w", repo, err)
		}
		for _, r := range results {
			findings = append(findings, a.toFinding(r, repo, target.ID))
		}
	}

	a.log.WithFunc().WithFields(logrus.Fields{
		"repositories": len(repos),
		"findings":     len(findings),
	}).Info("Static analysis finished")

	return Outcome{Findings: findings}, nil
}

// sastResult mirrors one finding from the analysis service
type sastResult struct {
	CheckID  string `json:"check_id"`
	Severity string `json:"severity"`
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Message  string `json:"message"`
	Fix      string `json:"fix"`
}

func (a *StaticAnalysisAdapter) scanRepo(ctx context.Context, tr *transport, repo string) ([]sastResult, error) {
	var submitted struct {
		ID string `json:"id"`
	}
	req := map[string]string{"repository": repo}
	if err := tr.postJSON(ctx, a.cfg.BaseURL+"/api/v1/scans", req, &submitted); err != nil {
		return nil, err
	}

	err := Poll(ctx, a.clock, a.poll, func() (bool, error) {
		var status struct {
			State string `json:"state"`
		}
		if err := tr.getJSON(ctx, a.cfg.BaseURL+"/api/v1/scans/"+submitted.ID, &status); err != nil {
			return false, err
		}
		if status.State == "failed" {
			return false, fmt.Errorf("analysis reported failure for %s", repo)
		}
		return status.State == "complete", nil
	})
	if err != nil {
		return nil, err
	}

	var results struct {
		Findings []sastResult `json:"findings"`
	}
	if err := tr.getJSON(ctx, a.cfg.BaseURL+"/api/v1/scans/"+submitted.ID+"/findings", &results); err != nil {
		return nil, err
	}
	return results.Findings, nil
}

func (a *StaticAnalysisAdapter) toFinding(r sastResult, repo, targetID string) models.Finding {
	raw := models.StaticFinding{
		RuleID:      r.CheckID,
		Severity:    r.Severity,
		Path:        r.Path,
		Line:        r.Line,
		Message:     r.Message,
		Remediation: r.Fix,
	}

	return models.Finding{
		ID:             uuid.NewString(),
		Title:          r.CheckID,
		Severity:       mapping.StaticSeverity(r.Severity),
		Status:         models.FindingOpen,
		Tool:           models.ToolStatic,
		TargetID:       targetID,
		Location:       fmt.Sprintf("%s:%s:%d", repo, r.Path, r.Line),
		OWASPTags:      mapping.OWASPTags(0, 0, r.Message),
		FirstSeen:      a.clock.Now(),
		Description:    r.Message,
		Recommendation: r.Fix,
		Raw:            models.RawPayload{Tool: models.ToolStatic, Static: &raw},
	}
}
