package adapters

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"scanhub/config"
	"scanhub/pkg/mapping"
	"scanhub/pkg/models"
	"scanhub/pkg/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DepVulnAdapter queries an OSV-compatible dependency-vulnerability
// database, one query per declared package identifier.
type DepVulnAdapter struct {
	cfg    config.DepVulnConfig
	log    *utils.Logger
	client *http.Client
	clock  Clock
}

func NewDepVulnAdapter(cfg config.DepVulnConfig, log *utils.Logger) *DepVulnAdapter {
	return &DepVulnAdapter{
		cfg:    cfg,
		log:    log,
		client: defaultHTTPClient(),
		clock:  SystemClock,
	}
}

func (a *DepVulnAdapter) Name() string { return models.ToolDepVuln }

func (a *DepVulnAdapter) Enabled() bool { return a.cfg.BaseURL != "" }

func (a *DepVulnAdapter) Run(ctx context.Context, target models.ScanTarget, policy models.ScanPolicy) (Outcome, error) {
	if !a.Enabled() {
		return skipped(), nil
	}
	packages := target.IdentifiersOf(models.IdentifierNPM)
	if len(packages) == 0 {
		return skipped(), nil
	}

	tr := newTransport(a.client, policy.MaxReqPerMin, nil)

	var findings []models.Finding
	for _, coord := range packages {
		name, version := splitCoordinate(coord)
		vulns, err := a.query(ctx, tr, name, version)
		if err != nil {
			return Outcome{}, fmt.Errorf("dependency query for %s: %w", coord, err)
		}
		for _, v := range vulns {
			findings = append(findings, a.toFinding(v, name, version, target.ID))
		}
	}

	a.log.WithFunc().WithFields(logrus.Fields{
		"packages": len(packages),
		"findings": len(findings),
	}).Info("Dependency scan finished")

	return Outcome{Findings: findings}, nil
}

// osvVuln mirrors the database's vulnerability record
type osvVuln struct {
	ID       string   `json:"id"`
	Summary  string   `json:"summary"`
	Details  string   `json:"details"`
	Aliases  []string `json:"aliases"`
	Severity []struct {
		Type  string `json:"type"`
		Score string `json:"score"`
	} `json:"severity"`
}

func (a *DepVulnAdapter) query(ctx context.Context, tr *transport, name, version string) ([]osvVuln, error) {
	req := map[string]interface{}{
		"package": map[string]string{
			"name":      name,
			"ecosystem": "npm",
		},
	}
	if version != "" {
		req["version"] = version
	}

	var resp struct {
		Vulns []osvVuln `json:"vulns"`
	}
	if err := tr.postJSON(ctx, a.cfg.BaseURL+"/v1/query", req, &resp); err != nil {
		return nil, err
	}
	return resp.Vulns, nil
}

func (a *DepVulnAdapter) toFinding(v osvVuln, name, version, targetID string) models.Finding {
	score := maxScore(v)
	raw := models.DependencyVuln{
		ID:        v.ID,
		Package:   name,
		Version:   version,
		Ecosystem: "npm",
		Summary:   v.Summary,
		Details:   v.Details,
		Score:     score,
		Aliases:   v.Aliases,
	}

	title := v.Summary
	if title == "" {
		title = fmt.Sprintf("%s in %s", v.ID, name)
	}

	location := name
	if version != "" {
		location = name + "@" + version
	}

	return models.Finding{
		ID:             uuid.NewString(),
		Title:          title,
		Severity:       mapping.ScoreSeverity(score),
		Status:         models.FindingOpen,
		Tool:           models.ToolDepVuln,
		TargetID:       targetID,
		Location:       location,
		OWASPTags:      mapping.DependencyTags(),
		FirstSeen:      a.clock.Now(),
		Description:    v.Details,
		Recommendation: fmt.Sprintf("Upgrade %s to a version without %s", name, v.ID),
		Raw:            models.RawPayload{Tool: models.ToolDepVuln, DepVuln: &raw},
	}
}

// maxScore returns the highest numeric score among the scored entries;
// unparsable scores are ignored.
func maxScore(v osvVuln) float64 {
	var max float64
	for _, s := range v.Severity {
		if score, err := strconv.ParseFloat(s.Score, 64); err == nil && score > max {
			max = score
		}
	}
	return max
}

// splitCoordinate parses a package identifier of the form name or
// name@version; scoped names (@scope/name) keep their leading @.
func splitCoordinate(coord string) (name, version string) {
	idx := strings.LastIndex(coord, "@")
	if idx <= 0 {
		return coord, ""
	}
	return coord[:idx], coord[idx+1:]
}
