package adapters

import (
	"context"
	"fmt"
	"net/http"

	"scanhub/config"
	"scanhub/pkg/mapping"
	"scanhub/pkg/models"
	"scanhub/pkg/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AdvisoriesAdapter reads published security advisories for an owner/repo
// from the source host's API. Single request, no polling. Disabled without
// an access token.
type AdvisoriesAdapter struct {
	cfg    config.AdvisoriesConfig
	log    *utils.Logger
	client *http.Client
	clock  Clock
}

func NewAdvisoriesAdapter(cfg config.AdvisoriesConfig, log *utils.Logger) *AdvisoriesAdapter {
	return &AdvisoriesAdapter{
		cfg:    cfg,
		log:    log,
		client: defaultHTTPClient(),
		clock:  SystemClock,
	}
}

func (a *AdvisoriesAdapter) Name() string { return models.ToolAdvisories }

func (a *AdvisoriesAdapter) Enabled() bool {
	return a.cfg.BaseURL != "" && a.cfg.Token != ""
}

func (a *AdvisoriesAdapter) Run(ctx context.Context, target models.ScanTarget, policy models.ScanPolicy) (Outcome, error) {
	if !a.Enabled() {
		return skipped(), nil
	}
	repos := target.IdentifiersOf(models.IdentifierRepository)
	if len(repos) == 0 {
		return skipped(), nil
	}

	tr := newTransport(a.client, policy.MaxReqPerMin, map[string]string{
		"Authorization": "Bearer " + a.cfg.Token,
		"Accept":        "application/vnd.github+json",
	})

	var findings []models.Finding
	for _, repo := range repos {
		if err := utils.ValidateRepoSlug(repo); err != nil {
			a.log.WithFunc().WithField("repository", repo).Debug("Skipping identifier without owner/repo form")
			continue
		}

		var advisories []ghAdvisory
		url := fmt.Sprintf("%s/repos/%s/security-advisories", a.cfg.BaseURL, repo)
		if err := tr.getJSON(ctx, url, &advisories); err != nil {
			return Outcome{}, fmt.Errorf("advisory query for %s: %w", repo, err)
		}
		for _, adv := range advisories {
			findings = append(findings, a.toFinding(adv, repo, target.ID))
		}
	}

	a.log.WithFunc().WithFields(logrus.Fields{
		"repositories": len(repos),
		"findings":     len(findings),
	}).Info("Advisory query finished")

	return Outcome{Findings: findings}, nil
}

// ghAdvisory mirrors the source host's advisory record
type ghAdvisory struct {
	GHSAID      string `json:"ghsa_id"`
	CVEID       string `json:"cve_id"`
	Severity    string `json:"severity"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
}

func (a *AdvisoriesAdapter) toFinding(adv ghAdvisory, repo, targetID string) models.Finding {
	raw := models.AdvisoryRecord{
		GHSAID:      adv.GHSAID,
		CVEID:       adv.CVEID,
		Severity:    adv.Severity,
		Summary:     adv.Summary,
		Description: adv.Description,
		HTMLURL:     adv.HTMLURL,
	}

	title := adv.Summary
	if title == "" {
		title = adv.GHSAID
	}

	return models.Finding{
		ID:             uuid.NewString(),
		Title:          title,
		Severity:       mapping.AdvisorySeverity(adv.Severity),
		Status:         models.FindingOpen,
		Tool:           models.ToolAdvisories,
		TargetID:       targetID,
		Location:       repo,
		OWASPTags:      mapping.AdvisoryTags(),
		FirstSeen:      a.clock.Now(),
		Description:    adv.Description,
		Recommendation: "Review the advisory and apply the published fix",
		Raw:            models.RawPayload{Tool: models.ToolAdvisories, Advisories: &raw},
	}
}
