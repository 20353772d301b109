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

// ContainerAdapter submits scan-by-reference requests to a Trivy-style
// scanner server, one call per declared container identifier.
type ContainerAdapter struct {
	cfg    config.ContainerConfig
	log    *utils.Logger
	client *http.Client
	clock  Clock
}

func NewContainerAdapter(cfg config.ContainerConfig, log *utils.Logger) *ContainerAdapter {
	return &ContainerAdapter{
		cfg:    cfg,
		log:    log,
		client: defaultHTTPClient(),
		clock:  SystemClock,
	}
}

func (a *ContainerAdapter) Name() string { return models.ToolContainer }

func (a *ContainerAdapter) Enabled() bool { return a.cfg.ServerURL != "" }

func (a *ContainerAdapter) Run(ctx context.Context, target models.ScanTarget, policy models.ScanPolicy) (Outcome, error) {
	if !a.Enabled() {
		return skipped(), nil
	}
	images := target.IdentifiersOf(models.IdentifierContainer)
	if len(images) == 0 {
		return skipped(), nil
	}

	tr := newTransport(a.client, policy.MaxReqPerMin, nil)

	var findings []models.Finding
	for _, image := range images {
		report, err := a.scan(ctx, tr, image)
		if err != nil {
			return Outcome{}, fmt.Errorf("container scan of %s: %w", image, err)
		}
		for _, result := range report.Results {
			for _, vuln := range result.Vulnerabilities {
				findings = append(findings, a.toFinding(vuln, image, target.ID))
			}
		}
	}

	a.log.WithFunc().WithFields(logrus.Fields{
		"images":   len(images),
		"findings": len(findings),
	}).Info("Container scan finished")

	return Outcome{Findings: findings}, nil
}

// trivyVuln mirrors one vulnerability entry in the scanner server's report
type trivyVuln struct {
	VulnerabilityID  string `json:"VulnerabilityID"`
	PkgName          string `json:"PkgName"`
	InstalledVersion string `json:"InstalledVersion"`
	FixedVersion     string `json:"FixedVersion"`
	Severity         string `json:"Severity"`
	Description      string `json:"Description"`
	PrimaryURL       string `json:"PrimaryURL"`
}

type scanReport struct {
	Results []struct {
		Target          string      `json:"Target"`
		Vulnerabilities []trivyVuln `json:"Vulnerabilities"`
	} `json:"Results"`
}

func (a *ContainerAdapter) scan(ctx context.Context, tr *transport, image string) (*scanReport, error) {
	var report scanReport
	req := map[string]string{"reference": image}
	if err := tr.postJSON(ctx, a.cfg.ServerURL+"/v1/scan", req, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (a *ContainerAdapter) toFinding(vuln trivyVuln, image, targetID string) models.Finding {
	raw := models.ContainerVuln{
		ID:          vuln.VulnerabilityID,
		Severity:    vuln.Severity,
		Package:     vuln.PkgName,
		Version:     vuln.InstalledVersion,
		FixedIn:     vuln.FixedVersion,
		Description: vuln.Description,
		Link:        vuln.PrimaryURL,
	}

	recommendation := "No fixed version available yet"
	if vuln.FixedVersion != "" {
		recommendation = fmt.Sprintf("Upgrade %s to %s", vuln.PkgName, vuln.FixedVersion)
	}

	return models.Finding{
		ID:             uuid.NewString(),
		Title:          fmt.Sprintf("%s in %s", vuln.VulnerabilityID, vuln.PkgName),
		Severity:       mapping.ContainerSeverity(vuln.Severity),
		Status:         models.FindingOpen,
		Tool:           models.ToolContainer,
		TargetID:       targetID,
		Location:       fmt.Sprintf("%s: %s@%s", image, vuln.PkgName, vuln.InstalledVersion),
		OWASPTags:      mapping.DependencyTags(),
		FirstSeen:      a.clock.Now(),
		Description:    vuln.Description,
		Recommendation: recommendation,
		Raw:            models.RawPayload{Tool: models.ToolContainer, Container: &raw},
	}
}
