package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"scanhub/config"
	"scanhub/pkg/mapping"
	"scanhub/pkg/models"
	"scanhub/pkg/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WebScanAdapter drives a ZAP-compatible web scanner through its
// multi-phase job API: spider the target, wait for passive analysis (or run
// an active scan when the policy allows it), then collect the alert list.
type WebScanAdapter struct {
	cfg        config.WebScanConfig
	log        *utils.Logger
	client     *http.Client
	clock      Clock
	spiderPoll PollPolicy
	activePoll PollPolicy
	settle     time.Duration
}

// NewWebScanAdapter creates the web-scan adapter. Poll ceilings come from
// configuration: discovery defaults to 2 minutes, active testing to 30.
func NewWebScanAdapter(cfg config.WebScanConfig, log *utils.Logger) *WebScanAdapter {
	interval := time.Duration(cfg.PollIntervalSeconds) * time.Second
	return &WebScanAdapter{
		cfg:        cfg,
		log:        log,
		client:     defaultHTTPClient(),
		clock:      SystemClock,
		spiderPoll: PollPolicy{Interval: interval, Timeout: time.Duration(cfg.SpiderTimeoutMin) * time.Minute},
		activePoll: PollPolicy{Interval: interval, Timeout: time.Duration(cfg.ActiveTimeoutMin) * time.Minute},
		settle:     time.Duration(cfg.PassiveSettleSec) * time.Second,
	}
}

func (a *WebScanAdapter) Name() string { return models.ToolWebScan }

func (a *WebScanAdapter) Enabled() bool { return a.cfg.BaseURL != "" }

func (a *WebScanAdapter) Run(ctx context.Context, target models.ScanTarget, policy models.ScanPolicy) (Outcome, error) {
	if !a.Enabled() {
		return skipped(), nil
	}
	urls := target.IdentifiersOf(models.IdentifierURL)
	if len(urls) == 0 {
		return skipped(), nil
	}

	tr := newTransport(a.client, policy.MaxReqPerMin, nil)

	var findings []models.Finding
	for _, targetURL := range urls {
		alerts, err := a.scanOne(ctx, tr, targetURL, policy)
		if err != nil {
			return Outcome{}, fmt.Errorf("web scan of %s: %w", targetURL, err)
		}
		for _, alert := range alerts {
			findings = append(findings, a.toFinding(alert, target.ID))
		}
	}
	return Outcome{Findings: findings}, nil
}

// zapAlert mirrors the scanner's alert JSON; numeric ids arrive as strings
type zapAlert struct {
	Alert       string `json:"alert"`
	Risk        string `json:"risk"`
	Confidence  string `json:"confidence"`
	CWEID       string `json:"cweid"`
	WASCID      string `json:"wascid"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Solution    string `json:"solution"`
	Reference   string `json:"reference"`
}

func (a *WebScanAdapter) scanOne(ctx context.Context, tr *transport, targetURL string, policy models.ScanPolicy) ([]zapAlert, error) {
	scanID, err := a.startSpider(ctx, tr, targetURL, policy.SpiderDepth)
	if err != nil {
		return nil, fmt.Errorf("discovery phase: %w", err)
	}

	err = Poll(ctx, a.clock, a.spiderPoll, func() (bool, error) {
		pct, err := a.phaseStatus(ctx, tr, "/JSON/spider/view/status/", scanID)
		if err != nil {
			return false, err
		}
		ReportProgress(ctx, models.ScanProgress{
			Progress: pct * 40 / 100,
			Phase:    "discovery",
			Message:  fmt.Sprintf("spidering %s", targetURL),
		})
		return pct >= 100, nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovery phase: %w", err)
	}

	discovered, err := a.spiderResultCount(ctx, tr, scanID)
	if err != nil {
		a.log.WithFunc().WithError(err).Debug("Could not read spider result count")
	}

	if policy.ActiveAllowed() {
		if err := a.runActiveScan(ctx, tr, targetURL, discovered); err != nil {
			return nil, err
		}
	} else {
		// Passive mode: give the scanner a fixed settle window to finish
		// analyzing the traffic the spider already generated.
		ReportProgress(ctx, models.ScanProgress{
			Progress:       50,
			Phase:          "passive-analysis",
			URLsDiscovered: discovered,
			Message:        "waiting for passive analysis",
		})
		if err := a.clock.Sleep(ctx, a.settle); err != nil {
			return nil, err
		}
	}

	ReportProgress(ctx, models.ScanProgress{
		Progress:       95,
		Phase:          "collecting",
		URLsDiscovered: discovered,
		Message:        "retrieving alerts",
	})

	var out struct {
		Alerts []zapAlert `json:"alerts"`
	}
	q := url.Values{"baseurl": {targetURL}, "apikey": {a.cfg.APIKey}}
	if err := tr.getJSON(ctx, a.cfg.BaseURL+"/JSON/core/view/alerts/?"+q.Encode(), &out); err != nil {
		return nil, fmt.Errorf("retrieving alerts: %w", err)
	}

	a.log.WithFunc().WithFields(logrus.Fields{
		"target": targetURL,
		"alerts": len(out.Alerts),
	}).Info("Web scan finished")

	return out.Alerts, nil
}

func (a *WebScanAdapter) startSpider(ctx context.Context, tr *transport, targetURL string, depth int) (string, error) {
	q := url.Values{"url": {targetURL}, "apikey": {a.cfg.APIKey}}
	if depth > 0 {
		q.Set("maxDepth", strconv.Itoa(depth))
	}
	var resp struct {
		Scan string `json:"scan"`
	}
	if err := tr.getJSON(ctx, a.cfg.BaseURL+"/JSON/spider/action/scan/?"+q.Encode(), &resp); err != nil {
		return "", err
	}
	return resp.Scan, nil
}

func (a *WebScanAdapter) runActiveScan(ctx context.Context, tr *transport, targetURL string, discovered int) error {
	q := url.Values{"url": {targetURL}, "apikey": {a.cfg.APIKey}}
	var resp struct {
		Scan string `json:"scan"`
	}
	if err := tr.getJSON(ctx, a.cfg.BaseURL+"/JSON/ascan/action/scan/?"+q.Encode(), &resp); err != nil {
		return fmt.Errorf("active phase: %w", err)
	}

	err := Poll(ctx, a.clock, a.activePoll, func() (bool, error) {
		pct, err := a.phaseStatus(ctx, tr, "/JSON/ascan/view/status/", resp.Scan)
		if err != nil {
			return false, err
		}
		ReportProgress(ctx, models.ScanProgress{
			Progress:       40 + pct*55/100,
			Phase:          "active-scan",
			URLsDiscovered: discovered,
			RulesCompleted: pct,
			Message:        fmt.Sprintf("active testing %s", targetURL),
		})
		return pct >= 100, nil
	})
	if err != nil {
		return fmt.Errorf("active phase: %w", err)
	}
	return nil
}

func (a *WebScanAdapter) phaseStatus(ctx context.Context, tr *transport, path, scanID string) (int, error) {
	q := url.Values{"scanId": {scanID}, "apikey": {a.cfg.APIKey}}
	var resp struct {
		Status string `json:"status"`
	}
	if err := tr.getJSON(ctx, a.cfg.BaseURL+path+"?"+q.Encode(), &resp); err != nil {
		return 0, err
	}
	pct, err := strconv.Atoi(resp.Status)
	if err != nil {
		return 0, fmt.Errorf("unexpected status %q", resp.Status)
	}
	return pct, nil
}

func (a *WebScanAdapter) spiderResultCount(ctx context.Context, tr *transport, scanID string) (int, error) {
	q := url.Values{"scanId": {scanID}, "apikey": {a.cfg.APIKey}}
	var resp struct {
		Results []string `json:"results"`
	}
	if err := tr.getJSON(ctx, a.cfg.BaseURL+"/JSON/spider/view/results/?"+q.Encode(), &resp); err != nil {
		return 0, err
	}
	return len(resp.Results), nil
}

func (a *WebScanAdapter) toFinding(alert zapAlert, targetID string) models.Finding {
	cwe, _ := strconv.Atoi(alert.CWEID)
	wasc, _ := strconv.Atoi(alert.WASCID)

	raw := alert.toRaw(cwe, wasc)
	return models.Finding{
		ID:             uuid.NewString(),
		Title:          alert.Alert,
		Severity:       mapping.WebScanSeverity(alert.Risk),
		Status:         models.FindingOpen,
		Tool:           models.ToolWebScan,
		TargetID:       targetID,
		Location:       alert.URL,
		OWASPTags:      mapping.OWASPTags(cwe, wasc, alert.Alert),
		FirstSeen:      a.clock.Now(),
		Description:    alert.Description,
		Recommendation: alert.Solution,
		Raw:            models.RawPayload{Tool: models.ToolWebScan, WebScan: &raw},
	}
}

func (z zapAlert) toRaw(cwe, wasc int) models.WebScanAlert {
	return models.WebScanAlert{
		Name:        z.Alert,
		Risk:        z.Risk,
		Confidence:  z.Confidence,
		CWEID:       cwe,
		WASCID:      wasc,
		URL:         z.URL,
		Description: z.Description,
		Solution:    z.Solution,
		Reference:   z.Reference,
	}
}
