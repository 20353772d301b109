package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"scanhub/pkg/models"
	service "scanhub/pkg/services"
	"scanhub/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *utils.Logger {
	return utils.NewLogger(utils.Config{LogLevel: "error"})
}

func newScanApp(scans *MockScanService) *fiber.App {
	h := NewScanHandler(scans, testLogger())
	app := fiber.New()
	app.Post("/scans", h.Submit)
	app.Get("/scans/:jobId", h.Status)
	app.Get("/scans/:jobId/progress", h.Progress)
	app.Post("/scans/:jobId/cancel", h.Cancel)
	app.Get("/scans/:jobId/report", h.Report)
	return app
}

func TestSubmitRequiresConsent(t *testing.T) {
	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"no consent at all", map[string]interface{}{
			"targetId": "t-1", "policyId": "p-1",
		}},
		{"consent without attestation", map[string]interface{}{
			"targetId": "t-1", "policyId": "p-1", "consentAccepted": true,
		}},
		{"attestation without consent", map[string]interface{}{
			"targetId": "t-1", "policyId": "p-1", "ownershipAttested": true,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scans := new(MockScanService)
			app := newScanApp(scans)

			payload, _ := json.Marshal(tt.body)
			req := httptest.NewRequest("POST", "/scans", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, 400, resp.StatusCode)

			// The gate fires before any service call
			scans.AssertNotCalled(t, "Submit")
		})
	}
}

func TestSubmitAccepted(t *testing.T) {
	scans := new(MockScanService)
	scans.On("Submit", "t-1", "p-1").Return(&models.ScanSubmission{
		JobID:             "job-1",
		Status:            models.JobRunning,
		EstimatedDuration: "3-10 minutes",
		Tools:             []string{models.ToolWebScan},
	}, nil)
	app := newScanApp(scans)

	payload, _ := json.Marshal(map[string]interface{}{
		"targetId":          "t-1",
		"policyId":          "p-1",
		"consentAccepted":   true,
		"ownershipAttested": true,
		"scopeSnapshot":     "https://demo.example.com only",
	})
	req := httptest.NewRequest("POST", "/scans", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 202, resp.StatusCode)

	var sub models.ScanSubmission
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sub))
	assert.Equal(t, "job-1", sub.JobID)
	assert.Equal(t, models.JobRunning, sub.Status)

	scans.AssertExpectations(t)
}

func TestSubmitMissingIDs(t *testing.T) {
	scans := new(MockScanService)
	app := newScanApp(scans)

	payload, _ := json.Marshal(map[string]interface{}{
		"consentAccepted": true, "ownershipAttested": true,
	})
	req := httptest.NewRequest("POST", "/scans", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	scans.AssertNotCalled(t, "Submit")
}

func TestSubmitUnknownTarget(t *testing.T) {
	scans := new(MockScanService)
	scans.On("Submit", "t-missing", "p-1").Return(nil, fmt.Errorf("target t-missing: %w", service.ErrNotFound))
	app := newScanApp(scans)

	payload, _ := json.Marshal(map[string]interface{}{
		"targetId": "t-missing", "policyId": "p-1",
		"consentAccepted": true, "ownershipAttested": true,
	})
	req := httptest.NewRequest("POST", "/scans", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestStatusReturnsJob(t *testing.T) {
	scans := new(MockScanService)
	scans.On("GetJob", "job-1").Return(&models.ScanJob{
		ID:     "job-1",
		Status: models.JobCompleted,
		Summary: models.Summary{
			High: 2, Low: 1,
		},
	}, nil)
	app := newScanApp(scans)

	resp, err := app.Test(httptest.NewRequest("GET", "/scans/job-1", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var job models.ScanJob
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	assert.Equal(t, models.JobCompleted, job.Status)
	assert.Equal(t, 3, job.Summary.Total())
}

func TestStatusNotFound(t *testing.T) {
	scans := new(MockScanService)
	scans.On("GetJob", "nope").Return(nil, fmt.Errorf("job nope: %w", service.ErrNotFound))
	app := newScanApp(scans)

	resp, err := app.Test(httptest.NewRequest("GET", "/scans/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestProgressEndpoint(t *testing.T) {
	scans := new(MockScanService)
	scans.On("GetProgress", "job-1").Return(&models.ScanProgress{
		Progress: 40, Phase: "discovery", URLsDiscovered: 12,
	}, nil)
	app := newScanApp(scans)

	resp, err := app.Test(httptest.NewRequest("GET", "/scans/job-1/progress", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var p models.ScanProgress
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	assert.Equal(t, 40, p.Progress)
	assert.Equal(t, "discovery", p.Phase)
}

func TestCancelEndpoint(t *testing.T) {
	scans := new(MockScanService)
	scans.On("Cancel", "job-1").Return(true, nil)
	app := newScanApp(scans)

	resp, err := app.Test(httptest.NewRequest("POST", "/scans/job-1/cancel", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var out map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out["cancelled"])
}

func TestReportEndpoint(t *testing.T) {
	scans := new(MockScanService)
	scans.On("GetReport", "job-1").Return(&models.ScanJob{ID: "job-1", Status: models.JobCompleted}, nil)
	app := newScanApp(scans)

	resp, err := app.Test(httptest.NewRequest("GET", "/scans/job-1/report", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
