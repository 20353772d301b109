package handlers

import (
	"scanhub/pkg/interfaces"
	"scanhub/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ScanHandler handles scan submission, polling and cancellation
type ScanHandler struct {
	scans interfaces.ScanServiceInterface
	log   *utils.Logger
}

func NewScanHandler(scans interfaces.ScanServiceInterface, log *utils.Logger) *ScanHandler {
	return &ScanHandler{scans: scans, log: log}
}

// scanRequest is the submission body. Both consent booleans are a mandatory
// safety gate: without them no job is created.
type scanRequest struct {
	TargetID          string `json:"targetId"`
	PolicyID          string `json:"policyId"`
	ConsentAccepted   bool   `json:"consentAccepted"`
	OwnershipAttested bool   `json:"ownershipAttested"`
	ScopeSnapshot     string `json:"scopeSnapshot"`
}

// Submit accepts a scan request
// POST /scans
func (h *ScanHandler) Submit(c *fiber.Ctx) error {
	var body scanRequest
	if err := c.BodyParser(&body); err != nil {
		return HTTPError(c, 400, "invalid request body")
	}

	if body.TargetID == "" || body.PolicyID == "" {
		return HTTPError(c, 400, "targetId and policyId are required")
	}
	if !body.ConsentAccepted || !body.OwnershipAttested {
		return HTTPError(c, 400, "scan consent and ownership attestation are required")
	}

	submission, err := h.scans.Submit(body.TargetID, body.PolicyID)
	if err != nil {
		return ServiceError(c, err)
	}

	h.log.WithFunc().WithFields(logrus.Fields{
		"job":    submission.JobID,
		"target": body.TargetID,
		"scope":  body.ScopeSnapshot,
	}).Info("Scan submitted")

	return c.Status(202).JSON(submission)
}

// Status returns the full job record
// GET /scans/:jobId
func (h *ScanHandler) Status(c *fiber.Ctx) error {
	job, err := h.scans.GetJob(c.Params("jobId"))
	if err != nil {
		return ServiceError(c, err)
	}
	return c.JSON(job)
}

// Progress returns the coarse progress view for a running job
// GET /scans/:jobId/progress
func (h *ScanHandler) Progress(c *fiber.Ctx) error {
	progress, err := h.scans.GetProgress(c.Params("jobId"))
	if err != nil {
		return ServiceError(c, err)
	}
	return c.JSON(progress)
}

// Cancel requests best-effort cancellation
// POST /scans/:jobId/cancel
func (h *ScanHandler) Cancel(c *fiber.Ctx) error {
	cancelled, err := h.scans.Cancel(c.Params("jobId"))
	if err != nil {
		return ServiceError(c, err)
	}
	return c.JSON(fiber.Map{"cancelled": cancelled})
}

// Report returns the archived report for a terminal job
// GET /scans/:jobId/report
func (h *ScanHandler) Report(c *fiber.Ctx) error {
	report, err := h.scans.GetReport(c.Params("jobId"))
	if err != nil {
		return ServiceError(c, err)
	}
	return c.JSON(report)
}
