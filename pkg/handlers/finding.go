package handlers

import (
	"scanhub/pkg/interfaces"
	"scanhub/pkg/models"
	"scanhub/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// FindingHandler exposes finding queries and triage updates
type FindingHandler struct {
	findings interfaces.FindingServiceInterface
	log      *utils.Logger
}

func NewFindingHandler(findings interfaces.FindingServiceInterface, log *utils.Logger) *FindingHandler {
	return &FindingHandler{findings: findings, log: log}
}

// Query lists findings filtered by severity, status, tool and target
// GET /findings?severity=&status=&tool=&targetId=
func (h *FindingHandler) Query(c *fiber.Ctx) error {
	q := models.FindingQuery{
		Severity: c.Query("severity"),
		Status:   c.Query("status"),
		Tool:     c.Query("tool"),
		TargetID: c.Query("targetId"),
	}
	return c.JSON(h.findings.QueryFindings(q))
}

// UpdateStatus applies a user triage decision to one finding
// PATCH /findings/:id/status
func (h *FindingHandler) UpdateStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return HTTPError(c, 400, "finding id is required")
	}

	var body struct {
		Status        string `json:"status"`
		Justification string `json:"justification"`
	}
	if err := c.BodyParser(&body); err != nil {
		return HTTPError(c, 400, "invalid request body")
	}

	status := models.FindingStatus(body.Status)
	if !status.Valid() {
		return HTTPError(c, 400, "unknown finding status")
	}
	// Dismissing a finding needs a written reason
	if (status == models.FindingAcceptedRisk || status == models.FindingFalsePositive) && body.Justification == "" {
		return HTTPError(c, 400, "justification is required for "+body.Status)
	}

	finding, err := h.findings.UpdateFindingStatus(id, status, body.Justification)
	if err != nil {
		return ServiceError(c, err)
	}

	h.log.WithFunc().WithField("finding", id).WithField("status", body.Status).Info("Finding status updated")
	return c.JSON(finding)
}
