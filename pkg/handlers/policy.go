package handlers

import (
	"scanhub/pkg/interfaces"
	"scanhub/pkg/models"
	"scanhub/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// PolicyHandler handles scan-policy CRUD
type PolicyHandler struct {
	policies interfaces.PolicyServiceInterface
	log      *utils.Logger
}

func NewPolicyHandler(policies interfaces.PolicyServiceInterface, log *utils.Logger) *PolicyHandler {
	return &PolicyHandler{policies: policies, log: log}
}

// List returns all policies
// GET /policies
func (h *PolicyHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.policies.List())
}

// Get returns one policy
// GET /policies/:id
func (h *PolicyHandler) Get(c *fiber.Ctx) error {
	policy, err := h.policies.Get(c.Params("id"))
	if err != nil {
		return ServiceError(c, err)
	}
	return c.JSON(policy)
}

// Create stores a new policy
// POST /policies
func (h *PolicyHandler) Create(c *fiber.Ctx) error {
	var body models.ScanPolicy
	if err := c.BodyParser(&body); err != nil {
		return HTTPError(c, 400, "invalid request body")
	}

	policy, err := h.policies.Create(body)
	if err != nil {
		return ServiceError(c, err)
	}
	return c.Status(201).JSON(policy)
}

// Update replaces a policy's mutable fields
// PUT /policies/:id
func (h *PolicyHandler) Update(c *fiber.Ctx) error {
	var body models.ScanPolicy
	if err := c.BodyParser(&body); err != nil {
		return HTTPError(c, 400, "invalid request body")
	}

	policy, err := h.policies.Update(c.Params("id"), body)
	if err != nil {
		return ServiceError(c, err)
	}
	return c.JSON(policy)
}

// Delete removes a policy
// DELETE /policies/:id
func (h *PolicyHandler) Delete(c *fiber.Ctx) error {
	if err := h.policies.Delete(c.Params("id")); err != nil {
		return ServiceError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": true})
}
