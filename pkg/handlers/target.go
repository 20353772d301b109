package handlers

import (
	"scanhub/pkg/interfaces"
	"scanhub/pkg/models"
	"scanhub/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// TargetHandler handles scan-target CRUD
type TargetHandler struct {
	targets interfaces.TargetServiceInterface
	log     *utils.Logger
}

func NewTargetHandler(targets interfaces.TargetServiceInterface, log *utils.Logger) *TargetHandler {
	return &TargetHandler{targets: targets, log: log}
}

// List returns all targets
// GET /targets
func (h *TargetHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.targets.List())
}

// Get returns one target
// GET /targets/:id
func (h *TargetHandler) Get(c *fiber.Ctx) error {
	target, err := h.targets.Get(c.Params("id"))
	if err != nil {
		return ServiceError(c, err)
	}
	return c.JSON(target)
}

// Create stores a new target
// POST /targets
func (h *TargetHandler) Create(c *fiber.Ctx) error {
	var body models.ScanTarget
	if err := c.BodyParser(&body); err != nil {
		return HTTPError(c, 400, "invalid request body")
	}

	target, err := h.targets.Create(body)
	if err != nil {
		return ServiceError(c, err)
	}
	return c.Status(201).JSON(target)
}

// Update replaces a target's mutable fields
// PUT /targets/:id
func (h *TargetHandler) Update(c *fiber.Ctx) error {
	var body models.ScanTarget
	if err := c.BodyParser(&body); err != nil {
		return HTTPError(c, 400, "invalid request body")
	}

	target, err := h.targets.Update(c.Params("id"), body)
	if err != nil {
		return ServiceError(c, err)
	}
	return c.JSON(target)
}

// Delete removes a target
// DELETE /targets/:id
func (h *TargetHandler) Delete(c *fiber.Ctx) error {
	if err := h.targets.Delete(c.Params("id")); err != nil {
		return ServiceError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": true})
}
