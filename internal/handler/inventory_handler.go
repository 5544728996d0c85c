package handler

import (
	"strconv"

	"scrapyard-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

// GetInventory lists active materials with their most recent movements
func (h *InventoryHandler) GetInventory(c *fiber.Ctx) error {
	materials, err := h.service.ListInventory(c.Query("search"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(materials)
}

// GetMovements returns the movement ledger for one material, newest first
func (h *InventoryHandler) GetMovements(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid material ID"})
	}

	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	movements, err := h.service.ListMovements(id, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(movements)
}

// PostAdjustment records a manual IN/OUT/ADJUST movement
func (h *InventoryHandler) PostAdjustment(c *fiber.Ctx) error {
	var req service.AdjustmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	movement, err := h.service.PostAdjustment(&req, getUserID(c), getUserName(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Adjustment posted", "data": movement})
}
