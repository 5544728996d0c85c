package handler

import (
	"scrapyard-api/internal/model"
	"scrapyard-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type MaterialHandler struct {
	service service.MaterialService
}

func NewMaterialHandler(s service.MaterialService) *MaterialHandler {
	return &MaterialHandler{service: s}
}

func (h *MaterialHandler) GetMaterials(c *fiber.Ctx) error {
	materials, err := h.service.GetAllMaterials(c.Query("search"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(materials)
}

func (h *MaterialHandler) GetMaterial(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid material ID"})
	}

	material, err := h.service.GetMaterialByID(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(material)
}

func (h *MaterialHandler) CreateMaterial(c *fiber.Ctx) error {
	var material model.Material
	if err := c.BodyParser(&material); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.CreateMaterial(&material, getUserID(c)); err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Material created", "data": material})
}

func (h *MaterialHandler) UpdateMaterial(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid material ID"})
	}

	var material model.Material
	if err := c.BodyParser(&material); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.service.UpdateMaterial(id, &material, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Material updated", "data": updated})
}

func (h *MaterialHandler) DeactivateMaterial(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid material ID"})
	}

	if err := h.service.DeactivateMaterial(id, getUserID(c)); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Material deactivated"})
}

func (h *MaterialHandler) SeedMaterials(c *fiber.Ctx) error {
	created, err := h.service.SeedDefaults(getUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Materials processed", "created": created})
}
