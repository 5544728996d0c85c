package handler

import (
	"scrapyard-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(s service.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

// GetInventoryReport streams the catalog/stock workbook
func (h *ReportHandler) GetInventoryReport(c *fiber.Ctx) error {
	data, fileName, err := h.service.InventoryWorkbook()
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
	return c.Send(data)
}

// GetTransactionsReport streams the purchase-history workbook
func (h *ReportHandler) GetTransactionsReport(c *fiber.Ctx) error {
	data, fileName, err := h.service.TransactionsWorkbook()
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
	return c.Send(data)
}
