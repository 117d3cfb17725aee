package handler

import (
	"github.com/gofiber/fiber/v2"

	"travel-expense/internal/middleware"
	"travel-expense/internal/service/receipt"
)

type ReceiptHandler struct {
	receiptService receipt.Service
}

func NewReceiptHandler(receiptService receipt.Service) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

func (h *ReceiptHandler) Upload(c *fiber.Ctx) error {
	expenseID, err := parseUUIDParam(c, "expenseId")
	if err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return middleware.BadRequest("File is required")
	}

	mimeType := file.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	fileReader, err := file.Open()
	if err != nil {
		return middleware.BadRequest("Failed to read file")
	}
	defer fileReader.Close()

	rc, err := h.receiptService.Upload(c.Context(), middleware.GetActor(c), receipt.UploadInput{
		ExpenseItemID: expenseID,
		FileName:      file.Filename,
		FileSize:      file.Size,
		MimeType:      mimeType,
		Reader:        fileReader,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(rc)
}

func (h *ReceiptHandler) ListByExpense(c *fiber.Ctx) error {
	expenseID, err := parseUUIDParam(c, "expenseId")
	if err != nil {
		return err
	}

	receipts, err := h.receiptService.ListByExpense(c.Context(), middleware.GetActor(c), expenseID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(receipts)
}
