package handler

import (
	"github.com/gofiber/fiber/v2"

	"travel-expense/internal/domain"
	"travel-expense/internal/middleware"
	"travel-expense/internal/service/audit"
	"travel-expense/internal/service/lifecycle"
	"travel-expense/internal/service/receipt"
	"travel-expense/internal/service/request"
)

type RequestHandler struct {
	requestService   request.Service
	lifecycleService lifecycle.Service
	receiptService   receipt.Service
	auditService     audit.Service
}

func NewRequestHandler(requestService request.Service, lifecycleService lifecycle.Service, receiptService receipt.Service, auditService audit.Service) *RequestHandler {
	return &RequestHandler{
		requestService:   requestService,
		lifecycleService: lifecycleService,
		receiptService:   receiptService,
		auditService:     auditService,
	}
}

func (h *RequestHandler) Create(c *fiber.Ctx) error {
	var input domain.CreateRequestInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	req, err := h.requestService.Create(c.Context(), middleware.GetActor(c), input, middleware.GetRequestMeta(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(req)
}

func (h *RequestHandler) List(c *fiber.Ctx) error {
	var filter domain.RequestFilter
	if status := c.Query("status"); status != "" {
		s := domain.RequestStatus(status)
		filter.Status = &s
	}
	if typ := c.Query("type"); typ != "" {
		t := domain.RequestType(typ)
		filter.RequestType = &t
	}

	result, err := h.requestService.List(c.Context(), middleware.GetActor(c), filter, getPaginationParams(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *RequestHandler) Get(c *fiber.Ctx) error {
	requestID, err := parseUUIDParam(c, "requestId")
	if err != nil {
		return err
	}

	req, err := h.requestService.GetByID(c.Context(), middleware.GetActor(c), requestID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(req)
}

// Transition applies an approver or checker decision. The acting role comes
// from the session; a role in the body must agree with it.
func (h *RequestHandler) Transition(c *fiber.Ctx) error {
	requestID, err := parseUUIDParam(c, "requestId")
	if err != nil {
		return err
	}

	var input domain.TransitionInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	req, err := h.lifecycleService.TransitionRequest(c.Context(), middleware.GetActor(c), requestID, input, middleware.GetRequestMeta(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(req)
}

func (h *RequestHandler) SubmitExpenses(c *fiber.Ctx) error {
	requestID, err := parseUUIDParam(c, "requestId")
	if err != nil {
		return err
	}

	var input domain.SubmitExpensesInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	req, err := h.lifecycleService.SubmitExpenses(c.Context(), middleware.GetActor(c), requestID, input.Items, middleware.GetRequestMeta(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(req)
}

func (h *RequestHandler) UpdateFinanceComments(c *fiber.Ctx) error {
	requestID, err := parseUUIDParam(c, "requestId")
	if err != nil {
		return err
	}

	var input domain.FinanceCommentsInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	req, err := h.requestService.UpdateFinanceComments(c.Context(), middleware.GetActor(c), requestID, input, middleware.GetRequestMeta(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(req)
}

func (h *RequestHandler) ListExpenses(c *fiber.Ctx) error {
	requestID, err := parseUUIDParam(c, "requestId")
	if err != nil {
		return err
	}

	items, err := h.receiptService.ListRequestExpenses(c.Context(), middleware.GetActor(c), requestID)
	if err != nil {
		return err
	}

	total, err := h.lifecycleService.TotalAmount(c.Context(), requestID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"items":        items,
		"total_amount": total,
	})
}

func (h *RequestHandler) AuditTrail(c *fiber.Ctx) error {
	requestID, err := parseUUIDParam(c, "requestId")
	if err != nil {
		return err
	}

	result, err := h.auditService.ListByRequest(c.Context(), requestID, getPaginationParams(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
