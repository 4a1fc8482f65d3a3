package handlers

import (
	"github.com/freelancehub/backend/internal/http/dto"
	"github.com/freelancehub/backend/internal/middleware"
	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type WithdrawalHandler struct {
	withdrawalService *services.WithdrawalService
	log               *zap.Logger
}

func NewWithdrawalHandler(withdrawalService *services.WithdrawalService, log *zap.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalService: withdrawalService, log: log}
}

func (h *WithdrawalHandler) Create(c *fiber.Ctx) error {
	var req dto.WithdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid amount"})
	}

	userID := middleware.GetUserID(c)
	request, err := h.withdrawalService.Request(c.Context(), userID, services.WithdrawalInput{
		Amount:        amount,
		Method:        req.Method,
		BankCode:      req.BankCode,
		AccountNumber: req.AccountNumber,
	})
	if err != nil {
		// Провайдер мог упасть уже после списания — тогда отдаём и
		// запись, и ошибку.
		if request != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": err.Error(),
				"data":  request,
			})
		}
		return c.Status(statusForError(err)).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: request})
}

func (h *WithdrawalHandler) ListMy(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	limit, offset := paging(c, 20)

	requests, err := h.withdrawalService.ListByUser(c.Context(), userID, limit, offset)
	if err != nil {
		h.log.Error("list withdrawals failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: requests})
}

// ListQueue is the admin review queue, filterable by status.
func (h *WithdrawalHandler) ListQueue(c *fiber.Ctx) error {
	status := c.Query("status", models.WithdrawalStatusPending)
	limit, offset := paging(c, 50)

	requests, err := h.withdrawalService.ListByStatus(c.Context(), status, limit, offset)
	if err != nil {
		h.log.Error("list withdrawal queue failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: requests})
}

func (h *WithdrawalHandler) Approve(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid withdrawal id"})
	}

	adminID := middleware.GetUserID(c)
	request, err := h.withdrawalService.Approve(c.Context(), id, adminID)
	if err != nil {
		return c.Status(statusForError(err)).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: request})
}

func (h *WithdrawalHandler) Reject(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid withdrawal id"})
	}

	var req dto.RejectWithdrawalRequest
	_ = c.BodyParser(&req)

	adminID := middleware.GetUserID(c)
	request, err := h.withdrawalService.Reject(c.Context(), id, adminID, req.Reason)
	if err != nil {
		return c.Status(statusForError(err)).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: request})
}
