package handlers

import (
	"github.com/freelancehub/backend/internal/http/dto"
	"github.com/freelancehub/backend/internal/middleware"
	"github.com/freelancehub/backend/internal/repositories"
	"github.com/freelancehub/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type EscrowHandler struct {
	escrowService *services.EscrowService
	messageRepo   *repositories.MessageRepo
	log           *zap.Logger
}

func NewEscrowHandler(escrowService *services.EscrowService, messageRepo *repositories.MessageRepo, log *zap.Logger) *EscrowHandler {
	return &EscrowHandler{escrowService: escrowService, messageRepo: messageRepo, log: log}
}

func (h *EscrowHandler) Deposit(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid project id"})
	}

	var req dto.DepositRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid amount"})
	}

	actorID := middleware.GetUserID(c)
	if err := h.escrowService.Deposit(c.Context(), projectID, actorID, amount, req.Note); err != nil {
		return c.Status(statusForError(err)).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true})
}

func (h *EscrowHandler) ReleaseMilestone(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid project id"})
	}
	milestoneID, err := uuid.Parse(c.Params("milestoneId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid milestone id"})
	}

	actorID := middleware.GetUserID(c)
	if err := h.escrowService.MilestoneRelease(c.Context(), projectID, milestoneID, actorID); err != nil {
		return c.Status(statusForError(err)).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *EscrowHandler) ManualRelease(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid project id"})
	}

	var req dto.ManualReleaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid amount"})
	}

	actorID := middleware.GetUserID(c)
	if err := h.escrowService.ManualRelease(c.Context(), projectID, actorID, amount, req.Note); err != nil {
		return c.Status(statusForError(err)).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *EscrowHandler) Refund(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid project id"})
	}

	var req dto.RefundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid amount"})
	}

	actorID := middleware.GetUserID(c)
	if err := h.escrowService.Refund(c.Context(), projectID, actorID, amount, req.Note); err != nil {
		return c.Status(statusForError(err)).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *EscrowHandler) GetSummary(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid project id"})
	}

	summary, err := h.escrowService.ProjectSummary(c.Context(), projectID)
	if err != nil {
		return c.Status(statusForError(err)).JSON(dto.ErrorResponse{Error: "project not found"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: summary})
}

func (h *EscrowHandler) GetLedger(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid project id"})
	}

	entries, err := h.escrowService.ProjectLedger(c.Context(), projectID)
	if err != nil {
		h.log.Error("project ledger failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}

func (h *EscrowHandler) GetMessages(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid project id"})
	}

	limit, offset := paging(c, 50)
	messages, err := h.messageRepo.ListByProject(c.Context(), projectID, limit, offset)
	if err != nil {
		h.log.Error("project messages failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: messages})
}
