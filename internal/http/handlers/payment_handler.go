package handlers

import (
	"github.com/freelancehub/backend/internal/http/dto"
	"github.com/freelancehub/backend/internal/middleware"
	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	log            *zap.Logger
}

func NewPaymentHandler(paymentService *services.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, log: log}
}

func (h *PaymentHandler) StartTierUpgrade(c *fiber.Ctx) error {
	var req dto.TierUpgradeRequest
	if err := c.BodyParser(&req); err != nil || req.Tier == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "tier is required (plus, pro)"})
	}

	userID := middleware.GetUserID(c)
	intent, err := h.paymentService.StartTierUpgrade(c.Context(), userID, req.Tier)
	if err != nil {
		return c.Status(statusForError(err)).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(checkoutResponse(intent))
}

func (h *PaymentHandler) StartProjectPublication(c *fiber.Ctx) error {
	var req dto.ProjectPublicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid project_id"})
	}

	userID := middleware.GetUserID(c)
	intent, err := h.paymentService.StartProjectPublication(c.Context(), userID, projectID)
	if err != nil {
		return c.Status(statusForError(err)).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(checkoutResponse(intent))
}

// Callback is the public landing endpoint for gateway redirects. The
// query parameters are advisory; the decision comes from verification.
func (h *PaymentHandler) Callback(c *fiber.Ctx) error {
	txRef := c.Query("tx_ref")
	transactionID := c.Query("transaction_id")
	status := c.Query("status")
	if txRef == "" || transactionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "missing payment details"})
	}

	intent, err := h.paymentService.Finalize(c.Context(), txRef, transactionID, status)
	if err != nil {
		h.log.Warn("payment finalize failed", zap.String("tx_ref", txRef), zap.Error(err))
		return c.Status(statusForError(err)).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: intent})
}

func (h *PaymentHandler) GetPayment(c *fiber.Ctx) error {
	intent, err := h.paymentService.GetByTxRef(c.Context(), c.Params("txRef"))
	if err != nil {
		return c.Status(statusForError(err)).JSON(dto.ErrorResponse{Error: "payment not found"})
	}
	if intent.UserID != middleware.GetUserID(c) && middleware.GetRole(c) != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "forbidden"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: intent})
}

func (h *PaymentHandler) ListMyPayments(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	limit, offset := paging(c, 20)

	intents, err := h.paymentService.ListByUser(c.Context(), userID, limit, offset)
	if err != nil {
		h.log.Error("list payments failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: intents})
}

func checkoutResponse(intent *models.PaymentIntent) dto.CheckoutResponse {
	resp := dto.CheckoutResponse{
		TxRef:    intent.TxRef,
		Amount:   intent.Amount.String(),
		Currency: intent.Currency,
		Status:   intent.Status,
	}
	if intent.CheckoutLink != nil {
		resp.CheckoutLink = *intent.CheckoutLink
	}
	return resp
}
