package handlers

import (
	"strconv"

	"github.com/freelancehub/backend/internal/http/dto"
	"github.com/freelancehub/backend/internal/middleware"
	"github.com/freelancehub/backend/internal/repositories"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type UserHandler struct {
	userRepo   *repositories.UserRepo
	ledgerRepo *repositories.LedgerRepo
	log        *zap.Logger
}

func NewUserHandler(userRepo *repositories.UserRepo, ledgerRepo *repositories.LedgerRepo, log *zap.Logger) *UserHandler {
	return &UserHandler{userRepo: userRepo, ledgerRepo: ledgerRepo, log: log}
}

func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	user, err := h.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return c.Status(statusForError(err)).JSON(dto.ErrorResponse{Error: "user not found"})
	}

	balance := decimal.Zero
	if account, err := h.ledgerRepo.GetAccount(c.Context(), userID); err == nil {
		balance = account.Balance
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: fiber.Map{
		"user":    user,
		"balance": balance,
	}})
}

// GetMyLedger returns the user's own ledger entries, newest first.
func (h *UserHandler) GetMyLedger(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	limit, offset := paging(c, 50)

	entries, err := h.ledgerRepo.ListByUser(c.Context(), userID, limit, offset)
	if err != nil {
		h.log.Error("list ledger failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}

func paging(c *fiber.Ctx, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
