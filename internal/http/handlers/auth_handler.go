package handlers

import (
	"github.com/freelancehub/backend/internal/auth"
	"github.com/freelancehub/backend/internal/config"
	"github.com/freelancehub/backend/internal/http/dto"
	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/repositories"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	cfg      *config.Config
	userRepo *repositories.UserRepo
	log      *zap.Logger
}

func NewAuthHandler(cfg *config.Config, userRepo *repositories.UserRepo, log *zap.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, userRepo: userRepo, log: log}
}

// SSOAuth exchanges a platform-signed identity payload for an API JWT.
func (h *AuthHandler) SSOAuth(c *fiber.Ctx) error {
	var req dto.AuthSSORequest
	if err := c.BodyParser(&req); err != nil || req.Payload == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "payload is required"})
	}

	vals, err := auth.ValidatePlatformSSO(req.Payload, h.cfg.SSOSecret, h.cfg.SSOMaxAge)
	if err != nil {
		h.log.Warn("sso validation failed", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid sso payload"})
	}

	email := vals.Get("email")
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "email is missing from payload"})
	}
	role := vals.Get("role")
	switch role {
	case models.RoleClient, models.RoleTalent, models.RoleAdmin:
	default:
		role = models.RoleClient
	}

	user, err := h.userRepo.UpsertByEmail(c.Context(), email, vals.Get("name"), role)
	if err != nil {
		h.log.Error("user upsert failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	token, err := auth.GenerateJWT(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.JWTExpiration)
	if err != nil {
		h.log.Error("jwt generation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.AuthResponse{Token: token, User: user})
}
