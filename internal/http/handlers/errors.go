package handlers

import (
	"errors"

	"github.com/freelancehub/backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

// statusForError maps service error taxonomy to HTTP statuses so every
// handler reports escrow failures the same way.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, models.ErrInvalidAmount):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrInsufficientEscrow),
		errors.Is(err, models.ErrManualReleaseLimitExceeded),
		errors.Is(err, models.ErrInsufficientBalance),
		errors.Is(err, models.ErrMilestoneNotReady):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, models.ErrVerificationMismatch),
		errors.Is(err, models.ErrPaymentFailed):
		return fiber.StatusConflict
	case errors.Is(err, models.ErrGateway):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}
