package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/samuelAmenu/vbcs-backend/internal/dto"
	"github.com/samuelAmenu/vbcs-backend/internal/services"
	"github.com/samuelAmenu/vbcs-backend/internal/session"
	"github.com/samuelAmenu/vbcs-backend/internal/store"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RequestCode(c *fiber.Ctx) error {
	var req dto.RequestCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	code, err := h.authService.RequestCode(c.Context(), req.PhoneNumber)
	if err != nil {
		if errors.Is(err, services.ErrPhoneRequired) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to issue code",
		})
	}

	return c.JSON(dto.RequestCodeResponse{Message: "Code sent.", TestCode: code})
}

func (h *AuthHandler) VerifyCode(c *fiber.Ctx) error {
	var req dto.VerifyCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	resp, err := h.authService.VerifyCode(c.Context(), req.PhoneNumber, req.Code)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCode) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid code or expired.",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Verification failed",
		})
	}

	return c.JSON(resp)
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	phone, err := session.GetPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	identity, err := h.authService.UpdateProfile(c.Context(), phone, &req)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Identity not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update profile",
		})
	}

	return c.JSON(identity)
}
