package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/samuelAmenu/vbcs-backend/internal/circle"
	"github.com/samuelAmenu/vbcs-backend/internal/dto"
	"github.com/samuelAmenu/vbcs-backend/internal/session"
	"github.com/samuelAmenu/vbcs-backend/internal/store"
)

type CircleHandler struct {
	directory *circle.Directory
}

func NewCircleHandler(directory *circle.Directory) *CircleHandler {
	return &CircleHandler{directory: directory}
}

func (h *CircleHandler) GenerateInvite(c *fiber.Ctx) error {
	phone, err := session.GetPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	code, expiresAt, err := h.directory.GenerateInvite(c.Context(), phone)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Identity not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to generate invite",
		})
	}

	return c.JSON(dto.GenerateInviteResponse{Code: code, ExpiresAt: expiresAt})
}

func (h *CircleHandler) Join(c *fiber.Ctx) error {
	phone, err := session.GetPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.JoinCircleRequest
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invite code is required",
		})
	}

	owner, err := h.directory.Join(c.Context(), phone, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, circle.ErrCodeNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Invite code not found",
			})
		case errors.Is(err, circle.ErrCodeExpired):
			return c.Status(fiber.StatusGone).JSON(dto.ErrorResponse{
				Error: true, Message: "Invite code expired",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to join circle",
			})
		}
	}

	return c.JSON(dto.JoinCircleResponse{
		Message:     "Joined circle",
		MemberName:  owner.FullName,
		MemberPhone: owner.PhoneNumber,
	})
}

func (h *CircleHandler) GetCircle(c *fiber.Ctx) error {
	phone, err := session.GetPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	members, err := h.directory.CircleView(c.Context(), phone)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Identity not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load circle",
		})
	}

	return c.JSON(fiber.Map{"members": members})
}

func (h *CircleHandler) Reconcile(c *fiber.Ctx) error {
	phone, err := session.GetPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	repaired, err := h.directory.Reconcile(c.Context(), phone)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Reconciliation failed",
		})
	}

	return c.JSON(dto.ReconcileResponse{Repaired: repaired})
}
