package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/samuelAmenu/vbcs-backend/internal/alert"
	"github.com/samuelAmenu/vbcs-backend/internal/dto"
	"github.com/samuelAmenu/vbcs-backend/internal/session"
	"github.com/samuelAmenu/vbcs-backend/internal/store"
)

type SafetyHandler struct {
	controller  *alert.Controller
	broadcaster *alert.Broadcaster
}

func NewSafetyHandler(controller *alert.Controller, broadcaster *alert.Broadcaster) *SafetyHandler {
	return &SafetyHandler{controller: controller, broadcaster: broadcaster}
}

func (h *SafetyHandler) ToggleLostMode(c *fiber.Ctx) error {
	phone, err := session.GetPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.LostModeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := h.controller.ToggleLostMode(c.Context(), phone, req.Active, req.Message, req.PlaySiren); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Identity not found",
			})
		case errors.Is(err, alert.ErrSOSActive):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to update lost mode",
			})
		}
	}

	return c.JSON(fiber.Map{"message": "Lost mode updated"})
}

func (h *SafetyHandler) TriggerSOS(c *fiber.Ctx) error {
	phone, err := session.GetPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.SOSRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := h.broadcaster.Trigger(c.Context(), phone, req.Lat, req.Lng); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Identity not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to trigger SOS",
		})
	}

	// Empty circle is still an acknowledged no-op broadcast.
	return c.JSON(fiber.Map{"message": "SOS sent to your circle"})
}

func (h *SafetyHandler) Resolve(c *fiber.Ctx) error {
	phone, err := session.GetPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	if err := h.controller.Resolve(c.Context(), phone); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Identity not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to resolve status",
		})
	}

	return c.JSON(fiber.Map{"message": "Status cleared"})
}
