package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/samuelAmenu/vbcs-backend/internal/classifier"
	"github.com/samuelAmenu/vbcs-backend/internal/dto"
	"github.com/samuelAmenu/vbcs-backend/internal/session"
)

type LookupHandler struct {
	classifier *classifier.Classifier
}

func NewLookupHandler(cls *classifier.Classifier) *LookupHandler {
	return &LookupHandler{classifier: cls}
}

// CheckNumber serves both the caller-ID and SMS-sender checks. Verified
// directory status always overrides spam history.
func (h *LookupHandler) CheckNumber(c *fiber.Ctx) error {
	number := c.Params("number")

	result, err := h.classifier.Classify(c.Context(), number)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Lookup failed",
		})
	}

	return c.JSON(result)
}

// SubmitReport records a spam/fraud report. Reports are anonymous by
// default; an authenticated session attributes the reporter.
func (h *LookupHandler) SubmitReport(c *fiber.Ctx) error {
	var req dto.SubmitReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	reporter, _ := session.GetPhone(c)

	if err := h.classifier.Submit(c.Context(), req.Number, req.Reason, req.Comment, reporter); err != nil {
		if errors.Is(err, classifier.ErrNumberEmpty) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Error saving report",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}
