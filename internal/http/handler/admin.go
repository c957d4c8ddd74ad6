package handler

import (
	"backend-checkin/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AdvanceQueueRequest - Request body untuk geser cursor antrian.
// Step nil berarti default 1 (bedakan dari step 0 eksplisit).
type AdvanceQueueRequest struct {
	QueueType string `json:"queueType"`
	VisitDate string `json:"visitDate"`
	Step      *int   `json:"step"`
}

// AdvanceQueue - Endpoint loket memanggil nomor berikutnya
func (h *Handler) AdvanceQueue(c *fiber.Ctx) error {
	var req AdvanceQueueRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	// Validasi input
	queueType := models.QueueType(req.QueueType)
	if !models.ValidQueueType(queueType) {
		return badRequest(c, "Queue type tidak valid")
	}

	step := 1
	if req.Step != nil {
		step = *req.Step
	}
	// Cursor tidak boleh mundur
	if step < 1 {
		return badRequest(c, "Step minimal 1")
	}

	result, err := h.svc.AdminAdvanceQueue(c.Context(), queueType, req.VisitDate, step)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, result)
}
