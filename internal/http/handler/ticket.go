package handler

import (
	"backend-checkin/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ReissueRequest - Request body untuk minta cetak ulang nomor antrian
type ReissueRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	VisitDate   string `json:"visitDate"`
	QueueType   string `json:"queueType"`
}

// TicketStatus - Endpoint cek posisi antrian berdasarkan kode ticket
func (h *Handler) TicketStatus(c *fiber.Ctx) error {
	ticketCode := c.Query("ticketCode")
	visitDate := c.Query("visitDate")

	if ticketCode == "" {
		return badRequest(c, "ticketCode wajib diisi")
	}

	result, err := h.svc.GetTicketStatus(c.Context(), ticketCode, visitDate)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, result)
}

// Reissue - Endpoint cetak ulang nomor: ticket WAITING terakhir milik
// nomor HP dibatalkan dan diganti nomor baru di antrian yang sama
func (h *Handler) Reissue(c *fiber.Ctx) error {
	var req ReissueRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	// Validasi input (queueType opsional, cuma buat mempersempit pencarian)
	if req.PhoneNumber == "" {
		return badRequest(c, "Nomor HP wajib diisi")
	}
	queueType := models.QueueType(req.QueueType)
	if req.QueueType != "" && !models.ValidQueueType(queueType) {
		return badRequest(c, "Queue type tidak valid")
	}

	result, err := h.svc.ReissueTicket(c.Context(), req.PhoneNumber, req.VisitDate, queueType)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, result)
}
