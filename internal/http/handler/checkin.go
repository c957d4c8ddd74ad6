package handler

import (
	"backend-checkin/internal/models"
	"backend-checkin/internal/service"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc *service.QueueService
}

func New(svc *service.QueueService) *Handler {
	return &Handler{svc: svc}
}

// RequestOtpRequest - Request body untuk minta kode OTP check-in
type RequestOtpRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

// VerifyRequest - Request body untuk verifikasi OTP + ambil nomor antrian
type VerifyRequest struct {
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
	NationalID  string `json:"nationalId"`
	QueueType   string `json:"queueType"`
	VisitDate   string `json:"visitDate"`
	OtpCode     string `json:"otpCode"`
}

// RequestOtp - Endpoint minta kode OTP check-in.
// Demo: kode dikembalikan langsung di response, tidak dikirim via SMS.
func (h *Handler) RequestOtp(c *fiber.Ctx) error {
	var req RequestOtpRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	// Validasi input
	if req.PhoneNumber == "" {
		return badRequest(c, "Nomor HP wajib diisi")
	}

	result, err := h.svc.RequestOtp(c.Context(), req.PhoneNumber)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, result)
}

// VerifyAndIssue - Endpoint verifikasi OTP lalu terbitkan nomor antrian
func (h *Handler) VerifyAndIssue(c *fiber.Ctx) error {
	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	// Validasi input
	if req.PhoneNumber == "" || req.OtpCode == "" {
		return badRequest(c, "Nomor HP dan kode OTP wajib diisi")
	}
	if req.FullName == "" {
		return badRequest(c, "Nama lengkap wajib diisi")
	}
	queueType := models.QueueType(req.QueueType)
	if !models.ValidQueueType(queueType) {
		return badRequest(c, "Queue type tidak valid")
	}

	result, err := h.svc.VerifyAndIssueTicket(c.Context(), service.VerifyAndIssueInput{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		NationalID:  req.NationalID,
		QueueType:   queueType,
		VisitDate:   req.VisitDate,
		OtpCode:     req.OtpCode,
	})
	if err != nil {
		return fail(c, err)
	}

	return ok(c, result)
}
