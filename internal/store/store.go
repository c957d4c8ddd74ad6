package store

import (
	"context"
	"time"

	"backend-checkin/internal/models"
)

// Store - Kapabilitas persistence untuk subsystem antrian.
// Semua state hidup di store eksternal; handler tidak pegang state lokal.
// Implementasi production ada di redisstore, fake untuk unit test di memstore.
type Store interface {
	// OTP (satu record per nomor HP, request baru menimpa yang lama)
	PutOtp(ctx context.Context, otp models.OtpRequest) error
	GetOtp(ctx context.Context, phoneNumber string) (models.OtpRequest, bool, error)
	MarkOtpVerified(ctx context.Context, phoneNumber string, at time.Time) error
	IncrOtpAttempts(ctx context.Context, phoneNumber string) error

	// Queue
	GetQueue(ctx context.Context, visitDate string, queueType models.QueueType) (models.Queue, bool, error)
	// CreateQueue hanya menulis kalau queue belum ada, balikin true kalau baru dibuat
	CreateQueue(ctx context.Context, queue models.Queue) (bool, error)
	// NextTicketNumber naikkan last_issued_number secara atomik dan balikin hasilnya
	NextTicketNumber(ctx context.Context, visitDate string, queueType models.QueueType) (int, error)
	// AdvanceCurrent naikkan current_number sebesar step secara atomik,
	// balikin cursor SEBELUM update plus last_issued_number dari response yang sama
	AdvanceCurrent(ctx context.Context, visitDate string, queueType models.QueueType, step int) (oldCurrent, lastIssued int, err error)

	// Ticket
	PutTicket(ctx context.Context, ticket models.Ticket) error
	GetTicket(ctx context.Context, visitDate string, queueType models.QueueType, ticketNumber int) (models.Ticket, bool, error)
	SetTicketStatus(ctx context.Context, visitDate string, queueType models.QueueType, ticketNumber int, status string) error
	CancelTicket(ctx context.Context, visitDate string, queueType models.QueueType, ticketNumber int, notes string, at time.Time) error
	// CountActiveBefore hitung ticket bernomor < ticketNumber yang masih WAITING/CALLING
	CountActiveBefore(ctx context.Context, visitDate string, queueType models.QueueType, ticketNumber int) (int, error)
	// LatestWaitingTicketByPhone cari ticket WAITING paling baru milik nomor HP
	// untuk tanggal tersebut; queueType kosong berarti tanpa filter jenis antrian
	LatestWaitingTicketByPhone(ctx context.Context, phoneNumber, visitDate string, queueType models.QueueType) (models.Ticket, bool, error)
}

// PatientStore - Registry pasien, terpisah dari state antrian
type PatientStore interface {
	UpsertPatient(ctx context.Context, patient models.Patient) error
}
