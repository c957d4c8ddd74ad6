package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	StatusWaiting   = "WAITING"
	StatusCalling   = "CALLING"
	StatusDone      = "DONE"
	StatusCancelled = "CANCELLED"
	StatusNoShow    = "NO_SHOW" // disimpan untuk kompatibilitas, belum ada alur yang memakai
)

var ErrInvalidTicketCode = errors.New("INVALID_TICKET_CODE")

type Ticket struct {
	QueueID                string     `json:"queueId"`
	TicketNumber           int        `json:"ticketNumber"`
	TicketCode             string     `json:"ticketCode"`
	VisitDate              string     `json:"visitDate"`
	QueueType              QueueType  `json:"queueType"`
	Status                 string     `json:"status"` // WAITING | CALLING | DONE | CANCELLED | NO_SHOW
	IssuedAt               time.Time  `json:"issuedAt"`
	PatientPhone           string     `json:"patientPhone"`
	ReissuedFromTicketCode string     `json:"reissuedFromTicketCode,omitempty"`
	CancelledAt            *time.Time `json:"cancelledAt,omitempty"`
	Notes                  string     `json:"notes,omitempty"`
}

// FormatTicketCode - Kode antrian untuk pasien, contoh BHYT-007.
// Nomor di atas 999 tetap dirender apa adanya (tidak ada wraparound).
func FormatTicketCode(queueType QueueType, ticketNumber int) string {
	return fmt.Sprintf("%s-%03d", queueType, ticketNumber)
}

// ParseTicketCode - Pecah kode antrian jadi (queue type, nomor)
func ParseTicketCode(ticketCode string) (QueueType, int, error) {
	prefix, num, ok := strings.Cut(ticketCode, "-")
	if !ok {
		return "", 0, ErrInvalidTicketCode
	}

	queueType := QueueType(prefix)
	if !ValidQueueType(queueType) {
		return "", 0, ErrInvalidTicketCode
	}

	ticketNumber, err := strconv.Atoi(num)
	if err != nil {
		return "", 0, ErrInvalidTicketCode
	}

	return queueType, ticketNumber, nil
}
