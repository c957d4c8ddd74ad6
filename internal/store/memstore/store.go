// Package memstore berisi implementasi in-memory dari store.Store dan
// store.PatientStore untuk unit test. Perilakunya meniru redisstore:
// mutasi per-key atomik, tanpa transaksi lintas key.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"backend-checkin/internal/models"
)

type Store struct {
	mu       sync.Mutex
	otps     map[string]models.OtpRequest
	queues   map[string]*models.Queue
	tickets  map[string]*models.Ticket
	patients map[string]models.Patient
}

func New() *Store {
	return &Store{
		otps:     make(map[string]models.OtpRequest),
		queues:   make(map[string]*models.Queue),
		tickets:  make(map[string]*models.Ticket),
		patients: make(map[string]models.Patient),
	}
}

func queueKey(visitDate string, queueType models.QueueType) string {
	return fmt.Sprintf("%s:%s", visitDate, queueType)
}

func ticketKey(visitDate string, queueType models.QueueType, ticketNumber int) string {
	return fmt.Sprintf("%s:%s:%d", visitDate, queueType, ticketNumber)
}

func (s *Store) PutOtp(ctx context.Context, otp models.OtpRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.otps[otp.PhoneNumber] = otp
	return nil
}

func (s *Store) GetOtp(ctx context.Context, phoneNumber string) (models.OtpRequest, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	otp, ok := s.otps[phoneNumber]
	return otp, ok, nil
}

func (s *Store) MarkOtpVerified(ctx context.Context, phoneNumber string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	otp, ok := s.otps[phoneNumber]
	if !ok {
		return nil
	}
	otp.IsVerified = true
	otp.VerifiedAt = &at
	s.otps[phoneNumber] = otp
	return nil
}

func (s *Store) IncrOtpAttempts(ctx context.Context, phoneNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	otp, ok := s.otps[phoneNumber]
	if !ok {
		return nil
	}
	otp.Attempts++
	s.otps[phoneNumber] = otp
	return nil
}

func (s *Store) GetQueue(ctx context.Context, visitDate string, queueType models.QueueType) (models.Queue, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[queueKey(visitDate, queueType)]
	if !ok {
		return models.Queue{}, false, nil
	}
	return *q, true, nil
}

func (s *Store) CreateQueue(ctx context.Context, queue models.Queue) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := queueKey(queue.VisitDate, queue.QueueType)
	if _, ok := s.queues[key]; ok {
		return false, nil
	}
	q := queue
	s.queues[key] = &q
	return true, nil
}

func (s *Store) NextTicketNumber(ctx context.Context, visitDate string, queueType models.QueueType) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.ensureQueueLocked(visitDate, queueType)
	q.LastIssuedNumber++
	return q.LastIssuedNumber, nil
}

func (s *Store) AdvanceCurrent(ctx context.Context, visitDate string, queueType models.QueueType, step int) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.ensureQueueLocked(visitDate, queueType)
	old := q.CurrentNumber
	q.CurrentNumber += step
	return old, q.LastIssuedNumber, nil
}

// ensureQueueLocked meniru HINCRBY Redis yang auto-create hash kosong
func (s *Store) ensureQueueLocked(visitDate string, queueType models.QueueType) *models.Queue {
	key := queueKey(visitDate, queueType)
	q, ok := s.queues[key]
	if !ok {
		q = &models.Queue{
			QueueID:   models.BuildQueueID(visitDate, queueType),
			VisitDate: visitDate,
			QueueType: queueType,
		}
		s.queues[key] = q
	}
	return q
}

func (s *Store) PutTicket(ctx context.Context, ticket models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := ticket
	s.tickets[ticketKey(ticket.VisitDate, ticket.QueueType, ticket.TicketNumber)] = &t
	return nil
}

func (s *Store) GetTicket(ctx context.Context, visitDate string, queueType models.QueueType, ticketNumber int) (models.Ticket, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[ticketKey(visitDate, queueType, ticketNumber)]
	if !ok {
		return models.Ticket{}, false, nil
	}
	return *t, true, nil
}

func (s *Store) SetTicketStatus(ctx context.Context, visitDate string, queueType models.QueueType, ticketNumber int, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tickets[ticketKey(visitDate, queueType, ticketNumber)]; ok {
		t.Status = status
	}
	return nil
}

func (s *Store) CancelTicket(ctx context.Context, visitDate string, queueType models.QueueType, ticketNumber int, notes string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tickets[ticketKey(visitDate, queueType, ticketNumber)]; ok {
		t.Status = models.StatusCancelled
		t.Notes = notes
		cancelledAt := at
		t.CancelledAt = &cancelledAt
	}
	return nil
}

func (s *Store) CountActiveBefore(ctx context.Context, visitDate string, queueType models.QueueType, ticketNumber int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for n := 1; n < ticketNumber; n++ {
		t, ok := s.tickets[ticketKey(visitDate, queueType, n)]
		if !ok {
			continue
		}
		if t.Status == models.StatusWaiting || t.Status == models.StatusCalling {
			count++
		}
	}
	return count, nil
}

func (s *Store) LatestWaitingTicketByPhone(ctx context.Context, phoneNumber, visitDate string, queueType models.QueueType) (models.Ticket, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []*models.Ticket
	for _, t := range s.tickets {
		if t.PatientPhone != phoneNumber || t.VisitDate != visitDate {
			continue
		}
		if queueType != "" && t.QueueType != queueType {
			continue
		}
		if t.Status != models.StatusWaiting {
			continue
		}
		matches = append(matches, t)
	}

	if len(matches) == 0 {
		return models.Ticket{}, false, nil
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].IssuedAt.Equal(matches[j].IssuedAt) {
			return matches[i].IssuedAt.After(matches[j].IssuedAt)
		}
		return matches[i].TicketNumber > matches[j].TicketNumber
	})

	return *matches[0], true, nil
}

func (s *Store) UpsertPatient(ctx context.Context, patient models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients[patient.PhoneNumber] = patient
	return nil
}

// Patient dipakai test untuk verifikasi hasil upsert
func (s *Store) Patient(phoneNumber string) (models.Patient, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[phoneNumber]
	return p, ok
}
