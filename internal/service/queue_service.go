package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"backend-checkin/internal/helper"
	"backend-checkin/internal/models"
	"backend-checkin/internal/monitoring"
	"backend-checkin/internal/realtime"
	"backend-checkin/internal/store"
)

const (
	otpCodeLength = 6
	otpLifetime   = 5 * time.Minute

	reissueNote = "Reissued on request"
)

type QueueService struct {
	store    store.Store
	patients store.PatientStore
	display  *realtime.DisplayHub
}

// NewQueueService - display boleh nil (tanpa papan antrian realtime)
func NewQueueService(st store.Store, patients store.PatientStore, display *realtime.DisplayHub) *QueueService {
	return &QueueService{
		store:    st,
		patients: patients,
		display:  display,
	}
}

type OtpResult struct {
	PhoneNumber string    `json:"phoneNumber"`
	OtpCode     string    `json:"otpCode"`
	ExpiredAt   time.Time `json:"expiredAt"`
}

type VerifyAndIssueInput struct {
	FullName    string
	PhoneNumber string
	NationalID  string
	QueueType   models.QueueType
	VisitDate   string
	OtpCode     string
}

type IssueResult struct {
	TicketCode   string           `json:"ticketCode"`
	TicketNumber int              `json:"ticketNumber"`
	QueueType    models.QueueType `json:"queueType"`
	VisitDate    string           `json:"visitDate"`
}

type TicketStatusResponse struct {
	TicketCode    string           `json:"ticketCode"`
	TicketNumber  int              `json:"ticketNumber"`
	QueueType     models.QueueType `json:"queueType"`
	VisitDate     string           `json:"visitDate"`
	TicketStatus  string           `json:"ticketStatus"`
	CurrentNumber int              `json:"currentNumber"`
	WaitingBefore int              `json:"waitingBefore"`
}

type ReissueResult struct {
	OldTicketCode string           `json:"oldTicketCode"`
	NewTicketCode string           `json:"newTicketCode"`
	VisitDate     string           `json:"visitDate"`
	QueueType     models.QueueType `json:"queueType"`
}

type AdvanceResult struct {
	QueueID       string `json:"queueId"`
	CurrentNumber int    `json:"currentNumber"`
}

// RequestOtp - Terbitkan kode OTP check-in untuk satu nomor HP.
// Kode lama (kalau ada) langsung tertimpa; demo mode: kode dikembalikan
// langsung ke pemanggil, tidak dikirim lewat SMS.
func (s *QueueService) RequestOtp(ctx context.Context, phoneNumber string) (OtpResult, error) {
	code, err := helper.GenerateOtpCode(otpCodeLength)
	if err != nil {
		return OtpResult{}, err
	}

	now := time.Now()
	otp := models.OtpRequest{
		PhoneNumber: phoneNumber,
		OtpCode:     code,
		Purpose:     models.OtpPurposeCheckin,
		IsVerified:  false,
		CreatedAt:   now,
		ExpiredAt:   now.Add(otpLifetime),
		Attempts:    0,
	}

	if err := s.store.PutOtp(ctx, otp); err != nil {
		return OtpResult{}, err
	}

	monitoring.RecordOtpRequest()

	return OtpResult{
		PhoneNumber: phoneNumber,
		OtpCode:     code,
		ExpiredAt:   otp.ExpiredAt,
	}, nil
}

// VerifyAndIssueTicket - Verifikasi OTP lalu terbitkan nomor antrian.
// Kode hanya bisa dipakai sekali; gagal di tahap OTP tidak pernah
// mengalokasikan nomor.
func (s *QueueService) VerifyAndIssueTicket(ctx context.Context, in VerifyAndIssueInput) (IssueResult, error) {
	visitDate := in.VisitDate
	if visitDate == "" {
		visitDate = helper.Today()
	}
	now := time.Now()

	otp, found, err := s.store.GetOtp(ctx, in.PhoneNumber)
	if err != nil {
		return IssueResult{}, err
	}
	if !found || otp.Purpose != models.OtpPurposeCheckin {
		monitoring.RecordOtpVerification("not_found")
		return IssueResult{}, ErrOtpNotFound
	}
	if otp.IsVerified {
		monitoring.RecordOtpVerification("already_used")
		return IssueResult{}, ErrOtpAlreadyUsed
	}
	if !now.Before(otp.ExpiredAt) {
		monitoring.RecordOtpVerification("expired")
		return IssueResult{}, ErrOtpExpired
	}
	if otp.OtpCode != in.OtpCode {
		// lost update antar verifikasi paralel di sini tidak masalah
		if err := s.store.IncrOtpAttempts(ctx, in.PhoneNumber); err != nil {
			log.Println("gagal increment attempts OTP:", err)
		}
		monitoring.RecordOtpVerification("invalid")
		return IssueResult{}, ErrOtpInvalid
	}

	if err := s.store.MarkOtpVerified(ctx, in.PhoneNumber, now); err != nil {
		return IssueResult{}, err
	}
	monitoring.RecordOtpVerification("success")

	if err := s.patients.UpsertPatient(ctx, models.Patient{
		PhoneNumber: in.PhoneNumber,
		FullName:    in.FullName,
		NationalID:  in.NationalID,
		CreatedAt:   now,
	}); err != nil {
		return IssueResult{}, err
	}

	_, found, err = s.store.GetQueue(ctx, visitDate, in.QueueType)
	if err != nil {
		return IssueResult{}, err
	}
	if !found {
		if _, err := s.store.CreateQueue(ctx, models.Queue{
			QueueID:          models.BuildQueueID(visitDate, in.QueueType),
			VisitDate:        visitDate,
			QueueType:        in.QueueType,
			CurrentNumber:    0,
			LastIssuedNumber: 0,
			IsActive:         true,
			CreatedAt:        now,
		}); err != nil {
			return IssueResult{}, err
		}
	}

	// Alokasi nomor atomik di store; dua check-in paralel tidak akan
	// pernah dapat nomor yang sama
	ticketNumber, err := s.store.NextTicketNumber(ctx, visitDate, in.QueueType)
	if err != nil {
		return IssueResult{}, err
	}

	ticketCode := models.FormatTicketCode(in.QueueType, ticketNumber)
	if err := s.store.PutTicket(ctx, models.Ticket{
		QueueID:      models.BuildQueueID(visitDate, in.QueueType),
		TicketNumber: ticketNumber,
		TicketCode:   ticketCode,
		VisitDate:    visitDate,
		QueueType:    in.QueueType,
		Status:       models.StatusWaiting,
		IssuedAt:     now,
		PatientPhone: in.PhoneNumber,
	}); err != nil {
		return IssueResult{}, err
	}

	monitoring.RecordTicketIssued(string(in.QueueType))

	return IssueResult{
		TicketCode:   ticketCode,
		TicketNumber: ticketNumber,
		QueueType:    in.QueueType,
		VisitDate:    visitDate,
	}, nil
}

// GetTicketStatus - Status logis ticket diturunkan dari cursor antrian.
// Kalau status tersimpan sudah basi (misal admin advance loncat beberapa
// nomor), koreksinya dipersist di sini juga.
func (s *QueueService) GetTicketStatus(ctx context.Context, ticketCode, visitDate string) (TicketStatusResponse, error) {
	if visitDate == "" {
		visitDate = helper.Today()
	}

	queueType, ticketNumber, err := models.ParseTicketCode(ticketCode)
	if err != nil {
		return TicketStatusResponse{}, err
	}

	queue, found, err := s.store.GetQueue(ctx, visitDate, queueType)
	if err != nil {
		return TicketStatusResponse{}, err
	}
	if !found {
		return TicketStatusResponse{}, ErrQueueNotFound
	}

	ticket, found, err := s.store.GetTicket(ctx, visitDate, queueType, ticketNumber)
	if err != nil {
		return TicketStatusResponse{}, err
	}
	if !found {
		return TicketStatusResponse{}, ErrTicketNotFound
	}

	// Derivasi hanya berlaku untuk status WAITING; status terminal
	// (DONE, CANCELLED, NO_SHOW) dan CALLING dari admin tidak disentuh
	logicalStatus := ticket.Status
	if ticket.Status == models.StatusWaiting {
		switch {
		case queue.CurrentNumber == ticketNumber:
			logicalStatus = models.StatusCalling
		case queue.CurrentNumber > ticketNumber:
			logicalStatus = models.StatusDone // nomor sudah terlewati
		}
	}

	if logicalStatus != ticket.Status {
		if err := s.store.SetTicketStatus(ctx, visitDate, queueType, ticketNumber, logicalStatus); err != nil {
			return TicketStatusResponse{}, err
		}
	}

	waitingBefore, err := s.store.CountActiveBefore(ctx, visitDate, queueType, ticketNumber)
	if err != nil {
		return TicketStatusResponse{}, err
	}

	return TicketStatusResponse{
		TicketCode:    ticketCode,
		TicketNumber:  ticketNumber,
		QueueType:     queueType,
		VisitDate:     visitDate,
		TicketStatus:  logicalStatus,
		CurrentNumber: queue.CurrentNumber,
		WaitingBefore: waitingBefore,
	}, nil
}

// ReissueTicket - Batalkan ticket WAITING terakhir milik nomor HP dan
// terbitkan pengganti di antrian yang sama. Filter queueType hanya
// mempersempit pencarian; antrian ticket lama yang menentukan.
func (s *QueueService) ReissueTicket(ctx context.Context, phoneNumber, visitDate string, queueType models.QueueType) (ReissueResult, error) {
	if visitDate == "" {
		visitDate = helper.Today()
	}
	now := time.Now()

	oldTicket, found, err := s.store.LatestWaitingTicketByPhone(ctx, phoneNumber, visitDate, queueType)
	if err != nil {
		return ReissueResult{}, err
	}
	if !found {
		return ReissueResult{}, ErrNoWaitingTicket
	}

	if err := s.store.CancelTicket(ctx, oldTicket.VisitDate, oldTicket.QueueType, oldTicket.TicketNumber, reissueNote, now); err != nil {
		return ReissueResult{}, err
	}

	effectiveType := oldTicket.QueueType
	newNumber, err := s.store.NextTicketNumber(ctx, oldTicket.VisitDate, effectiveType)
	if err != nil {
		return ReissueResult{}, err
	}

	newCode := models.FormatTicketCode(effectiveType, newNumber)
	if err := s.store.PutTicket(ctx, models.Ticket{
		QueueID:                models.BuildQueueID(oldTicket.VisitDate, effectiveType),
		TicketNumber:           newNumber,
		TicketCode:             newCode,
		VisitDate:              oldTicket.VisitDate,
		QueueType:              effectiveType,
		Status:                 models.StatusWaiting,
		IssuedAt:               now,
		PatientPhone:           phoneNumber,
		ReissuedFromTicketCode: oldTicket.TicketCode,
	}); err != nil {
		return ReissueResult{}, err
	}

	monitoring.RecordTicketReissued(string(effectiveType))

	return ReissueResult{
		OldTicketCode: oldTicket.TicketCode,
		NewTicketCode: newCode,
		VisitDate:     oldTicket.VisitDate,
		QueueType:     effectiveType,
	}, nil
}

// AdminAdvanceQueue - Geser cursor antrian sebesar step (loket memanggil
// nomor berikutnya). Increment-nya atomik di store, aman dipanggil banyak
// loket sekaligus. Cursor sengaja tidak di-clamp ke nomor terakhir terbit.
func (s *QueueService) AdminAdvanceQueue(ctx context.Context, queueType models.QueueType, visitDate string, step int) (AdvanceResult, error) {
	if visitDate == "" {
		visitDate = helper.Today()
	}

	oldCurrent, lastIssued, err := s.store.AdvanceCurrent(ctx, visitDate, queueType, step)
	if err != nil {
		return AdvanceResult{}, err
	}
	newCurrent := oldCurrent + step

	// Nomor yang baru dilewati ditandai DONE tanpa cek status lama
	// (overwrite disengaja); nomor di antaranya kalau step > 1 dibereskan
	// lazy oleh derivasi GetTicketStatus
	if oldCurrent > 0 && oldCurrent <= lastIssued {
		if err := s.store.SetTicketStatus(ctx, visitDate, queueType, oldCurrent, models.StatusDone); err != nil {
			return AdvanceResult{}, err
		}
	}

	if newCurrent > 0 && newCurrent <= lastIssued {
		if err := s.store.SetTicketStatus(ctx, visitDate, queueType, newCurrent, models.StatusCalling); err != nil {
			return AdvanceResult{}, err
		}
	}

	monitoring.RecordQueueAdvance(string(queueType))

	result := AdvanceResult{
		QueueID:       models.BuildQueueID(visitDate, queueType),
		CurrentNumber: newCurrent,
	}

	if s.display != nil {
		msg, err := json.Marshal(map[string]any{
			"queueId":       result.QueueID,
			"queueType":     queueType,
			"visitDate":     visitDate,
			"currentNumber": newCurrent,
		})
		if err == nil {
			s.display.Publish(msg)
		}
	}

	return result, nil
}
