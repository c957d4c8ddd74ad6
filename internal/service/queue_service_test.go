package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"backend-checkin/internal/models"
	"backend-checkin/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDate = "2026-03-01"

func setupService() (*QueueService, *memstore.Store) {
	st := memstore.New()
	return NewQueueService(st, st, nil), st
}

// checkin - Alur lengkap request OTP + verify + terbit nomor
func checkin(t *testing.T, svc *QueueService, phone string, queueType models.QueueType, visitDate string) IssueResult {
	t.Helper()
	ctx := context.Background()

	otp, err := svc.RequestOtp(ctx, phone)
	require.NoError(t, err)
	require.Len(t, otp.OtpCode, 6)

	res, err := svc.VerifyAndIssueTicket(ctx, VerifyAndIssueInput{
		FullName:    "Nguyen Van A",
		PhoneNumber: phone,
		QueueType:   queueType,
		VisitDate:   visitDate,
		OtpCode:     otp.OtpCode,
	})
	require.NoError(t, err)
	return res
}

func TestCheckinIssuesSequentialNumbers(t *testing.T) {
	svc, _ := setupService()

	// Dua pasien beda nomor HP, queue dan tanggal sama
	first := checkin(t, svc, "+84901000001", models.QueueTypeBHYT, "")
	assert.Equal(t, "BHYT-001", first.TicketCode)
	assert.Equal(t, 1, first.TicketNumber)
	assert.Equal(t, time.Now().Format("2006-01-02"), first.VisitDate) // default hari ini

	second := checkin(t, svc, "+84901000002", models.QueueTypeBHYT, "")
	assert.Equal(t, "BHYT-002", second.TicketCode)
	assert.Equal(t, 2, second.TicketNumber)
}

func TestQueuePartitionsIndependent(t *testing.T) {
	svc, _ := setupService()

	checkin(t, svc, "+84901000001", models.QueueTypeBHYT, testDate)
	dv := checkin(t, svc, "+84901000002", models.QueueTypeDV, testDate)
	otherDay := checkin(t, svc, "+84901000003", models.QueueTypeBHYT, "2026-03-02")

	// Tiap partisi (tanggal, jenis) mulai dari 001
	assert.Equal(t, "DV-001", dv.TicketCode)
	assert.Equal(t, "BHYT-001", otherDay.TicketCode)
}

func TestStatusFreshTicketWaiting(t *testing.T) {
	svc, _ := setupService()
	checkin(t, svc, "+84901000001", models.QueueTypeBHYT, testDate)

	status, err := svc.GetTicketStatus(context.Background(), "BHYT-001", testDate)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, status.TicketStatus)
	assert.Equal(t, 0, status.CurrentNumber)
	assert.Equal(t, 0, status.WaitingBefore)
	assert.Equal(t, 1, status.TicketNumber)
	assert.Equal(t, models.QueueTypeBHYT, status.QueueType)
}

func TestStatusIdempotent(t *testing.T) {
	svc, _ := setupService()
	checkin(t, svc, "+84901000001", models.QueueTypeBHYT, testDate)

	first, err := svc.GetTicketStatus(context.Background(), "BHYT-001", testDate)
	require.NoError(t, err)
	second, err := svc.GetTicketStatus(context.Background(), "BHYT-001", testDate)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAdvanceMarksCalling(t *testing.T) {
	svc, st := setupService()
	ctx := context.Background()
	checkin(t, svc, "+84901000001", models.QueueTypeBHYT, testDate)

	res, err := svc.AdminAdvanceQueue(ctx, models.QueueTypeBHYT, testDate, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentNumber)
	assert.Equal(t, "DATE#2026-03-01#TYPE#BHYT", res.QueueID)

	ticket, found, err := st.GetTicket(ctx, testDate, models.QueueTypeBHYT, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.StatusCalling, ticket.Status)

	status, err := svc.GetTicketStatus(ctx, "BHYT-001", testDate)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCalling, status.TicketStatus)
	assert.Equal(t, 1, status.CurrentNumber)
}

func TestAdvancePastLastIssued(t *testing.T) {
	svc, st := setupService()
	ctx := context.Background()
	checkin(t, svc, "+84901000001", models.QueueTypeBHYT, testDate)

	_, err := svc.AdminAdvanceQueue(ctx, models.QueueTypeBHYT, testDate, 1)
	require.NoError(t, err)

	// Cursor 1 -> 2 padahal nomor 2 belum terbit: nomor 1 jadi DONE,
	// tidak ada yang di-set CALLING
	res, err := svc.AdminAdvanceQueue(ctx, models.QueueTypeBHYT, testDate, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.CurrentNumber)

	ticket, _, err := st.GetTicket(ctx, testDate, models.QueueTypeBHYT, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, ticket.Status)

	status, err := svc.GetTicketStatus(ctx, "BHYT-001", testDate)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, status.TicketStatus)
}

func TestAdvanceCursorNotClamped(t *testing.T) {
	svc, _ := setupService()

	// Advance di queue kosong tetap jalan, cursor boleh melewati
	// nomor terakhir yang terbit
	res, err := svc.AdminAdvanceQueue(context.Background(), models.QueueTypeDV, testDate, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, res.CurrentNumber)
}

func TestAdvanceStepLazyHealing(t *testing.T) {
	svc, st := setupService()
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		checkin(t, svc, fmt.Sprintf("+8490100000%d", i), models.QueueTypeBHYT, testDate)
	}

	// Step 3 sekali jalan: nomor 3 langsung CALLING, nomor 1 dan 2 tidak
	// disentuh advance dan baru dibereskan waktu dibaca
	res, err := svc.AdminAdvanceQueue(ctx, models.QueueTypeBHYT, testDate, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, res.CurrentNumber)

	ticket3, _, err := st.GetTicket(ctx, testDate, models.QueueTypeBHYT, 3)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCalling, ticket3.Status)

	ticket1, _, err := st.GetTicket(ctx, testDate, models.QueueTypeBHYT, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, ticket1.Status) // masih basi di store

	status, err := svc.GetTicketStatus(ctx, "BHYT-001", testDate)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, status.TicketStatus)

	// Koreksi dipersist (self-healing read)
	ticket1, _, err = st.GetTicket(ctx, testDate, models.QueueTypeBHYT, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, ticket1.Status)
}

func TestDerivationNeverOverridesTerminalStatus(t *testing.T) {
	svc, st := setupService()
	ctx := context.Background()
	checkin(t, svc, "+84901000001", models.QueueTypeBHYT, testDate)

	require.NoError(t, st.CancelTicket(ctx, testDate, models.QueueTypeBHYT, 1, "batal", time.Now()))

	_, err := svc.AdminAdvanceQueue(ctx, models.QueueTypeBHYT, testDate, 1)
	require.NoError(t, err)
	// advance menimpa CANCELLED jadi CALLING (overwrite disengaja),
	// tapi derivasi read tidak pernah menyentuh status non-WAITING
	status, err := svc.GetTicketStatus(ctx, "BHYT-001", testDate)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCalling, status.TicketStatus)
}

func TestWaitingBeforeSkipsCancelled(t *testing.T) {
	svc, _ := setupService()
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		checkin(t, svc, fmt.Sprintf("+8490100000%d", i), models.QueueTypeBHYT, testDate)
	}

	// Nomor 2 dibatalkan lewat reissue, jadi di depan nomor 3 tinggal nomor 1
	_, err := svc.ReissueTicket(ctx, "+84901000002", testDate, "")
	require.NoError(t, err)

	status, err := svc.GetTicketStatus(ctx, "BHYT-003", testDate)
	require.NoError(t, err)
	assert.Equal(t, 1, status.WaitingBefore)
}

func TestReissue(t *testing.T) {
	svc, st := setupService()
	ctx := context.Background()
	checkin(t, svc, "+84901000001", models.QueueTypeBHYT, testDate)
	checkin(t, svc, "+84901000002", models.QueueTypeBHYT, testDate)

	res, err := svc.ReissueTicket(ctx, "+84901000001", testDate, "")
	require.NoError(t, err)
	assert.Equal(t, "BHYT-001", res.OldTicketCode)
	assert.Equal(t, "BHYT-003", res.NewTicketCode)
	assert.Equal(t, models.QueueTypeBHYT, res.QueueType)
	assert.Equal(t, testDate, res.VisitDate)

	old, _, err := st.GetTicket(ctx, testDate, models.QueueTypeBHYT, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, old.Status)
	assert.NotNil(t, old.CancelledAt)
	assert.NotEmpty(t, old.Notes)

	replacement, _, err := st.GetTicket(ctx, testDate, models.QueueTypeBHYT, 3)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, replacement.Status)
	assert.Equal(t, "BHYT-001", replacement.ReissuedFromTicketCode)
	assert.Equal(t, "+84901000001", replacement.PatientPhone)
}

func TestReissuePicksNewestWaiting(t *testing.T) {
	svc, _ := setupService()
	ctx := context.Background()

	// Satu pasien pegang dua ticket WAITING, yang terbaru yang dibatalkan
	checkin(t, svc, "+84901000001", models.QueueTypeBHYT, testDate)
	checkin(t, svc, "+84901000001", models.QueueTypeBHYT, testDate)

	res, err := svc.ReissueTicket(ctx, "+84901000001", testDate, "")
	require.NoError(t, err)
	assert.Equal(t, "BHYT-002", res.OldTicketCode)
	assert.Equal(t, "BHYT-003", res.NewTicketCode)
}

func TestReissueFilterOnlyNarrowsSearch(t *testing.T) {
	svc, _ := setupService()
	ctx := context.Background()
	checkin(t, svc, "+84901000001", models.QueueTypeBHYT, testDate)
	checkin(t, svc, "+84901000001", models.QueueTypeDV, testDate)

	// Filter BHYT: yang DV (lebih baru) dilewati, pengganti tetap di BHYT
	res, err := svc.ReissueTicket(ctx, "+84901000001", testDate, models.QueueTypeBHYT)
	require.NoError(t, err)
	assert.Equal(t, "BHYT-001", res.OldTicketCode)
	assert.Equal(t, "BHYT-002", res.NewTicketCode)
	assert.Equal(t, models.QueueTypeBHYT, res.QueueType)
}

func TestReissueNoWaitingTicket(t *testing.T) {
	svc, _ := setupService()

	_, err := svc.ReissueTicket(context.Background(), "+84909999999", testDate, "")
	assert.ErrorIs(t, err, ErrNoWaitingTicket)
}

func TestReissueIgnoresNonWaitingTickets(t *testing.T) {
	svc, _ := setupService()
	ctx := context.Background()
	checkin(t, svc, "+84901000001", models.QueueTypeBHYT, testDate)

	// Ticket sudah dipanggil, bukan kandidat reissue lagi
	_, err := svc.AdminAdvanceQueue(ctx, models.QueueTypeBHYT, testDate, 1)
	require.NoError(t, err)

	_, err = svc.ReissueTicket(ctx, "+84901000001", testDate, "")
	assert.ErrorIs(t, err, ErrNoWaitingTicket)
}

func TestOtpSingleUse(t *testing.T) {
	svc, _ := setupService()
	ctx := context.Background()

	otp, err := svc.RequestOtp(ctx, "+84901000001")
	require.NoError(t, err)

	in := VerifyAndIssueInput{
		FullName:    "Nguyen Van A",
		PhoneNumber: "+84901000001",
		QueueType:   models.QueueTypeBHYT,
		VisitDate:   testDate,
		OtpCode:     otp.OtpCode,
	}

	_, err = svc.VerifyAndIssueTicket(ctx, in)
	require.NoError(t, err)

	// Kode yang sama dipakai lagi
	_, err = svc.VerifyAndIssueTicket(ctx, in)
	assert.ErrorIs(t, err, ErrOtpAlreadyUsed)
}

func TestOtpNotFound(t *testing.T) {
	svc, _ := setupService()

	_, err := svc.VerifyAndIssueTicket(context.Background(), VerifyAndIssueInput{
		FullName:    "Nguyen Van A",
		PhoneNumber: "+84901000001",
		QueueType:   models.QueueTypeBHYT,
		VisitDate:   testDate,
		OtpCode:     "123456",
	})
	assert.ErrorIs(t, err, ErrOtpNotFound)
}

func TestOtpExpired(t *testing.T) {
	svc, st := setupService()
	ctx := context.Background()

	// Record OTP yang masa berlakunya sudah lewat
	now := time.Now()
	require.NoError(t, st.PutOtp(ctx, models.OtpRequest{
		PhoneNumber: "+84901000001",
		OtpCode:     "123456",
		Purpose:     models.OtpPurposeCheckin,
		CreatedAt:   now.Add(-10 * time.Minute),
		ExpiredAt:   now.Add(-5 * time.Minute),
	}))

	_, err := svc.VerifyAndIssueTicket(ctx, VerifyAndIssueInput{
		FullName:    "Nguyen Van A",
		PhoneNumber: "+84901000001",
		QueueType:   models.QueueTypeBHYT,
		VisitDate:   testDate,
		OtpCode:     "123456",
	})
	assert.ErrorIs(t, err, ErrOtpExpired)
}

func TestOtpWrongCodeIncrementsAttempts(t *testing.T) {
	svc, st := setupService()
	ctx := context.Background()

	otp, err := svc.RequestOtp(ctx, "+84901000001")
	require.NoError(t, err)

	wrong := "000000"
	if otp.OtpCode == wrong {
		wrong = "000001"
	}

	in := VerifyAndIssueInput{
		FullName:    "Nguyen Van A",
		PhoneNumber: "+84901000001",
		QueueType:   models.QueueTypeBHYT,
		VisitDate:   testDate,
		OtpCode:     wrong,
	}

	_, err = svc.VerifyAndIssueTicket(ctx, in)
	assert.ErrorIs(t, err, ErrOtpInvalid)
	_, err = svc.VerifyAndIssueTicket(ctx, in)
	assert.ErrorIs(t, err, ErrOtpInvalid)

	stored, found, err := st.GetOtp(ctx, "+84901000001")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, stored.Attempts)

	// Tidak ada lockout: kode benar tetap jalan setelah berapa pun salah
	in.OtpCode = otp.OtpCode
	res, err := svc.VerifyAndIssueTicket(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "BHYT-001", res.TicketCode)
}

func TestFailedVerifyNeverAllocatesNumber(t *testing.T) {
	svc, st := setupService()
	ctx := context.Background()

	otp, err := svc.RequestOtp(ctx, "+84901000001")
	require.NoError(t, err)

	wrong := "000000"
	if otp.OtpCode == wrong {
		wrong = "000001"
	}

	_, err = svc.VerifyAndIssueTicket(ctx, VerifyAndIssueInput{
		FullName:    "Nguyen Van A",
		PhoneNumber: "+84901000001",
		QueueType:   models.QueueTypeBHYT,
		VisitDate:   testDate,
		OtpCode:     wrong,
	})
	require.Error(t, err)

	_, found, err := st.GetQueue(ctx, testDate, models.QueueTypeBHYT)
	require.NoError(t, err)
	assert.False(t, found, "queue tidak boleh terbentuk dari verify yang gagal")
}

func TestNewOtpOverwritesPrevious(t *testing.T) {
	svc, _ := setupService()
	ctx := context.Background()

	first, err := svc.RequestOtp(ctx, "+84901000001")
	require.NoError(t, err)
	second, err := svc.RequestOtp(ctx, "+84901000001")
	require.NoError(t, err)

	in := VerifyAndIssueInput{
		FullName:    "Nguyen Van A",
		PhoneNumber: "+84901000001",
		QueueType:   models.QueueTypeBHYT,
		VisitDate:   testDate,
		OtpCode:     first.OtpCode,
	}

	// Kode lama sudah tertimpa
	if first.OtpCode != second.OtpCode {
		_, err = svc.VerifyAndIssueTicket(ctx, in)
		assert.ErrorIs(t, err, ErrOtpInvalid)
	}

	in.OtpCode = second.OtpCode
	_, err = svc.VerifyAndIssueTicket(ctx, in)
	assert.NoError(t, err)
}

func TestStatusErrors(t *testing.T) {
	svc, _ := setupService()
	ctx := context.Background()

	_, err := svc.GetTicketStatus(ctx, "VIP-001", testDate)
	assert.ErrorIs(t, err, models.ErrInvalidTicketCode)

	_, err = svc.GetTicketStatus(ctx, "BHYT-001", testDate)
	assert.ErrorIs(t, err, ErrQueueNotFound)

	checkin(t, svc, "+84901000001", models.QueueTypeBHYT, testDate)
	_, err = svc.GetTicketStatus(ctx, "BHYT-005", testDate)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestPatientUpsertedOnCheckin(t *testing.T) {
	svc, st := setupService()
	checkin(t, svc, "+84901000001", models.QueueTypeBHYT, testDate)

	patient, found := st.Patient("+84901000001")
	require.True(t, found)
	assert.Equal(t, "Nguyen Van A", patient.FullName)
}

func TestConcurrentCheckinsUniqueNumbers(t *testing.T) {
	svc, _ := setupService()
	ctx := context.Background()

	const patients = 20
	numbers := make([]int, patients)

	var wg sync.WaitGroup
	for i := 0; i < patients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			phone := fmt.Sprintf("+849012%05d", i)

			otp, err := svc.RequestOtp(ctx, phone)
			if err != nil {
				t.Error(err)
				return
			}
			res, err := svc.VerifyAndIssueTicket(ctx, VerifyAndIssueInput{
				FullName:    "Nguyen Van A",
				PhoneNumber: phone,
				QueueType:   models.QueueTypeBHYT,
				VisitDate:   testDate,
				OtpCode:     otp.OtpCode,
			})
			if err != nil {
				t.Error(err)
				return
			}
			numbers[i] = res.TicketNumber
		}(i)
	}
	wg.Wait()

	// Nomor tidak boleh dobel dan harus persis 1..N
	sort.Ints(numbers)
	for i, n := range numbers {
		assert.Equal(t, i+1, n)
	}
}
