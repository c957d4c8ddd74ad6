package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"backend-checkin/internal/models"

	"github.com/redis/go-redis/v9"
)

// TTL key OTP untuk garbage collection di sisi store (lebih panjang dari
// masa berlaku kode supaya record expired masih bisa dibaca dan ditolak
// dengan OTP_EXPIRED, bukan OTP_NOT_FOUND)
const otpKeyTTL = 10 * time.Minute

// advanceScript - Naikkan cursor antrian dan baca last_issued_number dalam
// satu round trip atomik. Field yang belum ada dianggap 0.
const advanceScript = `
local current = redis.call('HINCRBY', KEYS[1], 'current_number', ARGV[1])
local last = redis.call('HGET', KEYS[1], 'last_issued_number')
if not last then
  last = 0
end
return {current, last}
`

// createQueueScript - Tulis queue hanya kalau key-nya belum ada
const createQueueScript = `
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1],
  'visit_date', ARGV[1],
  'queue_type', ARGV[2],
  'current_number', ARGV[3],
  'last_issued_number', ARGV[4],
  'is_active', ARGV[5],
  'created_at', ARGV[6])
return 1
`

type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func otpKey(phoneNumber string) string {
	return fmt.Sprintf("otp:%s", phoneNumber)
}

func queueKey(visitDate string, queueType models.QueueType) string {
	return fmt.Sprintf("queue:%s:%s", visitDate, queueType)
}

func ticketKey(visitDate string, queueType models.QueueType, ticketNumber int) string {
	return fmt.Sprintf("ticket:%s:%s:%d", visitDate, queueType, ticketNumber)
}

func phoneIndexKey(phoneNumber string) string {
	return fmt.Sprintf("phone:tickets:%s", phoneNumber)
}

// Member index per ticket, dipecah lagi waktu query
func phoneIndexMember(t models.Ticket) string {
	return fmt.Sprintf("%s|%s|%d", t.VisitDate, t.QueueType, t.TicketNumber)
}

func (s *Store) PutOtp(ctx context.Context, otp models.OtpRequest) error {
	key := otpKey(otp.PhoneNumber)

	err := s.rdb.HSet(ctx, key,
		"otp_code", otp.OtpCode,
		"purpose", otp.Purpose,
		"is_verified", boolField(otp.IsVerified),
		"created_at", otp.CreatedAt.Format(time.RFC3339Nano),
		"expired_at", otp.ExpiredAt.Format(time.RFC3339Nano),
		"attempts", otp.Attempts,
	).Err()
	if err != nil {
		return err
	}

	return s.rdb.Expire(ctx, key, otpKeyTTL).Err()
}

func (s *Store) GetOtp(ctx context.Context, phoneNumber string) (models.OtpRequest, bool, error) {
	data, err := s.rdb.HGetAll(ctx, otpKey(phoneNumber)).Result()
	if err != nil {
		return models.OtpRequest{}, false, err
	}
	if len(data) == 0 {
		return models.OtpRequest{}, false, nil
	}

	otp := models.OtpRequest{
		PhoneNumber: phoneNumber,
		OtpCode:     data["otp_code"],
		Purpose:     data["purpose"],
		IsVerified:  data["is_verified"] == "1",
		CreatedAt:   parseTime(data["created_at"]),
		ExpiredAt:   parseTime(data["expired_at"]),
		Attempts:    parseInt(data["attempts"]),
	}
	if v := data["verified_at"]; v != "" {
		at := parseTime(v)
		otp.VerifiedAt = &at
	}

	return otp, true, nil
}

func (s *Store) MarkOtpVerified(ctx context.Context, phoneNumber string, at time.Time) error {
	return s.rdb.HSet(ctx, otpKey(phoneNumber),
		"is_verified", "1",
		"verified_at", at.Format(time.RFC3339Nano),
	).Err()
}

func (s *Store) IncrOtpAttempts(ctx context.Context, phoneNumber string) error {
	return s.rdb.HIncrBy(ctx, otpKey(phoneNumber), "attempts", 1).Err()
}

func (s *Store) GetQueue(ctx context.Context, visitDate string, queueType models.QueueType) (models.Queue, bool, error) {
	data, err := s.rdb.HGetAll(ctx, queueKey(visitDate, queueType)).Result()
	if err != nil {
		return models.Queue{}, false, err
	}
	if len(data) == 0 {
		return models.Queue{}, false, nil
	}

	// Hash bisa saja partial (advance duluan sebelum ada check-in),
	// identitas queue selalu diturunkan dari parameter
	queue := models.Queue{
		QueueID:          models.BuildQueueID(visitDate, queueType),
		VisitDate:        visitDate,
		QueueType:        queueType,
		CurrentNumber:    parseInt(data["current_number"]),
		LastIssuedNumber: parseInt(data["last_issued_number"]),
		IsActive:         data["is_active"] == "1",
		CreatedAt:        parseTime(data["created_at"]),
	}

	return queue, true, nil
}

func (s *Store) CreateQueue(ctx context.Context, queue models.Queue) (bool, error) {
	created, err := s.rdb.Eval(ctx, createQueueScript,
		[]string{queueKey(queue.VisitDate, queue.QueueType)},
		queue.VisitDate,
		string(queue.QueueType),
		queue.CurrentNumber,
		queue.LastIssuedNumber,
		boolField(queue.IsActive),
		queue.CreatedAt.Format(time.RFC3339Nano),
	).Int64()
	if err != nil {
		return false, err
	}

	return created == 1, nil
}

func (s *Store) NextTicketNumber(ctx context.Context, visitDate string, queueType models.QueueType) (int, error) {
	n, err := s.rdb.HIncrBy(ctx, queueKey(visitDate, queueType), "last_issued_number", 1).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Store) AdvanceCurrent(ctx context.Context, visitDate string, queueType models.QueueType, step int) (int, int, error) {
	res, err := s.rdb.Eval(ctx, advanceScript,
		[]string{queueKey(visitDate, queueType)}, step).Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("advance script: unexpected reply %v", res)
	}

	newCurrent := toInt(res[0])
	lastIssued := toInt(res[1])

	return newCurrent - step, lastIssued, nil
}

func (s *Store) PutTicket(ctx context.Context, ticket models.Ticket) error {
	fields := []any{
		"ticket_code", ticket.TicketCode,
		"visit_date", ticket.VisitDate,
		"queue_type", string(ticket.QueueType),
		"status", ticket.Status,
		"issued_at", ticket.IssuedAt.Format(time.RFC3339Nano),
		"patient_phone", ticket.PatientPhone,
	}
	if ticket.ReissuedFromTicketCode != "" {
		fields = append(fields, "reissued_from", ticket.ReissuedFromTicketCode)
	}

	// Ticket dan index per-nomor-HP ditulis sekali jalan; index inilah
	// yang dipakai reissue untuk cari ticket WAITING terakhir
	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, ticketKey(ticket.VisitDate, ticket.QueueType, ticket.TicketNumber), fields...)
		pipe.ZAdd(ctx, phoneIndexKey(ticket.PatientPhone), redis.Z{
			Score:  float64(ticket.IssuedAt.UnixNano()),
			Member: phoneIndexMember(ticket),
		})
		return nil
	})

	return err
}

func (s *Store) GetTicket(ctx context.Context, visitDate string, queueType models.QueueType, ticketNumber int) (models.Ticket, bool, error) {
	data, err := s.rdb.HGetAll(ctx, ticketKey(visitDate, queueType, ticketNumber)).Result()
	if err != nil {
		return models.Ticket{}, false, err
	}
	if len(data) == 0 {
		return models.Ticket{}, false, nil
	}

	ticket := models.Ticket{
		QueueID:                models.BuildQueueID(visitDate, queueType),
		TicketNumber:           ticketNumber,
		TicketCode:             data["ticket_code"],
		VisitDate:              visitDate,
		QueueType:              queueType,
		Status:                 data["status"],
		IssuedAt:               parseTime(data["issued_at"]),
		PatientPhone:           data["patient_phone"],
		ReissuedFromTicketCode: data["reissued_from"],
		Notes:                  data["notes"],
	}
	if v := data["cancelled_at"]; v != "" {
		at := parseTime(v)
		ticket.CancelledAt = &at
	}

	return ticket, true, nil
}

func (s *Store) SetTicketStatus(ctx context.Context, visitDate string, queueType models.QueueType, ticketNumber int, status string) error {
	return s.rdb.HSet(ctx, ticketKey(visitDate, queueType, ticketNumber), "status", status).Err()
}

func (s *Store) CancelTicket(ctx context.Context, visitDate string, queueType models.QueueType, ticketNumber int, notes string, at time.Time) error {
	return s.rdb.HSet(ctx, ticketKey(visitDate, queueType, ticketNumber),
		"status", models.StatusCancelled,
		"notes", notes,
		"cancelled_at", at.Format(time.RFC3339Nano),
	).Err()
}

func (s *Store) CountActiveBefore(ctx context.Context, visitDate string, queueType models.QueueType, ticketNumber int) (int, error) {
	if ticketNumber <= 1 {
		return 0, nil
	}

	cmds := make([]*redis.StringCmd, 0, ticketNumber-1)
	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for n := 1; n < ticketNumber; n++ {
			cmds = append(cmds, pipe.HGet(ctx, ticketKey(visitDate, queueType, n), "status"))
		}
		return nil
	})
	if err != nil && err != redis.Nil {
		return 0, err
	}

	count := 0
	for _, cmd := range cmds {
		status, err := cmd.Result()
		if err == redis.Nil {
			continue // nomor bolong, ticket tidak pernah tercatat
		}
		if err != nil {
			return 0, err
		}
		if status == models.StatusWaiting || status == models.StatusCalling {
			count++
		}
	}

	return count, nil
}

func (s *Store) LatestWaitingTicketByPhone(ctx context.Context, phoneNumber, visitDate string, queueType models.QueueType) (models.Ticket, bool, error) {
	// Index di-sort berdasarkan waktu terbit, jadi ZREVRANGE = terbaru duluan
	members, err := s.rdb.ZRevRange(ctx, phoneIndexKey(phoneNumber), 0, -1).Result()
	if err != nil {
		return models.Ticket{}, false, err
	}

	for _, member := range members {
		memberDate, memberType, memberNumber, ok := parsePhoneIndexMember(member)
		if !ok || memberDate != visitDate {
			continue
		}
		if queueType != "" && memberType != queueType {
			continue
		}

		ticket, found, err := s.GetTicket(ctx, memberDate, memberType, memberNumber)
		if err != nil {
			return models.Ticket{}, false, err
		}
		if found && ticket.Status == models.StatusWaiting {
			return ticket, true, nil
		}
	}

	return models.Ticket{}, false, nil
}

func parsePhoneIndexMember(member string) (string, models.QueueType, int, bool) {
	parts := strings.SplitN(member, "|", 3)
	if len(parts) != 3 {
		return "", "", 0, false
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", "", 0, false
	}
	return parts[0], models.QueueType(parts[1]), n, true
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case string:
		return parseInt(n)
	default:
		return 0
	}
}
