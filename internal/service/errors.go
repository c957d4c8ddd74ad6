package service

import "errors"

// Kode error string, dirender apa adanya ke field "error" response 400
var (
	ErrOtpNotFound     = errors.New("OTP_NOT_FOUND")
	ErrOtpAlreadyUsed  = errors.New("OTP_ALREADY_USED")
	ErrOtpExpired      = errors.New("OTP_EXPIRED")
	ErrOtpInvalid      = errors.New("OTP_INVALID")
	ErrQueueNotFound   = errors.New("QUEUE_NOT_FOUND")
	ErrTicketNotFound  = errors.New("TICKET_NOT_FOUND")
	ErrNoWaitingTicket = errors.New("NO_WAITING_TICKET_FOR_PHONE")
)
