package models

import "time"

const OtpPurposeCheckin = "CHECKIN"

// OtpRequest - Satu record OTP per nomor HP (request baru menimpa yang lama)
type OtpRequest struct {
	PhoneNumber string     `json:"phoneNumber"`
	OtpCode     string     `json:"otpCode"`
	Purpose     string     `json:"purpose"`
	IsVerified  bool       `json:"isVerified"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiredAt   time.Time  `json:"expiredAt"`
	VerifiedAt  *time.Time `json:"verifiedAt,omitempty"`
	Attempts    int        `json:"attempts"`
}
