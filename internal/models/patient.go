package models

import "time"

// Patient - Data identitas pasien, di-upsert tiap check-in sukses.
// Murni informasional, tidak dipakai untuk otorisasi.
type Patient struct {
	PhoneNumber string    `json:"phoneNumber"`
	FullName    string    `json:"fullName"`
	NationalID  string    `json:"nationalId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
