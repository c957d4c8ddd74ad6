package models

import (
	"fmt"
	"time"
)

type QueueType string

const (
	QueueTypeBHYT QueueType = "BHYT" // antrian pasien asuransi
	QueueTypeDV   QueueType = "DV"   // antrian layanan umum
)

// ValidQueueType - Cek queue type masuk daftar yang didukung
func ValidQueueType(qt QueueType) bool {
	return qt == QueueTypeBHYT || qt == QueueTypeDV
}

type Queue struct {
	QueueID          string    `json:"queueId"`
	VisitDate        string    `json:"visitDate"` // YYYY-MM-DD
	QueueType        QueueType `json:"queueType"`
	CurrentNumber    int       `json:"currentNumber"`
	LastIssuedNumber int       `json:"lastIssuedNumber"`
	IsActive         bool      `json:"isActive"`
	CreatedAt        time.Time `json:"createdAt"`
}

// BuildQueueID - ID komposit queue per (tanggal kunjungan, jenis antrian)
func BuildQueueID(visitDate string, queueType QueueType) string {
	return fmt.Sprintf("DATE#%s#TYPE#%s", visitDate, queueType)
}
