package helper

import "time"

// Today - Tanggal kunjungan default (tanggal lokal server, YYYY-MM-DD)
func Today() string {
	return time.Now().Format("2006-01-02")
}
