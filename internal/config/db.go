package config

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// InitDB - MySQL dipakai untuk registry pasien (data durable),
// state antrian sendiri hidup di Redis
func InitDB() *sql.DB {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		GetEnv("DB_USER", "root"),
		GetEnv("DB_PASSWORD", ""),
		GetEnv("DB_HOST", "localhost"),
		GetEnv("DB_PORT", "3306"),
		GetEnv("DB_NAME", "checkin"),
	)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatal("Gagal buka koneksi MySQL:", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatal("MySQL tidak nyambung:", err)
	}

	log.Println("MySQL connected")
	return db
}
