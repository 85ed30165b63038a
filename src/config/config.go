package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

// OTPTTL is how long an issued verification code stays valid.
func OTPTTL() time.Duration {
	minutes := envInt("OTP_TTL_MINUTES", 10)
	return time.Duration(minutes) * time.Minute
}

// OTPMaxAttempts is the number of wrong codes tolerated before a pending
// verification is discarded.
func OTPMaxAttempts() int {
	return envInt("OTP_MAX_ATTEMPTS", 5)
}

// NotifyTimeout bounds a single outbound mail delivery. It must stay shorter
// than any request-level timeout so a slow transport cannot hold a request
// open.
func NotifyTimeout() time.Duration {
	seconds := envInt("NOTIFY_TIMEOUT_SECONDS", 5)
	return time.Duration(seconds) * time.Second
}

// AllowDuplicateSubmissions controls whether one user may register twice for
// the same event.
func AllowDuplicateSubmissions() bool {
	v := os.Getenv("REGISTRATION_ALLOW_DUPLICATES")
	if v == "" {
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
}

func MailSender() (name string, address string) {
	name = os.Getenv("MAIL_FROM_NAME")
	if name == "" {
		name = "Gatekeepr"
	}
	address = os.Getenv("MAIL_FROM_ADDRESS")
	return name, address
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	atoi, err := strconv.Atoi(v)
	if err != nil || atoi < 1 {
		return fallback
	}
	return atoi
}
