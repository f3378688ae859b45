package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	JWTSecret string

	// Verification gateway (layanan face-match eksternal)
	VerifyGatewayURL     string
	VerifyGatewayAPIKey  string
	VerifyGatewayTimeout time.Duration
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ Tidak menemukan .env file, menggunakan ENV dari sistem")
		} else {
			log.Println("✅ .env file berhasil dimuat!")
		}
	} else {
		log.Println("🚀 Running in Railway, menggunakan ENV dari sistem")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	if JWTSecret == "" {
		log.Println("❌ JWT_SECRET belum diset!")
	}

	VerifyGatewayURL = GetEnv("VERIFY_GATEWAY_URL")
	VerifyGatewayAPIKey = GetEnv("VERIFY_GATEWAY_API_KEY")
	VerifyGatewayTimeout = GetEnvDuration("VERIFY_GATEWAY_TIMEOUT", 10*time.Second)
	if VerifyGatewayURL == "" {
		log.Println("⚠️ VERIFY_GATEWAY_URL belum diset, absen mandiri akan gagal")
	}
}

func GetEnv(key string) string {
	return os.Getenv(key)
}

func GetEnvOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func GetEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func GetEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
