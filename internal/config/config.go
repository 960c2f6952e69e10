package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseURL     string
	UseMemoryStore  bool
	JWTSecret       string
	JWTTTL          time.Duration
	GoogleAudience  string
	AllowOrigins    []string
	LogstashTCPAddr string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	OTPRateLimit  int
	OTPRateWindow time.Duration

	MinIOEndpoint     string
	MinIOAccessKey    string
	MinIOSecretKey    string
	MinIOUseSSL       bool
	MinIOBucketResume string
	MaxResumeBytes    int64

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	useMemory := getenv("USE_MEMORY_STORE", "false") == "true"

	resumeMax := int64(10 * 1024 * 1024)
	if v, err := strconv.ParseInt(getenv("MAX_RESUME_BYTES", "10485760"), 10, 64); err == nil && v > 0 {
		resumeMax = v
	}

	redisDB := 0
	if v, err := strconv.Atoi(getenv("REDIS_DB", "0")); err == nil {
		redisDB = v
	}
	otpLimit := 5
	if v, err := strconv.Atoi(getenv("OTP_RATE_LIMIT", "5")); err == nil && v > 0 {
		otpLimit = v
	}

	cfg := Config{
		Port:            getenv("PORT", "8080"),
		UseMemoryStore:  useMemory,
		JWTSecret:       must("JWT_SECRET"),
		JWTTTL:          getenvDuration("JWT_TTL", 24*time.Hour),
		GoogleAudience:  getenv("GOOGLE_AUDIENCE", ""),
		AllowOrigins:    splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,
		OTPRateLimit:  otpLimit,
		OTPRateWindow: getenvDuration("OTP_RATE_WINDOW", 15*time.Minute),

		MinIOEndpoint:     getenv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:    getenv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:    getenv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:       getenv("MINIO_USE_SSL", "false") == "true",
		MinIOBucketResume: getenv("MINIO_BUCKET_RESUMES", "gigboard-resumes"),
		MaxResumeBytes:    resumeMax,

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenv("SMTP_PORT", ""),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", ""),
	}
	if !useMemory {
		cfg.DatabaseURL = must("DATABASE_URL")
	}
	return cfg
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvDuration(k string, d time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
