package config

import (
	"os"
	"time"
)

type Config struct {
	HttpPort string

	// S3/MinIO
	BucketEndpoint  string
	BucketAccessID  string
	BucketAccessKey string
	BucketName      string
	BucketRegion    string
	UseSSL          bool   // MinIO: false, S3: true
	StorageType     string // "minio" or "s3"

	// Redis
	RedisURL      string
	RedisPassword string

	// Postgres
	Host     string
	User     string
	Password string
	DBName   string
	Port     string

	// Auth
	JWTSecret string

	// LLM
	LLMProvider  string // "OpenAI" or "Gemini"
	LLMModel     string
	OpenAIAPIKey string
	GeminiAPIKey string
	WhisperModel string

	// upload / processing budgets
	MaxFileSize          int64
	DirectTranscribeSize int64 // above this the transcript is built slice by slice
	SessionTTL           time.Duration
	TranscribeTimeout    time.Duration
	InsightTimeout       time.Duration
}

func LoadConfig() *Config {
	cfg := &Config{
		HttpPort:        os.Getenv("PORT"),
		BucketEndpoint:  os.Getenv("BUCKET_ENDPOINT"),
		BucketAccessID:  os.Getenv("BUCKET_ACCESS_ID"),
		BucketAccessKey: os.Getenv("BUCKET_ACCESS_KEY"),
		BucketName:      os.Getenv("BUCKET_NAME"),
		BucketRegion:    os.Getenv("BUCKET_REGION"),
		UseSSL:          os.Getenv("BUCKET_USE_SSL") == "true",
		StorageType:     os.Getenv("STORAGE_TYPE"),
		RedisURL:        os.Getenv("REDIS_URL"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		Host:            os.Getenv("PG_HOST"),
		User:            os.Getenv("PG_USER"),
		Password:        os.Getenv("PG_PASSWORD"),
		DBName:          os.Getenv("PG_DB"),
		Port:            os.Getenv("PG_PORT"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		LLMProvider:     os.Getenv("LLM_PROVIDER"),
		LLMModel:        os.Getenv("LLM_MODEL"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		WhisperModel:    os.Getenv("WHISPER_MODEL"),

		MaxFileSize:          500 * 1024 * 1024,
		DirectTranscribeSize: 10 * 1024 * 1024,
		SessionTTL:           time.Hour,
		TranscribeTimeout:    10 * time.Minute,
		InsightTimeout:       2 * time.Minute,
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "OpenAI"
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = "gpt-4o-mini"
	}
	if cfg.WhisperModel == "" {
		cfg.WhisperModel = "whisper-1"
	}
	return cfg
}
