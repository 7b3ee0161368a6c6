package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Pipeline PipelineConfig
	Scribe   ScribeConfig
	Training TrainingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type PipelineConfig struct {
	SessionTTL    time.Duration
	MaxAttempts   int
	RetryDelay    time.Duration
	AudioDir      string
	StreamName    string
	Subject       string
	Durable       string
	FinalizeTopic string
}

// TrainingConfig locates the JSONL files feedback samples are appended to.
type TrainingConfig struct {
	DataDir string
	SFTFile string
	DPOFile string
}

type ScribeConfig struct {
	ASRBaseURL    string
	LLMProvider   string // "ollama"
	LLMModel      string // e.g. "llama3", "qwen2.5"
	OllamaBaseURL string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/scribe.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Pipeline: PipelineConfig{
			SessionTTL:    time.Duration(getEnvAsInt("SESSION_TTL_SECONDS", 3600)) * time.Second,
			MaxAttempts:   getEnvAsInt("CHUNK_MAX_ATTEMPTS", 3),
			RetryDelay:    time.Duration(getEnvAsInt("CHUNK_RETRY_DELAY_SECONDS", 5)) * time.Second,
			AudioDir:      getEnv("AUDIO_DIR", "uploads/audio"),
			StreamName:    getEnv("SCRIBE_STREAM_NAME", "SCRIBE"),
			Subject:       getEnv("SCRIBE_CHUNK_SUBJECT", "scribe.chunks"),
			Durable:       getEnv("SCRIBE_CONSUMER_DURABLE", "scribe-pipeline"),
			FinalizeTopic: getEnv("SESSION_FINALIZE_TOPIC_NAME", "SESSION_FINALIZE"),
		},
		Scribe: ScribeConfig{
			ASRBaseURL:    getEnv("ASR_BASE_URL", "http://localhost:8081"),
			LLMProvider:   getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:      getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Training: TrainingConfig{
			DataDir: getEnv("TRAINING_DATA_DIR", "data"),
			SFTFile: getEnv("SFT_FILE", "sft_train_data.jsonl"),
			DPOFile: getEnv("DPO_FILE", "dpo_train_data.jsonl"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
