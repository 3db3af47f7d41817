package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Ai         AIConfig
	Engagement EngagementConfig
	Snapshot   SnapshotConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	RealtimeLogPath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	UploadDir          string
	ExtractionTopic    string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider   string // "gemini", "ollama", "huggingface" or "mock"
	LLMModel      string // e.g. "gemini-2.5-flash", "llama3"
	ImageModel    string
	GoogleGemini  string
	OllamaBaseURL string
	HuggingFace   string
}

type EngagementConfig struct {
	Tick            time.Duration
	KickoffAfter    time.Duration
	InactivityAfter time.Duration
	AlignmentAt     int
	SummarizeAt     int
	NudgeEvery      int
}

type SnapshotConfig struct {
	ChromeWSURL  string
	Timeout      time.Duration
	Illustration bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			RealtimeLogPath:    getEnv("REALTIME_LOG_FILE_PATH", "logs/realtime.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
			ExtractionTopic:    getEnv("EXTRACT_CONCEPTS_TOPIC_NAME", "EXTRACT_CONCEPTS"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:      getEnv("LLM_MODEL", "gemini-2.5-flash"),
			ImageModel:    getEnv("IMAGE_MODEL", "gemini-2.5-flash-image"),
			GoogleGemini:  getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			HuggingFace:   getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Engagement: EngagementConfig{
			Tick:            getEnvAsSeconds("ENGAGEMENT_TICK_SECONDS", 30),
			KickoffAfter:    getEnvAsSeconds("ENGAGEMENT_KICKOFF_SECONDS", 60),
			InactivityAfter: getEnvAsSeconds("ENGAGEMENT_INACTIVITY_SECONDS", 120),
			AlignmentAt:     getEnvAsInt("ENGAGEMENT_ALIGNMENT_AT", 15),
			SummarizeAt:     getEnvAsInt("ENGAGEMENT_SUMMARIZE_AT", 30),
			NudgeEvery:      getEnvAsInt("ENGAGEMENT_NUDGE_EVERY", 10),
		},
		Snapshot: SnapshotConfig{
			ChromeWSURL:  getEnv("SNAPSHOT_CHROME_WS_URL", ""),
			Timeout:      getEnvAsSeconds("SNAPSHOT_TIMEOUT_SECONDS", 20),
			Illustration: getEnvAsBool("SNAPSHOT_ILLUSTRATION", true),
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

func getEnvAsSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Second
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
