package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort        string
	TesseractDataPath string
	DoctrAPIURL       string
	DoclingAPIURL     string
	GeminiAPIKey      string
	GeminiModel       string
	OllamaBaseURL     string
	OllamaModels      []string
	LLMTimeout        time.Duration
	DatabasePath      string
	UploadDir         string
	MaxFileSize       int64
}

func LoadConfig() *Config {
	// Optional .env file, the environment wins over it.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env file")
	}

	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		TesseractDataPath: getEnv("TESSDATA_PREFIX", "/usr/share/tesseract-ocr/4.00/tessdata"),
		DoctrAPIURL:       getEnv("DOCTR_API_URL", "http://doctr:8868/predict"),
		DoclingAPIURL:     getEnv("DOCLING_API_URL", "http://docling:8869/convert"),
		GeminiAPIKey:      os.Getenv("GOOGLE_API_KEY"),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModels:      []string{"mistral", "llama2"},
		LLMTimeout:        getEnvDuration("LLM_TIMEOUT_SECONDS", 60*time.Second),
		DatabasePath:      getEnv("DATABASE_PATH", "tickets.db"),
		UploadDir:         getEnv("UPLOAD_DIR", "uploads"),
		MaxFileSize:       10 * 1024 * 1024, // 10 MB
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds <= 0 {
		log.Printf("Invalid %s value %q, using default", key, v)
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
