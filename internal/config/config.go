package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"taxidash/internal/api"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	API                 api.Config
	DataPath            string
	LogDir              string
	ExportDir           string
	Debounce            time.Duration
	EnableMermaidCharts bool
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	return fromEnv(exeDir), nil
}

func fromEnv(exeDir string) *AppConfig {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))
	exportDir := filepath.Join(dataPath, "export")

	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}

	timeoutSecs := getEnvInt("TAXIDASH_HTTP_TIMEOUT_SECONDS", 30)
	debounceMs := getEnvInt("TAXIDASH_DEBOUNCE_MS", 350)

	return &AppConfig{
		API: api.Config{
			BaseURL:   getEnv("TAXIDASH_API_URL", api.DefaultBaseURL),
			Timeout:   time.Duration(timeoutSecs) * time.Second,
			CacheSize: getEnvInt("TAXIDASH_CACHE_SIZE", 128),
		},
		DataPath:            dataPath,
		LogDir:              logDir,
		ExportDir:           exportDir,
		Debounce:            time.Duration(debounceMs) * time.Millisecond,
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", true),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid number")
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
