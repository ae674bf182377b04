package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvConfig содержит токены и настройки из переменных окружения.
type EnvConfig struct {
	TelegramToken string
	AdminChatID   int64
	Channel       string

	GeminiAPIKey string

	CheckInterval    time.Duration
	MaxPendingPosts  int
	MaxPostAgeDays   int
	MaxImagesPerPost int
	DefaultTimezone  string

	StatePath string
	ImageDir  string

	SourcesPath string // опциональный YAML со списком источников
}

// LoadEnvConfig читает переменные окружения (включая .env, если он есть)
// и возвращает конфигурацию. Отсутствие обязательных переменных — ошибка,
// при которой запуск прерывается.
func LoadEnvConfig() (*EnvConfig, error) {
	// .env опционален: в проде переменные приходят из окружения
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN environment variable is required")
	}

	adminRaw := os.Getenv("ADMIN_CHAT_ID")
	if adminRaw == "" {
		return nil, fmt.Errorf("ADMIN_CHAT_ID environment variable is required")
	}
	adminChatID, err := strconv.ParseInt(adminRaw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_CHAT_ID must be a number, got %q", adminRaw)
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	checkSeconds, err := envInt("CHECK_INTERVAL", 1800)
	if err != nil {
		return nil, err
	}

	maxPending, err := envInt("MAX_PENDING_POSTS", 100)
	if err != nil {
		return nil, err
	}

	maxAge, err := envInt("MAX_POST_AGE_DAYS", 7)
	if err != nil {
		return nil, err
	}

	maxImages, err := envInt("MAX_IMAGES_PER_POST", 10)
	if err != nil {
		return nil, err
	}

	statePath := os.Getenv("STATE_FILE")
	if statePath == "" {
		statePath = "data/state.json"
	}

	imageDir := os.Getenv("IMAGE_DIR")
	if imageDir == "" {
		imageDir = "data/generated"
	}

	tz := os.Getenv("DEFAULT_TIMEZONE")
	if tz == "" {
		tz = "Europe/Moscow"
	}

	return &EnvConfig{
		TelegramToken:    token,
		AdminChatID:      adminChatID,
		Channel:          os.Getenv("TELEGRAM_CHANNEL"),
		GeminiAPIKey:     geminiKey,
		CheckInterval:    time.Duration(checkSeconds) * time.Second,
		MaxPendingPosts:  maxPending,
		MaxPostAgeDays:   maxAge,
		MaxImagesPerPost: maxImages,
		DefaultTimezone:  tz,
		StatePath:        statePath,
		ImageDir:         imageDir,
		SourcesPath:      os.Getenv("SOURCES_FILE"),
	}, nil
}

func envInt(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, raw)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", name, v)
	}
	return v, nil
}
