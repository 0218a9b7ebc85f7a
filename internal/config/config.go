package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultModelRepo  = "Systran/faster-whisper-small"
	DefaultModelDir   = "models/faster-whisper-small"
	DefaultModelsRoot = "models"
	DefaultHubBaseURL = "https://huggingface.co"
)

// Config is the process-wide configuration, read once at startup.
type Config struct {
	TelegramToken string

	TodoistToken     string
	TodoistBaseURL   string
	DefaultProjectID string

	ModelKey      string
	ModelRepo     string
	ModelDir      string
	ModelsRoot    string
	Device        string
	ComputeType   string
	Language      string
	EngineBinary  string
	ModelCacheCap int
	HubBaseURL    string
}

// Load reads configuration from the environment, optionally seeded from an
// env file. A missing env file is not an error; a missing bot token is.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("TODOIST_API_TOKEN", "")
	v.SetDefault("TODOIST_BASE_URL", "https://api.todoist.com/rest/v2")
	v.SetDefault("TODOIST_PROJECT_ID", "")
	v.SetDefault("WHISPER_MODEL", "")
	v.SetDefault("WHISPER_MODEL_REPO", DefaultModelRepo)
	v.SetDefault("WHISPER_MODEL_DIR", DefaultModelDir)
	v.SetDefault("WHISPER_MODELS_ROOT", DefaultModelsRoot)
	v.SetDefault("WHISPER_DEVICE", "cpu")
	v.SetDefault("WHISPER_COMPUTE_TYPE", "int8")
	v.SetDefault("WHISPER_LANGUAGE", "it")
	v.SetDefault("WHISPER_ENGINE", "whisper-ctranslate2")
	v.SetDefault("WHISPER_CACHE_SIZE", 2)
	v.SetDefault("HUB_BASE_URL", DefaultHubBaseURL)

	cfg := &Config{
		TelegramToken:    v.GetString("TELEGRAM_BOT_TOKEN"),
		TodoistToken:     v.GetString("TODOIST_API_TOKEN"),
		TodoistBaseURL:   v.GetString("TODOIST_BASE_URL"),
		DefaultProjectID: v.GetString("TODOIST_PROJECT_ID"),
		ModelKey:         v.GetString("WHISPER_MODEL"),
		ModelRepo:        v.GetString("WHISPER_MODEL_REPO"),
		ModelDir:         v.GetString("WHISPER_MODEL_DIR"),
		ModelsRoot:       v.GetString("WHISPER_MODELS_ROOT"),
		Device:           v.GetString("WHISPER_DEVICE"),
		ComputeType:      v.GetString("WHISPER_COMPUTE_TYPE"),
		Language:         v.GetString("WHISPER_LANGUAGE"),
		EngineBinary:     v.GetString("WHISPER_ENGINE"),
		ModelCacheCap:    v.GetInt("WHISPER_CACHE_SIZE"),
		HubBaseURL:       v.GetString("HUB_BASE_URL"),
	}

	if cfg.TelegramToken == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is not set; get one from BotFather and export it or put it in the env file")
	}

	return cfg, nil
}
