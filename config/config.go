package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const (
	AppName     = "telegram-product-scanner"
	EnvFileName = "config.env"
)

const (
	OCRVision    = "vision"
	OCRTesseract = "tesseract"

	LLMGemini = "gemini"
	LLMOllama = "ollama"
	LLMClaude = "claude"
)

// EnvFilePath returns the location of config.env under the XDG config home.
func EnvFilePath() string {
	return filepath.Join(xdg.ConfigHome, AppName, EnvFileName)
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
// Variables already set in the environment win.
func LoadEnvFile() {
	_ = godotenv.Load(EnvFilePath())
}

// Config holds all settings read from the environment.
type Config struct {
	BotToken       string
	AllowedUserIDs []int64

	OCRBackend        string
	VisionAPIKey      string
	VisionURL         string
	TesseractLanguage string

	LLMBackend   string
	GeminiAPIKey string
	GeminiModel  string
	OllamaHost   string
	OllamaModel  string
	ClaudeAPIKey string
	ClaudeModel  string

	AnalysisTimeout time.Duration
	ProviderRetries int
	RetryBackoff    time.Duration
	ImageMaxSide    int

	LogLevel string
	LogFile  string

	// invalid collects values that were set but could not be parsed.
	invalid []string
}

// Load reads the configuration from the process environment.
func Load() *Config {
	c := &Config{
		BotToken:          os.Getenv("BOT_TOKEN"),
		OCRBackend:        strings.ToLower(getEnv("OCR_BACKEND", OCRVision)),
		VisionAPIKey:      os.Getenv("GOOGLE_VISION_API_KEY"),
		VisionURL:         getEnv("GOOGLE_VISION_URL", "https://vision.googleapis.com"),
		TesseractLanguage: getEnv("TESSERACT_LANGUAGE", "eng"),
		LLMBackend:        strings.ToLower(getEnv("LLM_BACKEND", LLMGemini)),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		OllamaHost:        getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "llama3.2"),
		ClaudeAPIKey:      os.Getenv("CLAUDE_API_KEY"),
		ClaudeModel:       getEnv("CLAUDE_MODEL", "claude-3-5-haiku-latest"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFile:           os.Getenv("LOG_FILE"),
	}

	c.AllowedUserIDs = c.parseIDs("ALLOWED_USER_IDS")
	c.AnalysisTimeout = c.getDuration("ANALYSIS_TIMEOUT", 90*time.Second)
	c.ProviderRetries = c.getInt("PROVIDER_RETRIES", 2)
	c.RetryBackoff = c.getDuration("RETRY_BACKOFF", 500*time.Millisecond)
	c.ImageMaxSide = c.getInt("IMAGE_MAX_SIDE", 1600)
	return c
}

// Validate returns the names of missing or invalid settings. The bot token is
// only required when requireBot is set.
func (c *Config) Validate(requireBot bool) []string {
	problems := append([]string(nil), c.invalid...)

	if requireBot && c.BotToken == "" {
		problems = append(problems, "BOT_TOKEN")
	}

	switch c.OCRBackend {
	case OCRVision:
		if c.VisionAPIKey == "" {
			problems = append(problems, "GOOGLE_VISION_API_KEY")
		}
	case OCRTesseract:
	default:
		problems = append(problems, fmt.Sprintf("OCR_BACKEND (unknown backend %q)", c.OCRBackend))
	}

	switch c.LLMBackend {
	case LLMGemini:
		if c.GeminiAPIKey == "" {
			problems = append(problems, "GEMINI_API_KEY")
		}
	case LLMClaude:
		if c.ClaudeAPIKey == "" {
			problems = append(problems, "CLAUDE_API_KEY")
		}
	case LLMOllama:
		if c.OllamaHost == "" {
			problems = append(problems, "OLLAMA_HOST")
		}
	default:
		problems = append(problems, fmt.Sprintf("LLM_BACKEND (unknown backend %q)", c.LLMBackend))
	}

	if c.ProviderRetries < 0 {
		problems = append(problems, "PROVIDER_RETRIES (must not be negative)")
	}
	if c.ImageMaxSide < 0 {
		problems = append(problems, "IMAGE_MAX_SIDE (must not be negative)")
	}
	return problems
}

// IsUserAllowed reports whether the Telegram user may use the bot. An empty
// allow-list admits everyone.
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUserIDs) == 0 {
		return true
	}
	for _, id := range c.AllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *Config) getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.invalid = append(c.invalid, fmt.Sprintf("%s (not an integer: %q)", key, v))
		return fallback
	}
	return n
}

func (c *Config) getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		c.invalid = append(c.invalid, fmt.Sprintf("%s (not a duration: %q)", key, v))
		return fallback
	}
	return d
}

func (c *Config) parseIDs(key string) []int64 {
	var ids []int64
	for _, part := range strings.Split(os.Getenv(key), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			c.invalid = append(c.invalid, fmt.Sprintf("%s (not a user id: %q)", key, part))
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
