package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BOT_TOKEN", "ALLOWED_USER_IDS", "OCR_BACKEND", "GOOGLE_VISION_API_KEY",
		"GOOGLE_VISION_URL", "TESSERACT_LANGUAGE", "LLM_BACKEND", "GEMINI_API_KEY",
		"GEMINI_MODEL", "OLLAMA_HOST", "OLLAMA_MODEL", "CLAUDE_API_KEY", "CLAUDE_MODEL",
		"ANALYSIS_TIMEOUT", "PROVIDER_RETRIES", "RETRY_BACKOFF", "IMAGE_MAX_SIDE",
		"LOG_LEVEL", "LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	c := Load()
	assert.Equal(t, OCRVision, c.OCRBackend)
	assert.Equal(t, "https://vision.googleapis.com", c.VisionURL)
	assert.Equal(t, LLMGemini, c.LLMBackend)
	assert.Equal(t, "gemini-2.0-flash", c.GeminiModel)
	assert.Equal(t, "http://localhost:11434", c.OllamaHost)
	assert.Equal(t, 90*time.Second, c.AnalysisTimeout)
	assert.Equal(t, 2, c.ProviderRetries)
	assert.Equal(t, 500*time.Millisecond, c.RetryBackoff)
	assert.Equal(t, 1600, c.ImageMaxSide)
	assert.Empty(t, c.AllowedUserIDs)
	assert.Equal(t, "info", c.LogLevel)
}

func TestValidate_MissingKeys(t *testing.T) {
	clearEnv(t)

	c := Load()
	assert.ElementsMatch(t, []string{"GOOGLE_VISION_API_KEY", "GEMINI_API_KEY"}, c.Validate(false))
	assert.ElementsMatch(t, []string{"BOT_TOKEN", "GOOGLE_VISION_API_KEY", "GEMINI_API_KEY"}, c.Validate(true))
}

func TestValidate_AlternativeBackends(t *testing.T) {
	clearEnv(t)
	t.Setenv("OCR_BACKEND", "Tesseract")
	t.Setenv("LLM_BACKEND", "ollama")

	c := Load()
	assert.Equal(t, OCRTesseract, c.OCRBackend)
	assert.Empty(t, c.Validate(false))

	t.Setenv("LLM_BACKEND", "claude")
	assert.Equal(t, []string{"CLAUDE_API_KEY"}, Load().Validate(false))

	t.Setenv("LLM_BACKEND", "gpt")
	assert.Len(t, Load().Validate(false), 1)
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_VISION_API_KEY", "v")
	t.Setenv("GEMINI_API_KEY", "g")
	t.Setenv("ANALYSIS_TIMEOUT", "soon")
	t.Setenv("PROVIDER_RETRIES", "many")
	t.Setenv("ALLOWED_USER_IDS", "12, abc ,34")

	c := Load()
	assert.Equal(t, 90*time.Second, c.AnalysisTimeout)
	assert.Equal(t, 2, c.ProviderRetries)
	assert.Equal(t, []int64{12, 34}, c.AllowedUserIDs)
	assert.Len(t, c.Validate(false), 3)
}

func TestIsUserAllowed(t *testing.T) {
	clearEnv(t)
	assert.True(t, Load().IsUserAllowed(42))

	t.Setenv("ALLOWED_USER_IDS", "1,2")
	c := Load()
	assert.True(t, c.IsUserAllowed(2))
	assert.False(t, c.IsUserAllowed(42))
}

func TestEnvFilePath(t *testing.T) {
	assert.Contains(t, EnvFilePath(), AppName)
	assert.Contains(t, EnvFilePath(), EnvFileName)
}
