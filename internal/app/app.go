// Package app builds the scanner components from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/raine/telegram-product-scanner/config"
	"github.com/raine/telegram-product-scanner/internal/llm"
	"github.com/raine/telegram-product-scanner/internal/ocr"
	"github.com/raine/telegram-product-scanner/internal/scanner"
	"github.com/rs/zerolog/log"
)

// NewRecognizer returns the OCR backend selected by cfg.OCRBackend.
func NewRecognizer(cfg *config.Config) (scanner.Recognizer, error) {
	switch cfg.OCRBackend {
	case config.OCRVision:
		return ocr.NewVisionClient(cfg.VisionAPIKey, cfg.VisionURL, cfg.ProviderRetries, cfg.RetryBackoff), nil
	case config.OCRTesseract:
		t, err := ocr.NewTesseract(cfg.TesseractLanguage)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, fmt.Errorf("unknown OCR backend %q", cfg.OCRBackend)
}

// NewGenerator returns the generative backend selected by cfg.LLMBackend,
// wrapped with bounded retries.
func NewGenerator(ctx context.Context, cfg *config.Config) (llm.Generator, error) {
	var (
		g   llm.Generator
		err error
	)
	switch cfg.LLMBackend {
	case config.LLMGemini:
		g, err = llm.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case config.LLMOllama:
		g, err = llm.NewOllama(cfg.OllamaHost, cfg.OllamaModel)
	case config.LLMClaude:
		g, err = llm.NewClaude(cfg.ClaudeAPIKey, cfg.ClaudeModel, "")
	default:
		err = fmt.Errorf("unknown LLM backend %q", cfg.LLMBackend)
	}
	if err != nil {
		return nil, err
	}
	return llm.NewRetrying(g, cfg.ProviderRetries, cfg.RetryBackoff), nil
}

// NewPipeline builds the analysis pipeline for cfg.
func NewPipeline(ctx context.Context, cfg *config.Config) (*scanner.Pipeline, error) {
	recognizer, err := NewRecognizer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OCR: %w", err)
	}
	generator, err := NewGenerator(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	log.Info().
		Str("ocr", cfg.OCRBackend).
		Str("llm", cfg.LLMBackend).
		Dur("timeout", cfg.AnalysisTimeout).
		Msg("analysis pipeline initialized")
	return scanner.NewPipeline(recognizer, generator, cfg.AnalysisTimeout), nil
}
