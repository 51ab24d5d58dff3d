//go:build tesseract

package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog/log"
)

// Tesseract recognizes text locally with libtesseract.
type Tesseract struct {
	language string
}

// NewTesseract creates a local recognizer for the given tesseract language
// code, e.g. "eng" or "eng+fin".
func NewTesseract(language string) (*Tesseract, error) {
	if language == "" {
		language = DefaultTesseractLanguage
	}
	return &Tesseract{language: language}, nil
}

func (t *Tesseract) Recognize(ctx context.Context, image string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := base64.StdEncoding.DecodeString(StripDataURI(image))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Split(t.language, "+")...); err != nil {
		return "", fmt.Errorf("failed to set tesseract language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %w", err)
	}
	log.Info().Str("language", t.language).Int("textLength", len(text)).Msg("tesseract text detection")
	return text, nil
}
