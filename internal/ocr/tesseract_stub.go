//go:build !tesseract

package ocr

import (
	"context"
)

// Tesseract is unavailable in builds without the tesseract tag.
type Tesseract struct{}

// NewTesseract always fails; rebuild with -tags tesseract to enable it.
func NewTesseract(language string) (*Tesseract, error) {
	return nil, ErrTesseractUnavailable
}

func (t *Tesseract) Recognize(ctx context.Context, image string) (string, error) {
	return "", ErrTesseractUnavailable
}
