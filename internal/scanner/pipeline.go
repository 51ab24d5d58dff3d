package scanner

import (
	"context"
	"errors"
	"time"

	"github.com/raine/telegram-product-scanner/internal/llm"
	"github.com/rs/zerolog/log"
)

// Recognizer extracts text from an image given as a data URI or bare base64.
type Recognizer interface {
	Recognize(ctx context.Context, image string) (string, error)
}

// Pipeline runs recognition followed by interpretation for one captured image.
type Pipeline struct {
	recognizer Recognizer
	generator  llm.Generator
	timeout    time.Duration
}

// NewPipeline creates a pipeline. A zero timeout disables the deadline.
func NewPipeline(recognizer Recognizer, generator llm.Generator, timeout time.Duration) *Pipeline {
	return &Pipeline{
		recognizer: recognizer,
		generator:  generator,
		timeout:    timeout,
	}
}

// Run analyzes img. It is the single error boundary of the analysis: any
// failure is logged, recorded in ScanResult.Err and replaced by the fallback
// result, so callers always get something renderable.
func (p *Pipeline) Run(ctx context.Context, img CapturedImage) ScanResult {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	start := time.Now()

	raw, err := p.recognizer.Recognize(ctx, img.DataURI)
	if err != nil {
		return p.fail(RecognitionResult{}, &RecognitionError{Err: err})
	}
	rec := RecognitionResult{RawText: raw, GuessedName: GuessName(raw)}
	log.Debug().Str("guessedName", rec.GuessedName).Int("textLength", len(raw)).Msg("text recognized")

	completion, err := p.generator.Generate(ctx, BuildPrompt(rec.GuessedName, raw))
	if err == nil && completion == nil {
		err = errors.New("empty completion")
	}
	if err != nil {
		return p.fail(rec, &InterpretationError{Err: err})
	}

	analysis := ParseAnalysis(completion.Text)
	log.Info().
		Int("pros", len(analysis.Pros)).
		Int("cons", len(analysis.Cons)).
		Dur("elapsed", time.Since(start)).
		Msg("product analyzed")

	return ScanResult{Recognition: rec, Analysis: analysis}
}

func (p *Pipeline) fail(rec RecognitionResult, err error) ScanResult {
	log.Error().Err(err).Msg("product analysis failed")
	return ScanResult{
		Recognition: rec,
		Analysis:    FailedAnalysis(),
		Err:         err,
	}
}
