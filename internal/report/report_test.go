package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/raine/telegram-product-scanner/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var scannedAt = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func successReport() *Report {
	return New("label.jpg", scanner.ScanResult{
		Recognition: scanner.RecognitionResult{RawText: "Oat Crunch\nIngredients: oats", GuessedName: "Oat Crunch"},
		Analysis: scanner.AnalysisResult{
			Pros:                []string{"High fiber"},
			Cons:                []string{"Added sugar"},
			EnvironmentalImpact: "Cardboard packaging is recyclable.",
		},
	}, scannedAt)
}

func failedReport() *Report {
	return New("label.jpg", scanner.ScanResult{
		Recognition: scanner.RecognitionResult{RawText: "Oat Crunch"},
		Analysis:    scanner.FailedAnalysis(),
		Err:         &scanner.InterpretationError{Err: errors.New("503")},
	}, scannedAt)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"":         FormatText,
		"TEXT":     FormatText,
		"json":     FormatJSON,
		"yml":      FormatYAML,
		"yaml":     FormatYAML,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestNew_FailedRunShowsNotice(t *testing.T) {
	r := failedReport()
	assert.True(t, r.Failed())
	assert.Equal(t, scanner.ErrorNotice, r.DetectedText)
	assert.Contains(t, r.Error, "503")
	assert.Equal(t, []string{}, r.Pros)
	assert.Equal(t, scanner.ErrorImpactFallback, r.EnvironmentalImpact)
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextWriter(&buf).Write(successReport()))

	out := buf.String()
	assert.Contains(t, out, "Product: Oat Crunch")
	assert.Contains(t, out, "Pros:\n  - High fiber")
	assert.Contains(t, out, "Cons:\n  - Added sugar")
	assert.Contains(t, out, "Environmental impact:\n  Cardboard packaging is recyclable.")
}

func TestTextWriter_EmptyLists(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextWriter(&buf).Write(failedReport()))

	out := buf.String()
	assert.Contains(t, out, scanner.NoProsMessage)
	assert.Contains(t, out, scanner.NoConsMessage)
	assert.Contains(t, out, scanner.ErrorNotice)
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONWriter(&buf).Write(failedReport()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []any{}, got["pros"])
	assert.Equal(t, scanner.ErrorImpactFallback, got["environmentalImpact"])
	assert.Contains(t, got["error"], "503")
}

func TestYAMLWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLWriter(&buf).Write(successReport()))

	var got Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Oat Crunch", got.ProductName)
	assert.Equal(t, []string{"High fiber"}, got.Pros)
	assert.Empty(t, got.Error)
}

func TestMarkdownWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownWriter(&buf).Write(successReport()))

	out := buf.String()
	assert.Contains(t, out, "# Product Scan: Oat Crunch")
	assert.Contains(t, out, "## Pros")
	assert.Contains(t, out, "- High fiber")
	assert.Contains(t, out, "## Environmental Impact")
	assert.Contains(t, out, "Ingredients: oats")
}

func TestMarkdownWriter_Failed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownWriter(&buf).Write(failedReport()))

	out := buf.String()
	assert.Contains(t, out, scanner.ErrorNotice)
	assert.Contains(t, out, scanner.NoProsMessage)
	assert.False(t, strings.Contains(out, "## Detected Text"))
}

func TestNewWriter(t *testing.T) {
	for _, f := range Formats {
		w, err := NewWriter(f, &bytes.Buffer{})
		require.NoError(t, err)
		assert.NotNil(t, w)
	}
	_, err := NewWriter("pdf", &bytes.Buffer{})
	assert.Error(t, err)
}
