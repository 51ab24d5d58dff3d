// Package report renders scan results for the command line.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/raine/telegram-product-scanner/internal/scanner"
)

// Format is an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatMarkdown}

// ParseFormat converts a format name, accepting "md" and "yml" as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown format %q (want text, json, yaml or markdown)", s)
}

// Report is the serializable view of one scan.
type Report struct {
	Source              string    `json:"source" yaml:"source"`
	ScannedAt           time.Time `json:"scannedAt" yaml:"scannedAt"`
	ProductName         string    `json:"productName" yaml:"productName"`
	DetectedText        string    `json:"detectedText" yaml:"detectedText"`
	Pros                []string  `json:"pros" yaml:"pros"`
	Cons                []string  `json:"cons" yaml:"cons"`
	EnvironmentalImpact string    `json:"environmentalImpact" yaml:"environmentalImpact"`
	Error               string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// New builds a report for res. After a failed run the detected text is
// replaced by the user-facing error notice and the cause is kept in Error.
func New(source string, res scanner.ScanResult, at time.Time) *Report {
	r := &Report{
		Source:              source,
		ScannedAt:           at,
		ProductName:         res.Recognition.GuessedName,
		DetectedText:        res.Recognition.RawText,
		Pros:                nonNil(res.Analysis.Pros),
		Cons:                nonNil(res.Analysis.Cons),
		EnvironmentalImpact: res.Analysis.EnvironmentalImpact,
	}
	if res.Failed() {
		r.DetectedText = scanner.ErrorNotice
		r.Error = res.Err.Error()
	}
	return r
}

// Failed reports whether the scan took the failure path.
func (r *Report) Failed() bool {
	return r.Error != ""
}

// Writer writes reports in one format.
type Writer interface {
	Write(r *Report) error
}

// NewWriter returns the writer for format f.
func NewWriter(f Format, output io.Writer) (Writer, error) {
	switch f {
	case FormatText:
		return NewTextWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output), nil
	case FormatYAML:
		return NewYAMLWriter(output), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	}
	return nil, fmt.Errorf("unknown format %q", f)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
