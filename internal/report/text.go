package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/raine/telegram-product-scanner/internal/scanner"
)

// TextWriter writes a plain-text report for terminals.
type TextWriter struct {
	output io.Writer
}

func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{output: output}
}

func (w *TextWriter) Write(r *Report) error {
	var b strings.Builder

	name := r.ProductName
	if name == "" {
		name = "(unknown product)"
	}
	fmt.Fprintf(&b, "Product: %s\n", name)
	fmt.Fprintf(&b, "Source:  %s\n", r.Source)
	fmt.Fprintf(&b, "Scanned: %s\n", r.ScannedAt.Format("2006-01-02 15:04:05"))

	b.WriteString("\nDetected text:\n")
	writeIndented(&b, r.DetectedText)

	writeList(&b, scanner.TabPros.Title(), r.Pros, scanner.NoProsMessage)
	writeList(&b, scanner.TabCons.Title(), r.Cons, scanner.NoConsMessage)

	b.WriteString("\nEnvironmental impact:\n")
	writeIndented(&b, r.EnvironmentalImpact)

	_, err := io.WriteString(w.output, b.String())
	return err
}

func writeList(b *strings.Builder, title string, items []string, empty string) {
	fmt.Fprintf(b, "\n%s:\n", title)
	if len(items) == 0 {
		fmt.Fprintf(b, "  %s\n", empty)
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}

func writeIndented(b *strings.Builder, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		b.WriteString("  (none)\n")
		return
	}
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(b, "  %s\n", line)
	}
}
