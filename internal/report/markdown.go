package report

import (
	"io"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/raine/telegram-product-scanner/internal/scanner"
)

// MarkdownWriter writes a report in GitHub-flavored Markdown.
type MarkdownWriter struct {
	output io.Writer
}

func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

func (w *MarkdownWriter) Write(r *Report) error {
	md := markdown.NewMarkdown(w.output)

	title := "Product Scan"
	if r.ProductName != "" {
		title += ": " + r.ProductName
	}
	md.H1(title)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Source", "`" + r.Source + "`"},
			{"Scanned", r.ScannedAt.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")

	if r.Failed() {
		md.Warning(scanner.ErrorNotice)
		md.PlainText("")
	}

	writeMarkdownList(md, scanner.TabPros.Title(), r.Pros, scanner.NoProsMessage)
	writeMarkdownList(md, scanner.TabCons.Title(), r.Cons, scanner.NoConsMessage)

	md.H2("Environmental Impact")
	md.PlainText("")
	md.PlainText(r.EnvironmentalImpact)
	md.PlainText("")

	if text := strings.TrimSpace(r.DetectedText); text != "" && !r.Failed() {
		md.H2("Detected Text")
		md.PlainText("")
		md.CodeBlocks(markdown.SyntaxHighlightText, text)
		md.PlainText("")
	}

	return md.Build()
}

func writeMarkdownList(md *markdown.Markdown, title string, items []string, empty string) {
	md.H2(title)
	md.PlainText("")
	if len(items) == 0 {
		md.PlainText(empty)
	} else {
		md.BulletList(items...)
	}
	md.PlainText("")
}
