package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/raine/telegram-product-scanner/config"
	"github.com/raine/telegram-product-scanner/internal/app"
	"github.com/raine/telegram-product-scanner/internal/camera"
	"github.com/raine/telegram-product-scanner/internal/logging"
	"github.com/raine/telegram-product-scanner/internal/report"
	"github.com/raine/telegram-product-scanner/internal/scanner"
	"github.com/spf13/cobra"
)

// newAnalyzer builds the analysis pipeline. Tests replace it.
var newAnalyzer = func(ctx context.Context, cfg *config.Config) (scanner.Analyzer, error) {
	if missing := cfg.Validate(false); len(missing) > 0 {
		return nil, fmt.Errorf("missing or invalid config: %s", strings.Join(missing, ", "))
	}
	return app.NewPipeline(ctx, cfg)
}

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Capture a label and analyze the product",
		Long: `Capture one still from the selected source, run text recognition on it and
print the analysis. Exactly one of --file, --url or --webcam must be given.

A failed analysis still prints a report with fallback values; only
configuration and camera errors make the command fail.`,
		Args: cobra.NoArgs,
		RunE: runScan,
	}

	cmd.Flags().StringP("file", "f", "", "Read the label from an image file")
	cmd.Flags().StringP("url", "u", "", "Fetch the label from an HTTP snapshot camera")
	cmd.Flags().IntP("webcam", "w", -1, "Capture from a local webcam by device index")
	cmd.Flags().StringP("format", "F", string(report.FormatText), "Output format: text, json, yaml or markdown")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().Duration("timeout", 0, "Analysis timeout (overrides ANALYSIS_TIMEOUT)")

	return cmd
}

func runScan(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	file, _ := flags.GetString("file")
	url, _ := flags.GetString("url")
	webcam, _ := flags.GetInt("webcam")
	formatName, _ := flags.GetString("format")
	outputPath, _ := flags.GetString("output")
	timeout, _ := flags.GetDuration("timeout")
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")

	device, source, err := selectDevice(file, url, webcam)
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	config.LoadEnvFile()
	cfg := config.Load()
	if verbose {
		cfg.LogLevel = "debug"
	}
	if timeout > 0 {
		cfg.AnalysisTimeout = timeout
	}
	cleanup, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	defer cleanup()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	analyzer, err := newAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}

	session := scanner.NewSession(device, analyzer, cfg.ImageMaxSide)
	defer session.Close()

	if err := session.Open(ctx); err != nil {
		return err
	}
	if err := session.Capture(ctx); err != nil {
		return err
	}
	res, err := session.Analyze(ctx)
	if err != nil {
		return err
	}

	r := report.New(source, res, time.Now())
	if outputPath == "" {
		return writeReport(cmd.OutOrStdout(), format, r)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	return writeReportFile(f, format, r)
}

func selectDevice(file, url string, webcam int) (camera.Device, string, error) {
	var selected int
	for _, set := range []bool{file != "", url != "", webcam >= 0} {
		if set {
			selected++
		}
	}
	if selected != 1 {
		return nil, "", errors.New("exactly one of --file, --url or --webcam is required")
	}

	switch {
	case file != "":
		return camera.FileDevice{Path: file}, file, nil
	case url != "":
		return camera.NewSnapshotDevice(url), url, nil
	default:
		return camera.Webcam{DeviceID: webcam}, fmt.Sprintf("webcam:%d", webcam), nil
	}
}

func writeReport(out io.Writer, format report.Format, r *report.Report) error {
	w, err := report.NewWriter(format, out)
	if err != nil {
		return err
	}
	return w.Write(r)
}

// writeReportFile writes r and closes f. A failed close means the report may
// not have reached the disk and is reported as an error.
func writeReportFile(f io.WriteCloser, format report.Format, r *report.Report) error {
	if err := writeReport(f, format, r); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}
