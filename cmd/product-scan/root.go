package main

import (
	"fmt"
	"os"

	"github.com/raine/telegram-product-scanner/internal/app"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product-scan",
		Short: "Analyze a packaged product from a photo of its label",
		Long: `product-scan reads the text on a product label, asks a language model for
health pros and cons and the environmental impact, and prints the result.`,
		Version:       app.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "product-scan version %s\n", app.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", app.Commit())
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", app.BuildDate())
		},
	}
}
