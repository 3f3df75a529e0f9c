package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/lattice/internal/cli"
	"github.com/aretw0/lattice/internal/config"
	"github.com/aretw0/lattice/pkg/document"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/spf13/cobra"
)

// DefaultDocument is read when a command is given no file.
const DefaultDocument = "questionnaire.json"

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lattice",
	Short: "Lattice is a questionnaire flow builder",
	Long: `Lattice edits questionnaires as graphs of questions and answer routes,
keeps drafts locally and publishes them to the scenario service.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel, _ = cmd.Flags().GetString("log-level")
		}
		l, err := cli.NewLogger(loaded.LogLevel)
		if err != nil {
			return err
		}
		cfg, logger = loaded, l
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default "+config.DefaultPath+" when present)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
}

// loadDocument reads a questionnaire from path, or from in when path is "-".
func loadDocument(in io.Reader, path string) (domain.Document, error) {
	if path == "" {
		path = DefaultDocument
	}
	if path == "-" {
		return document.Read(in)
	}
	f, err := os.Open(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to open questionnaire: %w", err)
	}
	defer f.Close()
	return document.Read(f)
}

func documentArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return DefaultDocument
}
