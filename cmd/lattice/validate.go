package main

import (
	"fmt"
	"io"

	"github.com/aretw0/lattice/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [questionnaire.json]",
	Short: "Check a questionnaire for consistency",
	Long: `Checks node and edge integrity of an exported questionnaire, then crawls the
flow from the first question and reports questions no answer leads to.
Use "-" to read from Stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.InOrStdin(), cmd.OutOrStdout(), documentArg(args))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(in io.Reader, out io.Writer, path string) error {
	doc, err := loadDocument(in, path)
	if err != nil {
		return err
	}

	report := validator.ValidateQuestionnaire(doc)
	for _, w := range report.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	if err := report.Err(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	fmt.Fprintln(out, "Questionnaire is valid! ✅")
	return nil
}
