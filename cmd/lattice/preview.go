package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/lattice/internal/presentation/tui"
	"github.com/aretw0/lattice/pkg/graph"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var previewCmd = &cobra.Command{
	Use:   "preview [questionnaire.json]",
	Short: "Show the questionnaire as a table",
	Long: `Prints the table view of a questionnaire: every question with its answers and
where each one navigates. Output is styled on a terminal and plain markdown otherwise.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")
		width := 0
		if f, ok := cmd.OutOrStdout().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			if w, _, err := term.GetSize(int(f.Fd())); err == nil {
				width = w
			}
		} else {
			raw = true
		}
		return runPreview(cmd.InOrStdin(), cmd.OutOrStdout(), documentArg(args), raw, width)
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().Bool("raw", false, "Print markdown without styling")
}

func runPreview(in io.Reader, out io.Writer, path string, raw bool, width int) error {
	doc, err := loadDocument(in, path)
	if err != nil {
		return err
	}
	md := tui.Table(graph.Snapshot{Nodes: doc.Nodes, Edges: doc.Edges})
	if raw {
		_, err = fmt.Fprint(out, md)
		return err
	}

	render, err := tui.NewRenderer(width)
	if err != nil {
		return err
	}
	styled, err := render(md)
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	_, err = fmt.Fprint(out, styled)
	return err
}
