package main

import (
	"fmt"
	"io"

	"github.com/aretw0/lattice/internal/presentation/graph"
	"github.com/aretw0/lattice/internal/validator"
	pgraph "github.com/aretw0/lattice/pkg/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [questionnaire.json]",
	Short: "Export the questionnaire flow as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph TD) of the questionnaire. Unreachable
questions are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		selected, _ := cmd.Flags().GetString("selected")
		return runGraph(cmd.InOrStdin(), cmd.OutOrStdout(), documentArg(args), selected)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("selected", "", "Node to highlight")
}

func runGraph(in io.Reader, out io.Writer, path, selected string) error {
	doc, err := loadDocument(in, path)
	if err != nil {
		return err
	}
	report := validator.ValidateQuestionnaire(doc)
	overlay := &graph.Overlay{Selected: selected, Unreachable: report.Unreachable}
	_, err = fmt.Fprint(out, graph.GenerateMermaid(pgraph.Snapshot{Nodes: doc.Nodes, Edges: doc.Edges}, overlay))
	return err
}
