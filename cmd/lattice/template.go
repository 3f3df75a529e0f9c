package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/lattice/internal/cli"
	"github.com/aretw0/lattice/pkg/document"
	"github.com/spf13/cobra"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Browse the starter template library",
	Long:  `Lists and exports the read-only templates found in templates_dir.`,
}

var templateLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List starter templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.TemplatesDir == "" {
			return errors.New("templates_dir is not configured")
		}
		ws, err := cli.NewWorkspace(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer ws.Close()

		list, err := ws.Templates.ListTemplates(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing templates: %w", err)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tQUESTIONS")
		for _, t := range list {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", t.ID, t.Name, len(t.Nodes))
		}
		return tw.Flush()
	},
}

var templateExportCmd = &cobra.Command{
	Use:   "export <template-id>",
	Short: "Write the questionnaire.json of a template to Stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.TemplatesDir == "" {
			return errors.New("templates_dir is not configured")
		}
		ws, err := cli.NewWorkspace(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer ws.Close()

		t, err := ws.Templates.GetTemplate(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return document.Encode(cmd.OutOrStdout(), t.Document())
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.AddCommand(templateLsCmd, templateExportCmd)
}
