package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aretw0/lattice/internal/cli"
	"github.com/aretw0/lattice/pkg/document"
	"github.com/aretw0/lattice/pkg/drafts"
	"github.com/aretw0/lattice/pkg/editor"
	"github.com/spf13/cobra"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Manage locally saved drafts",
	Long:  `List, inspect, export, import and remove the drafts kept in the configured store.`,
}

var draftLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all drafts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(repo *drafts.Repository, _ *editor.Editor) error {
			list, err := repo.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("error listing drafts: %w", err)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No drafts found.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tQUESTIONS\tUPDATED")
			for _, d := range list {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", d.ID, d.Name, len(d.Document().Nodes), d.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		})
	},
}

var draftShowCmd = &cobra.Command{
	Use:   "show <draft-id>",
	Short: "Print a draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(repo *drafts.Repository, _ *editor.Editor) error {
			d, err := repo.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("error loading draft '%s': %w", args[0], err)
			}
			data, err := json.MarshalIndent(d, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		})
	},
}

var draftExportCmd = &cobra.Command{
	Use:   "export <draft-id>",
	Short: "Write the questionnaire.json of a draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		return withStore(cmd, func(repo *drafts.Repository, _ *editor.Editor) error {
			d, err := repo.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("error loading draft '%s': %w", args[0], err)
			}
			if out == "" || out == "-" {
				return document.Encode(cmd.OutOrStdout(), d.Document())
			}
			data, err := document.Export(d.Document())
			if err != nil {
				return err
			}
			return os.WriteFile(out, data, 0o644)
		})
	},
}

var draftImportCmd = &cobra.Command{
	Use:   "import <questionnaire.json>",
	Short: "Save a questionnaire file as a new draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read questionnaire: %w", err)
		}
		return withStore(cmd, func(_ *drafts.Repository, e *editor.Editor) error {
			if err := e.Import(data); err != nil {
				return err
			}
			d, err := e.SaveDraft(cmd.Context(), name, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved draft '%s' (%s)\n", d.Name, d.ID)
			return nil
		})
	},
}

var draftRmCmd = &cobra.Command{
	Use:   "rm <draft-id>...",
	Short: "Remove one or more drafts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(repo *drafts.Repository, _ *editor.Editor) error {
			var failed int
			for _, id := range args {
				if err := repo.Delete(cmd.Context(), id); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", id, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed draft '%s'\n", id)
			}
			if failed > 0 {
				return fmt.Errorf("failed to remove %d drafts", failed)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(draftCmd)
	draftCmd.AddCommand(draftLsCmd, draftShowCmd, draftExportCmd, draftImportCmd, draftRmCmd)

	draftExportCmd.Flags().StringP("out", "o", "", "Output file (default Stdout)")
	draftImportCmd.Flags().String("name", "", "Draft name")
	draftImportCmd.Flags().String("description", "", "Draft description")
}

// withStore opens the configured store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(*drafts.Repository, *editor.Editor) error) error {
	kv, closeStore, err := cli.OpenStore(cmd.Context(), cfg.Store, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("Failed to close store", "err", err)
		}
	}()
	return fn(drafts.New(kv), editor.New(kv, editor.WithLogger(logger), editor.WithMaxInputSize(cfg.MaxInputSize)))
}
