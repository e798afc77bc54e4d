package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/cadac-labs/cadac/internal/cst"
	"github.com/cadac-labs/cadac/internal/metadata"
)

// ParseOptions holds options for the parse command.
type ParseOptions struct {
	JSONOutput bool
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Extract metadata from a single SQL model file",
		Long: `Parse one SQL model file and print its extracted metadata:
description, projected columns, and upstream sources.`,
		Example: `  # Inspect a model
  cadac parse models/staging/customers.sql

  # Emit metadata as JSON
  cadac parse models/staging/customers.sql --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSONOutput, "json", false, "Output metadata as JSON")

	return cmd
}

func runParse(cmd *cobra.Command, path string, opts *ParseOptions) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	meta, err := metadata.Extract(cst.Parse(string(content)))
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", path, err)
	}

	if opts.JSONOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "File: %s\n", path)
	if meta.Description != "" {
		_, _ = fmt.Fprintf(w, "Description: %s\n", meta.Description)
	}
	_, _ = fmt.Fprintln(w)

	if len(meta.Columns) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Column", "Description"})
		for _, col := range meta.Columns {
			t.AppendRow(table.Row{col.Name, strings.ReplaceAll(col.Description, "\n", " ")})
		}
		t.Render()
	} else {
		_, _ = fmt.Fprintln(w, "(no columns extracted)")
	}
	_, _ = fmt.Fprintln(w)

	if len(meta.Sources) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Source", "Database", "Schema", "Table"})
		for _, src := range meta.Sources {
			t.AppendRow(table.Row{src.ID, src.Database, src.Schema, src.Name})
		}
		t.Render()
	} else {
		_, _ = fmt.Fprintln(w, "(no sources referenced)")
	}

	return nil
}
