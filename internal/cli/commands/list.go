package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// listModel is the JSON shape for one cataloged model.
type listModel struct {
	Name         string   `json:"name"`
	FilePath     string   `json:"file_path"`
	Description  string   `json:"description,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Dependents   []string `json:"dependents,omitempty"`
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all models and their dependencies",
		Long: `List all discovered models in execution order with their file
paths and dependency relationships.`,
		Example: `  # List all models
  cadac list

  # List models as JSON
  cadac list --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runList(cmd *cobra.Command, jsonOutput bool) error {
	c, err := buildCatalog(cmd)
	if err != nil {
		return err
	}
	graph := c.Graph()

	order, err := graph.ExecutionOrder()
	if err != nil {
		return fmt.Errorf("failed to order models: %w", err)
	}

	if jsonOutput {
		models := make([]listModel, 0, len(order))
		for _, name := range order {
			meta, _ := c.Model(name)
			identity, _ := c.Identity(name)
			models = append(models, listModel{
				Name:         name,
				FilePath:     identity.FilePath,
				Description:  meta.Description,
				Dependencies: graph.Dependencies(name),
				Dependents:   graph.Dependents(name),
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(models)
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Models (%d total)\n\n", c.Count())

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Model", "File", "Depends On"})
	for i, name := range order {
		identity, _ := c.Identity(name)
		t.AppendRow(table.Row{i + 1, name, identity.FilePath, strings.Join(graph.Dependencies(name), ", ")})
	}
	t.Render()

	return nil
}
