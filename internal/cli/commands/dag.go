package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// dagNode is the JSON shape for one graph node.
type dagNode struct {
	Name      string   `json:"name"`
	DependsOn []string `json:"depends_on,omitempty"`
	UsedBy    []string `json:"used_by,omitempty"`
}

// dagOutput is the JSON shape for the whole graph.
type dagOutput struct {
	Order       []string  `json:"execution_order"`
	Nodes       []dagNode `json:"nodes"`
	TotalModels int       `json:"total_models"`
	TotalEdges  int       `json:"total_dependencies"`
}

// NewDAGCommand creates the dag command.
func NewDAGCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "dag",
		Short: "Show the dependency graph",
		Long: `Display the model dependency graph in execution order, with each
model's dependencies and dependents.`,
		Example: `  # Show the DAG
  cadac dag

  # Output as JSON
  cadac dag --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDAG(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runDAG(cmd *cobra.Command, jsonOutput bool) error {
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
		out := dagOutput{
			Order:       order,
			Nodes:       make([]dagNode, 0, len(order)),
			TotalModels: graph.ModelCount(),
			TotalEdges:  graph.DependencyCount(),
		}
		for _, name := range order {
			out.Nodes = append(out.Nodes, dagNode{
				Name:      name,
				DependsOn: graph.Dependencies(name),
				UsedBy:    graph.Dependents(name),
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(w, "Dependency Graph (execution order):")
	_, _ = fmt.Fprintln(w)

	for i, name := range order {
		deps := graph.Dependencies(name)
		dependents := graph.Dependents(name)

		_, _ = fmt.Fprintf(w, "%2d. %s\n", i+1, name)
		if len(deps) > 0 {
			_, _ = fmt.Fprintf(w, "      depends on: %s\n", strings.Join(deps, ", "))
		}
		if len(dependents) > 0 {
			_, _ = fmt.Fprintf(w, "      used by: %s\n", strings.Join(dependents, ", "))
		}
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Total: %d models, %d dependencies\n", graph.ModelCount(), graph.DependencyCount())

	return nil
}
