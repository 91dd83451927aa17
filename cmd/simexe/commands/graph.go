package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LLAYUAN/SimulateExe-SelfDebug/internal/config"
	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/cfg"
	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/pipeline"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <file> [function]",
	Short: "Dump the control-flow graph's blocks and edges",
	Long: `Builds and normalizes the control-flow graph for one function and
prints its blocks, edges, and cyclomatic complexity. Use --json for the
machine-readable form and --compose to inline called sibling functions.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		source, err := loadSource(conf, args[0])
		if err != nil {
			return err
		}
		function := ""
		if len(args) > 1 {
			function = args[1]
		}

		compose, _ := cmd.Flags().GetBool("compose")
		g, err := pipeline.BuildGraph(pipeline.SourceUnit{
			Language: detectLanguage(conf, args[0]),
			Source:   source,
			Function: function,
		}, pipeline.Options{Compose: compose})
		if err != nil {
			return fmt.Errorf("building graph for %s: %w", args[0], err)
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			data, err := json.MarshalIndent(g, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		printGraph(g)
		return nil
	},
}

// printGraph prints the graph in human-readable form.
func printGraph(g *cfg.Graph) {
	fmt.Printf("=== CFG for function: %s ===\n", g.Function)
	fmt.Printf("Cyclomatic Complexity: %d\n", g.Complexity())
	fmt.Printf("Entry Block: %d\n", g.Entry)
	fmt.Printf("Exit Block: %d\n", g.Exit)
	fmt.Printf("\nBlocks (%d):\n", len(g.Blocks))
	for _, b := range g.Blocks {
		fmt.Printf("  [%d] %s (lines %d-%d)\n", b.Rank, b.Shape, b.StartLine, b.EndLine)
		for _, s := range b.Stmts {
			fmt.Printf("    %s\n", s.Text)
		}
	}

	fmt.Printf("\nEdges (%d):\n", len(g.Edges))
	for _, e := range g.Edges {
		if e.Value != "" {
			fmt.Printf("  %d --%s(%s)--> %d\n", e.From, e.Label, e.Value, e.To)
		} else {
			fmt.Printf("  %d --%s--> %d\n", e.From, e.Label, e.To)
		}
	}

	if len(g.Warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(g.Warnings))
		for _, w := range g.Warnings {
			fmt.Printf("  %s\n", w)
		}
	}
}

func init() {
	graphCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	graphCmd.Flags().Bool("compose", false, "Inline called sibling functions one level deep")
	RootCmd.AddCommand(graphCmd)
}
