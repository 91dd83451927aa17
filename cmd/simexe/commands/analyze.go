package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LLAYUAN/SimulateExe-SelfDebug/internal/config"
	"github.com/LLAYUAN/SimulateExe-SelfDebug/internal/log"
	"github.com/LLAYUAN/SimulateExe-SelfDebug/internal/store"
	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/ast"
	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/pipeline"
	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/render"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file> [function]",
	Short: "Render the control-flow path for a function",
	Long: `Parses a Python or Java source file, builds the control-flow graph for
one function (the first one if no name is given), and prints the rendered
path description. Test-case bindings passed with --bind are embedded as a
labeled prefix.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		function := ""
		if len(args) > 1 {
			function = args[1]
		}
		format, _ := cmd.Flags().GetString("format")
		if format == "" {
			format = string(cfg.Format)
		}
		compose, _ := cmd.Flags().GetBool("compose")
		useStore, _ := cmd.Flags().GetBool("store")
		binds, _ := cmd.Flags().GetStringArray("bind")

		bindings, err := parseBindings(binds)
		if err != nil {
			return err
		}

		source, err := loadSource(cfg, args[0])
		if err != nil {
			return err
		}
		lang := detectLanguage(cfg, args[0])

		var st *store.Store
		var key string
		if useStore {
			st, err = store.Open(cfg.StorePath)
			if err != nil {
				return err
			}
			key = store.Key(string(lang), source, function+"\x00"+format)
			if cached, err := st.Load(key); err == nil {
				log.Default().Debug("artifact cache hit", "key", key)
				fmt.Println(strings.Join(cached.Lines, "\n"))
				return nil
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}

		res, err := pipeline.Analyze(pipeline.SourceUnit{
			Language: lang,
			Source:   source,
			Function: function,
			Bindings: bindings,
		}, pipeline.Options{
			Format:  render.Format(format),
			Compose: compose,
		})
		if err != nil {
			var perr *ast.ParseError
			if errors.As(err, &perr) {
				return fmt.Errorf("parsing %s: %w", args[0], perr)
			}
			return fmt.Errorf("analyzing %s: %w", args[0], err)
		}

		for _, w := range res.Path.Warnings {
			log.Default().Warn(w.String())
		}
		fmt.Println(res.Path.Text())

		if st != nil {
			artifact := &store.Artifact{
				Function:   res.Function,
				Language:   string(lang),
				Format:     format,
				Lines:      res.Path.Lines,
				Complexity: res.Graph.Complexity(),
			}
			for _, w := range res.Path.Warnings {
				artifact.Warnings = append(artifact.Warnings, w.String())
			}
			if err := st.Save(key, artifact); err != nil {
				log.Default().Warn("failed to store artifact", "error", err)
			} else {
				log.Default().Info("artifact stored", "function", res.Function, "key", key)
			}
		}
		return nil
	},
}

// parseBindings splits repeated --bind flags of the form name=value. A value
// with no = sign becomes an unnamed binding.
func parseBindings(binds []string) ([]render.Binding, error) {
	var out []render.Binding
	for _, b := range binds {
		if b == "" {
			return nil, fmt.Errorf("empty --bind value")
		}
		if name, value, ok := strings.Cut(b, "="); ok {
			out = append(out, render.Binding{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
		} else {
			out = append(out, render.Binding{Value: b})
		}
	}
	return out, nil
}

func init() {
	analyzeCmd.Flags().String("format", "", "Output format: path or prose (default from config)")
	analyzeCmd.Flags().Bool("compose", false, "Inline called sibling functions into the graph")
	analyzeCmd.Flags().Bool("store", false, "Cache the rendered artifact in the store")
	analyzeCmd.Flags().StringArray("bind", nil, "Test-case binding name=value (repeatable)")
	RootCmd.AddCommand(analyzeCmd)
}
