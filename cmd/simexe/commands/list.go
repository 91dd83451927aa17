package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LLAYUAN/SimulateExe-SelfDebug/internal/config"
	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/frontend"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list <file>",
	Short: "List the functions in a source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		source, err := loadSource(conf, args[0])
		if err != nil {
			return err
		}
		root, err := frontend.Parse(detectLanguage(conf, args[0]), source)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}

		fns := frontend.Functions(root)
		if len(fns) == 0 {
			fmt.Println("No functions found.")
			return nil
		}
		for _, fn := range fns {
			sig := fn.Signature
			if sig == "" {
				sig = fn.Name
			}
			fmt.Printf("%s (lines %d-%d)\n", sig, fn.StartLine, fn.EndLine)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(listCmd)
}
