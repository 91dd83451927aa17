package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LLAYUAN/SimulateExe-SelfDebug/internal/config"
	"github.com/LLAYUAN/SimulateExe-SelfDebug/internal/log"
	"github.com/LLAYUAN/SimulateExe-SelfDebug/internal/scanner"
	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/frontend"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [directory]",
	Short: "Find analyzable functions across a source tree",
	Long: `Scan walks a directory for Python and Java source files, skipping
build directories and anything matched by a .simexeignore file, and lists
the functions each file defines.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		root := "."
		if len(args) == 1 {
			root = args[0]
		}

		opts := scanner.DefaultOptions()
		opts.MaxFileBytes = int64(conf.MaxSourceBytes)
		files, err := scanner.New(opts).Scan(root)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", root, err)
		}
		if len(files) == 0 {
			fmt.Println("No source files found.")
			return nil
		}

		total := 0
		for _, f := range files {
			source, err := os.ReadFile(f.FullPath)
			if err != nil {
				log.Default().Warn("skipping file", "path", f.Path, "error", err)
				continue
			}
			fnRoot, err := frontend.Parse(f.Language, source)
			if err != nil {
				log.Default().Warn("skipping file", "path", f.Path, "error", err)
				continue
			}
			fns := frontend.Functions(fnRoot)
			if len(fns) == 0 {
				continue
			}
			fmt.Printf("%s (%s)\n", f.Path, f.Language)
			for _, fn := range fns {
				sig := fn.Signature
				if sig == "" {
					sig = fn.Name
				}
				fmt.Printf("  %s (lines %d-%d)\n", sig, fn.StartLine, fn.EndLine)
			}
			total += len(fns)
		}
		fmt.Printf("\n%d functions in %d files\n", total, len(files))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(scanCmd)
}
