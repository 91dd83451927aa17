// Package commands provides the CLI commands for the simexe tool.
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LLAYUAN/SimulateExe-SelfDebug/internal/config"
	"github.com/LLAYUAN/SimulateExe-SelfDebug/internal/log"
	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/ast"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "simexe",
	Short: "simexe - Control-flow path rendering for program repair",
	Long: `simexe builds a control-flow graph for one function or method and
renders it as an ordered, annotated path description.

Commands:
  analyze     Render the control-flow path for a function
  graph       Dump the graph's blocks and edges
  list        List the functions in a source file
  scan        Find analyzable functions across a source tree
  init        Create a configuration file interactively

Use "simexe [command] --help" for more information about a command.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			log.Default().SetLevel(log.DebugLevel)
		}
		if jsonLogs, _ := cmd.Flags().GetBool("log-json"); jsonLogs {
			log.Default().SetJSONOutput(true)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	RootCmd.PersistentFlags().Bool("log-json", false, "Write log lines as JSON")
}

// loadSource reads one source file, enforcing the configured size limit.
func loadSource(cfg *config.Config, path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, expected a file: %s", path)
	}
	if info.Size() > int64(cfg.MaxSourceBytes) {
		return nil, fmt.Errorf("file %s exceeds max source size (%d bytes)", path, cfg.MaxSourceBytes)
	}
	return os.ReadFile(path)
}

// detectLanguage infers the language from the file extension, falling back to
// the configured default.
func detectLanguage(cfg *config.Config, path string) ast.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return ast.LanguagePython
	case ".java":
		return ast.LanguageJava
	}
	if cfg.DefaultLanguage == config.LanguageJava {
		return ast.LanguageJava
	}
	return ast.LanguagePython
}
