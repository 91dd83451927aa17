package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/LLAYUAN/SimulateExe-SelfDebug/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize simexe configuration interactively",
	Long: `Guides you through setting up simexe configuration step by step.
Creates a config file with the default language, output format, and store path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.DefaultConfig()

	var language string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default Language").
				Description("Assumed when a file's language cannot be inferred from its extension").
				Options(
					huh.NewOption("Python", string(config.LanguagePython)),
					huh.NewOption("Java", string(config.LanguageJava)),
				).
				Value(&language),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.DefaultLanguage = config.Language(language)

	var format string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Output Format").
				Description("How rendered paths are written").
				Options(
					huh.NewOption("Path (one line per block)", string(config.FormatPath)),
					huh.NewOption("Prose (narrated graph)", string(config.FormatProse)),
				).
				Value(&format),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.Format = config.Format(format)

	storePath := cfg.StorePath
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Artifact store directory").
				Placeholder(cfg.StorePath).
				Value(&storePath),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	if storePath != "" {
		cfg.StorePath = storePath
	}

	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Global (~/.simexe/config.yaml)", "global"),
					huh.NewOption("Project (./.simexe/config.yaml)", "project"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	var configPath string
	if saveLocationChoice == "global" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		configPath = filepath.Join(home, ".simexe", "config.yaml")
	} else {
		configPath = config.ProjectConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Config path: %s\n", configPath)
	fmt.Printf("Default Language: %s\n", cfg.DefaultLanguage)
	fmt.Printf("Format: %s\n", cfg.Format)
	fmt.Printf("Store Path: %s\n", cfg.StorePath)
	fmt.Println("================================")

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration saved to: %s\n", configPath)
	return nil
}

func init() {
	RootCmd.AddCommand(initCmd)
}
