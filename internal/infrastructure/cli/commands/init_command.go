package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/doeshing/fieldx/internal/app"
	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/infrastructure/cli/helpers"
	configinfra "github.com/doeshing/fieldx/internal/infrastructure/config"
)

// NewInitCommand creates the init command that writes a fresh configuration.
func NewInitCommand(container *app.Container) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a fresh configuration file",
		Long: `Write ~/.fieldx/config.yaml from the built-in defaults, asking for the
default model tier, output style, word limit and whether to archive results.

The built-in tiers use Google Gemini; set GOOGLE_GENAI_API_KEY (or
GEMINI_API_KEY) before extracting, then run 'fieldx doctor' to check the setup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitWizard(cmd, container, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config and accept all defaults")

	return cmd
}

// runInitWizard runs the configuration initialization wizard
func runInitWizard(cmd *cobra.Command, container *app.Container, force bool) error {
	loader, err := helpers.GetConfigLoader(container)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())
	configPath := loader.Path()

	if !force {
		if _, err := os.Stat(configPath); err == nil {
			question := fmt.Sprintf("%s exists. Overwrite?", configPath)
			if !helpers.Confirm(out, reader, question, false) {
				fmt.Fprintln(out, MsgInitCancelled)
				return nil
			}
		}
	}

	cfg, err := configinfra.DefaultConfig()
	if err != nil {
		return err
	}
	if !force {
		cfg = promptForUserPreferences(out, reader, cfg)
	}

	if err := helpers.SaveConfigWithValidation(out, container, cfg); err != nil {
		return err
	}

	displayCompletionInstructions(out, configPath)
	return nil
}

// promptForUserPreferences asks for the preferences new sessions start with
func promptForUserPreferences(out io.Writer, reader *bufio.Reader, cfg domain.Config) domain.Config {
	fmt.Fprintln(out, "\nModel tiers:")
	cfg.Preferences.DefaultModel = helpers.AskModel(out, reader, cfg, cfg.Preferences.DefaultModel)
	cfg.Preferences.OutputStyle = helpers.AskOutputStyle(out, reader, cfg.GetOutputStyle())
	cfg.Preferences.WordLimit = helpers.AskWordLimit(out, reader, cfg.Preferences.WordLimit)
	cfg.Archive.Enabled = helpers.Confirm(out, reader,
		"Archive every extraction result on disk?", cfg.Archive.Enabled)
	return cfg
}

// displayCompletionInstructions displays instructions after successful initialization
func displayCompletionInstructions(out io.Writer, configPath string) {
	fmt.Fprintf(out, "\nConfiguration initialized: %s\n\n", configPath)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Set your API key:")
	fmt.Fprintln(out, "     export GOOGLE_GENAI_API_KEY=your-key-here")
	fmt.Fprintln(out, "  2. Verify your setup:")
	fmt.Fprintln(out, "     fieldx doctor")
	fmt.Fprintln(out, "  3. Extract fields:")
	fmt.Fprintln(out, "     fieldx extract invoice.pdf --field \"Invoice Date\" --field \"Total Amount\"")
}
