package cli

import (
	"github.com/spf13/cobra"

	"github.com/doeshing/fieldx/internal/app"
	"github.com/doeshing/fieldx/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command. The container is built once flags
// are parsed so --config and --verbose apply to every subcommand.
func NewRootCmd(opts Options) *cobra.Command {
	container := &app.Container{}
	var configPath string
	verbose := opts.Verbose

	root := &cobra.Command{
		Use:   "fieldx",
		Short: "fieldx - summarize named fields from PDF and DOCX documents",
		Long: "fieldx asks a language model to summarize each named field from a document\n" +
			"and keeps the latest and previous results of a session side by side.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			built, err := app.BuildContainer(cmd.Context(), app.Options{ConfigPath: configPath, Verbose: verbose})
			if err != nil {
				return err
			}
			*container = *built
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return container.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.fieldx/config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", opts.Verbose, "Enable debug logging")

	root.AddCommand(
		newExtractCommand(container),
		newInteractiveCommand(container),
		commands.NewConfigCommand(container),
		commands.NewModelsCommand(container),
		commands.NewHistoryCommand(container),
		commands.NewDoctorCommand(container),
		commands.NewServeCommand(container),
		commands.NewMCPCommand(container),
		commands.NewVersionCommand(),
	)
	return root
}
