package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/doeshing/fieldx/internal/app"
	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/infrastructure/ai"
	"github.com/doeshing/fieldx/internal/infrastructure/cli/helpers"
	"github.com/doeshing/fieldx/internal/ports"
)

// NewModelsCommand creates the models command with all subcommands
func NewModelsCommand(container *app.Container) *cobra.Command {
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "Manage model tiers",
	}

	modelsCmd.AddCommand(
		newModelsListCommand(container),
		newModelsTestCommand(container),
		newModelsUseCommand(container),
		newModelsAddCommand(container),
		newModelsRemoveCommand(container),
	)

	return modelsCmd
}

// newModelsListCommand creates the 'models list' subcommand
func newModelsListCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured model tiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listModels(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}
}

// newModelsTestCommand creates the 'models test' subcommand
func newModelsTestCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "test <name>",
		Short: "Send a short prompt to a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return testModel(cmd.Context(), cmd.OutOrStdout(), container, args[0])
		},
	}
}

// newModelsUseCommand creates the 'models use' subcommand
func newModelsUseCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:     "use <name>",
		Aliases: []string{"default"},
		Short:   "Set the default model tier",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setDefaultModel(cmd.Context(), cmd.OutOrStdout(), container, args[0])
		},
	}
}

// newModelsAddCommand creates the 'models add' subcommand
func newModelsAddCommand(container *app.Container) *cobra.Command {
	var opts modelAddOptions

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new model tier",
		RunE: func(cmd *cobra.Command, args []string) error {
			return addModel(cmd.Context(), cmd.OutOrStdout(), container, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "Tier name shown to users")
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "Provider: gemini, openai, anthropic, ollama or offline")
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "Provider endpoint URL (HTTP providers)")
	cmd.Flags().StringVar(&opts.ModelID, "model-id", "", "Model identifier at the provider")
	cmd.Flags().StringVar(&opts.AuthEnv, "auth-env", "", "Environment variable holding the API key")
	cmd.Flags().IntVar(&opts.MaxTokens, "max-tokens", domain.DefaultMaxTokens, "Max tokens for responses")
	cmd.Flags().IntVar(&opts.MaxPages, "max-pages", 0, "Largest PDF page count the model accepts (0 = unlimited)")

	return cmd
}

// newModelsRemoveCommand creates the 'models remove' subcommand
func newModelsRemoveCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a model tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return removeModel(cmd.Context(), cmd.OutOrStdout(), container, args[0])
		},
	}
}

// modelAddOptions holds options for adding a new model
type modelAddOptions struct {
	Name      string
	Provider  string
	Endpoint  string
	ModelID   string
	AuthEnv   string
	MaxTokens int
	MaxPages  int
}

// listModels lists all configured models
func listModels(ctx context.Context, out io.Writer, container *app.Container) error {
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMODEL ID\tPROVIDER\tMAX PAGES\tDEFAULT")

	for _, model := range cfg.Models {
		defaultMarker := ""
		if cfg.Preferences.DefaultModel == model.Name {
			defaultMarker = "*"
		}
		maxPages := "-"
		if model.MaxPages > 0 {
			maxPages = fmt.Sprintf("%d", model.MaxPages)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			model.Name,
			model.ModelID,
			model.Kind(),
			maxPages,
			defaultMarker)
	}

	return tw.Flush()
}

// testModel sends a one-field prompt and reports whether the model answered
func testModel(ctx context.Context, out io.Writer, container *app.Container, modelName string) error {
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	model, err := cfg.ResolveModel(modelName)
	if err != nil {
		return err
	}

	provider, err := ai.NewFactory().ForModel(model)
	if err != nil {
		return fmt.Errorf("failed to create provider for model %s: %w", modelName, err)
	}

	testCtx, cancel := context.WithTimeout(ctx, domain.DefaultModelTestTimeout)
	defer cancel()

	prompt, err := container.Prompts.Build(ports.PromptData{
		Fields:       []string{"Greeting"},
		OutputStyle:  domain.StyleParagraph,
		DocumentText: "Hello from fieldx.",
	})
	if err != nil {
		return err
	}

	resp, err := provider.Generate(testCtx, ports.ProviderRequest{Prompt: prompt, Model: model})
	if err != nil {
		return fmt.Errorf("model %s test failed: %w", modelName, err)
	}

	fmt.Fprintf(out, "Model %s (%s) responded successfully.\n", model.Name, provider.Name())
	if text := strings.TrimSpace(resp.Text); text != "" {
		fmt.Fprintln(out, text)
	}
	return nil
}

// setDefaultModel sets the default model
func setDefaultModel(ctx context.Context, out io.Writer, container *app.Container, modelName string) error {
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.SetDefaultModel(modelName); err != nil {
		return err
	}

	return helpers.SaveConfigWithValidation(out, container, cfg)
}

// addModel adds a new model definition
func addModel(ctx context.Context, out io.Writer, container *app.Container, opts modelAddOptions) error {
	if err := validateModelAddOptions(opts); err != nil {
		return err
	}

	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	model := domain.ModelDefinition{
		Name:       opts.Name,
		Provider:   domain.ProviderKind(strings.ToLower(opts.Provider)),
		Endpoint:   opts.Endpoint,
		ModelID:    opts.ModelID,
		AuthEnvVar: opts.AuthEnv,
		MaxTokens:  opts.MaxTokens,
		MaxPages:   opts.MaxPages,
	}

	if err := cfg.AddModel(model); err != nil {
		return err
	}

	return helpers.SaveConfigWithValidation(out, container, cfg)
}

// removeModel removes a model definition
func removeModel(ctx context.Context, out io.Writer, container *app.Container, modelName string) error {
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.RemoveModel(modelName); err != nil {
		return err
	}

	return helpers.SaveConfigWithValidation(out, container, cfg)
}

// validateModelAddOptions validates the options for adding a model
func validateModelAddOptions(opts modelAddOptions) error {
	if opts.Name == "" || opts.ModelID == "" {
		return errors.New("--name and --model-id are required")
	}

	switch domain.ProviderKind(strings.ToLower(opts.Provider)) {
	case domain.ProviderKindUnknown, domain.ProviderKindGemini, domain.ProviderKindOffline:
	case domain.ProviderKindOpenAI, domain.ProviderKindAnthropic, domain.ProviderKindOllama:
		if opts.Endpoint == "" {
			return fmt.Errorf("--endpoint is required for provider %s", opts.Provider)
		}
	default:
		return fmt.Errorf("unknown provider %q", opts.Provider)
	}

	if opts.MaxTokens <= 0 {
		return fmt.Errorf("max-tokens must be positive, got %d", opts.MaxTokens)
	}
	if opts.MaxPages < 0 {
		return fmt.Errorf("max-pages must not be negative, got %d", opts.MaxPages)
	}

	return nil
}
