package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/fieldx/internal/app"
	"github.com/doeshing/fieldx/internal/application/extraction"
	"github.com/doeshing/fieldx/internal/domain"
)

type extractOptions struct {
	fields   []string
	model    string
	style    string
	words    int
	wordsSet bool
	dryRun   bool
	timeout  time.Duration
}

func newExtractCommand(container *app.Container) *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Summarize fields from a PDF or DOCX document",
		Example: `  fieldx extract invoice.pdf --field "Invoice Date" --field "Total Amount"
  fieldx extract contract.docx -f Parties -f Term --style "Bullet Points" --words 50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.wordsSet = cmd.Flags().Changed("words")
			return runExtract(cmd, container, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.fields, "field", "f", nil, "Field to extract (repeatable)")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Model tier or model id (default from config)")
	cmd.Flags().StringVarP(&opts.style, "style", "s", "", "Output style: Paragraph or \"Bullet Points\"")
	cmd.Flags().IntVarP(&opts.words, "words", "w", 0, "Word limit per field, 0 for none (default from config)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the prompt without calling the model")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Override the request timeout")
	_ = cmd.MarkFlagRequired("field")

	return cmd
}

func runExtract(cmd *cobra.Command, container *app.Container, path string, opts extractOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	session := container.NewSession("cli")
	if err := applyExtractOptions(container.Config, session, opts); err != nil {
		return err
	}
	for _, field := range opts.fields {
		_, hint, err := extraction.AddField(session, field)
		if err != nil {
			return fmt.Errorf("field %q: %w", field, err)
		}
		if hint != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "note: %q is %s\n", field, hint)
		}
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return err
	}
	doc, err := container.Documents.Read(ctx, path, data)
	if err != nil {
		return domain.NewAppError(domain.CodeDocument, "cannot load "+filepath.Base(path), err)
	}
	session.SetDocument(doc)

	if opts.dryRun {
		plan, err := container.ExtractionService.Preview(ctx, session)
		if err != nil {
			return err
		}
		RenderPlan(out, plan)
		return nil
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}
	if err := session.RequestExtraction(); err != nil {
		return err
	}
	spinner := NewSpinner(cmd.ErrOrStderr(), "Extracting fields...")
	spinner.Start()
	record, err := container.ExtractionService.Run(ctx, session)
	spinner.Stop()
	if err != nil {
		return err
	}
	RenderRecord(out, "Latest", record)
	return nil
}

func applyExtractOptions(cfg domain.Config, session *domain.Session, opts extractOptions) error {
	if opts.model != "" {
		model, err := cfg.ResolveModel(opts.model)
		if err != nil {
			return err
		}
		session.SetModel(model.Name)
	}
	if opts.style != "" {
		style, err := domain.ParseOutputStyle(opts.style)
		if err != nil {
			return err
		}
		session.SetOutputStyle(style)
	}
	if opts.wordsSet {
		if err := session.SetWordLimit(opts.words); err != nil {
			return err
		}
	}
	return nil
}

func newInteractiveCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:     "interactive [file]",
		Aliases: []string{"i", "shell"},
		Short:   "Start an interactive extraction session",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := NewShell(
				container.NewSession("interactive"),
				container.Config,
				container.ExtractionService,
				container.Documents,
				cmd.InOrStdin(),
				cmd.OutOrStdout(),
			)
			if len(args) == 1 {
				if err := shell.Execute(cmd.Context(), "load "+args[0]); err != nil {
					RenderError(cmd.OutOrStdout(), err)
				}
			}
			return shell.Run(cmd.Context())
		},
	}
}
