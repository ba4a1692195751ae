package commands

import (
	"github.com/spf13/cobra"

	"github.com/doeshing/fieldx/internal/app"
	"github.com/doeshing/fieldx/internal/infrastructure/mcp"
	"github.com/doeshing/fieldx/internal/version"
)

// NewMCPCommand creates the mcp command serving extraction tools over stdio
func NewMCPCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run as a Model Context Protocol server on stdio",
		Long: `Run fieldx as an MCP server. The process holds one session;
tools add fields, load a document, run extractions and read the latest
and previous results. Logs go to stderr so stdout stays protocol-only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := mcp.NewServer(mcp.Deps{
				Config:    container.Config,
				Extractor: container.ExtractionService,
				Documents: container.Documents,
				Logger:    container.Logger,
				Name:      "fieldx",
				Version:   version.Version,
			})
			if err != nil {
				return err
			}
			return srv.Run()
		},
	}
}
