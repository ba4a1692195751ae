// Package mcp exposes one extraction session as MCP tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/doeshing/fieldx/internal/application/extraction"
	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/ports"
)

// Extractor runs a pending extraction for a session.
type Extractor interface {
	Run(ctx context.Context, session *domain.Session) (domain.ExtractionRecord, error)
}

// Deps wires the tool server to the application.
type Deps struct {
	Config    domain.Config
	Extractor Extractor
	Documents ports.DocumentReader
	Logger    ports.Logger
	Name      string
	Version   string
}

// Server holds the process-wide session the tools operate on.
type Server struct {
	cfg       domain.Config
	extractor Extractor
	documents ports.DocumentReader
	logger    ports.Logger
	mcpServer *server.MCPServer

	mu      sync.Mutex
	session *domain.Session
}

// NewServer creates the tool server with a fresh session.
func NewServer(deps Deps) (*Server, error) {
	if deps.Extractor == nil || deps.Documents == nil || deps.Logger == nil {
		return nil, fmt.Errorf("mcp server dependencies not satisfied")
	}
	name := deps.Name
	if name == "" {
		name = "fieldx"
	}

	s := &Server{
		cfg:       deps.Config,
		extractor: deps.Extractor,
		documents: deps.Documents,
		logger:    deps.Logger,
		mcpServer: server.NewMCPServer(name, deps.Version, server.WithToolCapabilities(false)),
		session:   domain.NewSession("mcp", deps.Config.SessionOptions()),
	}
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"add_field",
		mcp.WithDescription("Add a field to summarize from the loaded document"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Field name, e.g. \"Invoice Date\"")),
	), s.handleAddField)

	s.mcpServer.AddTool(mcp.NewTool(
		"remove_field",
		mcp.WithDescription("Remove a field by its zero-based position"),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Position as shown by list_fields")),
	), s.handleRemoveField)

	s.mcpServer.AddTool(mcp.NewTool(
		"list_fields",
		mcp.WithDescription("List the current fields and extraction options"),
	), s.handleListFields)

	s.mcpServer.AddTool(mcp.NewTool(
		"set_options",
		mcp.WithDescription("Change the model tier, output style or word limit"),
		mcp.WithString("model", mcp.Description("Model tier name or model id")),
		mcp.WithString("output_style", mcp.Description("Paragraph or Bullet Points")),
		mcp.WithNumber("word_limit", mcp.Description("Maximum words per field, 0 for no limit")),
	), s.handleSetOptions)

	s.mcpServer.AddTool(mcp.NewTool(
		"load_document",
		mcp.WithDescription("Load a PDF or DOCX file from disk"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Full path to the document")),
	), s.handleLoadDocument)

	s.mcpServer.AddTool(mcp.NewTool(
		"extract",
		mcp.WithDescription("Summarize every field from the loaded document"),
	), s.handleExtract)

	s.mcpServer.AddTool(mcp.NewTool(
		"history",
		mcp.WithDescription("Show the latest and previous extraction results"),
	), s.handleHistory)
}

// Run serves tools over stdio until the client disconnects.
func (s *Server) Run() error {
	s.logger.Info("mcp server starting on stdio", nil)
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("serve stdio: %w", err)
	}
	return nil
}

func (s *Server) handleAddField(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added, hint, err := extraction.AddField(s.session, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text := fmt.Sprintf("Added field %q.\n", added)
	if hint != "" {
		text += "Note: " + hint + "\n"
	}
	return mcp.NewToolResultText(text + formatFields(s.session)), nil
}

func (s *Server) handleRemoveField(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index, ok := request.GetArguments()["index"].(float64)
	if !ok {
		return mcp.NewToolResultError("index argument required"), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.session.RemoveField(int(index))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed field %q.\n%s", removed, formatFields(s.session))), nil
}

func (s *Server) handleListFields(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return mcp.NewToolResultText(formatFields(s.session) + formatOptions(s.session)), nil
}

func (s *Server) handleSetOptions(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		modelName string
		style     domain.OutputStyle
		limit     = -1
	)
	if raw, ok := args["model"].(string); ok && raw != "" {
		model, found := s.cfg.FindModelByName(raw)
		if !found {
			return mcp.NewToolResultError(fmt.Sprintf("%v: %s (available: %s)", domain.ErrUnknownModel, raw, strings.Join(s.cfg.ModelNames(), ", "))), nil
		}
		modelName = model.Name
	}
	if raw, ok := args["output_style"].(string); ok && raw != "" {
		parsed, err := domain.ParseOutputStyle(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		style = parsed
	}
	if raw, ok := args["word_limit"].(float64); ok {
		if raw < 0 {
			return mcp.NewToolResultError(fmt.Sprintf("%v: %v", domain.ErrWordLimit, raw)), nil
		}
		limit = int(raw)
	}

	// nothing changes unless every option parsed
	if modelName != "" {
		s.session.SetModel(modelName)
	}
	if style != "" {
		s.session.SetOutputStyle(style)
	}
	if limit >= 0 {
		if err := s.session.SetWordLimit(limit); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	return mcp.NewToolResultText(formatOptions(s.session)), nil
}

func (s *Server) handleLoadDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read %s: %v", path, err)), nil
	}
	doc, err := s.documents.Read(ctx, path, data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.SetDocument(doc)
	text := fmt.Sprintf("Loaded %s (%s, %d bytes", doc.Name, doc.Kind, doc.Size())
	if doc.Pages > 0 {
		text += fmt.Sprintf(", %d pages", doc.Pages)
	}
	return mcp.NewToolResultText(text + ")\n"), nil
}

func (s *Server) handleExtract(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.RequestExtraction(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.extractor.Run(ctx, s.session); err != nil {
		s.logger.Warn("mcp extraction failed", map[string]interface{}{"error": err.Error()})
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(s.session.Ledger())), nil
}

func (s *Server) handleHistory(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return mcp.NewToolResultText(formatHistory(s.session.Ledger())), nil
}

func formatFields(session *domain.Session) string {
	fields := session.Fields()
	if len(fields) == 0 {
		return "No fields added yet.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Fields (%d/%d):\n", len(fields), session.MaxFields())
	for i, field := range fields {
		fmt.Fprintf(&b, "  %d. %s\n", i, field)
	}
	return b.String()
}

func formatOptions(session *domain.Session) string {
	limit := "none"
	if session.WordLimit() > 0 {
		limit = fmt.Sprintf("%d words", session.WordLimit())
	}
	doc := "none"
	if d, ok := session.Document(); ok {
		doc = d.Name
	}
	return fmt.Sprintf("Model: %s\nOutput style: %s\nWord limit: %s\nDocument: %s\n",
		session.ModelName(), session.OutputStyle(), limit, doc)
}

func formatHistory(ledger *domain.Ledger) string {
	var b strings.Builder
	latest, ok := ledger.Latest()
	if !ok {
		return "No extractions yet.\n"
	}
	writeRecord(&b, "Latest", latest)
	if previous, ok := ledger.Previous(); ok {
		b.WriteString("\n")
		writeRecord(&b, "Previous", previous)
	}
	return b.String()
}

func writeRecord(b *strings.Builder, title string, rec domain.ExtractionRecord) {
	fmt.Fprintf(b, "## %s extraction (%s, %s)\n", title, rec.Model, rec.Timestamp.Format(domain.TimestampFormat))
	fmt.Fprintf(b, "Fields: %s\n\n", strings.Join(rec.Fields, ", "))
	b.WriteString(strings.TrimSpace(rec.ResultText))
	b.WriteString("\n")
}
