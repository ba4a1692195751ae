package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/pkg/logger"
)

type stubExtractor struct {
	err   error
	calls int
}

func (e *stubExtractor) Run(_ context.Context, sess *domain.Session) (domain.ExtractionRecord, error) {
	defer sess.CompleteExtraction()
	e.calls++
	if e.err != nil {
		return domain.ExtractionRecord{}, e.err
	}
	rec := domain.NewExtractionRecord(domain.RecordInput{
		Model:      sess.ModelName(),
		Fields:     sess.Fields(),
		ResultText: "run " + string(rune('0'+e.calls)),
	}, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	sess.Ledger().Push(rec)
	return rec, nil
}

type stubDocuments struct{}

func (stubDocuments) Read(_ context.Context, name string, data []byte) (domain.Document, error) {
	if filepath.Ext(name) != ".pdf" {
		return domain.Document{}, domain.ErrUnsupportedDocument
	}
	return domain.Document{Name: filepath.Base(name), Kind: domain.DocumentPDF, Data: data, Pages: 2}, nil
}

func newTestServer(t *testing.T, extractor *stubExtractor) *Server {
	t.Helper()
	srv, err := NewServer(Deps{
		Config: domain.Config{
			Preferences: domain.Preferences{DefaultModel: "Balanced"},
			Models:      domain.DefaultModels(),
		},
		Extractor: extractor,
		Documents: stubDocuments{},
		Logger:    logger.Discard(),
		Version:   "test",
	})
	require.NoError(t, err)
	return srv
}

func call(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	var parts []string
	for _, content := range result.Content {
		switch c := content.(type) {
		case mcp.TextContent:
			parts = append(parts, c.Text)
		case *mcp.TextContent:
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0o600))
	return path
}

func TestNewServerRequiresDeps(t *testing.T) {
	_, err := NewServer(Deps{})
	assert.Error(t, err)
}

func TestFieldTools(t *testing.T) {
	srv := newTestServer(t, &stubExtractor{})
	ctx := context.Background()

	result, err := srv.handleAddField(ctx, call(map[string]interface{}{"name": "Invoice Date"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "0. Invoice Date")

	result, _ = srv.handleAddField(ctx, call(map[string]interface{}{"name": "Invoice Date"}))
	assert.True(t, result.IsError)

	result, _ = srv.handleAddField(ctx, call(map[string]interface{}{"name": "invoice date "}))
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "similar to existing field")

	result, _ = srv.handleAddField(ctx, call(map[string]interface{}{}))
	assert.True(t, result.IsError)

	result, _ = srv.handleRemoveField(ctx, call(map[string]interface{}{"index": float64(7)}))
	assert.True(t, result.IsError)

	result, _ = srv.handleRemoveField(ctx, call(map[string]interface{}{"index": float64(0)}))
	assert.False(t, result.IsError)

	result, _ = srv.handleListFields(ctx, call(nil))
	text := resultText(t, result)
	assert.Contains(t, text, "0. invoice date")
	assert.NotContains(t, text, "Invoice Date")
	assert.Contains(t, text, "Model: Balanced")
}

func TestSetOptions(t *testing.T) {
	srv := newTestServer(t, &stubExtractor{})
	ctx := context.Background()

	result, err := srv.handleSetOptions(ctx, call(map[string]interface{}{
		"model":        "Fast",
		"output_style": "bullets",
		"word_limit":   float64(40),
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))
	text := resultText(t, result)
	assert.Contains(t, text, "Model: Fast")
	assert.Contains(t, text, "Output style: Bullet Points")
	assert.Contains(t, text, "Word limit: 40 words")

	result, _ = srv.handleSetOptions(ctx, call(map[string]interface{}{"model": "Turbo"}))
	assert.True(t, result.IsError)
	result, _ = srv.handleSetOptions(ctx, call(map[string]interface{}{"output_style": "sonnet"}))
	assert.True(t, result.IsError)
	result, _ = srv.handleSetOptions(ctx, call(map[string]interface{}{"word_limit": float64(-1)}))
	assert.True(t, result.IsError)
}

func TestSetOptionsIsAllOrNothing(t *testing.T) {
	srv := newTestServer(t, &stubExtractor{})
	ctx := context.Background()
	srv.session.SetDocument(domain.Document{Name: "a.pdf", Kind: domain.DocumentPDF, Data: []byte("%PDF")})
	_, err := srv.session.AddField("Date")
	require.NoError(t, err)
	require.NoError(t, srv.session.RequestExtraction())

	for _, args := range []map[string]interface{}{
		{"model": "Fast", "output_style": "sonnet"},
		{"model": "Fast", "word_limit": float64(-5)},
		{"output_style": "bullets", "model": "Turbo"},
	} {
		result, err := srv.handleSetOptions(ctx, call(args))
		require.NoError(t, err)
		assert.True(t, result.IsError, "args %v", args)
	}

	assert.Equal(t, "Balanced", srv.session.ModelName())
	assert.Equal(t, domain.StyleParagraph, srv.session.OutputStyle())
	assert.Equal(t, 0, srv.session.WordLimit())
	assert.True(t, srv.session.Pending(), "rejected options reset the pending extraction")
}

func TestLoadDocument(t *testing.T) {
	srv := newTestServer(t, &stubExtractor{})
	ctx := context.Background()

	result, err := srv.handleLoadDocument(ctx, call(map[string]interface{}{"path": writePDF(t)}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Loaded report.pdf")
	assert.Contains(t, resultText(t, result), "2 pages")

	result, _ = srv.handleLoadDocument(ctx, call(map[string]interface{}{"path": filepath.Join(t.TempDir(), "missing.pdf")}))
	assert.True(t, result.IsError)

	txt := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o600))
	result, _ = srv.handleLoadDocument(ctx, call(map[string]interface{}{"path": txt}))
	assert.True(t, result.IsError)
}

func TestExtractShowsLatestAndPrevious(t *testing.T) {
	extractor := &stubExtractor{}
	srv := newTestServer(t, extractor)
	ctx := context.Background()

	result, _ := srv.handleExtract(ctx, call(nil))
	assert.True(t, result.IsError, "extract without document or fields must fail")
	assert.Equal(t, 0, extractor.calls)

	_, _ = srv.handleLoadDocument(ctx, call(map[string]interface{}{"path": writePDF(t)}))
	_, _ = srv.handleAddField(ctx, call(map[string]interface{}{"name": "Date"}))

	result, _ = srv.handleExtract(ctx, call(nil))
	require.False(t, result.IsError)
	text := resultText(t, result)
	assert.Contains(t, text, "Latest extraction")
	assert.NotContains(t, text, "Previous extraction")

	_, _ = srv.handleAddField(ctx, call(map[string]interface{}{"name": "Amount"}))
	result, _ = srv.handleExtract(ctx, call(nil))
	text = resultText(t, result)
	assert.Contains(t, text, "run 2")
	assert.Contains(t, text, "Previous extraction")
	assert.Contains(t, text, "Fields: Date, Amount")
	assert.Contains(t, text, "Fields: Date\n")

	extractor.err = domain.NewAppError(domain.CodeAI, "provider failed", errors.New("boom"))
	result, _ = srv.handleExtract(ctx, call(nil))
	assert.True(t, result.IsError)

	result, _ = srv.handleHistory(ctx, call(nil))
	text = resultText(t, result)
	assert.Contains(t, text, "run 2")
	assert.Contains(t, text, "run 1")
	assert.False(t, srv.session.Pending())
}

func TestHistoryEmpty(t *testing.T) {
	srv := newTestServer(t, &stubExtractor{})

	result, err := srv.handleHistory(context.Background(), call(nil))
	require.NoError(t, err)
	assert.Equal(t, "No extractions yet.\n", resultText(t, result))
}
