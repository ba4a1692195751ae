package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/infrastructure/session"
	"github.com/doeshing/fieldx/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

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
	doc, _ := sess.Document()
	rec := domain.NewExtractionRecord(domain.RecordInput{
		Model:        "gemini-2.5-flash-preview-05-20",
		Tier:         "Balanced",
		Fields:       sess.Fields(),
		OutputStyle:  sess.OutputStyle(),
		DocumentName: doc.Name,
		ResultText:   fmt.Sprintf("result %d", e.calls),
	}, time.Now())
	sess.Ledger().Push(rec)
	return rec, nil
}

type stubDocuments struct{}

func (stubDocuments) Read(_ context.Context, name string, data []byte) (domain.Document, error) {
	if !strings.HasSuffix(name, ".pdf") {
		return domain.Document{}, domain.ErrUnsupportedDocument
	}
	return domain.Document{Name: name, Kind: domain.DocumentPDF, MIMEType: domain.MIMETypePDF, Data: data, Pages: 1}, nil
}

func newTestServer(t *testing.T, extractor *stubExtractor, mutate ...func(*domain.Config)) *Server {
	t.Helper()
	cfg := domain.Config{
		Preferences: domain.Preferences{DefaultModel: "Balanced"},
		Models:      domain.DefaultModels(),
		Server: domain.ServerSettings{
			RateLimitPerMinute: 60,
			RateLimitBurst:     10,
			MaxUploadBytes:     1024,
		},
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	srv, err := New(Deps{
		Config:    cfg,
		Sessions:  session.NewStore(10, time.Minute, nil),
		Extractor: extractor,
		Documents: stubDocuments{},
		Logger:    logger.Discard(),
	})
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func upload(t *testing.T, srv *Server, id, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, _ = part.Write(data)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+id+"/document", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, srv *Server) string {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var view sessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.NotEmpty(t, view.ID)
	return view.ID
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, &stubExtractor{})

	w := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestModels(t *testing.T) {
	srv := newTestServer(t, &stubExtractor{})

	w := doJSON(t, srv, http.MethodGet, "/v1/models", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gemma-3-27b-it")
	assert.Contains(t, w.Body.String(), `"default":true`)
}

func TestExtractionFlowKeepsLatestAndPrevious(t *testing.T) {
	srv := newTestServer(t, &stubExtractor{})
	id := createSession(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/fields", map[string]string{"name": "Date"})
	require.Equal(t, http.StatusOK, w.Code)

	w = upload(t, srv, id, "report.pdf", []byte("%PDF-1.7"))
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/extract", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/fields", map[string]string{"name": "Amount"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/extract", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Latest   *domain.ExtractionRecord `json:"latest"`
		Previous *domain.ExtractionRecord `json:"previous"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Latest)
	require.NotNil(t, resp.Previous)
	assert.Equal(t, "result 2", resp.Latest.ResultText)
	assert.Equal(t, []string{"Date", "Amount"}, resp.Latest.Fields)
	assert.Equal(t, "result 1", resp.Previous.ResultText)
	assert.Equal(t, []string{"Date"}, resp.Previous.Fields)

	w = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/extract", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/v1/sessions/"+id+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history historyView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Len(t, history.Records, 2)
	assert.Equal(t, "result 3", history.Latest.ResultText)
	assert.Equal(t, "result 2", history.Previous.ResultText)
}

func TestAddFieldValidation(t *testing.T) {
	srv := newTestServer(t, &stubExtractor{})
	id := createSession(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/fields", map[string]string{"name": "Invoice Date"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/fields", map[string]string{"name": "Invoice Date"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.CodeValidation, errorCode(t, w))

	w = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/fields", map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/fields", map[string]string{"name": "Invoice Data"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "similar to existing field")

	w = doJSON(t, srv, http.MethodDelete, "/v1/sessions/"+id+"/fields/5", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, srv, http.MethodDelete, "/v1/sessions/"+id+"/fields/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"removed":"Invoice Date"`)
}

func TestSetOptions(t *testing.T) {
	srv := newTestServer(t, &stubExtractor{})
	id := createSession(t, srv)

	w := doJSON(t, srv, http.MethodPut, "/v1/sessions/"+id+"/options", map[string]any{
		"model":        "gemma-3-27b-it",
		"output_style": "bullet points",
		"word_limit":   50,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var view sessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "Fast", view.Model)
	assert.Equal(t, string(domain.StyleBulletPoints), view.OutputStyle)
	assert.Equal(t, 50, view.WordLimit)

	for _, body := range []map[string]any{
		{"model": "Turbo"},
		{"output_style": "haiku"},
		{"word_limit": -3},
	} {
		w = doJSON(t, srv, http.MethodPut, "/v1/sessions/"+id+"/options", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %v", body)
	}
}

func TestDocumentUploadErrors(t *testing.T) {
	srv := newTestServer(t, &stubExtractor{})
	id := createSession(t, srv)

	w := upload(t, srv, id, "notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = upload(t, srv, id, "big.pdf", bytes.Repeat([]byte("x"), 2048))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, domain.CodeDocument, errorCode(t, w))
}

func TestExtractRequiresDocumentAndFields(t *testing.T) {
	extractor := &stubExtractor{}
	srv := newTestServer(t, extractor)
	id := createSession(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/extract", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	upload(t, srv, id, "a.pdf", []byte("%PDF"))
	w = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/extract", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, extractor.calls)
}

func TestExtractProviderFailureLeavesHistory(t *testing.T) {
	extractor := &stubExtractor{}
	srv := newTestServer(t, extractor)
	id := createSession(t, srv)
	doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/fields", map[string]string{"name": "Date"})
	upload(t, srv, id, "a.pdf", []byte("%PDF"))

	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/extract", nil).Code)

	extractor.err = domain.NewAppError(domain.CodeNetwork, "provider unreachable", domain.ErrProviderUnavailable)
	w := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/extract", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, domain.CodeNetwork, errorCode(t, w))

	w = doJSON(t, srv, http.MethodGet, "/v1/sessions/"+id+"/history", nil)
	var history historyView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Len(t, history.Records, 1)
	assert.Nil(t, history.Previous)
}

func TestRemoveDocument(t *testing.T) {
	srv := newTestServer(t, &stubExtractor{})
	id := createSession(t, srv)
	doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/fields", map[string]string{"name": "Date"})
	require.Equal(t, http.StatusOK, upload(t, srv, id, "a.pdf", []byte("%PDF")).Code)
	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/extract", nil).Code)

	w := doJSON(t, srv, http.MethodDelete, "/v1/sessions/"+id+"/document", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view sessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Nil(t, view.Document)
	assert.NotNil(t, view.History.Latest, "removing the document kept history")

	w = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/extract", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, srv, http.MethodDelete, "/v1/sessions/"+id+"/document", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractCanceledIsNotAProviderError(t *testing.T) {
	extractor := &stubExtractor{err: fmt.Errorf("extraction canceled: %w", context.Canceled)}
	srv := newTestServer(t, extractor)
	id := createSession(t, srv)
	doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/fields", map[string]string{"name": "Date"})
	upload(t, srv, id, "a.pdf", []byte("%PDF"))

	w := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/extract", nil)
	assert.Equal(t, statusClientClosedRequest, w.Code)
	assert.Equal(t, codeCanceled, errorCode(t, w))
}

func TestExtractRateLimited(t *testing.T) {
	srv := newTestServer(t, &stubExtractor{}, func(cfg *domain.Config) {
		cfg.Server.RateLimitPerMinute = 1
		cfg.Server.RateLimitBurst = 1
	})
	id := createSession(t, srv)
	doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/fields", map[string]string{"name": "Date"})
	upload(t, srv, id, "a.pdf", []byte("%PDF"))

	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/extract", nil).Code)
	w := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/extract", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, codeRateLimited, errorCode(t, w))
}

func limiterCount(srv *Server) int {
	n := 0
	srv.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func TestLimitersFollowSessionEviction(t *testing.T) {
	store := session.NewStore(2, time.Minute, nil)
	srv, err := New(Deps{
		Config:    domain.Config{Models: domain.DefaultModels()},
		Sessions:  store,
		Extractor: &stubExtractor{},
		Documents: stubDocuments{},
		Logger:    logger.Discard(),
	})
	require.NoError(t, err)

	var last string
	for i := 0; i < 50; i++ {
		last = createSession(t, srv)
		w := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+last+"/extract", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
	}

	assert.Equal(t, 2, store.Len())
	assert.LessOrEqual(t, limiterCount(srv), store.Len())

	w := doJSON(t, srv, http.MethodDelete, "/v1/sessions/"+last, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.LessOrEqual(t, limiterCount(srv), store.Len())
}

func TestUnknownSession(t *testing.T) {
	srv := newTestServer(t, &stubExtractor{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/v1/sessions/nope"},
		{http.MethodDelete, "/v1/sessions/nope"},
		{http.MethodPost, "/v1/sessions/nope/extract"},
		{http.MethodGet, "/v1/sessions/nope/history"},
	} {
		w := doJSON(t, srv, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", tc.method, tc.path)
	}

	id := createSession(t, srv)
	assert.Equal(t, http.StatusNoContent, doJSON(t, srv, http.MethodDelete, "/v1/sessions/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, srv, http.MethodGet, "/v1/sessions/"+id, nil).Code)
}
