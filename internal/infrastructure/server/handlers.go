package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/doeshing/fieldx/internal/application/extraction"
	"github.com/doeshing/fieldx/internal/domain"
)

type documentView struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	MIMEType string `json:"mime_type"`
	Bytes    int    `json:"bytes"`
	Pages    int    `json:"pages,omitempty"`
}

type historyView struct {
	Latest   *domain.ExtractionRecord  `json:"latest"`
	Previous *domain.ExtractionRecord  `json:"previous"`
	Records  []domain.ExtractionRecord `json:"records,omitempty"`
	Capacity int                       `json:"capacity"`
}

type sessionView struct {
	ID          string        `json:"id"`
	Fields      []string      `json:"fields"`
	MaxFields   int           `json:"max_fields"`
	Model       string        `json:"model"`
	OutputStyle string        `json:"output_style"`
	WordLimit   int           `json:"word_limit"`
	Document    *documentView `json:"document"`
	Pending     bool          `json:"pending"`
	History     historyView   `json:"history"`
}

func newHistoryView(ledger *domain.Ledger, withRecords bool) historyView {
	view := historyView{Capacity: ledger.Capacity()}
	if rec, ok := ledger.Latest(); ok {
		view.Latest = &rec
	}
	if rec, ok := ledger.Previous(); ok {
		view.Previous = &rec
	}
	if withRecords {
		view.Records = ledger.Records()
	}
	return view
}

func newSessionView(s *domain.Session) sessionView {
	view := sessionView{
		ID:          s.ID,
		Fields:      s.Fields(),
		MaxFields:   s.MaxFields(),
		Model:       s.ModelName(),
		OutputStyle: string(s.OutputStyle()),
		WordLimit:   s.WordLimit(),
		Pending:     s.Pending(),
		History:     newHistoryView(s.Ledger(), false),
	}
	if view.Fields == nil {
		view.Fields = []string{}
	}
	if doc, ok := s.Document(); ok {
		view.Document = &documentView{
			Name:     doc.Name,
			Kind:     string(doc.Kind),
			MIMEType: doc.MIMEType,
			Bytes:    doc.Size(),
			Pages:    doc.Pages,
		}
	}
	return view
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.sessions.Len()})
}

func (s *Server) handleModels(c *gin.Context) {
	type modelView struct {
		Name        string `json:"name"`
		ModelID     string `json:"model_id"`
		Provider    string `json:"provider"`
		Description string `json:"description,omitempty"`
		MaxPages    int    `json:"max_pages,omitempty"`
		Default     bool   `json:"default"`
	}
	models := make([]modelView, 0, len(s.cfg.Models))
	for _, m := range s.cfg.Models {
		models = append(models, modelView{
			Name:        m.Name,
			ModelID:     m.ModelID,
			Provider:    string(m.Kind()),
			Description: m.Description,
			MaxPages:    m.MaxPages,
			Default:     m.Name == s.cfg.Preferences.DefaultModel,
		})
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	sess, err := s.sessions.Create(s.cfg.SessionOptions())
	if err != nil {
		handleError(c, err)
		return
	}
	s.logger.Info("session created", map[string]interface{}{"session": sess.ID})
	c.JSON(http.StatusCreated, newSessionView(sess))
}

func (s *Server) handleGetSession(c *gin.Context) {
	var view sessionView
	err := s.sessions.Update(c.Param("id"), func(sess *domain.Session) error {
		view = newSessionView(sess)
		return nil
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	id := c.Param("id")
	if !s.sessions.Delete(id) {
		handleError(c, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAddField(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	var fields []string
	var added, hint string
	err := s.sessions.Update(c.Param("id"), func(sess *domain.Session) error {
		var err error
		added, hint, err = extraction.AddField(sess, req.Name)
		fields = sess.Fields()
		return err
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added, "fields": fields, "hint": hint})
}

func (s *Server) handleRemoveField(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "field index must be an integer")
		return
	}

	var fields []string
	var removed string
	err = s.sessions.Update(c.Param("id"), func(sess *domain.Session) error {
		var err error
		removed, err = sess.RemoveField(index)
		fields = sess.Fields()
		return err
	})
	if err != nil {
		handleError(c, err)
		return
	}
	if fields == nil {
		fields = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed, "fields": fields})
}

func (s *Server) handleSetOptions(c *gin.Context) {
	var req struct {
		Model       *string `json:"model"`
		OutputStyle *string `json:"output_style"`
		WordLimit   *int    `json:"word_limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	var style domain.OutputStyle
	if req.OutputStyle != nil {
		parsed, err := domain.ParseOutputStyle(*req.OutputStyle)
		if err != nil {
			handleError(c, err)
			return
		}
		style = parsed
	}
	var modelName string
	if req.Model != nil {
		model, ok := s.cfg.FindModelByName(*req.Model)
		if !ok {
			handleError(c, fmt.Errorf("%w: %s", domain.ErrUnknownModel, *req.Model))
			return
		}
		modelName = model.Name
	}

	var view sessionView
	err := s.sessions.Update(c.Param("id"), func(sess *domain.Session) error {
		if req.WordLimit != nil {
			if err := sess.SetWordLimit(*req.WordLimit); err != nil {
				return err
			}
		}
		if req.Model != nil {
			sess.SetModel(modelName)
		}
		if req.OutputStyle != nil {
			sess.SetOutputStyle(style)
		}
		view = newSessionView(sess)
		return nil
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleUploadDocument(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "multipart field \"file\" is required")
		return
	}
	limit := uploadLimit(s.cfg)
	if fh.Size > limit {
		handleError(c, fmt.Errorf("%w: %d bytes, limit %d", domain.ErrDocumentTooLarge, fh.Size, limit))
		return
	}

	f, err := fh.Open()
	if err != nil {
		handleError(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		handleError(c, err)
		return
	}

	doc, err := s.documents.Read(c.Request.Context(), fh.Filename, data)
	if err != nil {
		handleError(c, err)
		return
	}

	var view sessionView
	err = s.sessions.Update(c.Param("id"), func(sess *domain.Session) error {
		sess.SetDocument(doc)
		view = newSessionView(sess)
		return nil
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleRemoveDocument(c *gin.Context) {
	var view sessionView
	err := s.sessions.Update(c.Param("id"), func(sess *domain.Session) error {
		if _, ok := sess.Document(); !ok {
			return domain.ErrNoDocument
		}
		sess.ClearDocument()
		view = newSessionView(sess)
		return nil
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleExtract(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	var record domain.ExtractionRecord
	var history historyView
	err := s.sessions.Update(id, func(sess *domain.Session) error {
		if !s.limiter(id).Allow() {
			return errRateLimited
		}
		if err := sess.RequestExtraction(); err != nil {
			return err
		}
		if err := s.extractions.Acquire(ctx, 1); err != nil {
			sess.CompleteExtraction()
			return fmt.Errorf("%w: %v", errBusy, err)
		}
		defer s.extractions.Release(1)

		var err error
		record, err = s.extractor.Run(ctx, sess)
		history = newHistoryView(sess.Ledger(), false)
		return err
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": record, "latest": history.Latest, "previous": history.Previous})
}

func (s *Server) handleHistory(c *gin.Context) {
	var view historyView
	err := s.sessions.Update(c.Param("id"), func(sess *domain.Session) error {
		view = newHistoryView(sess.Ledger(), true)
		return nil
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
