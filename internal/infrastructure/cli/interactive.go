package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/doeshing/fieldx/internal/application/extraction"
	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/ports"
)

// Extractor is the part of the extraction service the CLI drives.
type Extractor interface {
	Run(ctx context.Context, session *domain.Session) (domain.ExtractionRecord, error)
	Preview(ctx context.Context, session *domain.Session) (extraction.Plan, error)
}

var errQuit = errors.New("quit")

const shellHelp = `Commands:
  add <field>      add a field to extract
  del <n>          remove field number n
  fields           list fields
  model [name]     show or change the model tier
  style <name>     Paragraph or "Bullet Points"
  words <n>        word limit per field (0 for none)
  load <path>      load a PDF or DOCX document
  unload           drop the loaded document
  preview          show the prompt without calling the model
  go               run the extraction
  latest           show the latest result
  previous         show the previous result
  history          show latest and previous results
  help             show this help
  quit             exit`

// Shell is the interactive extraction session.
type Shell struct {
	session   *domain.Session
	cfg       domain.Config
	extractor Extractor
	documents ports.DocumentReader
	in        *bufio.Scanner
	out       io.Writer
	readFile  func(string) ([]byte, error)
}

// NewShell creates an interactive session reading commands from in.
func NewShell(session *domain.Session, cfg domain.Config, extractor Extractor, documents ports.DocumentReader, in io.Reader, out io.Writer) *Shell {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Shell{
		session:   session,
		cfg:       cfg,
		extractor: extractor,
		documents: documents,
		in:        scanner,
		out:       out,
		readFile:  os.ReadFile,
	}
}

// Run reads commands until quit or end of input.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "fieldx interactive session. Type 'help' for commands.")
	for {
		fmt.Fprint(s.out, "fieldx> ")
		if !s.in.Scan() {
			fmt.Fprintln(s.out)
			return s.in.Err()
		}
		err := s.Execute(ctx, s.in.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			RenderError(s.out, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Execute runs one command line.
func (s *Shell) Execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(command) {
	case "add":
		return s.addField(arg)
	case "del", "rm", "remove":
		return s.removeField(arg)
	case "fields", "ls":
		RenderFields(s.out, s.session)
	case "model":
		return s.setModel(arg)
	case "style":
		style, err := domain.ParseOutputStyle(arg)
		if err != nil {
			return err
		}
		s.session.SetOutputStyle(style)
		fmt.Fprintf(s.out, "Output style: %s\n", style)
	case "words":
		limit, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("%w: %q", domain.ErrWordLimit, arg)
		}
		if err := s.session.SetWordLimit(limit); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Word limit: %d\n", limit)
	case "load", "open":
		return s.load(ctx, arg)
	case "unload", "close":
		if _, ok := s.session.Document(); !ok {
			return domain.ErrNoDocument
		}
		s.session.ClearDocument()
		fmt.Fprintln(s.out, "Document unloaded.")
	case "preview":
		plan, err := s.extractor.Preview(ctx, s.session)
		if err != nil {
			return err
		}
		RenderPlan(s.out, plan)
	case "go", "run", "extract":
		return s.extract(ctx)
	case "latest":
		rec, ok := s.session.Ledger().Latest()
		if !ok {
			fmt.Fprintln(s.out, "No extractions yet.")
			return nil
		}
		RenderRecord(s.out, "Latest", rec)
	case "previous", "prev":
		rec, ok := s.session.Ledger().Previous()
		if !ok {
			fmt.Fprintln(s.out, "No previous extraction.")
			return nil
		}
		RenderRecord(s.out, "Previous", rec)
	case "history":
		RenderHistory(s.out, s.session.Ledger())
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)
	case "quit", "exit", "q":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q (type 'help')", command)
	}
	return nil
}

func (s *Shell) addField(name string) error {
	added, hint, err := extraction.AddField(s.session, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Added %q\n", added)
	if hint != "" {
		fmt.Fprintf(s.out, "Note: %s\n", hint)
	}
	return nil
}

func (s *Shell) removeField(arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("%w: %q", domain.ErrFieldIndex, arg)
	}
	removed, err := s.session.RemoveField(n - 1)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Removed %q\n", removed)
	return nil
}

func (s *Shell) setModel(name string) error {
	if name == "" {
		for _, model := range s.cfg.Models {
			marker := " "
			if model.Name == s.session.ModelName() {
				marker = "*"
			}
			fmt.Fprintf(s.out, "%s %s (%s)\n", marker, model.Name, model.ModelID)
		}
		return nil
	}
	model, err := s.cfg.ResolveModel(name)
	if err != nil {
		return err
	}
	s.session.SetModel(model.Name)
	fmt.Fprintf(s.out, "Model: %s\n", model.Name)
	return nil
}

func (s *Shell) load(ctx context.Context, path string) error {
	if path == "" {
		return errors.New("usage: load <path>")
	}
	path = filepath.Clean(strings.Trim(path, `"'`))
	data, err := s.readFile(path)
	if err != nil {
		return err
	}
	doc, err := s.documents.Read(ctx, path, data)
	if err != nil {
		return domain.NewAppError(domain.CodeDocument, "cannot load "+filepath.Base(path), err)
	}
	s.session.SetDocument(doc)
	fmt.Fprintf(s.out, "Loaded %s (%s)\n", doc.Name, doc.Kind)
	return nil
}

func (s *Shell) extract(ctx context.Context) error {
	if err := s.session.RequestExtraction(); err != nil {
		return err
	}
	spinner := NewSpinner(s.out, "Extracting fields...")
	spinner.Start()
	_, err := s.extractor.Run(ctx, s.session)
	spinner.Stop()
	if err != nil {
		return err
	}
	RenderHistory(s.out, s.session.Ledger())
	return nil
}
