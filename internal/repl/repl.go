// Package repl runs the interactive read-eval-print loop on top of a realm.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/atlanticdynamic/ember/internal/hosterr"
	"github.com/peterh/liner"
	"go.starlark.net/starlark"
)

const (
	// PrimaryPrompt starts a statement.
	PrimaryPrompt = ">>> "
	// ContinuationPrompt continues a multi-line statement.
	ContinuationPrompt = "... "

	filename = "<repl>"
)

// Evaluator evaluates one statement read through readline.
type Evaluator interface {
	EvalChunk(ctx context.Context, filename string, readline func() ([]byte, error)) (starlark.Value, error)
}

// Prompter reads lines from the user and remembers them.
type Prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// Session is one interactive loop.
type Session struct {
	eval        Evaluator
	prompter    Prompter
	stdout      io.Writer
	stderr      io.Writer
	historyPath string
	logger      *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithOutput sets where values and errors are written.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(s *Session) {
		if stdout != nil {
			s.stdout = stdout
		}
		if stderr != nil {
			s.stderr = stderr
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHistory keeps the line history in path. It is read when the prompter is a liner
// prompter and written back when the session ends.
func WithHistory(path string) Option {
	return func(s *Session) {
		s.historyPath = path
	}
}

// New creates a session reading from prompter.
func New(eval Evaluator, prompter Prompter, opts ...Option) *Session {
	s := &Session{
		eval:     eval,
		prompter: prompter,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithGroup("repl")
	return s
}

// NewLiner creates a terminal prompter with Ctrl-C aborting the current statement.
func NewLiner() *liner.State {
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)
	l.SetMultiLineMode(true)
	return l
}

// historyStore is implemented by prompters that can persist their history.
type historyStore interface {
	ReadHistory(r io.Reader) (int, error)
	WriteHistory(w io.Writer) (int, error)
}

// Run loops until the input ends. Errors raised by evaluated statements are printed and do
// not end the session.
func (s *Session) Run(ctx context.Context) error {
	s.loadHistory()
	defer func() {
		s.saveHistory()
		if err := s.prompter.Close(); err != nil {
			s.logger.Warn("Failed to close prompter", "error", err)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return hosterr.Host(hosterr.KindInternal, err)
		}

		v, err := s.eval.EvalChunk(ctx, filename, s.readline())
		switch {
		case errors.Is(err, io.EOF):
			_, _ = fmt.Fprintln(s.stdout)
			return nil
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case err != nil:
			_, _ = fmt.Fprintln(s.stderr, hosterr.Render(hosterr.From(err)))
			continue
		}

		if v != nil && v != starlark.None {
			_, _ = fmt.Fprintln(s.stdout, v.String())
		}
	}
}

// readline returns a line reader for one statement: the first line gets the primary
// prompt, continuation lines the secondary one.
func (s *Session) readline() func() ([]byte, error) {
	prompt := PrimaryPrompt
	return func() ([]byte, error) {
		line, err := s.prompter.Prompt(prompt)
		prompt = ContinuationPrompt
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(line) != "" {
			s.prompter.AppendHistory(line)
		}
		return []byte(line + "\n"), nil
	}
}

func (s *Session) loadHistory() {
	store, ok := s.prompter.(historyStore)
	if !ok || s.historyPath == "" {
		return
	}
	f, err := os.Open(s.historyPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Failed to open history", "path", s.historyPath, "error", err)
		}
		return
	}
	defer func() { _ = f.Close() }()
	if _, err := store.ReadHistory(f); err != nil {
		s.logger.Warn("Failed to read history", "path", s.historyPath, "error", err)
	}
}

func (s *Session) saveHistory() {
	store, ok := s.prompter.(historyStore)
	if !ok || s.historyPath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.historyPath), 0o755); err != nil {
		s.logger.Warn("Failed to create history directory", "path", s.historyPath, "error", err)
		return
	}
	f, err := os.Create(s.historyPath)
	if err != nil {
		s.logger.Warn("Failed to create history file", "path", s.historyPath, "error", err)
		return
	}
	defer func() { _ = f.Close() }()
	if _, err := store.WriteHistory(f); err != nil {
		s.logger.Warn("Failed to write history", "path", s.historyPath, "error", err)
	}
}
