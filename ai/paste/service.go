// Package paste is the session service behind every caller surface: it owns
// the clipboard snapshot and runs rewrites against it.
package paste

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/neptotech/betteradvancedpaste/ai/core/llm"
	"github.com/neptotech/betteradvancedpaste/ai/metrics"
	"github.com/neptotech/betteradvancedpaste/ai/output"
	"github.com/neptotech/betteradvancedpaste/ai/rewrite"
	"github.com/neptotech/betteradvancedpaste/store"
)

// Result statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// historyTimeout bounds a background prompt history save.
const historyTimeout = 10 * time.Second

// ErrBusy is returned while another rewrite is in flight.
var ErrBusy = errors.New("busy")

// Result is what a caller surface reports for a rewrite.
type Result struct {
	Status   string `json:"status"`
	File     string `json:"file,omitempty"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
	Kind     string `json:"kind,omitempty"`
}

// BackendSelector picks the backend for one rewrite.
type BackendSelector interface {
	Select() llm.Backend
}

// Rewriter runs the two-step rewrite exchange.
type Rewriter interface {
	Rewrite(ctx context.Context, backend llm.Backend, instruction, clipboard string) (*rewrite.Outcome, error)
}

// Config holds the per-session settings of the service.
type Config struct {
	// Clipboard is the snapshot captured at process start.
	Clipboard   string
	OutputDir   string
	SaveHistory bool
}

// Service runs rewrites of the session clipboard snapshot.
type Service struct {
	config   Config
	selector BackendSelector
	rewriter Rewriter
	store    *store.Store
	metrics  *metrics.PrometheusExporter

	sem     *semaphore.Weighted
	pending sync.WaitGroup
}

// NewService creates a service. store and exporter may be nil.
func NewService(cfg Config, selector BackendSelector, rewriter Rewriter, st *store.Store, exporter *metrics.PrometheusExporter) *Service {
	return &Service{
		config:   cfg,
		selector: selector,
		rewriter: rewriter,
		store:    st,
		metrics:  exporter,
		sem:      semaphore.NewWeighted(1),
	}
}

// Clipboard returns the session snapshot.
func (s *Service) Clipboard() string {
	return s.config.Clipboard
}

// Options returns the palette options. A missing or unreadable store yields
// an empty list.
func (s *Service) Options(ctx context.Context) []*store.PromptOption {
	if s.store == nil {
		return []*store.PromptOption{}
	}
	options, err := s.store.ListPromptOptions(ctx)
	if err != nil {
		slog.Warn("options_unavailable", "error", err)
		return []*store.PromptOption{}
	}
	return options
}

// Action runs a rewrite with the palette option name as the instruction.
func (s *Service) Action(ctx context.Context, name string) Result {
	return s.run(ctx, name)
}

// SubmitText runs a rewrite with a free-text instruction.
func (s *Service) SubmitText(ctx context.Context, text string) Result {
	return s.run(ctx, text)
}

// Wait blocks until background history saves have finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) run(ctx context.Context, instruction string) (result Result) {
	if !s.sem.TryAcquire(1) {
		return errorResult(ErrBusy)
	}
	defer s.sem.Release(1)

	logger := slog.With("rewrite_id", uuid.NewString())
	defer func() {
		if r := recover(); r != nil {
			logger.Error("rewrite_panic", "panic", r)
			result = errorResult(fmt.Errorf("internal error: %v", r))
		}
	}()

	if s.metrics != nil {
		s.metrics.IncActive()
		defer s.metrics.DecActive()
	}

	backend := s.selector.Select()
	logger.Info("rewrite_started",
		"backend", backend.Name(),
		"instruction_chars", len(instruction),
		"clipboard_chars", len(s.config.Clipboard))

	start := time.Now()
	outcome, err := s.rewriter.Rewrite(ctx, backend, instruction, s.config.Clipboard)
	if err != nil {
		s.record(backend.Name(), start, err)
		logger.Error("rewrite_failed", "backend", backend.Name(), "error", err)
		return errorResult(err)
	}
	if outcome.FilenameErr != nil && s.metrics != nil {
		s.metrics.RecordFilenameFallback()
	}

	file, err := output.Materialize(outcome.Content, outcome.SuggestedFilename, s.config.OutputDir)
	if err != nil {
		s.record(backend.Name(), start, err)
		logger.Error("rewrite_write_failed", "dir", s.config.OutputDir, "error", err)
		return errorResult(err)
	}
	s.record(backend.Name(), start, nil)
	if s.metrics != nil {
		s.metrics.RecordFileWritten()
	}

	logger.Info("rewrite_completed",
		"backend", backend.Name(),
		"file", file.Path,
		"latency_ms", time.Since(start).Milliseconds())

	s.saveHistory(logger, instruction)

	return Result{
		Status:   StatusOK,
		File:     file.Path,
		Filename: file.Filename,
	}
}

// saveHistory hands the instruction to the prompt store in the background.
// Its outcome never changes the rewrite result.
func (s *Service) saveHistory(logger *slog.Logger, instruction string) {
	if !s.config.SaveHistory || s.store == nil || strings.TrimSpace(instruction) == "" {
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()

		status := "created"
		created, err := s.store.SavePrompt(ctx, instruction)
		switch {
		case err != nil:
			status = "error"
			logger.Warn("history_save_failed", "error", err)
		case !created:
			status = "duplicate"
		}
		logger.Debug("history_saved", "status", status)
		if s.metrics != nil {
			s.metrics.RecordHistorySave(status)
		}
	}()
}

func (s *Service) record(backend string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordRewrite(backend, time.Since(start), kindOf(err))
}

func errorResult(err error) Result {
	return Result{
		Status: StatusError,
		Error:  err.Error(),
		Kind:   kindOf(err),
	}
}

func kindOf(err error) string {
	if err == nil {
		return ""
	}
	var f *llm.Failure
	if errors.As(err, &f) {
		return string(f.Kind)
	}
	return "internal"
}
