// ============================================================================
// descent - Recursive-Descent Front End
// ============================================================================
//
// Package:     frontend
// Description: Front-end service shared by the CLI, servers and REPL
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package frontend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	dsconfig "github.com/msto63/descent/foundation/core/config"
	dserror "github.com/msto63/descent/foundation/core/error"
	dslog "github.com/msto63/descent/foundation/core/log"
	dsast "github.com/msto63/descent/foundation/lang/ast"
	"github.com/msto63/descent/foundation/lang/parser"
	"github.com/msto63/descent/internal/store"
	"github.com/msto63/descent/pkg/core/cache"
	"github.com/msto63/descent/pkg/core/health"
)

// Result is the outcome of one front-end run. Err is nil on success; Tokens
// survive a parse failure. Cached results share Tokens and AST with earlier
// runs and must not be modified.
type Result struct {
	ID       string
	Source   string
	Tokens   []parser.Token
	AST      dsast.Node
	Err      error
	Duration time.Duration
	Cached   bool
}

// cachedRun is the cached outcome for one source text
type cachedRun struct {
	tokens []parser.Token
	ast    dsast.Node
	err    error
}

// OK reports whether the run produced a tree
func (r *Result) OK() bool {
	return r.Err == nil
}

// Config configures a Service
type Config struct {
	Parser  *parser.Parser
	History store.HistoryStore // optional
	Cache   *cache.Cache       // optional
	Logger  *dslog.Logger
}

// Service runs the tokenizer and parser and records every run
type Service struct {
	parser  *parser.Parser
	history store.HistoryStore
	cache   *cache.Cache
	logger  *dslog.Logger
}

// New creates a new Service
func New(cfg Config) (*Service, error) {
	if cfg.Logger == nil {
		cfg.Logger = dslog.GetDefault()
	}
	if cfg.Parser == nil {
		p, err := parser.New(parser.Options{Logger: cfg.Logger})
		if err != nil {
			return nil, err
		}
		cfg.Parser = p
	}

	return &Service{
		parser:  cfg.Parser,
		history: cfg.History,
		cache:   cfg.Cache,
		logger:  cfg.Logger.WithName("frontend"),
	}, nil
}

// NewFromConfig builds the parser and, when enabled, opens the history store
func NewFromConfig(cfg *dsconfig.Config, logger *dslog.Logger) (*Service, error) {
	if logger == nil {
		logger = dslog.GetDefault()
	}

	p, err := parser.New(parser.Options{
		Logger:         logger,
		MaxInputLength: cfg.Parser.MaxInputLength,
		MaxDepth:       cfg.Parser.MaxDepth,
	})
	if err != nil {
		return nil, err
	}

	var history store.HistoryStore
	if cfg.Store.Enabled {
		h, err := store.NewSQLiteHistoryStore(store.SQLiteHistoryConfig{
			Path:  cfg.Store.Path,
			Limit: cfg.Store.HistoryLimit,
		})
		if err != nil {
			return nil, dserror.Wrap(err, "failed to open history store").
				WithCode(dserror.CodeServiceInitialization).
				WithOperation("frontend.NewFromConfig").
				WithDetail("path", cfg.Store.Path)
		}
		history = h
		logger.Debug("History store opened", dslog.Fields{"path": cfg.Store.Path})
	}

	var results *cache.Cache
	if cfg.Parser.CacheSize > 0 {
		results = cache.New(cache.Config{
			MaxItems: cfg.Parser.CacheSize,
			TTL:      cfg.Parser.CacheTTL.Duration,
		})
	}

	return New(Config{Parser: p, History: history, Cache: results, Logger: logger})
}

// HasHistory reports whether runs are recorded
func (s *Service) HasHistory() bool {
	return s.history != nil
}

// Tokenize runs the tokenizer only; nothing is recorded
func (s *Service) Tokenize(ctx context.Context, source string) ([]parser.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.parser.Tokenize(source)
}

// Analyze tokenizes and parses source and records the outcome when a
// history store is configured. Failing to record is logged, not returned.
func (s *Service) Analyze(ctx context.Context, source string) *Result {
	result := &Result{ID: uuid.NewString(), Source: source}
	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	start := time.Now()
	run, cached := s.analyze(source)
	result.Duration = time.Since(start)
	result.Tokens, result.AST, result.Err, result.Cached = run.tokens, run.ast, run.err, cached

	if s.history != nil {
		timer := s.logger.StartTimer("record").WithLevel(dslog.LevelTrace).WithField("id", result.ID)
		if err := s.history.Add(ctx, s.record(result)); err != nil {
			timer.StopWithError(err)
		} else {
			timer.Stop()
		}
	}
	return result
}

// analyze consults the result cache before running the parser. Outcomes
// depend only on the source and the parser limits, so failures are cached
// as well.
func (s *Service) analyze(source string) (run *cachedRun, cached bool) {
	run = &cachedRun{}
	if s.cache == nil {
		run.tokens, run.ast, run.err = s.parser.Analyze(source)
		return run, false
	}

	key := cache.Key(source)
	if v, ok := s.cache.Get(key); ok {
		return v.(*cachedRun), true
	}

	run.tokens, run.ast, run.err = s.parser.Analyze(source)
	s.cache.Set(key, run)
	return run, false
}

// CacheStats reports result cache metrics; ok is false without a cache
func (s *Service) CacheStats() (stats cache.Stats, ok bool) {
	if s.cache == nil {
		return cache.Stats{}, false
	}
	return s.cache.Stats(), true
}

func (s *Service) record(r *Result) *store.Record {
	rec := &store.Record{
		ID:         r.ID,
		Source:     r.Source,
		Success:    r.OK(),
		TokenCount: len(r.Tokens),
		Duration:   r.Duration,
	}

	if r.AST != nil {
		rec.NodeCount = dsast.Count(r.AST)
		if data, err := json.Marshal(dsast.ToMap(r.AST, dsast.ExportOptions{Positions: true})); err == nil {
			rec.AST = data
		}
	}
	if r.Err != nil {
		failure := Describe(r.Err)
		rec.ErrorCode = failure.Code
		rec.Error = failure.Message
		rec.Position = failure.Position
	}
	return rec
}

// History returns recorded runs, newest first
func (s *Service) History(ctx context.Context, limit, offset int) ([]*store.Record, error) {
	if s.history == nil {
		return nil, errHistoryDisabled("frontend.History")
	}
	return s.history.List(ctx, limit, offset)
}

// Lookup returns one recorded run
func (s *Service) Lookup(ctx context.Context, id string) (*store.Record, error) {
	if s.history == nil {
		return nil, errHistoryDisabled("frontend.Lookup")
	}
	return s.history.Get(ctx, id)
}

// Statistics summarises recorded runs
func (s *Service) Statistics(ctx context.Context) (*store.Statistics, error) {
	if s.history == nil {
		return nil, errHistoryDisabled("frontend.Statistics")
	}
	return s.history.Statistics(ctx)
}

// ClearHistory removes all recorded runs
func (s *Service) ClearHistory(ctx context.Context) error {
	if s.history == nil {
		return errHistoryDisabled("frontend.ClearHistory")
	}
	return s.history.Clear(ctx)
}

// healthProbe is parsed by the parser health check
const healthProbe = "{ x = -1.5; while (!(x >= 2)) x = x + 1; print(x) }"

// RegisterHealthChecks adds the parser check plus the cache and history
// checks when those are configured. A failing store only degrades the
// service.
func (s *Service) RegisterHealthChecks(reg *health.Registry) {
	reg.Register("parser", health.Probe(health.StatusUnhealthy, func(ctx context.Context) error {
		_, err := s.parser.Parse(healthProbe)
		return err
	}))
	if s.cache != nil {
		reg.Register("cache", func(ctx context.Context) health.CheckResult {
			s.cache.Prune()
			stats := s.cache.Stats()
			return health.CheckResult{
				Status:  health.StatusHealthy,
				Message: fmt.Sprintf("%d entries, hit rate %.1f%%", stats.Size, stats.HitRate),
			}
		})
	}
	if s.history != nil {
		reg.Register("history", health.Probe(health.StatusDegraded, func(ctx context.Context) error {
			_, err := s.history.Statistics(ctx)
			return err
		}))
	}
}

// Close releases the history store
func (s *Service) Close() error {
	if s.history == nil {
		return nil
	}
	return s.history.Close()
}

func errHistoryDisabled(operation string) error {
	return dserror.New("history store is disabled").
		WithCode(dserror.CodeServiceUnavailable).
		WithOperation(operation)
}

// Failure is the wire form of a front-end error
type Failure struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Position *int   `json:"position,omitempty"`
}

// Describe converts err into its wire form. The message is taken from the
// typed lexer or parser error when there is one.
func Describe(err error) *Failure {
	if err == nil {
		return nil
	}

	failure := &Failure{Code: string(dserror.GetCode(err)), Message: err.Error()}

	var coded interface{ Code() dserror.Code }
	if failure.Code == string(dserror.CodeUnknown) && errors.As(err, &coded) {
		failure.Code = string(coded.Code())
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		failure.Code = string(dserror.CodeTimeout)
	}

	var lexErr *parser.LexError
	var parseErr *parser.ParseError
	var nestErr *parser.NestingError
	switch {
	case errors.As(err, &lexErr):
		failure.Message = lexErr.Error()
	case errors.As(err, &parseErr):
		failure.Message = parseErr.Error()
	case errors.As(err, &nestErr):
		failure.Message = nestErr.Error()
	}

	if pos, ok := parser.ErrorPosition(err); ok {
		failure.Position = &pos
	}
	return failure
}

// Status maps err onto an HTTP status code
func Status(err error) int {
	if err == nil {
		return 200
	}
	code := dserror.Code(Describe(err).Code)
	return code.HTTPStatus()
}
