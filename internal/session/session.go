// ABOUTME: Session assembles the engine and exposes the two host flows
// ABOUTME: BuildRequest (parse -> messages + merged options) and Expand (block expansion)

package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/quill/internal/alias"
	"github.com/2389/quill/internal/blocks"
	"github.com/2389/quill/internal/config"
	"github.com/2389/quill/internal/document"
	"github.com/2389/quill/internal/expand"
	"github.com/2389/quill/internal/parser"
	"github.com/2389/quill/internal/processor"
	"github.com/2389/quill/internal/state"
	"github.com/2389/quill/internal/track"
)

// ErrExpansionInFlight indicates the document still has outstanding block
// expansions; the caller should wait before building a request.
var ErrExpansionInFlight = errors.New("block expansion in flight")

// Config carries everything a session needs at construction.
type Config struct {
	// Root resolves relative include paths.
	Root string
	// Aliases is the alias table; nil disables alias expansion.
	Aliases alias.Table
	// Global is the global/session option tier.
	Global map[string]string
	// Journal persists request lifecycles; nil disables persistence.
	Journal track.Journal
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Session owns one engine instance: a registry, an expander, and the state
// store with its domain managers.
type Session struct {
	Registry   *processor.Registry
	Expander   *expand.Expander
	Store      *state.Store
	Requests   *track.Requests
	Buffers    *track.Buffers
	Indicators *track.Indicators
	Selection  *track.Selection

	aliases alias.Table
	global  map[string]string
	logger  *slog.Logger
}

// New constructs a session, registering the built-in processors and binding
// the local executors to the built-in block types.
func New(cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reg := processor.NewRegistry()
	if err := blocks.RegisterBuiltins(reg); err != nil {
		return nil, fmt.Errorf("registering builtins: %w", err)
	}

	store := state.New(logger)
	requests := track.NewRequests(store, cfg.Journal, logger)

	expander := expand.New(reg, requests, logger)
	executors := map[string]expand.Executor{
		"include": &blocks.FileExecutor{Root: cfg.Root, Logger: logger},
		"fetch":   &blocks.FetchExecutor{Logger: logger},
		"run":     &blocks.CommandExecutor{Dir: cfg.Root, Logger: logger},
	}
	for _, spec := range blocks.Specs() {
		exec, ok := executors[spec.Type]
		if !ok {
			return nil, fmt.Errorf("no executor for block type %q", spec.Type)
		}
		if err := expander.RegisterBlock(spec, exec); err != nil {
			return nil, fmt.Errorf("registering block %q: %w", spec.Type, err)
		}
	}

	return &Session{
		Registry:   reg,
		Expander:   expander,
		Store:      store,
		Requests:   requests,
		Buffers:    track.NewBuffers(store, logger),
		Indicators: track.NewIndicators(store, logger),
		Selection:  track.NewSelection(store),
		aliases:    cfg.Aliases,
		global:     cfg.Global,
		logger:     logger.With("component", "session"),
	}, nil
}

// BuildRequest parses the document into the conversation destined for a
// model request: messages with aliases resolved and options merged across
// all four tiers. Fails with ErrExpansionInFlight while block expansions
// are outstanding, so callers never send a half-expanded document.
func (s *Session) BuildRequest(buf document.Buffer, opts parser.Options) ([]processor.Message, config.Options, error) {
	if s.Expander.HasActiveRequests("") {
		return nil, config.Options{}, ErrExpansionInFlight
	}

	parseOpts := opts
	parseOpts.NoDefaultSystem = true
	messages, docCfg := parser.Parse(buf.Lines(), s.Registry, parseOpts)
	messages, aliasCfg := alias.Resolve(messages, s.aliases)
	messages = parser.EnsureSystem(messages, opts)

	merged := config.Merge(docCfg, aliasCfg, s.global)
	options, err := config.Resolve(merged)
	if err != nil {
		return nil, config.Options{}, fmt.Errorf("resolving options: %w", err)
	}
	return messages, options, nil
}

// Expand runs a full expansion pass over the document, maintaining the
// expansion indicator while work is outstanding.
func (s *Session) Expand(buf document.Buffer) bool {
	if err := s.Indicators.Set("expansion", "expanding blocks"); err != nil {
		s.logger.Warn("setting indicator", "error", err)
	}
	expanded := s.Expander.ExpandAll(buf)
	if !s.Expander.HasActiveRequests("") {
		s.Indicators.Clear("expansion")
	}
	return expanded
}
