// Package search answers messaging extension queries: it proxies the query to
// the package registry and turns each hit into a display card, or answers a
// reserved keyword with a configuration or sign-in prompt.
package search

import (
	"context"
	"fmt"
	"net/url"

	"github.com/AE-MS/AE-SearchME/internal/dialog"
	"github.com/AE-MS/AE-SearchME/internal/metrics"
	"github.com/AE-MS/AE-SearchME/internal/registry"
	"github.com/rs/zerolog"
)

// Errors surfaced from the registry.
var (
	ErrUpstream          = registry.ErrUpstream
	ErrMalformedResponse = registry.ErrMalformedResponse
)

// Action labels on every result card.
const (
	URLActionLabel  = "Show URL Task Module"
	CardActionLabel = "Show Adaptive Card Task Module"
)

// Searcher is the registry operation the handler needs.
type Searcher interface {
	Search(ctx context.Context, text string, size int) ([]registry.Package, error)
}

// SearchResultItem is one package returned by the registry.
type SearchResultItem struct {
	Name        string
	Description string
}

// CardAction is a button on a display card.
type CardAction struct {
	Label   string
	Trigger dialog.TriggerCode
}

// DisplayCard is one rendered search result.
type DisplayCard struct {
	Title        string
	Subtitle     string
	Actions      []CardAction
	PreviewTitle string
}

// Result is the answer to a query: either Cards or a Prompt.
type Result struct {
	Cards  []DisplayCard
	Prompt *Prompt
}

// Handler runs messaging extension searches. It is stateless and safe for
// concurrent use.
type Handler struct {
	searcher    Searcher
	resultSize  int
	pageBaseURL string
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// Config configures a Handler.
type Config struct {
	ResultSize  int
	PageBaseURL string
}

// Option configures a Handler.
type Option func(*Handler)

// WithMetrics records search outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithLogger sets the handler logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(h *Handler) { h.logger = logger.With().Str("component", "search").Logger() }
}

// NewHandler creates a search Handler.
func NewHandler(searcher Searcher, cfg Config, opts ...Option) *Handler {
	if cfg.ResultSize <= 0 {
		cfg.ResultSize = 8
	}
	h := &Handler{
		searcher:    searcher,
		resultSize:  cfg.ResultSize,
		pageBaseURL: cfg.PageBaseURL,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Search answers queryText. Reserved keywords return a Prompt without
// contacting the registry; anything else issues one registry search and
// returns one card per hit, in registry order.
func (h *Handler) Search(ctx context.Context, queryText string) (*Result, error) {
	if prompt, ok := h.promptFor(queryText); ok {
		h.record("prompt", -1)
		h.logger.Debug().Str("query", queryText).Str("prompt", string(prompt.Kind)).Msg("Reserved query")
		return &Result{Prompt: prompt}, nil
	}

	pkgs, err := h.searcher.Search(ctx, queryText, h.resultSize)
	if err != nil {
		h.record(outcomeFor(err), -1)
		return nil, fmt.Errorf("search %q: %w", queryText, err)
	}

	cards := make([]DisplayCard, 0, len(pkgs))
	for _, pkg := range pkgs {
		cards = append(cards, NewDisplayCard(SearchResultItem{
			Name:        pkg.Name,
			Description: pkg.Description,
		}))
	}

	h.record("results", len(cards))
	h.logger.Info().Str("query", queryText).Int("results", len(cards)).Msg("Search completed")

	return &Result{Cards: cards}, nil
}

// NewDisplayCard renders one search hit with its URL and card dialog actions.
func NewDisplayCard(item SearchResultItem) DisplayCard {
	return DisplayCard{
		Title:    item.Name,
		Subtitle: item.Description,
		Actions: []CardAction{
			{Label: URLActionLabel, Trigger: dialog.RequestURL},
			{Label: CardActionLabel, Trigger: dialog.RequestCard},
		},
		PreviewTitle: item.Name,
	}
}

// SettingsPrompt is the configuration page offered when Teams asks for the
// extension's settings URL.
func (h *Handler) SettingsPrompt() *Prompt {
	return &Prompt{
		Kind:  PromptConfig,
		Title: SettingsTitle,
		URL:   dialog.PageURL(h.pageBaseURL, nil),
	}
}

func (h *Handler) promptFor(queryText string) (*Prompt, bool) {
	entry, ok := reserved[queryText]
	if !ok {
		return nil, false
	}
	p := &Prompt{Kind: entry.kind, Title: entry.title, Text: entry.text}
	if entry.page != "" {
		p.URL = dialog.PageURL(h.pageBaseURL, url.Values{"page": {entry.page}})
	}
	return p, true
}

func (h *Handler) record(outcome string, results int) {
	if h.metrics != nil {
		h.metrics.RecordSearch(outcome, results)
	}
}

func outcomeFor(err error) string {
	switch {
	case isMalformed(err):
		return "malformed"
	default:
		return "upstream_error"
	}
}
