// Package api provides the HTTP handlers.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/AE-MS/AE-SearchME/internal/cards"
	"github.com/AE-MS/AE-SearchME/internal/dialog"
	"github.com/AE-MS/AE-SearchME/internal/search"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds dialog payloads.
const maxBodyBytes = 64 << 10

// SearchHandler runs messaging extension searches.
type SearchHandler interface {
	Search(ctx context.Context, queryText string) (*search.Result, error)
}

// DialogDispatcher resolves task module payloads.
type DialogDispatcher interface {
	Dispatch(ctx context.Context, payload interface{}, phase dialog.Phase) dialog.Descriptor
}

// Handler handles API requests.
type Handler struct {
	search  SearchHandler
	dialogs DialogDispatcher
	version string
	logger  zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(sh SearchHandler, dd DialogDispatcher, version string, logger zerolog.Logger) *Handler {
	return &Handler{
		search:  sh,
		dialogs: dd,
		version: version,
		logger:  logger.With().Str("component", "api").Logger(),
	}
}

// API Response types

// Response is a generic API response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SearchResponse is the JSON view of a search result. Exactly one of Cards
// and Prompt is set.
type SearchResponse struct {
	Query  string          `json:"query" yaml:"query"`
	Cards  []CardResponse  `json:"cards,omitempty" yaml:"cards,omitempty"`
	Prompt *PromptResponse `json:"prompt,omitempty" yaml:"prompt,omitempty"`
}

// CardResponse is one display card.
type CardResponse struct {
	Title        string           `json:"title" yaml:"title"`
	Subtitle     string           `json:"subtitle" yaml:"subtitle"`
	PreviewTitle string           `json:"preview_title" yaml:"preview_title"`
	Actions      []ActionResponse `json:"actions" yaml:"actions"`
}

// ActionResponse is one card button.
type ActionResponse struct {
	Label   string `json:"label" yaml:"label"`
	Trigger string `json:"trigger" yaml:"trigger"`
}

// PromptResponse is a config, auth or message prompt.
type PromptResponse struct {
	Kind  string `json:"kind" yaml:"kind"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
	Text  string `json:"text,omitempty" yaml:"text,omitempty"`
}

// DialogResponse is the JSON view of a dialog descriptor.
type DialogResponse struct {
	Kind        string              `json:"kind" yaml:"kind"`
	Title       string              `json:"title,omitempty" yaml:"title,omitempty"`
	URL         string              `json:"url,omitempty" yaml:"url,omitempty"`
	FallbackURL string              `json:"fallback_url,omitempty" yaml:"fallback_url,omitempty"`
	Width       int                 `json:"width,omitempty" yaml:"width,omitempty"`
	Height      int                 `json:"height,omitempty" yaml:"height,omitempty"`
	Card        *cards.AdaptiveCard `json:"card,omitempty" yaml:"card,omitempty"`
	Text        string              `json:"text,omitempty" yaml:"text,omitempty"`
}

// NewSearchResponse converts a search result.
func NewSearchResponse(query string, result *search.Result) *SearchResponse {
	resp := &SearchResponse{Query: query}
	if result.Prompt != nil {
		resp.Prompt = &PromptResponse{
			Kind:  string(result.Prompt.Kind),
			Title: result.Prompt.Title,
			URL:   result.Prompt.URL,
			Text:  result.Prompt.Text,
		}
		return resp
	}

	resp.Cards = make([]CardResponse, 0, len(result.Cards))
	for _, c := range result.Cards {
		card := CardResponse{
			Title:        c.Title,
			Subtitle:     c.Subtitle,
			PreviewTitle: c.PreviewTitle,
			Actions:      make([]ActionResponse, 0, len(c.Actions)),
		}
		for _, a := range c.Actions {
			card.Actions = append(card.Actions, ActionResponse{Label: a.Label, Trigger: a.Trigger.String()})
		}
		resp.Cards = append(resp.Cards, card)
	}
	return resp
}

// NewDialogResponse converts a dialog descriptor.
func NewDialogResponse(desc dialog.Descriptor) (*DialogResponse, error) {
	resp := &DialogResponse{Kind: string(desc.Kind())}
	switch d := desc.(type) {
	case dialog.OpenURL:
		resp.Title = d.Title
		resp.URL = d.URL
		resp.FallbackURL = d.FallbackURL
		resp.Width = d.Width
		resp.Height = d.Height
	case dialog.ShowCard:
		card, err := d.Card.Card()
		if err != nil {
			return nil, err
		}
		resp.Title = d.Title
		resp.Width = d.Width
		resp.Height = d.Height
		resp.Card = card
	case dialog.ShowMessage:
		resp.Text = d.Text
	}
	return resp, nil
}

// Health check

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"status":    "healthy",
			"version":   h.version,
			"timestamp": time.Now().UTC(),
		},
	})
}

// Search handles GET /api/v1/search?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("q") {
		h.WriteAPIError(w, NewValidationError("query parameter 'q' is required"))
		return
	}
	q := query.Get("q")

	result, err := h.search.Search(r.Context(), q)
	if h.HandleError(w, err, "search") {
		return
	}

	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: NewSearchResponse(q, result)})
}

// Dispatch handles POST /api/v1/dialogs/{phase}. The body is the raw task
// module data, as a card action would submit it.
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	phase := dialog.Phase(chi.URLParam(r, "phase"))
	if phase != dialog.PhaseFetch && phase != dialog.PhaseSubmit {
		h.WriteAPIError(w, NewValidationError("phase must be 'fetch' or 'submit'"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.WriteAPIError(w, ErrInvalidJSON)
		return
	}
	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		h.WriteAPIError(w, ErrInvalidJSON)
		return
	}

	resp, err := NewDialogResponse(h.dialogs.Dispatch(r.Context(), payload, phase))
	if h.HandleError(w, err, "dispatch") {
		return
	}

	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: resp})
}

// NotFound handles unmatched routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.WriteAPIError(w, ErrRouteNotFound)
}

// MethodNotAllowed handles a known route hit with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.WriteAPIError(w, ErrMethodNotAllowed)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
