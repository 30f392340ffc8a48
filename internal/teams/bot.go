package teams

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AE-MS/AE-SearchME/internal/cards"
	"github.com/AE-MS/AE-SearchME/internal/dialog"
	"github.com/AE-MS/AE-SearchME/internal/metrics"
	"github.com/AE-MS/AE-SearchME/internal/search"
	"github.com/AE-MS/AE-SearchME/internal/tracing"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/propagation"
)

// Messages sent back to the user through the compose or task channel.
const (
	RateLimitedText  = "You're sending requests too fast. Please slow down."
	SearchFailedText = "The package search is unavailable right now. Please try again later."
)

// maxActivityBytes bounds the activity body read from the request.
const maxActivityBytes = 1 << 20

// SearchHandler answers messaging extension queries.
type SearchHandler interface {
	Search(ctx context.Context, queryText string) (*search.Result, error)
	SettingsPrompt() *search.Prompt
}

// DialogDispatcher resolves task module payloads.
type DialogDispatcher interface {
	Dispatch(ctx context.Context, payload interface{}, phase dialog.Phase) dialog.Descriptor
}

// Config configures the Bot.
type Config struct {
	AppID       string
	RequireAuth bool
	RateLimit   int
	RateWindow  time.Duration
}

// Bot handles Teams bot activities for the messaging extension.
type Bot struct {
	appID       string
	requireAuth bool
	search      SearchHandler
	dialogs     DialogDispatcher
	rateLimiter *rateLimiter
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// Option configures a Bot.
type Option func(*Bot)

// WithMetrics records invoke outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bot) { b.metrics = m }
}

// WithLogger sets the bot logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Bot) { b.logger = logger.With().Str("component", "teams").Logger() }
}

// NewBot creates a Teams bot.
func NewBot(sh SearchHandler, dd DialogDispatcher, cfg Config, opts ...Option) *Bot {
	b := &Bot{
		appID:       cfg.AppID,
		requireAuth: cfg.RequireAuth,
		search:      sh,
		dialogs:     dd,
		rateLimiter: newRateLimiter(cfg.RateLimit, cfg.RateWindow),
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// HandleActivity handles incoming bot activities.
func (b *Bot) HandleActivity(w http.ResponseWriter, r *http.Request) {
	ctx := tracing.ExtractHTTPHeaders(r.Context(), propagation.HeaderCarrier(r.Header))

	if b.requireAuth {
		if err := verifyAuthorization(r); err != nil {
			b.logger.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("Rejected activity")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxActivityBytes))
	if err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	var activity Activity
	if err := json.Unmarshal(body, &activity); err != nil {
		http.Error(w, "Invalid activity", http.StatusBadRequest)
		return
	}

	switch activity.Type {
	case ActivityInvoke:
		writeInvokeResponse(w, b.Invoke(ctx, &activity))
	case ActivityMessage, ActivityConversationUpdate:
		b.logger.Debug().Str("type", activity.Type).Str("from", activity.From.ID).Msg("Ignored activity")
		w.WriteHeader(http.StatusOK)
	default:
		b.logger.Warn().Str("type", activity.Type).Msg("Unsupported activity type")
		w.WriteHeader(http.StatusOK)
	}
}

// Invoke routes an invoke activity by name and returns the synchronous
// response. It never fails: errors become user-visible messages.
func (b *Bot) Invoke(ctx context.Context, activity *Activity) *InvokeResponse {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}

	ctx, span := tracing.StartInvokeSpan(ctx, activity.Name, activity.ID)
	defer span.End()

	logger := b.logger.With().
		Str("invoke", activity.Name).
		Str("activity_id", activity.ID).
		Str("tenant", tenantID(activity)).
		Str("app_id", b.appID).
		Logger()
	ctx = logger.WithContext(ctx)

	var resp *InvokeResponse
	if !b.rateLimiter.allow(activity.From.ID) {
		if b.metrics != nil {
			b.metrics.RecordRateLimited()
		}
		logger.Warn().Str("from", activity.From.ID).Msg("Rate limited")
		resp = rateLimited(activity.Name)
	} else {
		resp = b.route(ctx, activity)
	}

	if resp.Status >= http.StatusBadRequest {
		tracing.RecordError(span, fmt.Errorf("invoke %s: status %d", activity.Name, resp.Status))
	} else {
		tracing.SetSpanOK(span)
	}
	if b.metrics != nil {
		b.metrics.RecordInvoke(activity.Name, resp.Status)
	}
	return resp
}

func (b *Bot) route(ctx context.Context, activity *Activity) *InvokeResponse {
	switch activity.Name {
	case InvokeQuery:
		return b.handleQuery(ctx, activity)
	case InvokeQuerySettingURL:
		return ok(renderPrompt(b.search.SettingsPrompt()))
	case InvokeSetting:
		zerolog.Ctx(ctx).Info().Interface("settings", activity.Value).Msg("Settings received")
		return ok(nil)
	case InvokeSubmitAction:
		return b.handleSubmitAction(ctx, activity)
	case InvokeTaskFetch:
		return b.handleTask(ctx, activity, dialog.PhaseFetch)
	case InvokeTaskSubmit:
		return b.handleTask(ctx, activity, dialog.PhaseSubmit)
	default:
		zerolog.Ctx(ctx).Debug().Msg("Unhandled invoke")
		return &InvokeResponse{Status: http.StatusNotImplemented}
	}
}

func (b *Bot) handleQuery(ctx context.Context, activity *Activity) *InvokeResponse {
	var query MessagingExtensionQuery
	if err := decodeValue(activity.Value, &query); err != nil {
		return badRequest(ctx, err)
	}

	text, initialRun := query.QueryText()
	if initialRun {
		return ok(renderCards(nil))
	}

	result, err := b.search.Search(ctx, text)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("query", text).Msg("Search failed")
		return ok(messageResult(SearchFailedText))
	}
	if result.Prompt != nil {
		return ok(renderPrompt(result.Prompt))
	}
	return ok(renderCards(result.Cards))
}

func (b *Bot) handleSubmitAction(ctx context.Context, activity *Activity) *InvokeResponse {
	var action MessagingExtensionAction
	if err := decodeValue(activity.Value, &action); err != nil {
		return badRequest(ctx, err)
	}

	zerolog.Ctx(ctx).Info().Str("command", action.CommandID).Str("title", action.Data.Title).Msg("Submit action")

	attachment := cards.NewHeroAttachment(cards.HeroCard{
		Title:    action.Data.Title,
		Subtitle: action.Data.SubTitle,
		Text:     action.Data.Text,
	})
	return ok(&MessagingExtensionResponse{
		ComposeExtension: &MessagingExtensionResult{
			Type:             resultTypeResult,
			AttachmentLayout: resultLayoutList,
			Attachments:      []cards.Attachment{attachment},
		},
	})
}

func (b *Bot) handleTask(ctx context.Context, activity *Activity, phase dialog.Phase) *InvokeResponse {
	var req TaskModuleRequest
	if err := decodeValue(activity.Value, &req); err != nil {
		return badRequest(ctx, err)
	}

	desc := b.dialogs.Dispatch(ctx, req.Data, phase)
	if body := renderDescriptor(desc); body != nil {
		return ok(body)
	}
	return ok(nil)
}

// verifyAuthorization checks for a bearer token. Token validation is left
// to the Bot Framework channel in front of the service.
func verifyAuthorization(r *http.Request) error {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ErrUnauthorized
	}
	if !strings.HasPrefix(authHeader, "Bearer ") || strings.TrimSpace(authHeader[len("Bearer "):]) == "" {
		return ErrUnauthorized
	}
	return nil
}

func rateLimited(name string) *InvokeResponse {
	if name == InvokeTaskFetch || name == InvokeTaskSubmit {
		return ok(taskMessageResponse(RateLimitedText))
	}
	return ok(messageResult(RateLimitedText))
}

func ok(body interface{}) *InvokeResponse {
	return &InvokeResponse{Status: http.StatusOK, Body: body}
}

func badRequest(ctx context.Context, err error) *InvokeResponse {
	zerolog.Ctx(ctx).Warn().Err(err).Msg("Invalid invoke value")
	return &InvokeResponse{Status: http.StatusBadRequest}
}

func writeInvokeResponse(w http.ResponseWriter, resp *InvokeResponse) {
	if resp.Body == nil {
		w.WriteHeader(resp.Status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_ = json.NewEncoder(w).Encode(resp.Body)
}
