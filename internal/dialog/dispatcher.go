package dialog

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"

	"github.com/AE-MS/AE-SearchME/internal/cards"
	"github.com/AE-MS/AE-SearchME/internal/config"
	"github.com/AE-MS/AE-SearchME/internal/metrics"
	"github.com/AE-MS/AE-SearchME/internal/tracing"
	"github.com/rs/zerolog"
)

// Dialog titles and the canned message text.
const (
	URLDialogTitle  = "URL Dialog"
	CardDialogTitle = "Adaptive Card Dialog"
	MessageText     = "Hello! This is a message!"
)

// Capabilities is the set of dialog kinds a dispatcher will produce. A
// trigger whose kind is not enabled is handled like an unrecognized one.
type Capabilities uint8

// Capability flags.
const (
	CapURL Capabilities = 1 << iota
	CapCard
	CapMessage
	CapNoResponse

	CapAll = CapURL | CapCard | CapMessage | CapNoResponse
)

// Has reports whether every flag in o is set.
func (c Capabilities) Has(o Capabilities) bool { return c&o == o }

// ParseCapabilities converts configuration names into a flag set.
func ParseCapabilities(names []string) (Capabilities, error) {
	var caps Capabilities
	for _, name := range names {
		switch strings.TrimSpace(name) {
		case config.CapabilityURL:
			caps |= CapURL
		case config.CapabilityCard:
			caps |= CapCard
		case config.CapabilityMessage:
			caps |= CapMessage
		case config.CapabilityNoResponse:
			caps |= CapNoResponse
		default:
			return 0, fmt.Errorf("dialog: unknown capability %q", name)
		}
	}
	return caps, nil
}

func capabilityFor(code TriggerCode) Capabilities {
	switch code {
	case RequestURL:
		return CapURL
	case RequestCard:
		return CapCard
	case RequestMessage:
		return CapMessage
	case RequestNoResponse:
		return CapNoResponse
	}
	return 0
}

// Config holds the static resources a Dispatcher hands out.
type Config struct {
	PageBaseURL  string
	FallbackURL  string
	Width        int
	Height       int
	Card         cards.Document
	Capabilities Capabilities
	// SilentUnrecognized answers unknown triggers with NoResponse instead
	// of a diagnostic message.
	SilentUnrecognized bool
}

// ConfigFrom builds a dispatcher Config from the service configuration.
func ConfigFrom(cfg config.DialogsConfig) (Config, error) {
	caps, err := ParseCapabilities(cfg.Capabilities)
	if err != nil {
		return Config{}, err
	}
	card, err := cards.LoadDocument(cfg.StaticCardPath)
	if err != nil {
		return Config{}, err
	}
	return Config{
		PageBaseURL:        cfg.PageBaseURL,
		FallbackURL:        cfg.FallbackURL,
		Width:              cfg.Width,
		Height:             cfg.Height,
		Card:               card,
		Capabilities:       caps,
		SilentUnrecognized: cfg.Unrecognized == config.UnrecognizedNone,
	}, nil
}

// Dispatcher resolves trigger codes to dialog descriptors. It holds no
// per-request state and is safe for concurrent use.
type Dispatcher struct {
	cfg     Config
	randInt func() int
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRandom replaces the source of the URL dialog's random parameter.
func WithRandom(fn func() int) Option {
	return func(d *Dispatcher) { d.randInt = fn }
}

// WithMetrics records each dispatch in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger.With().Str("component", "dialog").Logger() }
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg Config, opts ...Option) *Dispatcher {
	if cfg.Card.IsZero() {
		cfg.Card = cards.DefaultDocument()
	}
	d := &Dispatcher{
		cfg:     cfg,
		randInt: func() int { return rand.IntN(1000) + 1 },
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch resolves a raw task module data payload. The trigger may be
// wrapped in {"data": ...} or be the payload itself. It never fails:
// unrecognized payloads yield a diagnostic message (or NoResponse when the
// dispatcher is configured to stay silent).
func (d *Dispatcher) Dispatch(ctx context.Context, payload interface{}, phase Phase) Descriptor {
	raw := ExtractTrigger(payload)
	code, ok := ParseTrigger(raw)
	if !ok {
		code = TriggerUnknown
	}

	_, span := tracing.StartDispatchSpan(ctx, code.String(), string(phase))
	defer span.End()

	desc := d.resolve(code, payload)

	span.SetAttributes(tracing.AttrDialogKind.String(string(desc.Kind())))
	if d.metrics != nil {
		d.metrics.RecordDispatch(code.String(), string(phase), string(desc.Kind()))
	}
	d.logger.Info().
		Str("phase", string(phase)).
		Str("trigger", code.String()).
		Str("kind", string(desc.Kind())).
		Interface("payload", payload).
		Msg("Task module dispatch")

	return desc
}

// DispatchCode resolves a known trigger code.
func (d *Dispatcher) DispatchCode(ctx context.Context, code TriggerCode, phase Phase) Descriptor {
	return d.Dispatch(ctx, code, phase)
}

func (d *Dispatcher) resolve(code TriggerCode, payload interface{}) Descriptor {
	if code == TriggerUnknown || !d.cfg.Capabilities.Has(capabilityFor(code)) {
		return d.unrecognized(payload)
	}

	switch code {
	case RequestURL:
		return OpenURL{
			URL:         PageURL(d.cfg.PageBaseURL, url.Values{"randomNumber": {strconv.Itoa(d.randInt())}}),
			FallbackURL: d.cfg.FallbackURL,
			Width:       d.cfg.Width,
			Height:      d.cfg.Height,
			Title:       URLDialogTitle,
		}
	case RequestCard:
		return ShowCard{
			Card:   d.cfg.Card,
			Width:  d.cfg.Width,
			Height: d.cfg.Height,
			Title:  CardDialogTitle,
		}
	case RequestMessage:
		return ShowMessage{Text: MessageText}
	default:
		return NoResponse{}
	}
}

func (d *Dispatcher) unrecognized(payload interface{}) Descriptor {
	if d.cfg.SilentUnrecognized {
		return NoResponse{}
	}
	return ShowMessage{
		Text: fmt.Sprintf("The submitted data did not contain a valid request (submitted data: %s)", describePayload(payload)),
	}
}

func describePayload(payload interface{}) string {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(b)
}

// PageURL appends params and the Teams tab fragment to a hosted page URL.
func PageURL(base string, params url.Values) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	u.Fragment = "/tab"
	return u.String()
}
