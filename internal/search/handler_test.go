package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AE-MS/AE-SearchME/internal/config"
	"github.com/AE-MS/AE-SearchME/internal/dialog"
	"github.com/AE-MS/AE-SearchME/internal/metrics"
	"github.com/AE-MS/AE-SearchME/internal/registry"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const testPage = "https://pages.example.com/index.html"

// fakeSearcher records calls and returns canned packages.
type fakeSearcher struct {
	calls []fakeCall
	pkgs  []registry.Package
	err   error
}

type fakeCall struct {
	text string
	size int
}

func (f *fakeSearcher) Search(ctx context.Context, text string, size int) ([]registry.Package, error) {
	f.calls = append(f.calls, fakeCall{text: text, size: size})
	if f.err != nil {
		return nil, f.err
	}
	return f.pkgs, nil
}

func newTestHandler(s Searcher, opts ...Option) *Handler {
	return NewHandler(s, Config{ResultSize: 8, PageBaseURL: testPage}, opts...)
}

func TestHandler_Search_React(t *testing.T) {
	fake := &fakeSearcher{pkgs: []registry.Package{
		{Name: "react", Description: "UI lib"},
		{Name: "react-dom", Description: "DOM bindings"},
	}}
	h := newTestHandler(fake)

	result, err := h.Search(context.Background(), "react")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(fake.calls) != 1 {
		t.Fatalf("expected exactly one upstream call, got %d", len(fake.calls))
	}
	if fake.calls[0].text != "react" || fake.calls[0].size != 8 {
		t.Errorf("expected text=react size=8, got %+v", fake.calls[0])
	}
	if result.Prompt != nil {
		t.Fatal("expected cards, got a prompt")
	}
	if len(result.Cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(result.Cards))
	}

	want := []struct{ title, subtitle string }{
		{"react", "UI lib"},
		{"react-dom", "DOM bindings"},
	}
	for i, card := range result.Cards {
		if card.Title != want[i].title || card.Subtitle != want[i].subtitle {
			t.Errorf("card %d = %q/%q, want %q/%q", i, card.Title, card.Subtitle, want[i].title, want[i].subtitle)
		}
		if card.PreviewTitle != want[i].title {
			t.Errorf("card %d preview = %q, want %q", i, card.PreviewTitle, want[i].title)
		}
		if len(card.Actions) != 2 {
			t.Fatalf("card %d: expected 2 actions, got %d", i, len(card.Actions))
		}
		if card.Actions[0].Trigger != dialog.RequestURL || card.Actions[1].Trigger != dialog.RequestCard {
			t.Errorf("card %d: expected RequestUrl then RequestCard, got %v", i, card.Actions)
		}
	}
}

func TestHandler_Search_Empty(t *testing.T) {
	h := newTestHandler(&fakeSearcher{})

	result, err := h.Search(context.Background(), "no-such-package")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Cards == nil || len(result.Cards) != 0 {
		t.Errorf("expected empty card list, got %#v", result.Cards)
	}
}

func TestHandler_Search_ReservedQueries(t *testing.T) {
	tests := []struct {
		query string
		kind  PromptKind
		url   string
	}{
		{"config", PromptConfig, testPage + "?page=config#/tab"},
		{"auth", PromptAuth, testPage + "?page=auth#/tab"},
		{"sso", PromptSilentAuth, testPage + "?page=sso#/tab"},
		{"message", PromptMessage, ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			fake := &fakeSearcher{}
			h := newTestHandler(fake)

			result, err := h.Search(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if len(fake.calls) != 0 {
				t.Errorf("reserved query must not reach the registry, got %d calls", len(fake.calls))
			}
			if result.Prompt == nil {
				t.Fatal("expected a prompt")
			}
			if result.Prompt.Kind != tt.kind {
				t.Errorf("expected kind %q, got %q", tt.kind, result.Prompt.Kind)
			}
			if result.Prompt.URL != tt.url {
				t.Errorf("expected url %q, got %q", tt.url, result.Prompt.URL)
			}
			if tt.kind == PromptMessage && result.Prompt.Text == "" {
				t.Error("expected message prompt text")
			}
		})
	}
}

func TestHandler_Search_NotReserved(t *testing.T) {
	for _, q := range []string{"Config", "configuration", "authn", ""} {
		fake := &fakeSearcher{}
		if _, err := newTestHandler(fake).Search(context.Background(), q); err != nil {
			t.Fatalf("Search(%q) failed: %v", q, err)
		}
		if len(fake.calls) != 1 {
			t.Errorf("Search(%q): expected a registry call, got %d", q, len(fake.calls))
		}
	}
}

func TestHandler_Search_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    error
		outcome string
	}{
		{"upstream", &registry.UpstreamError{StatusCode: 500}, ErrUpstream, "upstream_error"},
		{"malformed", &registry.MalformedResponseError{Err: errors.New("bad")}, ErrMalformedResponse, "malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New(nil)
			h := newTestHandler(&fakeSearcher{err: tt.err}, WithMetrics(m))

			result, err := h.Search(context.Background(), "react")
			if result != nil {
				t.Error("expected nil result on error")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if got := testutil.ToFloat64(m.SearchRequestsTotal.WithLabelValues(tt.outcome)); got != 1 {
				t.Errorf("expected outcome %q recorded once, got %v", tt.outcome, got)
			}
		})
	}
}

func TestHandler_Search_AgainstRegistry(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("size") != "8" {
			t.Errorf("expected size=8, got %q", r.URL.Query().Get("size"))
		}
		fmt.Fprint(w, `{"objects":[{"package":{"name":"left-pad","description":"String left pad"}}]}`)
	}))
	defer srv.Close()

	h := newTestHandler(registry.NewClient(srv.URL, 0))
	result, err := h.Search(context.Background(), "left-pad")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected one registry call, got %d", calls)
	}
	if len(result.Cards) != 1 || result.Cards[0].Title != "left-pad" {
		t.Errorf("unexpected cards %+v", result.Cards)
	}
}

func TestHandler_SettingsPrompt(t *testing.T) {
	p := newTestHandler(&fakeSearcher{}).SettingsPrompt()

	if p.Kind != PromptConfig {
		t.Errorf("expected config prompt, got %q", p.Kind)
	}
	if p.URL != testPage+"#/tab" {
		t.Errorf("unexpected settings url %q", p.URL)
	}
}

func TestNewHandler_DefaultResultSize(t *testing.T) {
	fake := &fakeSearcher{}
	h := NewHandler(fake, Config{PageBaseURL: testPage})

	if _, err := h.Search(context.Background(), "react"); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if fake.calls[0].size != 8 {
		t.Errorf("expected default size 8, got %d", fake.calls[0].size)
	}
}

func TestHandler_Search_ReservedMatchIsExact(t *testing.T) {
	for _, query := range []string{" config", "config ", "\tauth", "SSO", "messages"} {
		t.Run(query, func(t *testing.T) {
			fake := &fakeSearcher{}
			h := newTestHandler(fake)

			result, err := h.Search(context.Background(), query)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if result.Prompt != nil {
				t.Errorf("expected no prompt for %q, got %+v", query, result.Prompt)
			}
			if len(fake.calls) != 1 || fake.calls[0].text != query {
				t.Errorf("expected one registry call with the query unchanged, got %+v", fake.calls)
			}
		})
	}
}

func TestNewDisplayCard_ActionsServedByMinimalDialogs(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dialogs.Capabilities = []string{config.CapabilityURL, config.CapabilityCard}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	dc, err := dialog.ConfigFrom(cfg.Dialogs)
	if err != nil {
		t.Fatalf("ConfigFrom failed: %v", err)
	}
	d := dialog.NewDispatcher(dc)

	card := NewDisplayCard(SearchResultItem{Name: "react", Description: "UI lib"})
	want := map[dialog.TriggerCode]dialog.Kind{
		dialog.RequestURL:  dialog.KindURL,
		dialog.RequestCard: dialog.KindCard,
	}
	for _, action := range card.Actions {
		got := d.DispatchCode(context.Background(), action.Trigger, dialog.PhaseFetch).Kind()
		if got != want[action.Trigger] {
			t.Errorf("action %q: expected %q, got %q", action.Label, want[action.Trigger], got)
		}
	}
}
