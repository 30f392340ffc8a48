package cards

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultDocument(t *testing.T) {
	doc := DefaultDocument()

	if doc.IsZero() {
		t.Fatal("expected embedded document")
	}
	if got := heading(t, doc); got != "Here is a ninja cat:" {
		t.Errorf("heading = %q, want 'Here is a ninja cat:'", got)
	}

	card, err := doc.Card()
	if err != nil {
		t.Fatalf("Card() failed: %v", err)
	}
	if len(card.Body) != 2 || card.Body[1].Type != "Image" {
		t.Errorf("expected a text block and an image, got %+v", card.Body)
	}
	if len(card.Actions) != 4 {
		t.Fatalf("expected 4 actions, got %d", len(card.Actions))
	}
	for _, action := range card.Actions {
		if action.Type != "Action.Submit" {
			t.Errorf("expected Action.Submit, got %q", action.Type)
		}
		data, ok := action.Data.(map[string]interface{})
		if !ok {
			t.Fatalf("expected object data, got %T", action.Data)
		}
		if _, ok := data["data"].(string); !ok {
			t.Errorf("expected string trigger in action %q, got %v", action.Title, data)
		}
	}
}

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "valid", input: `{"type":"AdaptiveCard","version":"1.4","body":[]}`},
		{name: "not a card", input: `{"type":"HeroCard"}`, wantErr: ErrNotAdaptiveCard},
		{name: "bad json", input: `{"type":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.input))
			switch {
			case tt.name == "valid" && err != nil:
				t.Errorf("unexpected error: %v", err)
			case tt.wantErr != nil && !errors.Is(err, tt.wantErr):
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			case tt.name == "bad json" && err == nil:
				t.Error("expected error for invalid JSON")
			}
		})
	}
}

func TestDocument_PreservesUnknownFields(t *testing.T) {
	doc, err := ParseDocument([]byte(`{
		"type": "AdaptiveCard",
		"version": "1.5",
		"$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
		"body": [{"type": "TextBlock", "text": "hi", "isSubtle": true}]
	}`))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(b), `"$schema"`) || !strings.Contains(string(b), `"isSubtle":true`) {
		t.Errorf("expected unknown fields to survive, got %s", b)
	}
}

func TestLoadDocument(t *testing.T) {
	doc, err := LoadDocument("")
	if err != nil {
		t.Fatalf("LoadDocument(\"\") failed: %v", err)
	}
	if heading(t, doc) != "Here is a ninja cat:" {
		t.Errorf("expected default card for empty path, got %q", heading(t, doc))
	}

	path := filepath.Join(t.TempDir(), "card.json")
	content := `{"type":"AdaptiveCard","version":"1.0","body":[{"type":"TextBlock","text":"Custom"}]}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	doc, err = LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}
	if heading(t, doc) != "Custom" {
		t.Errorf("expected 'Custom', got %q", heading(t, doc))
	}

	if _, err := LoadDocument(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestAttachments(t *testing.T) {
	hero := NewHeroAttachment(HeroCard{
		Title:   "react",
		Buttons: []CardAction{OpenURLAction("Docs", "https://react.dev")},
	})
	b, err := json.Marshal(hero)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"contentType":"application/vnd.microsoft.card.hero","content":{"title":"react","buttons":[{"type":"openUrl","title":"Docs","value":"https://react.dev"}]}}`
	if string(b) != want {
		t.Errorf("unexpected hero attachment:\n got %s\nwant %s", b, want)
	}

	adaptive := NewAdaptiveAttachment(DefaultDocument())
	b, err = json.Marshal(adaptive)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.HasPrefix(string(b), `{"contentType":"application/vnd.microsoft.card.adaptive","content":{"type":"AdaptiveCard"`) {
		t.Errorf("unexpected adaptive attachment: %s", b)
	}
}

func heading(t *testing.T, doc Document) string {
	t.Helper()
	card, err := doc.Card()
	if err != nil {
		t.Fatalf("Card() failed: %v", err)
	}
	return card.Heading()
}
