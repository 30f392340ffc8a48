package cards

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

//go:embed ninjacat.json
var ninjaCat []byte

// ErrNotAdaptiveCard is returned when a document is valid JSON but not an
// adaptive card.
var ErrNotAdaptiveCard = errors.New("document is not an AdaptiveCard")

// Document is an adaptive card JSON document kept verbatim so that fields
// the AdaptiveCard type does not model survive the round trip.
type Document struct {
	raw json.RawMessage
}

// DefaultDocument returns the built-in ninja cat card.
func DefaultDocument() Document {
	doc, err := ParseDocument(ninjaCat)
	if err != nil {
		panic(fmt.Sprintf("cards: embedded document is invalid: %v", err))
	}
	return doc
}

// LoadDocument reads an adaptive card from path. An empty path returns the
// built-in card.
func LoadDocument(path string) (Document, error) {
	if path == "" {
		return DefaultDocument(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read card document: %w", err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ParseDocument validates data as an adaptive card and returns it.
func ParseDocument(data []byte) (Document, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Document{}, fmt.Errorf("invalid card JSON: %w", err)
	}
	if head.Type != "AdaptiveCard" {
		return Document{}, ErrNotAdaptiveCard
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return Document{}, fmt.Errorf("invalid card JSON: %w", err)
	}
	return Document{raw: compact.Bytes()}, nil
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	if len(d.raw) == 0 {
		return []byte("null"), nil
	}
	out := make([]byte, len(d.raw))
	copy(out, d.raw)
	return out, nil
}

// Card decodes the document into the typed AdaptiveCard shape.
func (d Document) Card() (*AdaptiveCard, error) {
	var card AdaptiveCard
	if err := json.Unmarshal(d.raw, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// IsZero reports whether the document is empty.
func (d Document) IsZero() bool {
	return len(d.raw) == 0
}
