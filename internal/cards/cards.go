// Package cards defines the Bot Framework card and attachment shapes used by
// SearchME: hero cards for search results and adaptive cards for dialogs.
package cards

// Attachment content types.
const (
	ContentTypeAdaptive = "application/vnd.microsoft.card.adaptive"
	ContentTypeHero     = "application/vnd.microsoft.card.hero"
)

// Button action types.
const (
	ActionInvoke  = "invoke"
	ActionOpenURL = "openUrl"
)

// Attachment is a card attachment. Preview is only used in messaging
// extension result lists.
type Attachment struct {
	ContentType string      `json:"contentType"`
	ContentURL  string      `json:"contentUrl,omitempty"`
	Content     interface{} `json:"content,omitempty"`
	Name        string      `json:"name,omitempty"`
	Preview     *Attachment `json:"preview,omitempty"`
}

// HeroCard is a card with a title, subtitle, text and buttons.
type HeroCard struct {
	Title    string       `json:"title,omitempty"`
	Subtitle string       `json:"subtitle,omitempty"`
	Text     string       `json:"text,omitempty"`
	Buttons  []CardAction `json:"buttons,omitempty"`
}

// CardAction represents a button action.
type CardAction struct {
	Type  string      `json:"type"`
	Title string      `json:"title"`
	Value interface{} `json:"value,omitempty"`
}

// AdaptiveCard represents a Microsoft Adaptive Card.
type AdaptiveCard struct {
	Type    string            `json:"type"`
	Version string            `json:"version"`
	Body    []AdaptiveElement `json:"body"`
	Actions []AdaptiveAction  `json:"actions,omitempty"`
}

// Heading returns the text of the first TextBlock in the card body.
func (c *AdaptiveCard) Heading() string {
	for _, el := range c.Body {
		if el.Type == "TextBlock" {
			return el.Text
		}
	}
	return ""
}

// AdaptiveElement represents an element in an Adaptive Card.
type AdaptiveElement struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	URL    string `json:"url,omitempty"`
	Size   string `json:"size,omitempty"`
	Weight string `json:"weight,omitempty"`
	Wrap   bool   `json:"wrap,omitempty"`
}

// AdaptiveAction represents an action in an Adaptive Card.
type AdaptiveAction struct {
	Type  string      `json:"type"`
	Title string      `json:"title"`
	URL   string      `json:"url,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// NewHeroAttachment wraps a hero card in an attachment.
func NewHeroAttachment(card HeroCard) Attachment {
	return Attachment{
		ContentType: ContentTypeHero,
		Content:     card,
	}
}

// NewAdaptiveAttachment wraps an adaptive card document in an attachment.
func NewAdaptiveAttachment(doc Document) Attachment {
	return Attachment{
		ContentType: ContentTypeAdaptive,
		Content:     doc,
	}
}

// OpenURLAction builds an openUrl button.
func OpenURLAction(title, url string) CardAction {
	return CardAction{
		Type:  ActionOpenURL,
		Title: title,
		Value: url,
	}
}
