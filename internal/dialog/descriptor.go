package dialog

import "github.com/AE-MS/AE-SearchME/internal/cards"

// Kind names the variant of a Descriptor.
type Kind string

// Descriptor kinds.
const (
	KindURL     Kind = "url"
	KindCard    Kind = "card"
	KindMessage Kind = "message"
	KindNone    Kind = "none"
)

// Descriptor is the dialog to show. It is one of OpenURL, ShowCard,
// ShowMessage or NoResponse.
type Descriptor interface {
	Kind() Kind
}

// OpenURL shows a web page in the dialog.
type OpenURL struct {
	URL         string
	FallbackURL string
	Width       int
	Height      int
	Title       string
}

// ShowCard shows an adaptive card in the dialog.
type ShowCard struct {
	Card   cards.Document
	Width  int
	Height int
	Title  string
}

// ShowMessage shows a plain text message.
type ShowMessage struct {
	Text string
}

// NoResponse tells the caller to close the dialog without a payload.
type NoResponse struct{}

// Kind implements Descriptor.
func (OpenURL) Kind() Kind { return KindURL }

// Kind implements Descriptor.
func (ShowCard) Kind() Kind { return KindCard }

// Kind implements Descriptor.
func (ShowMessage) Kind() Kind { return KindMessage }

// Kind implements Descriptor.
func (NoResponse) Kind() Kind { return KindNone }
