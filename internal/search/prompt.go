package search

import "errors"

// PromptKind is the messaging extension response type of a Prompt.
type PromptKind string

// Prompt kinds, named as Teams names the compose extension result types.
const (
	PromptConfig     PromptKind = "config"
	PromptAuth       PromptKind = "auth"
	PromptSilentAuth PromptKind = "silentAuth"
	PromptMessage    PromptKind = "message"
)

// SettingsTitle labels the settings page action.
const SettingsTitle = "Settings"

// Prompt replaces search results with a configuration page, a sign-in page or
// a plain message. URL is empty for PromptMessage; Text is only set for it.
type Prompt struct {
	Kind  PromptKind
	Title string
	URL   string
	Text  string
}

type reservedQuery struct {
	kind  PromptKind
	title string
	page  string
	text  string
}

// reserved maps the keywords that never reach the registry.
var reserved = map[string]reservedQuery{
	"config":  {kind: PromptConfig, title: "Config Action Title", page: "config"},
	"auth":    {kind: PromptAuth, title: "Sign in", page: "auth"},
	"sso":     {kind: PromptSilentAuth, title: "Sign in", page: "sso"},
	"message": {kind: PromptMessage, text: "This is a message from the search extension."},
}

func isMalformed(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}
