package teams

import (
	"github.com/AE-MS/AE-SearchME/internal/cards"
	"github.com/AE-MS/AE-SearchME/internal/dialog"
	"github.com/AE-MS/AE-SearchME/internal/search"
)

// InvokeResponse is the synchronous answer to an invoke activity. A nil Body
// is sent as an empty 200, which the Teams client treats as "close".
type InvokeResponse struct {
	Status int
	Body   interface{}
}

// MessagingExtensionResponse answers composeExtension invokes.
type MessagingExtensionResponse struct {
	ComposeExtension *MessagingExtensionResult `json:"composeExtension"`
}

// MessagingExtensionResult is a result list, a config/auth prompt or a message.
type MessagingExtensionResult struct {
	Type             string             `json:"type"`
	AttachmentLayout string             `json:"attachmentLayout,omitempty"`
	Attachments      []cards.Attachment `json:"attachments"`
	SuggestedActions *SuggestedActions  `json:"suggestedActions,omitempty"`
	Text             string             `json:"text,omitempty"`
}

// SuggestedActions provides quick action buttons.
type SuggestedActions struct {
	Actions []cards.CardAction `json:"actions"`
}

// TaskModuleResponse answers task/fetch and task/submit invokes.
type TaskModuleResponse struct {
	Task *TaskModuleResponseBase `json:"task"`
}

// TaskModuleResponseBase is either a "continue" (show a dialog) or a
// "message" response.
type TaskModuleResponseBase struct {
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

// TaskModuleTaskInfo describes the dialog to show.
type TaskModuleTaskInfo struct {
	Title       string            `json:"title,omitempty"`
	Height      int               `json:"height,omitempty"`
	Width       int               `json:"width,omitempty"`
	URL         string            `json:"url,omitempty"`
	FallbackURL string            `json:"fallbackUrl,omitempty"`
	Card        *cards.Attachment `json:"card,omitempty"`
}

// Result and task response types.
const (
	resultTypeResult = "result"
	resultLayoutList = "list"
	taskContinue     = "continue"
	taskMessage      = "message"
)

// renderCards turns display cards into a list-layout result.
func renderCards(displayCards []search.DisplayCard) *MessagingExtensionResponse {
	attachments := make([]cards.Attachment, 0, len(displayCards))
	for _, dc := range displayCards {
		attachments = append(attachments, renderCard(dc))
	}
	return &MessagingExtensionResponse{
		ComposeExtension: &MessagingExtensionResult{
			Type:             resultTypeResult,
			AttachmentLayout: resultLayoutList,
			Attachments:      attachments,
		},
	}
}

// renderCard builds a hero card whose buttons open a task module carrying
// the action's trigger code. The description goes in the card text, which
// Teams shows under the title.
func renderCard(dc search.DisplayCard) cards.Attachment {
	buttons := make([]cards.CardAction, 0, len(dc.Actions))
	for _, action := range dc.Actions {
		buttons = append(buttons, cards.CardAction{
			Type:  cards.ActionInvoke,
			Title: action.Label,
			Value: map[string]interface{}{
				"type": InvokeTaskFetch,
				"data": action.Trigger,
			},
		})
	}

	attachment := cards.NewHeroAttachment(cards.HeroCard{
		Title:   dc.Title,
		Text:    dc.Subtitle,
		Buttons: buttons,
	})
	preview := cards.NewHeroAttachment(cards.HeroCard{Title: dc.PreviewTitle})
	attachment.Preview = &preview
	return attachment
}

// renderPrompt turns a search prompt into a config, auth or message result.
func renderPrompt(p *search.Prompt) *MessagingExtensionResponse {
	if p.Kind == search.PromptMessage {
		return messageResult(p.Text)
	}
	return &MessagingExtensionResponse{
		ComposeExtension: &MessagingExtensionResult{
			Type: string(p.Kind),
			SuggestedActions: &SuggestedActions{
				Actions: []cards.CardAction{cards.OpenURLAction(p.Title, p.URL)},
			},
		},
	}
}

func messageResult(text string) *MessagingExtensionResponse {
	return &MessagingExtensionResponse{
		ComposeExtension: &MessagingExtensionResult{
			Type: string(search.PromptMessage),
			Text: text,
		},
	}
}

// renderDescriptor turns a dialog descriptor into a task module body. It
// returns nil for NoResponse.
func renderDescriptor(desc dialog.Descriptor) *TaskModuleResponse {
	switch d := desc.(type) {
	case dialog.OpenURL:
		return &TaskModuleResponse{Task: &TaskModuleResponseBase{
			Type: taskContinue,
			Value: TaskModuleTaskInfo{
				Title:       d.Title,
				Height:      d.Height,
				Width:       d.Width,
				URL:         d.URL,
				FallbackURL: d.FallbackURL,
			},
		}}
	case dialog.ShowCard:
		card := cards.NewAdaptiveAttachment(d.Card)
		return &TaskModuleResponse{Task: &TaskModuleResponseBase{
			Type: taskContinue,
			Value: TaskModuleTaskInfo{
				Title:  d.Title,
				Height: d.Height,
				Width:  d.Width,
				Card:   &card,
			},
		}}
	case dialog.ShowMessage:
		return taskMessageResponse(d.Text)
	default:
		return nil
	}
}

func taskMessageResponse(text string) *TaskModuleResponse {
	return &TaskModuleResponse{Task: &TaskModuleResponseBase{
		Type:  taskMessage,
		Value: text,
	}}
}
