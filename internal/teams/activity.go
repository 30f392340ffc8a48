// Package teams adapts Bot Framework activities from Microsoft Teams to the
// search handler and the dialog dispatcher.
package teams

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Activity types.
const (
	ActivityMessage            = "message"
	ActivityInvoke             = "invoke"
	ActivityConversationUpdate = "conversationUpdate"
)

// Invoke names handled by the bot.
const (
	InvokeQuery           = "composeExtension/query"
	InvokeQuerySettingURL = "composeExtension/querySettingUrl"
	InvokeSetting         = "composeExtension/setting"
	InvokeSubmitAction    = "composeExtension/submitAction"
	InvokeTaskFetch       = "task/fetch"
	InvokeTaskSubmit      = "task/submit"
)

// Errors.
var (
	ErrUnauthorized    = errors.New("missing or invalid bearer token")
	ErrInvalidActivity = errors.New("invalid activity format")
)

// Activity represents a Teams bot activity.
type Activity struct {
	Type         string         `json:"type"`
	Name         string         `json:"name,omitempty"`
	ID           string         `json:"id"`
	Timestamp    string         `json:"timestamp"`
	ServiceURL   string         `json:"serviceUrl"`
	ChannelID    string         `json:"channelId"`
	From         ChannelAccount `json:"from"`
	Conversation Conversation   `json:"conversation"`
	Recipient    ChannelAccount `json:"recipient"`
	Text         string         `json:"text"`
	Locale       string         `json:"locale"`
	ChannelData  *ChannelData   `json:"channelData,omitempty"`
	Value        interface{}    `json:"value,omitempty"`
	ReplyToID    string         `json:"replyToId,omitempty"`
}

// ChannelAccount represents a Teams user or bot.
type ChannelAccount struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AADObjectID string `json:"aadObjectId,omitempty"`
}

// Conversation represents a Teams conversation.
type Conversation struct {
	ID               string `json:"id"`
	ConversationType string `json:"conversationType,omitempty"`
	TenantID         string `json:"tenantId,omitempty"`
	IsGroup          bool   `json:"isGroup,omitempty"`
}

// ChannelData contains Teams-specific data.
type ChannelData struct {
	Source *struct {
		Name string `json:"name"`
	} `json:"source,omitempty"`
	Tenant *struct {
		ID string `json:"id"`
	} `json:"tenant,omitempty"`
}

// MessagingExtensionQuery is the value of a composeExtension/query invoke.
type MessagingExtensionQuery struct {
	CommandID    string                        `json:"commandId"`
	Parameters   []MessagingExtensionParameter `json:"parameters"`
	QueryOptions *struct {
		Skip  int `json:"skip"`
		Count int `json:"count"`
	} `json:"queryOptions"`
	State string `json:"state"`
}

// MessagingExtensionParameter is a named query parameter.
type MessagingExtensionParameter struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// initialRunParameter is sent when the extension opens before the user types.
const initialRunParameter = "initialRun"

// QueryText returns the user's search text and whether the query is the
// extension's initial run with nothing typed yet.
func (q *MessagingExtensionQuery) QueryText() (string, bool) {
	initialRun := false
	for _, p := range q.Parameters {
		if p.Name == initialRunParameter {
			initialRun = true
			continue
		}
		if p.Value == nil {
			return "", false
		}
		return fmt.Sprint(p.Value), false
	}
	return "", initialRun
}

// TaskModuleRequest is the value of a task/fetch or task/submit invoke. Data
// is left undecoded; the dialog package interprets it.
type TaskModuleRequest struct {
	Data    interface{} `json:"data"`
	Context *struct {
		Theme string `json:"theme"`
	} `json:"context"`
}

// MessagingExtensionAction is the value of a composeExtension/submitAction
// invoke.
type MessagingExtensionAction struct {
	CommandID      string `json:"commandId"`
	CommandContext string `json:"commandContext"`
	Data           struct {
		Title    string `json:"title"`
		SubTitle string `json:"subTitle"`
		Text     string `json:"text"`
	} `json:"data"`
}

// decodeValue decodes the untyped invoke value into out using the json tags.
func decodeValue(value interface{}, out interface{}) error {
	if value == nil {
		return fmt.Errorf("%w: invoke has no value", ErrInvalidActivity)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidActivity, err)
	}
	return nil
}

// tenantID returns the tenant the activity came from.
func tenantID(activity *Activity) string {
	if activity.ChannelData != nil && activity.ChannelData.Tenant != nil {
		return activity.ChannelData.Tenant.ID
	}
	return activity.Conversation.TenantID
}
