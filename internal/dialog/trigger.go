// Package dialog maps the trigger code carried by a card action to the task
// module (dialog) the Teams client should show.
package dialog

import (
	"encoding/json"
	"fmt"
	"math"
)

// TriggerCode identifies which dialog a card action asks for. Codes travel
// on the wire either as names ("requestUrl") or as integers (1).
type TriggerCode int

// Known trigger codes. TriggerUnknown is never produced for a known name.
const (
	TriggerUnknown TriggerCode = iota
	RequestURL
	RequestCard
	RequestMessage
	RequestNoResponse
)

var triggerNames = map[TriggerCode]string{
	RequestURL:        "requestUrl",
	RequestCard:       "requestCard",
	RequestMessage:    "requestMessage",
	RequestNoResponse: "requestNoResponse",
}

// AllTriggers lists every known trigger code in declaration order.
func AllTriggers() []TriggerCode {
	return []TriggerCode{RequestURL, RequestCard, RequestMessage, RequestNoResponse}
}

func (c TriggerCode) String() string {
	if name, ok := triggerNames[c]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON writes the code by name.
func (c TriggerCode) MarshalJSON() ([]byte, error) {
	if _, ok := triggerNames[c]; !ok {
		return nil, fmt.Errorf("dialog: cannot marshal trigger code %d", int(c))
	}
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts a name or an integer.
func (c *TriggerCode) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	code, ok := ParseTrigger(v)
	if !ok {
		return fmt.Errorf("dialog: unknown trigger code %s", string(b))
	}
	*c = code
	return nil
}

// ParseTrigger converts a decoded JSON scalar into a trigger code. Names are
// matched exactly; numbers must be whole.
func ParseTrigger(v interface{}) (TriggerCode, bool) {
	switch value := v.(type) {
	case TriggerCode:
		_, ok := triggerNames[value]
		return value, ok
	case string:
		for code, n := range triggerNames {
			if n == value {
				return code, true
			}
		}
	case json.Number:
		if i, err := value.Int64(); err == nil {
			return fromInt(i)
		}
	case float64:
		if value == math.Trunc(value) {
			return fromInt(int64(value))
		}
	case int:
		return fromInt(int64(value))
	case int64:
		return fromInt(value)
	}
	return TriggerUnknown, false
}

func fromInt(i int64) (TriggerCode, bool) {
	code := TriggerCode(i)
	if _, ok := triggerNames[code]; ok {
		return code, true
	}
	return TriggerUnknown, false
}

// ExtractTrigger unwraps the trigger from a task module data payload. The
// code arrives either wrapped as {"data": code} or as the bare scalar; both
// are equivalent.
func ExtractTrigger(data interface{}) interface{} {
	if m, ok := data.(map[string]interface{}); ok {
		if inner, ok := m["data"]; ok {
			return inner
		}
	}
	return data
}

// Phase is the task module lifecycle step a dispatch answers.
type Phase string

// Task module phases.
const (
	PhaseFetch  Phase = "fetch"
	PhaseSubmit Phase = "submit"
)
