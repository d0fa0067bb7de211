package render

import (
	"encoding/json"
	"fmt"
)

// Message types carried on the sandbox→host channel.
const (
	TypeResize = "sandbox-resize"
	TypeAction = "tab-action"
)

// Action kinds carried by tab-action messages.
const (
	ActionOpenDocument   = "open-document"
	ActionOpenQuote      = "open-quote"
	ActionOpenAttachment = "open-attachment"
)

// Message is a sandbox→host message. Every message carries the id of
// the session that produced it; the listener filters on it before
// acting.
type Message interface {
	SessionID() string
	MessageType() string
}

// ResizeMessage reports the sandbox content height.
type ResizeMessage struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Height int    `json:"height"`
}

func (m ResizeMessage) SessionID() string   { return m.ID }
func (m ResizeMessage) MessageType() string { return TypeResize }

// ActionMessage reports a clicked action button inside the sandbox.
type ActionMessage struct {
	Type         string `json:"type"`
	ID           string `json:"id"`
	Action       string `json:"action"`
	DocID        string `json:"docId,omitempty"`
	QuoteID      string `json:"quoteId,omitempty"`
	AttachmentID string `json:"attachmentId,omitempty"`
	Label        string `json:"label"`
	Variant      string `json:"variant,omitempty"`
	Source       string `json:"source"`
}

func (m ActionMessage) SessionID() string   { return m.ID }
func (m ActionMessage) MessageType() string { return TypeAction }

// TargetID returns the entity id matching the action kind.
func (m ActionMessage) TargetID() string {
	switch m.Action {
	case ActionOpenDocument:
		return m.DocID
	case ActionOpenQuote:
		return m.QuoteID
	case ActionOpenAttachment:
		return m.AttachmentID
	}
	return ""
}

// Decode parses a raw frame into its message variant. Unknown types
// are an error; the caller logs and drops them.
func Decode(data []byte) (Message, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}

	switch probe.Type {
	case TypeResize:
		var m ResizeMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("malformed resize message: %w", err)
		}
		return m, nil
	case TypeAction:
		var m ActionMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("malformed action message: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", probe.Type)
	}
}
