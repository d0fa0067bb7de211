package sandbox

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// messageIDFields maps action kinds to the message field carrying the
// target entity id.
var messageIDFields = map[string]string{
	ActionOpenDocument:   "docId",
	ActionOpenQuote:      "quoteId",
	ActionOpenAttachment: "attachmentId",
}

// PreviewScript builds the script a dispatcher dry run executes. It
// posts one tab-action message per marker, exactly as a click on the
// rendered button would, so callers can inspect the messages a
// document will emit without a browser.
func PreviewScript(sandboxID string, markers []Marker) (string, error) {
	messages := make([]map[string]interface{}, 0, len(markers))
	for _, m := range markers {
		field, ok := messageIDFields[m.Action]
		if !ok {
			continue
		}
		msg := map[string]interface{}{
			"type":    "tab-action",
			"id":      sandboxID,
			"action":  m.Action,
			"label":   m.Label,
			"variant": m.Variant,
			"source":  "html-sandbox",
		}
		msg[field] = m.TargetID
		messages = append(messages, msg)
	}

	data, err := sonic.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("encode preview messages: %w", err)
	}

	return fmt.Sprintf(`var msgs = %s;
for (var i = 0; i < msgs.length; i++) {
  parent.postMessage(msgs[i], "*");
}
msgs.length;`, data), nil
}
