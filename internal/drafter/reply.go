package drafter

import (
	"encoding/json"
	"strings"
)

// Reply is a parsed LLM answer. Structured is false when the answer was not
// the requested JSON and Text holds the raw answer instead.
type Reply struct {
	Text       string
	Raw        string
	Structured bool
}

type replyPayload struct {
	Texto string `json:"texto"`
	Text  string `json:"text"`
}

// ParseReply decodes {"texto": "..."} from raw, also inside a ```json fence.
// Anything else falls back to the raw text. It never fails.
func ParseReply(raw string) Reply {
	body := stripFence(strings.TrimSpace(raw))

	var payload replyPayload
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		text := payload.Texto
		if text == "" {
			text = payload.Text
		}
		if text != "" {
			return Reply{Text: strings.TrimSpace(text), Raw: raw, Structured: true}
		}
	}

	return Reply{Text: strings.TrimSpace(raw), Raw: raw}
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
