package announce

import (
	"strings"

	apperrors "github.com/WolfgangSpahn/interaktiv-backend/internal/errors"
)

// Reserved categories used by the engine itself.
const (
	// CategoryStart is sent once per new subscription, before anything else.
	CategoryStart = "START"
	// CategoryPing is used by the keep-alive driver.
	CategoryPing = "PING"
)

// startPayload is the fixed connection-confirmation string.
const startPayload = "connected"

// Event is one discrete message delivered to every subscriber. Immutable
// value type; Category is optional and selects the SSE event name.
type Event struct {
	Payload  string `json:"payload"`
	Category string `json:"category,omitempty"`
}

// Validate rejects events whose fields would corrupt the SSE framing.
// Neither field may contain control characters (newlines included); payload
// escaping is the caller's job.
func (e Event) Validate() error {
	if strings.ContainsFunc(e.Category, isControl) {
		return apperrors.ValidationError("event category contains control characters")
	}
	if strings.ContainsFunc(e.Payload, isControl) {
		return apperrors.ValidationError("event payload contains control characters")
	}
	return nil
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}

// Frame renders the event as one SSE block:
//
//	event: <category>\n   (omitted when category is empty)
//	data: <payload>\n
//	\n
func (e Event) Frame() string {
	var b strings.Builder
	if e.Category != "" {
		b.WriteString("event: ")
		b.WriteString(e.Category)
		b.WriteByte('\n')
	}
	b.WriteString("data: ")
	b.WriteString(e.Payload)
	b.WriteString("\n\n")
	return b.String()
}

// ParseFrame parses exactly one SSE block produced by Frame. Anything not
// matching the two-line event:/data: grammar is a validation error; there is
// no best-effort key/value splitting.
func ParseFrame(frame string) (Event, error) {
	body, ok := strings.CutSuffix(frame, "\n\n")
	if !ok {
		return Event{}, apperrors.ValidationError("frame is not terminated by a blank line")
	}

	var ev Event
	lines := strings.Split(body, "\n")
	switch len(lines) {
	case 1:
		// data only
	case 2:
		category, ok := strings.CutPrefix(lines[0], "event: ")
		if !ok {
			return Event{}, apperrors.ValidationError("first frame line is not an event field")
		}
		ev.Category = category
		lines = lines[1:]
	default:
		return Event{}, apperrors.ValidationError("frame has more than two lines")
	}

	payload, ok := strings.CutPrefix(lines[0], "data: ")
	if !ok {
		return Event{}, apperrors.ValidationError("frame is missing the data field")
	}
	ev.Payload = payload

	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// StartEvent returns the connection-confirmation event every new
// subscription receives first.
func StartEvent() Event {
	return Event{Category: CategoryStart, Payload: startPayload}
}
