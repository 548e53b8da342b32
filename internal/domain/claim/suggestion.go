// Package claim implements the claim assistant workflow: parsing code
// suggestions, mapping patient data onto the claim form, normalizing the
// finished record and the per-session state machine that gates submission.
package claim

import (
	"strings"
	"time"
)

// CodeMarker precedes the suggested procedure code in a completion response.
const CodeMarker = "CDT Code:"

// Suggestion is the outcome of one suggestion request.
type Suggestion struct {
	Text        string    `json:"text"`
	Code        string    `json:"code,omitempty"`
	Description string    `json:"description,omitempty"`
	KnownCode   bool      `json:"known_code"`
	ReceivedAt  time.Time `json:"received_at"`
}

// HasCode reports whether a code token was extracted.
func (s Suggestion) HasCode() bool { return s.Code != "" }

// ParseSuggestion extracts the code token from a completion response. The
// token is the first whitespace-delimited word between the first marker and
// the next marker (or the end of the text). Any token is accepted verbatim.
func ParseSuggestion(text string) Suggestion {
	return Suggestion{
		Text:       text,
		Code:       ExtractCode(text),
		ReceivedAt: time.Now().UTC(),
	}
}

// ExtractCode returns the code token following CodeMarker, or "" when the
// marker is absent or nothing follows it.
func ExtractCode(text string) string {
	_, after, found := strings.Cut(text, CodeMarker)
	if !found {
		return ""
	}
	if segment, _, more := strings.Cut(after, CodeMarker); more {
		after = segment
	}
	fields := strings.Fields(after)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
