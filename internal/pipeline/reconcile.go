package pipeline

import (
	"strconv"

	"bazachat/internal/models"
)

// maxDerivedSuggestions bounds the labels derived from purchase options.
const maxDerivedSuggestions = 4

// SuggestionsFor decides the next turn's quick-reply list from a
// settled response. Precedence, first match wins: the server's
// explicit list verbatim; labels derived from purchase options; the
// localized defaults. The list is never empty after an attempt settles.
func SuggestionsFor(resp *models.ChatResponse, defaults []string) []string {
	if len(resp.QuickReplies) > 0 {
		out := make([]string, len(resp.QuickReplies))
		copy(out, resp.QuickReplies)
		return out
	}

	if len(resp.Options) > 0 {
		n := len(resp.Options)
		if n > maxDerivedSuggestions {
			n = maxDerivedSuggestions
		}
		out := make([]string, 0, n)
		for i, opt := range resp.Options[:n] {
			label := opt.Display
			if label == "" {
				label = strconv.Itoa(i)
			}
			out = append(out, label)
		}
		return out
	}

	out := make([]string, len(defaults))
	copy(out, defaults)
	return out
}
