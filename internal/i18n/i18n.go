package i18n

import (
	"fmt"

	"golang.org/x/text/language"
)

// Bundle holds the localized strings the delivery pipeline needs.
type Bundle struct {
	Tag           string
	QuickExamples []string
	Offline       string
	BotTyping     string
	Retry         string
	NoReply       string
	Placeholder   string
}

// OfflineNotice is the placeholder text shown when a send was
// short-circuited because the device is offline.
func (b *Bundle) OfflineNotice() string {
	return fmt.Sprintf("⚠️ %s. %s", b.Offline, b.BotTyping)
}

// RetryPrompt is the placeholder text shown after a failed send.
func (b *Bundle) RetryPrompt() string {
	return fmt.Sprintf("⚠️ %s %s", b.BotTyping, b.Retry)
}

var english = &Bundle{
	Tag:           "en",
	QuickExamples: []string{"Show bundles", "My balance", "Buy 1GB", "Help"},
	Offline:       "Offline",
	BotTyping:     "Bot is typing…",
	Retry:         "Retry",
	NoReply:       "No reply",
	Placeholder:   "...",
}

var kinyarwanda = &Bundle{
	Tag:           "kin",
	QuickExamples: []string{"Erekana bundles", "Balance yanjye", "Gura 1GB", "Ubufasha"},
	Offline:       "Ntabwo kuri murandasi",
	BotTyping:     "Bot irimo kwandika…",
	Retry:         "Gerageza",
	NoReply:       "Nta gisubizo",
	Placeholder:   "...",
}

var (
	supported = []language.Tag{language.English, language.Make("rw")}
	bundles   = []*Bundle{english, kinyarwanda}
	matcher   = language.NewMatcher(supported)
)

// Match resolves a language hint ("en", "kin", "rw", "en-US", ...) to
// the closest supported bundle. Unknown or empty hints fall back to
// English.
func Match(hint string) *Bundle {
	if hint == "" {
		return english
	}
	tag, err := language.Parse(hint)
	if err != nil {
		return english
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return english
	}
	return bundles[idx]
}
