// Package callbacks extracts action tokens from Telegram callback updates.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Token returns the raw action token carried by a callback update.
// Telebot prefixes unique-style callbacks with "\f"; plain data buttons
// (the wire contract used by this bot) carry the token verbatim.
func Token(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	return TokenFromCallback(cb)
}

// TokenFromCallback extracts the action token from a raw callback.
func TokenFromCallback(cb *tele.Callback) string {
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Unique
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	raw = strings.TrimPrefix(raw, "\\f")
	// Unique-style encoding is <unique>|<payload>; plain tokens have no bar.
	if idx := strings.IndexByte(raw, '|'); idx >= 0 {
		raw = raw[:idx]
	}
	return strings.TrimSpace(raw)
}
