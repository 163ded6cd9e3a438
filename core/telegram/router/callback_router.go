package router

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/meetupbot/core/telegram"
	"github.com/m3rciful/meetupbot/core/telegram/callbacks"
	"github.com/m3rciful/meetupbot/core/telegram/middleware"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns a handler that routes callback updates through the
// registry by action token. Unknown or malformed tokens fall to the
// registry's not-found handler; they never abort the dispatch loop.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil || c.Sender() == nil {
			logDroppedUpdate(c, "callback")
			return nil
		}

		token := callbacks.Token(c)
		name := "callback." + normalizeHandlerName(token)
		extras := []slog.Attr{slog.String("token", token)}

		_ = c.Respond()

		cbHandler, ok := reg.ResolveCallback(token)
		if !ok || cbHandler == nil {
			fallback := reg.CallbackNotFound()
			if fallback == nil {
				fallback = opts.NotFound
			}
			extras = append(extras, slog.String("reason", "not_found"))
			return handleWithSummary(c, name, start, func() error {
				if fallback != nil {
					return fallback(c)
				}
				return nil
			}, extras...)
		}

		return handleWithSummary(c, name, start, func() error {
			return cbHandler(c)
		}, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
