// Package bot wires the meetup bot: menu commands, callback actions and
// multi-step dialogs on top of the shared telegram core.
package bot

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/meetupbot/core/config"
	tg "github.com/m3rciful/meetupbot/core/telegram"
	"github.com/m3rciful/meetupbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/meetupbot/core/telegram/helpers"
	"github.com/m3rciful/meetupbot/core/telegram/router"
	"github.com/m3rciful/meetupbot/core/telegram/state"
	"github.com/m3rciful/meetupbot/internal/meetup/matcher"
	"github.com/m3rciful/meetupbot/internal/meetup/storage"
)

// Dialog states. Anything else means no dialog is active.
const (
	StateAwaitingQuestion   state.State = "awaiting_question"
	StateAwaitingOccupation state.State = "awaiting_occupation"
)

// Session scratch keys.
const (
	tempPendingTalkID    = "pending_talk_id"
	tempLastShownProfile = "last_shown_profile_id"
)

// Action tokens carried in callback button data. Parameterized tokens use the
// report_/ask_ prefixes followed by a positive numeric id.
const (
	tokenStart            = "start"
	tokenSchedule         = "schedule"
	tokenMeetup           = "meetup"
	tokenSpeakerQuestions = "speaker_questions"
	tokenDonate           = "donate"
	tokenFillForm         = "fill_form"
	tokenShowUsername     = "show_username"
	tokenNextProfile      = "next_profile"

	prefixTalk = "report_"
	prefixAsk  = "ask_"
)

const defaultStorageTimeout = 5 * time.Second

// App holds the bot's collaborators and owns the route table.
type App struct {
	cfg      *coreconfig.Config
	store    storage.Storage
	sessions state.Manager
	matcher  *matcher.Matcher
	registry *tg.Registry
	now      func() time.Time
}

// Options configures New. Storage is required; everything else has a default.
type Options struct {
	Config   *coreconfig.Config
	Storage  storage.Storage
	Sessions state.Manager
	Matcher  *matcher.Matcher
	Now      func() time.Time
}

// New builds the app and registers every command, callback token and dialog
// continuation on a fresh registry.
func New(opts Options) *App {
	a := &App{
		cfg:      opts.Config,
		store:    opts.Storage,
		sessions: opts.Sessions,
		matcher:  opts.Matcher,
		registry: tg.NewRegistry(),
		now:      opts.Now,
	}
	if a.sessions == nil {
		a.sessions = state.NewMemoryManager()
	}
	if a.matcher == nil {
		a.matcher = matcher.New(nil)
	}
	if a.now == nil {
		a.now = time.Now
	}

	a.registry.RegisterCommand("/start", commands.Command{
		Handler:     a.start,
		Description: "Главное меню",
	})
	a.registry.RegisterCommand("/cancel", commands.Command{
		Handler:     a.cancel,
		Description: "Прервать текущий диалог",
	})

	_ = a.registry.RegisterCallback(tokenStart, a.start)
	_ = a.registry.RegisterCallback(tokenSchedule, a.schedule)
	_ = a.registry.RegisterCallback(tokenMeetup, a.meetup)
	_ = a.registry.RegisterCallback(tokenSpeakerQuestions, a.speakerQuestions)
	_ = a.registry.RegisterCallback(tokenDonate, a.donate)
	_ = a.registry.RegisterCallback(tokenFillForm, a.fillForm)
	_ = a.registry.RegisterCallback(tokenShowUsername, a.showUsername)
	_ = a.registry.RegisterCallback(tokenNextProfile, a.nextProfile)
	_ = a.registry.RegisterPrefix(prefixTalk, a.talkDetails)
	_ = a.registry.RegisterPrefix(prefixAsk, a.askQuestion)

	a.registry.SetTextFallback(func(c tele.Context) error {
		return tghelpers.SendMD(c, textUnknown)
	})
	// Unknown or malformed tokens answer with a toast and leave the session alone.
	a.registry.SetCallbackNotFound(func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: textUnknownAction})
	})

	a.sessions.RegisterHandler(StateAwaitingQuestion, a.receiveQuestion)
	a.sessions.RegisterHandler(StateAwaitingOccupation, a.receiveOccupation)

	return a
}

// Registry exposes the route registry for wiring and diagnostics.
func (a *App) Registry() *tg.Registry { return a.registry }

// Sessions exposes the session manager, mainly for tests.
func (a *App) Sessions() state.Manager { return a.sessions }

// Routes returns the full route table: one route per command plus the
// callback and text dispatchers.
func (a *App) Routes() []tg.Route {
	routes := router.CommandRoutes(a.registry)
	routes = append(routes,
		router.CallbackRoute(a.registry, router.CallbackOptions{}),
		router.TextRoute(a.sessions, a.registry, router.TextOptions{}),
	)
	return routes
}

// Middlewares returns the global middleware chain for this app.
func (a *App) Middlewares() []tg.Middleware {
	return tg.DefaultMiddlewares(a.cfg, nil)
}

// storageCtx derives a bounded context for one persistence call.
func (a *App) storageCtx(c tele.Context) (context.Context, context.CancelFunc) {
	timeout := defaultStorageTimeout
	if a.cfg != nil {
		timeout = a.cfg.Meetup.StorageTimeout()
	}
	return context.WithTimeout(tghelpers.BuildContext(c), timeout)
}
