package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/meetupbot/core/telegram/state"
	"github.com/m3rciful/meetupbot/internal/meetup/models"
	"github.com/m3rciful/meetupbot/internal/meetup/storage"
)

var fixedNow = time.Date(2026, 5, 10, 10, 0, 0, 0, time.UTC)

// fakeContext implements the subset of tele.Context the handlers touch.
// Unimplemented methods panic via the embedded nil interface.
type fakeContext struct {
	tele.Context

	upd  tele.Update
	user *tele.User
	chat *tele.Chat
	text string
	cb   *tele.Callback

	store map[string]any

	replies []reply
	toasts  []string
}

type reply struct {
	text   string
	edited bool
}

func (f *fakeContext) Update() tele.Update      { return f.upd }
func (f *fakeContext) Sender() *tele.User       { return f.user }
func (f *fakeContext) Chat() *tele.Chat         { return f.chat }
func (f *fakeContext) Text() string             { return f.text }
func (f *fakeContext) Callback() *tele.Callback { return f.cb }

func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
	if s, ok := what.(string); ok {
		f.replies = append(f.replies, reply{text: s})
	}
	return nil
}

func (f *fakeContext) EditOrSend(what interface{}, _ ...interface{}) error {
	if s, ok := what.(string); ok {
		f.replies = append(f.replies, reply{text: s, edited: f.cb != nil})
	}
	return nil
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	for _, r := range resp {
		if r != nil && r.Text != "" {
			f.toasts = append(f.toasts, r.Text)
		}
	}
	return nil
}

func (f *fakeContext) Set(key string, v any) {
	if f.store == nil {
		f.store = make(map[string]any)
	}
	f.store[key] = v
}

func (f *fakeContext) Get(key string) any { return f.store[key] }

func (f *fakeContext) lastReply() reply {
	if len(f.replies) == 0 {
		return reply{}
	}
	return f.replies[len(f.replies)-1]
}

// harness drives the app's route table the way the bot dispatch loop would.
type harness struct {
	t        *testing.T
	app      *App
	store    *storage.MemoryStorage
	routes   map[any]tele.HandlerFunc
	updateID int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := storage.NewMemoryStorage()
	app := New(Options{
		Storage: store,
		Now:     func() time.Time { return fixedNow },
	})

	routes := make(map[any]tele.HandlerFunc)
	for _, r := range app.Routes() {
		routes[r.Endpoint] = r.Handler
	}
	return &harness{t: t, app: app, store: store, routes: routes}
}

func (h *harness) context(userID int64) *fakeContext {
	return &fakeContext{
		user: &tele.User{ID: userID, FirstName: "User", Username: "user"},
		chat: &tele.Chat{ID: userID},
	}
}

// sendText delivers a text or command update from the given user.
func (h *harness) sendText(userID int64, text string) *fakeContext {
	h.t.Helper()
	c := h.context(userID)
	c.text = text
	h.updateID++
	c.upd = tele.Update{ID: h.updateID, Message: &tele.Message{Text: text, Sender: c.user, Chat: c.chat}}

	endpoint := any(tele.OnText)
	if strings.HasPrefix(text, "/") {
		if _, ok := h.routes[text]; ok {
			endpoint = text
		}
	}
	handler, ok := h.routes[endpoint]
	if !ok {
		h.t.Fatalf("no route for endpoint %v", endpoint)
	}
	if err := handler(c); err != nil {
		h.t.Logf("handler for %q returned: %v", text, err)
	}
	return c
}

// press delivers a callback update carrying the given action token.
func (h *harness) press(userID int64, token string) *fakeContext {
	h.t.Helper()
	c := h.context(userID)
	c.cb = &tele.Callback{Sender: c.user, Data: token, Message: &tele.Message{Chat: c.chat}}
	h.updateID++
	c.upd = tele.Update{ID: h.updateID, Callback: c.cb}

	handler, ok := h.routes[tele.OnCallback]
	if !ok {
		h.t.Fatal("no callback route")
	}
	if err := handler(c); err != nil {
		h.t.Logf("callback %q returned: %v", token, err)
	}
	return c
}

func (h *harness) seedTalk(title string) models.ScheduledTalk {
	speaker := h.store.PutProfile(models.UserProfile{
		TelegramID:  5000,
		DisplayName: "Speaker",
		Role:        models.RoleSpeaker,
	})
	return h.store.PutTalk(models.ScheduledTalk{
		SpeakerID: speaker.ID,
		Title:     title,
		StartsAt:  fixedNow.Add(time.Hour),
	})
}

func (h *harness) state(userID int64) state.State {
	return h.app.Sessions().GetState(userID)
}

func (h *harness) appCtx() context.Context {
	return context.Background()
}

func TestStartIsIdempotent(t *testing.T) {
	h := newHarness(t)

	var firstID int64
	for i := 0; i < 3; i++ {
		c := h.sendText(42, "/start")
		if c.lastReply().text != textMainMenu {
			t.Fatalf("reply = %q, want main menu", c.lastReply().text)
		}
		profile, err := h.store.ProfileByTelegramID(h.appCtx(), 42)
		if err != nil {
			t.Fatalf("ProfileByTelegramID: %v", err)
		}
		if firstID == 0 {
			firstID = profile.ID
		} else if profile.ID != firstID {
			t.Fatalf("repeat /start created a new profile row: %d vs %d", profile.ID, firstID)
		}
	}
	if got := h.state(42); got != state.StateIdle {
		t.Fatalf("state = %q, want idle", got)
	}
}

func TestQuestionDialogRoundTrip(t *testing.T) {
	h := newHarness(t)
	talk := h.seedTalk("Go in prod")

	c := h.press(42, "ask_1")
	if got := h.state(42); got != StateAwaitingQuestion {
		t.Fatalf("state = %q, want awaiting_question", got)
	}
	if c.lastReply().text != textAskQuestion {
		t.Fatalf("prompt = %q", c.lastReply().text)
	}

	c = h.sendText(42, "Почему Go?")
	if c.lastReply().text != textQuestionSent {
		t.Fatalf("confirmation = %q", c.lastReply().text)
	}
	if got := h.state(42); got != state.StateIdle {
		t.Fatalf("state after submit = %q, want idle", got)
	}

	qs := h.store.Questions()
	if len(qs) != 1 || qs[0].TalkID != talk.ID || qs[0].Body != "Почему Go?" {
		t.Fatalf("questions = %+v", qs)
	}
}

func TestCallbackBypassesActiveDialog(t *testing.T) {
	h := newHarness(t)
	h.seedTalk("Go in prod")

	h.press(42, "ask_1")
	c := h.press(42, "schedule")

	if got := h.state(42); got != StateAwaitingQuestion {
		t.Fatalf("state = %q, dialog must survive unrelated callbacks", got)
	}
	if c.lastReply().text != textPickTalk {
		t.Fatalf("schedule reply = %q", c.lastReply().text)
	}

	// The dialog still consumes the next text message.
	h.sendText(42, "still my question")
	if len(h.store.Questions()) != 1 {
		t.Fatal("question not stored after intervening callback")
	}
}

func TestDialogEntryLastWriterWins(t *testing.T) {
	h := newHarness(t)
	h.seedTalk("first")
	second := h.seedTalk("second")

	h.press(42, "ask_1")
	h.press(42, "ask_2")

	h.sendText(42, "question")
	qs := h.store.Questions()
	if len(qs) != 1 {
		t.Fatalf("questions = %+v", qs)
	}
	if qs[0].TalkID != second.ID {
		t.Fatalf("question bound to talk %d, want the latest entry %d", qs[0].TalkID, second.ID)
	}
}

func TestCancelAbortsDialog(t *testing.T) {
	h := newHarness(t)
	h.seedTalk("Go in prod")

	h.press(42, "ask_1")
	c := h.sendText(42, "/cancel")
	if got := h.state(42); got != state.StateIdle {
		t.Fatalf("state after /cancel = %q, want idle", got)
	}
	if c.lastReply().text != textMainMenu {
		t.Fatalf("reply = %q, want main menu", c.lastReply().text)
	}

	// Idle /cancel is a harmless no-op that still succeeds.
	c = h.sendText(42, "/cancel")
	if c.lastReply().text != textMainMenu {
		t.Fatalf("idle /cancel reply = %q", c.lastReply().text)
	}

	h.sendText(42, "not a question")
	if len(h.store.Questions()) != 0 {
		t.Fatal("question stored after dialog was cancelled")
	}
}

func TestUnknownTokenFallsToDefault(t *testing.T) {
	h := newHarness(t)
	h.seedTalk("Go in prod")
	h.press(42, "ask_1")

	for _, token := range []string{"xyz_999", "ask_", "ask_abc", "ask_0", "report_-3"} {
		c := h.press(42, token)
		if got := h.state(42); got != StateAwaitingQuestion {
			t.Fatalf("token %q disturbed dialog state: %q", token, got)
		}
		if len(c.replies) != 0 {
			t.Fatalf("token %q produced a message reply: %v", token, c.replies)
		}
		found := false
		for _, toast := range c.toasts {
			if toast == textUnknownAction {
				found = true
			}
		}
		if !found {
			t.Fatalf("token %q did not answer with the unknown-action toast: %v", token, c.toasts)
		}
	}
}

func TestCommandDuringDialogIsNotConsumed(t *testing.T) {
	h := newHarness(t)
	h.seedTalk("Go in prod")
	h.press(42, "ask_1")

	// An unregistered command must not become the question body.
	c := h.sendText(42, "/help")
	if c.lastReply().text != textUnknown {
		t.Fatalf("reply = %q, want help hint", c.lastReply().text)
	}
	if got := h.state(42); got != StateAwaitingQuestion {
		t.Fatalf("state = %q, dialog must survive an unknown command", got)
	}
	if len(h.store.Questions()) != 0 {
		t.Fatalf("questions = %+v, command text must not be stored", h.store.Questions())
	}

	// Plain text afterwards still completes the dialog.
	h.sendText(42, "my question")
	if len(h.store.Questions()) != 1 {
		t.Fatal("question not stored after command interruption")
	}
}

func TestStaleTalkResetsDialog(t *testing.T) {
	h := newHarness(t)
	talk := h.seedTalk("Go in prod")

	h.press(42, "ask_1")
	h.store.DeleteTalk(talk.ID)

	c := h.sendText(42, "late question")
	if c.lastReply().text != textTalkGone {
		t.Fatalf("reply = %q, want stale-talk notice", c.lastReply().text)
	}
	if got := h.state(42); got != state.StateIdle {
		t.Fatalf("state = %q, want idle after stale reference", got)
	}
	if len(h.store.Questions()) != 0 {
		t.Fatal("question stored for a removed talk")
	}
}

func TestPersistenceFailureRollsBackDialog(t *testing.T) {
	h := newHarness(t)
	h.seedTalk("Go in prod")

	h.press(42, "ask_1")
	h.store.FailWith(errors.New("db down"))

	c := h.sendText(42, "my question")
	if c.lastReply().text != textTryAgain {
		t.Fatalf("reply = %q, want retry notice", c.lastReply().text)
	}
	if got := h.state(42); got != StateAwaitingQuestion {
		t.Fatalf("state = %q, want dialog preserved for retry", got)
	}

	h.store.FailWith(nil)
	h.sendText(42, "my question")
	if len(h.store.Questions()) != 1 {
		t.Fatal("retry after recovery did not store the question")
	}
	if got := h.state(42); got != state.StateIdle {
		t.Fatalf("state = %q after successful retry", got)
	}
}

func TestOccupationDialog(t *testing.T) {
	h := newHarness(t)

	c := h.press(42, "meetup")
	if c.lastReply().text != textMeetupIntro {
		t.Fatalf("reply = %q, want networking intro", c.lastReply().text)
	}

	c = h.press(42, "fill_form")
	if got := h.state(42); got != StateAwaitingOccupation {
		t.Fatalf("state = %q, want awaiting_occupation", got)
	}
	if c.lastReply().text != textAskOccupation {
		t.Fatalf("prompt = %q", c.lastReply().text)
	}

	c = h.sendText(42, "Backend developer")
	if c.lastReply().text != textOccupationSaved {
		t.Fatalf("confirmation = %q", c.lastReply().text)
	}
	if got := h.state(42); got != state.StateIdle {
		t.Fatalf("state = %q, want idle", got)
	}

	profile, err := h.store.ProfileByTelegramID(h.appCtx(), 42)
	if err != nil {
		t.Fatalf("ProfileByTelegramID: %v", err)
	}
	if profile.Occupation != "Backend developer" {
		t.Fatalf("occupation = %q", profile.Occupation)
	}
}

func TestNextProfileExcludesViewerAndLastShown(t *testing.T) {
	h := newHarness(t)
	h.store.PutProfile(models.UserProfile{TelegramID: 42, DisplayName: "Viewer", Occupation: "dev"})
	h.store.PutProfile(models.UserProfile{TelegramID: 43, DisplayName: "Other", Username: "other", Occupation: "qa"})

	c := h.press(42, "meetup")
	if !strings.Contains(c.lastReply().text, "Other") {
		t.Fatalf("card = %q, want the only other candidate", c.lastReply().text)
	}

	// The sole candidate was just shown; asking again yields the empty notice.
	c = h.press(42, "next_profile")
	if c.lastReply().text != textNoProfiles {
		t.Fatalf("reply = %q, want no-profiles notice", c.lastReply().text)
	}

	c = h.press(42, "show_username")
	if !strings.Contains(c.lastReply().text, "@other") {
		t.Fatalf("contact reveal = %q", c.lastReply().text)
	}
}

func TestShowUsernameWithoutShownProfile(t *testing.T) {
	h := newHarness(t)

	c := h.press(42, "show_username")
	if c.lastReply().text != textMeetupIntro {
		t.Fatalf("reply = %q, want fallback to networking entry", c.lastReply().text)
	}
}

func TestEditVersusSendReplyMode(t *testing.T) {
	h := newHarness(t)

	c := h.press(42, "start")
	if r := c.lastReply(); !r.edited {
		t.Fatalf("callback reply should edit in place, got %+v", r)
	}

	c = h.sendText(42, "/start")
	if r := c.lastReply(); r.edited {
		t.Fatalf("message reply should send a new message, got %+v", r)
	}
}

func TestUnknownTextFallsBack(t *testing.T) {
	h := newHarness(t)

	c := h.sendText(42, "hello there")
	if c.lastReply().text != textUnknown {
		t.Fatalf("reply = %q, want help hint", c.lastReply().text)
	}
	if got := h.state(42); got != state.StateIdle {
		t.Fatalf("state = %q", got)
	}
}

func TestScheduleListsUpcomingTalks(t *testing.T) {
	h := newHarness(t)

	c := h.press(42, "schedule")
	if c.lastReply().text != textNoTalks {
		t.Fatalf("empty schedule reply = %q", c.lastReply().text)
	}

	h.seedTalk("Go in prod")
	c = h.press(42, "schedule")
	if c.lastReply().text != textPickTalk {
		t.Fatalf("schedule reply = %q", c.lastReply().text)
	}

	c = h.press(42, "report_1")
	if !strings.Contains(c.lastReply().text, "Go in prod") {
		t.Fatalf("talk details = %q", c.lastReply().text)
	}

	c = h.press(42, "report_999")
	if c.lastReply().text != textTalkGone {
		t.Fatalf("missing talk reply = %q", c.lastReply().text)
	}
}
