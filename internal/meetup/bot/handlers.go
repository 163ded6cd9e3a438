package bot

import (
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/meetupbot/core/telegram/helpers"
	"github.com/m3rciful/meetupbot/core/telegram/keyboard"
	"github.com/m3rciful/meetupbot/internal/meetup/storage"
)

// start registers or refreshes the profile, aborts any active dialog and
// shows the main menu. Safe to repeat any number of times.
func (a *App) start(c tele.Context) error {
	sender := c.Sender()

	ctx, cancel := a.storageCtx(c)
	defer cancel()
	if _, err := a.store.UpsertProfile(ctx, sender.ID, displayName(sender), sender.Username); err != nil {
		return a.failSoft(c, err)
	}

	a.sessions.Clear(sender.ID)
	return tghelpers.EditOrSendMD(c, textMainMenu, a.mainMenu())
}

// cancel aborts the active dialog, if any, and falls back to the main menu.
func (a *App) cancel(c tele.Context) error {
	return a.start(c)
}

func (a *App) schedule(c tele.Context) error {
	ctx, cancel := a.storageCtx(c)
	defer cancel()
	talks, err := a.store.UpcomingTalks(ctx, a.now())
	if err != nil {
		return a.failSoft(c, err)
	}

	if len(talks) == 0 {
		return tghelpers.EditOrSendMD(c, textNoTalks, keyboard.InlineButtons(backRow(tokenStart)))
	}

	rows := make([][]keyboard.InlineBtn, 0, len(talks)+1)
	for _, t := range talks {
		label := fmt.Sprintf("%s: %s - %s", t.StartsAt.Format("15:04"), t.SpeakerName, t.Title)
		rows = append(rows, []keyboard.InlineBtn{{Text: label, Token: fmt.Sprintf("%s%d", prefixTalk, t.ID)}})
	}
	rows = append(rows, backRow(tokenStart))
	return tghelpers.EditOrSendMD(c, textPickTalk, keyboard.InlineButtonsRows(rows...))
}

func (a *App) talkDetails(c tele.Context, talkID int64) error {
	ctx, cancel := a.storageCtx(c)
	defer cancel()
	talk, err := a.store.TalkByID(ctx, talkID)
	if errors.Is(err, storage.ErrNotFound) {
		return tghelpers.EditOrSendMD(c, textTalkGone, keyboard.InlineButtons(backRow(tokenSchedule)))
	}
	if err != nil {
		return a.failSoft(c, err)
	}

	text := fmt.Sprintf("Докладчик: %s\nТема: %s\nВремя: %s\nОписание: %s",
		talk.SpeakerName, talk.Title, talk.StartsAt.Format("15:04"), talk.Description)
	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: btnAskQuestion, Token: fmt.Sprintf("%s%d", prefixAsk, talk.ID)}},
		backRow(tokenSchedule),
	)
	return tghelpers.EditOrSendMD(c, text, markup)
}

func (a *App) speakerQuestions(c tele.Context) error {
	ctx, cancel := a.storageCtx(c)
	defer cancel()
	questions, err := a.store.QuestionsForSpeaker(ctx, c.Sender().ID)
	if err != nil {
		return a.failSoft(c, err)
	}

	if len(questions) == 0 {
		return tghelpers.EditOrSendMD(c, textNoQuestions, keyboard.InlineButtons(backRow(tokenStart)))
	}

	var b strings.Builder
	for i, q := range questions {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "«%s», %s:\n%s", q.TalkTitle, q.AuthorName, q.Body)
	}
	return tghelpers.EditOrSendMD(c, b.String(), keyboard.InlineButtons(backRow(tokenStart)))
}

func (a *App) donate(c tele.Context) error {
	rows := make([][]keyboard.InlineBtn, 0, 2)
	if a.cfg != nil && a.cfg.Meetup.DonateURL != "" {
		rows = append(rows, []keyboard.InlineBtn{{Text: btnDonate, URL: a.cfg.Meetup.DonateURL}})
	}
	rows = append(rows, backRow(tokenStart))
	return tghelpers.EditOrSendMD(c, textDonate, keyboard.InlineButtonsRows(rows...))
}

// meetup opens the networking section: a filled profile goes straight to the
// first candidate, everyone else is invited to fill the form.
func (a *App) meetup(c tele.Context) error {
	ctx, cancel := a.storageCtx(c)
	defer cancel()
	profile, err := a.store.ProfileByTelegramID(ctx, c.Sender().ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return a.failSoft(c, err)
	}

	if profile == nil || !profile.HasOccupation() {
		markup := keyboard.InlineButtonsRows(
			[]keyboard.InlineBtn{{Text: btnFillForm, Token: tokenFillForm}},
			backRow(tokenStart),
		)
		return tghelpers.EditOrSendMD(c, textMeetupIntro, markup)
	}

	return a.nextProfile(c)
}

func (a *App) nextProfile(c tele.Context) error {
	userID := c.Sender().ID

	ctx, cancel := a.storageCtx(c)
	defer cancel()
	candidates, err := a.store.CandidateProfiles(ctx, userID)
	if err != nil {
		return a.failSoft(c, err)
	}

	lastShown, _ := a.sessions.GetTempInt64(userID, tempLastShownProfile)
	pick := a.matcher.Next(candidates, userID, lastShown)
	if pick == nil {
		return tghelpers.EditOrSendMD(c, textNoProfiles, keyboard.InlineButtons(backRow(tokenStart)))
	}

	a.sessions.SetTemp(userID, tempLastShownProfile, pick.ID)

	text := fmt.Sprintf("Имя: %s\nЧем занимается: %s", pick.DisplayName, pick.Occupation)
	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: btnShowUsername, Token: tokenShowUsername}},
		[]keyboard.InlineBtn{{Text: btnNextProfile, Token: tokenNextProfile}},
		backRow(tokenStart),
	)
	return tghelpers.EditOrSendMD(c, text, markup)
}

// showUsername reveals the contact of the profile shown last. Without a shown
// profile in the session it falls back to the networking entry point.
func (a *App) showUsername(c tele.Context) error {
	userID := c.Sender().ID

	shownID, ok := a.sessions.GetTempInt64(userID, tempLastShownProfile)
	if !ok {
		return a.meetup(c)
	}

	ctx, cancel := a.storageCtx(c)
	defer cancel()
	profile, err := a.store.ProfileByID(ctx, shownID)
	if errors.Is(err, storage.ErrNotFound) {
		a.sessions.ClearTemp(userID, tempLastShownProfile)
		return tghelpers.EditOrSendMD(c, textProfileGone, keyboard.InlineButtons(backRow(tokenStart)))
	}
	if err != nil {
		return a.failSoft(c, err)
	}

	text := textNoUsername
	if profile.Username != "" {
		text = fmt.Sprintf("%s — @%s", profile.DisplayName, profile.Username)
	}
	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: btnNextProfile, Token: tokenNextProfile}},
		backRow(tokenStart),
	)
	return tghelpers.EditOrSendMD(c, text, markup)
}

func (a *App) mainMenu() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: btnSchedule, Token: tokenSchedule}},
		[]keyboard.InlineBtn{{Text: btnMeetup, Token: tokenMeetup}},
		[]keyboard.InlineBtn{{Text: btnSpeakerQuestions, Token: tokenSpeakerQuestions}},
		[]keyboard.InlineBtn{{Text: btnDonate, Token: tokenDonate}},
	)
}

// failSoft tells the user to retry and propagates the cause to the router log.
func (a *App) failSoft(c tele.Context, err error) error {
	_ = tghelpers.EditOrSendMD(c, textTryAgain)
	return err
}

func backRow(token string) []keyboard.InlineBtn {
	return []keyboard.InlineBtn{{Text: btnBack, Token: token}}
}

func displayName(u *tele.User) string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		name = u.Username
	}
	return name
}
