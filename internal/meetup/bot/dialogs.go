package bot

import (
	"errors"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/meetupbot/core/logger"
	tghelpers "github.com/m3rciful/meetupbot/core/telegram/helpers"
	"github.com/m3rciful/meetupbot/core/telegram/keyboard"
	"github.com/m3rciful/meetupbot/internal/meetup/storage"
)

// askQuestion enters the question dialog for one talk. Entering again, even
// for another talk, simply replaces the pending talk reference: the latest
// entry wins.
func (a *App) askQuestion(c tele.Context, talkID int64) error {
	userID := c.Sender().ID

	ctx, cancel := a.storageCtx(c)
	defer cancel()
	if _, err := a.store.TalkByID(ctx, talkID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.sessions.Clear(userID)
			return tghelpers.EditOrSendMD(c, textTalkGone, keyboard.InlineButtons(backRow(tokenSchedule)))
		}
		return a.failSoft(c, err)
	}

	a.sessions.SetTemp(userID, tempPendingTalkID, talkID)
	a.sessions.SetState(userID, StateAwaitingQuestion)
	return tghelpers.SendMD(c, textAskQuestion)
}

// receiveQuestion consumes the next text message while the question dialog is
// active. On any persistence failure the session is rolled back to the
// snapshot taken on entry, so the user can simply send the text again.
func (a *App) receiveQuestion(c tele.Context) error {
	userID := c.Sender().ID
	snap := a.sessions.Snapshot(userID)

	talkID, ok := a.sessions.GetTempInt64(userID, tempPendingTalkID)
	if !ok {
		logger.Warn(tghelpers.BuildContext(c), "bot", "dialog.question.no_talk",
			slog.Int64("user_id", userID),
		)
		a.sessions.Clear(userID)
		return tghelpers.SendMD(c, textUnknown)
	}

	ctx, cancel := a.storageCtx(c)
	defer cancel()

	sender := c.Sender()
	author, err := a.store.UpsertProfile(ctx, sender.ID, displayName(sender), sender.Username)
	if err != nil {
		a.sessions.Restore(userID, snap)
		return a.failSoft(c, err)
	}

	if _, err := a.store.TalkByID(ctx, talkID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.sessions.Clear(userID)
			return tghelpers.SendMD(c, textTalkGone)
		}
		a.sessions.Restore(userID, snap)
		return a.failSoft(c, err)
	}

	if _, err := a.store.CreateQuestion(ctx, author.ID, talkID, c.Text()); err != nil {
		a.sessions.Restore(userID, snap)
		return a.failSoft(c, err)
	}

	a.sessions.Clear(userID)
	return tghelpers.SendMD(c, textQuestionSent)
}

// fillForm enters the occupation dialog for networking.
func (a *App) fillForm(c tele.Context) error {
	userID := c.Sender().ID
	a.sessions.SetState(userID, StateAwaitingOccupation)
	return tghelpers.SendMD(c, textAskOccupation)
}

// receiveOccupation stores the occupation text and completes the form.
func (a *App) receiveOccupation(c tele.Context) error {
	userID := c.Sender().ID
	snap := a.sessions.Snapshot(userID)

	ctx, cancel := a.storageCtx(c)
	defer cancel()

	sender := c.Sender()
	if _, err := a.store.UpsertProfile(ctx, sender.ID, displayName(sender), sender.Username); err != nil {
		a.sessions.Restore(userID, snap)
		return a.failSoft(c, err)
	}
	if _, err := a.store.SetOccupation(ctx, sender.ID, c.Text()); err != nil {
		a.sessions.Restore(userID, snap)
		return a.failSoft(c, err)
	}

	a.sessions.Clear(userID)
	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: btnNextProfile, Token: tokenNextProfile}},
		backRow(tokenStart),
	)
	return tghelpers.SendMD(c, textOccupationSaved, markup)
}
