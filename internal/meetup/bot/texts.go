package bot

// User-facing texts. Markdown-safe plain strings; dynamic parts are
// formatted in the handlers.
const (
	textMainMenu = "Главное меню:"

	btnSchedule         = "Расписание выступлений"
	btnMeetup           = "Хочу познакомиться"
	btnSpeakerQuestions = "Вопросы к докладчику"
	btnDonate           = "Донат организатору"
	btnBack             = "Назад"
	btnAskQuestion      = "Задать вопрос"
	btnFillForm         = "Заполнить анкету"
	btnShowUsername     = "Показать контакт"
	btnNextProfile      = "Показать ещё"

	textPickTalk     = "Выберите доклад:"
	textNoTalks      = "В ближайшее время выступлений не запланировано"
	textAskQuestion  = "Пожалуйста, введите ваш вопрос:"
	textQuestionSent = "Спасибо за ваш вопрос! Мы обязательно передадим его докладчику."

	textTalkGone = "Этот доклад больше не в программе. Загляните в расписание ещё раз."

	textMeetupIntro = "Чтобы знакомиться с другими участниками, расскажите о себе.\n" +
		"Анкету увидят те, кто тоже ищет собеседников."
	textAskOccupation   = "Кем вы работаете? Напишите пару слов о себе:"
	textOccupationSaved = "Анкета сохранена! Теперь вам доступны анкеты других участников."
	textNoProfiles      = "Пока некого показать. Попробуйте чуть позже."
	textProfileGone     = "Эта анкета больше недоступна."
	textNoUsername      = "У этого участника скрыт username, связаться с ним не получится."

	textNoQuestions = "Вопросов к вашим докладам пока нет."

	textDonate = "Поддержать организаторов митапа можно по ссылке ниже."

	textUnknown       = "Я вас не понял. Нажмите /start, чтобы открыть меню."
	textUnknownAction = "Это действие больше недоступно"
	textTryAgain      = "Что-то пошло не так. Попробуйте ещё раз чуть позже."
)
