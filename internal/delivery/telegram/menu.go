package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MenuItem is a main menu button.
type MenuItem int

const (
	MenuUnknown MenuItem = iota
	MenuMoreWords
	MenuLessons
	MenuMyProgress
	MenuAlphabet
	MenuLearningSources
	MenuFeedback
	MenuAdminStats
	MenuAdminHelp
)

var menuLabels = map[MenuItem]string{
	MenuMoreWords:       "Ещё слово",
	MenuLessons:         "Уроки грамматики",
	MenuMyProgress:      "Мой прогресс",
	MenuAlphabet:        "Произношение букв",
	MenuLearningSources: "Ресурсы по изучению 🇦🇿",
	MenuFeedback:        "Предложения по боту",
	MenuAdminStats:      "📊 Статистика",
	MenuAdminHelp:       "🛠 Помощь админу",
}

func (m MenuItem) Label() string {
	return menuLabels[m]
}

// IsAdmin reports whether the item is shown only to admins.
func (m MenuItem) IsAdmin() bool {
	return m == MenuAdminStats || m == MenuAdminHelp
}

// parseMenuItem matches text against the declared labels.
func parseMenuItem(text string) MenuItem {
	for item, label := range menuLabels {
		if label == text {
			return item
		}
	}
	return MenuUnknown
}

func mainMenu(admin bool) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(MenuMoreWords.Label()),
			tgbotapi.NewKeyboardButton(MenuLessons.Label()),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(MenuMyProgress.Label()),
			tgbotapi.NewKeyboardButton(MenuAlphabet.Label()),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(MenuLearningSources.Label()),
			tgbotapi.NewKeyboardButton(MenuFeedback.Label()),
		),
	}

	if admin {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(MenuAdminStats.Label()),
			tgbotapi.NewKeyboardButton(MenuAdminHelp.Label()),
		))
	}

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

func quizKeyboard(known learnNow) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnAlreadyKnown, known.encode()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(MenuMoreWords.Label(), learnMore{}.encode()),
		),
	)
}

func moreKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(MenuMoreWords.Label(), learnMore{}.encode()),
		),
	)
}
