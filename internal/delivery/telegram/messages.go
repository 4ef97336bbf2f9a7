// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
	"github.com/aliskhannn/azvocab-bot/internal/service"
)

const (
	msgWelcome = "Салам! 👋\n\n" +
		"Этот бот помогает учить азербайджанские слова. " +
		"Дважды в день я буду присылать новые слова и небольшие тесты по уже знакомым.\n\n" +
		"Сначала слова показываются с переводом и транскрипцией, потом скрываются под спойлер, " +
		"а затем превращаются в тесты в обе стороны. Слово считается выученным после 10 правильных ответов.\n\n" +
		"Нажмите «Ещё слово», чтобы получить следующее слово прямо сейчас."

	msgLearningSources = "Что ещё поможет в изучении азербайджанского:\n\n" +
		"📚 «Уроки грамматики» в меню — короткие уроки по порядку\n" +
		"🔤 «Произношение букв» — таблица алфавита с транскрипцией\n" +
		"🎧 Слушайте азербайджанскую музыку и подкасты, обращая внимание на уже знакомые слова"

	msgFeedback = "Есть идеи, как сделать бота лучше, или нашли ошибку в слове? " +
		"Напишите нам, мы читаем все сообщения."

	msgAdminHelp = "Команды администратора:\n\n" +
		"/adm_message <текст> — отправить сообщение всем активным пользователям\n" +
		"«📊 Статистика» — топ за последние сутки и недавно зарегистрировавшиеся"

	msgRest         = "За последние 6 часов было показано 50 слов! Отдохните и возвращайтесь позже 🙃"
	msgCaughtUp     = "На текущий момент это все слова, которые есть в боте, хорошая работа! Скоро будут новые наборы :)"
	msgMarkedKnown  = "Слово помечено выученным"
	msgNoLessons    = "Уроков пока нет."
	msgNoLesson     = "Такого урока нет."
	msgUseMenu      = "Воспользуйтесь кнопками меню."
	msgEmptyMessage = "Используйте: /adm_message <текст>"
	msgBroadcastOK  = "Сообщение отправлено: %d из %d."

	msgInternalError  = "Что‑то пошло не так. Попробуйте позже."
	msgUnknownCommand = "Неизвестная команда. Нажмите /start, чтобы открыть меню."

	btnAlreadyKnown = "Я уже знаю это слово"
)

// md escapes plain text for MarkdownV2.
func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

// newMessage creates a message with MarkdownV2 parse mode.
func newMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return msg
}

// newPlainMessage creates a plain message without parse mode.
func newPlainMessage(chatID int64, text string) tgbotapi.MessageConfig {
	return tgbotapi.NewMessage(chatID, text)
}

func noticeText(n service.Notice) string {
	switch n {
	case service.NoticeRest:
		return msgRest
	case service.NoticeCaughtUp:
		return msgCaughtUp
	default:
		return ""
	}
}

// revealText renders one line per word. Masked items hide the word under a spoiler.
func revealText(r *entities.Reveal) string {
	var sb strings.Builder
	for _, it := range r.Items {
		w := it.Word
		if it.Masked {
			fmt.Fprintf(&sb, "%s %s \\- ||%s \\[%s\\]||\n",
				md(w.Emoji), md(w.Target), md(w.Source), md(it.Transcription))
			continue
		}
		sb.WriteString(md(fmt.Sprintf("%s %s - %s [%s]", w.Emoji, w.Target, w.Source, it.Transcription)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func summaryText(s entities.ProgressSummary) string {
	return fmt.Sprintf(
		"📊 Ваш прогресс\n\n"+
			"🏆 Максимальный уровень: %d\n"+
			"✅ Выучено слов: %d\n"+
			"📖 Активно изучаются: %d\n"+
			"🌱 Начали изучать: %d",
		s.MaxLevel, s.Mastered, s.Active, s.Starting,
	)
}

func leaderboardText(lb *entities.Leaderboard) string {
	var sb strings.Builder

	sb.WriteString("Топ за сутки:\n\n")
	for _, e := range lb.Top {
		fmt.Fprintf(&sb, "@%s - %d слов (Уровень %d)\n", e.User, e.WordsMastered, e.MaxLevel)
	}

	sb.WriteString("\nНедавно зарегистрировавшиеся:\n")
	for _, u := range lb.Recent {
		fmt.Fprintf(&sb, "@%s %s - %s. Блок: %s.\n",
			u.User, u.FirstName, u.RegistrationDate.Format("2006-01-02 15:04"), formatBool(u.IsBlocked))
	}

	return sb.String()
}

func lessonsText(lessons []entities.Lesson) string {
	if len(lessons) == 0 {
		return msgNoLessons
	}

	var sb strings.Builder
	for _, l := range lessons {
		fmt.Fprintf(&sb, "%s /lesson_%d\n", l.Name, l.ID)
	}
	return sb.String()
}

func formatBool(v bool) string {
	if v {
		return "да"
	}
	return "нет"
}
