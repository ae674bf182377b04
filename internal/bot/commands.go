package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/thealinfix/hypebot/internal/telegram"
	"github.com/thealinfix/hypebot/internal/timeutil"
)

const helpText = `<b>Команды бота</b>

/check — проверить релизы сейчас
/preview — очередь постов на модерации
/scheduled — запланированные публикации
/stats — статистика
/status — состояние бота
/sources — проверить доступность источников
/cancel — отменить текущий ввод
/reset — сбросить состояние
/help — эта справка`

// handleMessage разбирает входящее сообщение администратора: сначала
// диалоговый ввод, затем команды.
func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) error {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}

	st := b.store.Get(ctx)
	if st.Awaiting.Active() && !strings.HasPrefix(text, "/") {
		return b.handleAwaitedInput(ctx, st.Awaiting, text)
	}

	if !strings.HasPrefix(text, "/") {
		b.reply(ctx, "Не понимаю. Используйте /help для списка команд.")
		return nil
	}

	command := strings.ToLower(strings.Fields(text)[0])
	// Срезаем @botname из команд вида /check@hypebot
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}

	switch command {
	case "/start":
		b.reply(ctx, "👟 Привет! Я слежу за релизами кроссовок и уличной моды.\n\n"+helpText)
	case "/help":
		b.reply(ctx, helpText)
	case "/check":
		return b.commandCheck(ctx)
	case "/preview":
		return b.sendPreview(ctx, 0)
	case "/scheduled":
		return b.commandScheduled(ctx)
	case "/stats":
		return b.commandStats(ctx)
	case "/status":
		return b.commandStatus(ctx)
	case "/sources":
		return b.commandSources(ctx)
	case "/cancel":
		return b.cancelInput(ctx)
	case "/reset":
		if err := b.store.Reset(ctx); err != nil {
			return err
		}
		b.reply(ctx, "♻️ Состояние сброшено.")
	case "/settings":
		b.replyWithKeyboard(ctx, "⚙️ Настройки", settingsKeyboard())
	default:
		b.reply(ctx, "Неизвестная команда. /help для списка команд.")
	}
	return nil
}

func (b *Bot) commandCheck(ctx context.Context) error {
	b.reply(ctx, "🔄 Проверяю источники...")

	added, err := b.pipeline.CheckReleases(ctx)
	if err != nil {
		return fmt.Errorf("check releases: %w", err)
	}

	if added == 0 {
		b.reply(ctx, "Новых релизов нет.")
	} else {
		b.reply(ctx, fmt.Sprintf("✅ Найдено новых постов: %d", added))
	}
	return nil
}

// sendPreview показывает пост очереди с номером idx и навигацией.
func (b *Bot) sendPreview(ctx context.Context, idx int) error {
	st := b.store.Get(ctx)
	posts := sortedPending(st)

	if len(posts) == 0 {
		b.reply(ctx, "Очередь модерации пуста. Запустите /check.")
		return nil
	}

	if idx < 0 {
		idx = 0
	}
	if idx >= len(posts) {
		idx = len(posts) - 1
	}

	p := posts[idx]
	text := b.publisher.ModerationText(p, b.location(ctx))
	b.replyWithKeyboard(ctx, text, previewKeyboard(idx, len(posts), p.ID, st.IsFavorite(p.ID)))
	return nil
}

func (b *Bot) commandScheduled(ctx context.Context) error {
	st := b.store.Get(ctx)
	if len(st.Scheduled) == 0 {
		b.reply(ctx, "Запланированных постов нет.")
		return nil
	}

	loc := b.location(ctx)
	var sb strings.Builder
	sb.WriteString("⏰ <b>Запланированные посты</b>\n\n")

	ids := make([]string, 0, len(st.Scheduled))
	for id := range st.Scheduled {
		ids = append(ids, id)
	}
	// Ближайшие первыми
	sortScheduledIDs(ids, st)

	for _, id := range ids {
		sp := st.Scheduled[id]
		sb.WriteString(fmt.Sprintf("• %s — %s\n", timeutil.FormatLocal(sp.Time, loc), sp.Record.PreviewTitle()))
	}

	b.replyWithKeyboard(ctx, sb.String(), scheduledKeyboard(ids))
	return nil
}

func (b *Bot) commandStats(ctx context.Context) error {
	st := b.store.Get(ctx)

	bySource := map[string]int{}
	for _, p := range st.Pending {
		bySource[p.Source]++
	}

	var sb strings.Builder
	sb.WriteString("📈 <b>Статистика</b>\n\n")
	sb.WriteString(fmt.Sprintf("📝 В очереди: %d\n", len(st.Pending)))
	sb.WriteString(fmt.Sprintf("⏰ Запланировано: %d\n", len(st.Scheduled)))
	sb.WriteString(fmt.Sprintf("⭐️ В избранном: %d\n", len(st.Favorites)))
	sb.WriteString(fmt.Sprintf("📤 Опубликовано ссылок: %d\n", len(st.SentLinks)))

	if len(bySource) > 0 {
		sb.WriteString("\n<b>Очередь по источникам:</b>\n")
		for _, source := range sortedCountKeys(bySource) {
			sb.WriteString(fmt.Sprintf("• %s: %d\n", source, bySource[source]))
		}
	}

	b.reply(ctx, sb.String())
	return nil
}

func (b *Bot) commandStatus(ctx context.Context) error {
	st := b.store.Get(ctx)

	channel := st.Channel
	if channel == "" {
		channel = "не задан"
	}

	auto := "выключена"
	if st.AutoPublish {
		auto = fmt.Sprintf("включена (каждые %d мин)", st.PublishInterval/60)
	}

	text := fmt.Sprintf(
		"🤖 <b>Состояние бота</b>\n\n📢 Канал: %s\n🕐 Зона: %s\n🔁 Автопубликация: %s\n📝 В очереди: %d\n⏰ Запланировано: %d",
		channel, st.Timezone, auto, len(st.Pending), len(st.Scheduled),
	)
	b.replyWithKeyboard(ctx, text, settingsKeyboard())
	return nil
}

func (b *Bot) commandSources(ctx context.Context) error {
	b.reply(ctx, "🔍 Проверяю источники...")

	var sb strings.Builder
	sb.WriteString("<b>Источники</b>\n\n")
	for _, status := range b.fetcher.TestSources(ctx) {
		if status.Err != nil {
			sb.WriteString(fmt.Sprintf("❌ %s — %v\n", status.Name, status.Err))
			continue
		}
		sb.WriteString(fmt.Sprintf("✅ %s (%s, %s) — %d записей\n", status.Name, status.Type, status.Category, status.Items))
	}

	b.reply(ctx, sb.String())
	return nil
}
