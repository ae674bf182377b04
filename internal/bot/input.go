package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/thealinfix/hypebot/internal/post"
	"github.com/thealinfix/hypebot/internal/timeutil"
)

// awaitInput включает режим ожидания текстового ввода и показывает подсказку.
func (b *Bot) awaitInput(ctx context.Context, kind post.AwaitKind, postID, hint string) error {
	err := b.store.Update(ctx, func(st *post.State) {
		st.Awaiting = post.AwaitingInput{Kind: kind, PostID: postID}
	})
	if err != nil {
		return err
	}
	b.replyWithKeyboard(ctx, hint, cancelKeyboard())
	return nil
}

// cancelInput сбрасывает режим ожидания.
func (b *Bot) cancelInput(ctx context.Context) error {
	st := b.store.Get(ctx)
	if !st.Awaiting.Active() {
		b.reply(ctx, "Нечего отменять.")
		return nil
	}

	err := b.store.Update(ctx, func(st *post.State) {
		st.Awaiting = post.AwaitingInput{}
	})
	if err != nil {
		return err
	}
	b.reply(ctx, "❌ Ввод отменён.")
	return nil
}

// handleAwaitedInput обрабатывает ответ администратора на запрошенный ввод.
// Режим ожидания снимается в любом исходе, кроме ошибки разбора.
func (b *Bot) handleAwaitedInput(ctx context.Context, awaiting post.AwaitingInput, text string) error {
	switch awaiting.Kind {
	case post.AwaitChannel:
		return b.inputChannel(ctx, text)
	case post.AwaitTimezone:
		return b.inputTimezone(ctx, text)
	case post.AwaitSchedule:
		return b.inputSchedule(ctx, awaiting.PostID, text)
	case post.AwaitPrompt:
		return b.inputPrompt(ctx, awaiting.PostID, text)
	case post.AwaitInterval:
		return b.inputInterval(ctx, text)
	default:
		return b.clearAwaiting(ctx)
	}
}

func (b *Bot) clearAwaiting(ctx context.Context) error {
	return b.store.Update(ctx, func(st *post.State) {
		st.Awaiting = post.AwaitingInput{}
	})
}

func (b *Bot) inputChannel(ctx context.Context, text string) error {
	channel := strings.TrimSpace(text)
	if !strings.HasPrefix(channel, "@") && !strings.HasPrefix(channel, "-100") {
		b.reply(ctx, "Канал должен начинаться с @ или -100. Попробуйте ещё раз или /cancel.")
		return nil
	}

	err := b.store.Update(ctx, func(st *post.State) {
		st.Channel = channel
		st.Awaiting = post.AwaitingInput{}
	})
	if err != nil {
		return err
	}

	b.reply(ctx, fmt.Sprintf("📢 Канал обновлён: %s", channel))
	return nil
}

func (b *Bot) inputTimezone(ctx context.Context, text string) error {
	tz := strings.TrimSpace(text)
	if _, err := time.LoadLocation(tz); err != nil {
		b.reply(ctx, "Не знаю такой часовой пояс. Пример: <code>Europe/Moscow</code>. Или /cancel.")
		return nil
	}

	err := b.store.Update(ctx, func(st *post.State) {
		st.Timezone = tz
		st.Awaiting = post.AwaitingInput{}
	})
	if err != nil {
		return err
	}

	b.reply(ctx, fmt.Sprintf("🕐 Часовой пояс обновлён: %s", tz))
	return nil
}

func (b *Bot) inputSchedule(ctx context.Context, postID, text string) error {
	loc := b.location(ctx)
	now := b.clock().UTC()

	scheduledAt, err := timeutil.ParseScheduleTime(text, loc, now)
	if err != nil {
		b.reply(ctx, "Не понял время. Форматы: <code>18:30</code>, <code>25.12 15:00</code>, <code>+2h</code>. Или /cancel.")
		return nil
	}

	var scheduled bool
	err = b.store.Update(ctx, func(st *post.State) {
		st.Awaiting = post.AwaitingInput{}

		p, ok := st.Pending[postID]
		if !ok {
			return
		}
		p.MarkScheduled(scheduledAt, now)
		st.Scheduled[postID] = post.ScheduledPost{Time: scheduledAt, Record: p}
		delete(st.Pending, postID)
		scheduled = true
	})
	if err != nil {
		return err
	}

	if !scheduled {
		b.reply(ctx, "Пост уже не в очереди.")
		return nil
	}

	b.reply(ctx, fmt.Sprintf("⏰ Запланировано на %s.", timeutil.FormatLocal(scheduledAt, loc)))
	return nil
}

func (b *Bot) inputPrompt(ctx context.Context, postID, text string) error {
	if err := b.clearAwaiting(ctx); err != nil {
		return err
	}
	return b.callbackGenImage(ctx, postID, strings.TrimSpace(text), func(string) {})
}

func (b *Bot) inputInterval(ctx context.Context, text string) error {
	minutes, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || minutes < 5 || minutes > 1440 {
		b.reply(ctx, "Интервал — число минут от 5 до 1440. Попробуйте ещё раз или /cancel.")
		return nil
	}

	err = b.store.Update(ctx, func(st *post.State) {
		st.PublishInterval = minutes * 60
		st.Awaiting = post.AwaitingInput{}
	})
	if err != nil {
		return err
	}

	b.reply(ctx, fmt.Sprintf("⏱ Интервал автопубликации: %d мин.", minutes))
	return nil
}
