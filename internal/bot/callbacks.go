package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/thealinfix/hypebot/internal/post"
	"github.com/thealinfix/hypebot/internal/state"
	"github.com/thealinfix/hypebot/internal/telegram"
)

// handleCallback маршрутизирует нажатия инлайн-кнопок.
// Формат данных: "действие" либо "действие:аргумент".
func (b *Bot) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) error {
	action, arg := splitCallback(cb.Data)

	ack := func(text string) {
		if err := b.tg.AnswerCallbackQuery(ctx, cb.ID, text); err != nil {
			log.Printf("Error answering callback: %v", err)
		}
	}

	switch action {
	case "noop":
		ack("")
		return nil

	case "approve":
		return b.callbackApprove(ctx, arg, ack)

	case "reject":
		err := b.store.Update(ctx, func(st *post.State) {
			delete(st.Pending, arg)
			state.RemoveFavorite(st, arg)
		})
		if err != nil {
			return err
		}
		ack("Пост пропущен")
		b.reply(ctx, "❌ Пост убран из очереди.")
		return nil

	case "regen":
		return b.callbackRegen(ctx, arg, ack)

	case "genimage":
		return b.callbackGenImage(ctx, arg, "", ack)

	case "prompt":
		ack("")
		return b.awaitInput(ctx, post.AwaitPrompt, arg,
			"✏️ Отправьте свой промпт для генерации обложки:")

	case "revert":
		err := b.store.Update(ctx, func(st *post.State) {
			p, ok := st.Pending[arg]
			if !ok {
				return
			}
			p.ClearGeneratedImages(b.clock())
			st.Pending[arg] = p
		})
		if err != nil {
			return err
		}
		ack("Оригинальные изображения восстановлены")
		return nil

	case "schedule":
		ack("")
		return b.awaitInput(ctx, post.AwaitSchedule, arg,
			"⏰ Когда опубликовать?\n\nФорматы:\n• <code>18:30</code> — сегодня или завтра\n• <code>25.12 15:00</code> — конкретная дата\n• <code>+2h</code>, <code>+30m</code>, <code>+1d</code> — через время")

	case "unschedule":
		err := b.store.Update(ctx, func(st *post.State) {
			delete(st.Scheduled, arg)
		})
		if err != nil {
			return err
		}
		ack("Публикация отменена")
		return b.commandScheduled(ctx)

	case "favorite":
		return b.callbackFavorite(ctx, arg, ack)

	case "preview":
		idx, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("bad preview index %q", arg)
		}
		ack("")
		return b.sendPreview(ctx, idx)

	case "preview_close":
		ack("")
		if cb.Message != nil {
			adminChat := fmt.Sprintf("%d", b.adminChatID)
			if err := b.tg.DeleteMessage(ctx, adminChat, cb.Message.MessageID); err != nil {
				log.Printf("Error deleting preview message: %v", err)
			}
		}
		return nil

	case "full":
		return b.callbackFull(ctx, arg, ack)

	case "settings_channel":
		ack("")
		return b.awaitInput(ctx, post.AwaitChannel, "",
			"📢 Отправьте @username или id канала:")

	case "settings_timezone":
		ack("")
		return b.awaitInput(ctx, post.AwaitTimezone, "",
			"🕐 Отправьте часовой пояс (например, <code>Europe/Moscow</code>):")

	case "auto_menu":
		ack("")
		st := b.store.Get(ctx)
		b.replyWithKeyboard(ctx, autoPublishText(st), autoPublishKeyboard(st.AutoPublish))
		return nil

	case "auto_toggle":
		var enabled bool
		err := b.store.Update(ctx, func(st *post.State) {
			st.AutoPublish = !st.AutoPublish
			enabled = st.AutoPublish
		})
		if err != nil {
			return err
		}
		if enabled {
			ack("Автопубликация включена")
		} else {
			ack("Автопубликация выключена")
		}
		st := b.store.Get(ctx)
		b.replyWithKeyboard(ctx, autoPublishText(st), autoPublishKeyboard(st.AutoPublish))
		return nil

	case "auto_interval":
		seconds, err := strconv.Atoi(arg)
		if err != nil || seconds <= 0 {
			return fmt.Errorf("bad interval %q", arg)
		}
		if err := b.store.Update(ctx, func(st *post.State) {
			st.PublishInterval = seconds
		}); err != nil {
			return err
		}
		ack(fmt.Sprintf("Интервал: %d мин", seconds/60))
		return nil

	case "auto_custom":
		ack("")
		return b.awaitInput(ctx, post.AwaitInterval, "",
			"⏱ Отправьте интервал автопубликации в минутах (от 5 до 1440):")

	case "cancel":
		ack("")
		return b.cancelInput(ctx)

	default:
		ack("")
		log.Printf("Unknown callback action %q", action)
		return nil
	}
}

func (b *Bot) callbackApprove(ctx context.Context, postID string, ack func(string)) error {
	p, ok := b.pendingPost(ctx, postID)
	if !ok {
		ack("Пост не найден")
		return nil
	}

	if err := b.publisher.PublishPost(ctx, &p, ""); err != nil {
		ack("Ошибка публикации")
		return fmt.Errorf("publish %s: %w", postID, err)
	}

	ack("Опубликовано")
	b.reply(ctx, fmt.Sprintf("✅ Опубликовано:\n%s", p.PreviewTitle()))
	return nil
}

func (b *Bot) callbackRegen(ctx context.Context, postID string, ack func(string)) error {
	p, ok := b.pendingPost(ctx, postID)
	if !ok {
		ack("Пост не найден")
		return nil
	}

	ack("Генерирую текст...")
	caption := b.captioner.Caption(ctx, p.Title, p.Context, p.Category)

	err := b.store.Update(ctx, func(st *post.State) {
		stored, ok := st.Pending[postID]
		if !ok {
			return
		}
		stored.Description = caption
		stored.Touch(b.clock())
		st.Pending[postID] = stored
	})
	if err != nil {
		return err
	}

	b.reply(ctx, fmt.Sprintf("🔄 Новый текст:\n\n%s", caption))
	return nil
}

// callbackGenImage генерирует обложку. customPrompt пустой — шаблон рубрики.
func (b *Bot) callbackGenImage(ctx context.Context, postID, customPrompt string, ack func(string)) error {
	p, ok := b.pendingPost(ctx, postID)
	if !ok {
		ack("Пост не найден")
		return nil
	}

	ack("Генерирую обложку...")
	image, err := b.captioner.CoverImage(ctx, p.Title, p.Category, customPrompt)
	if err != nil {
		b.reply(ctx, "⚠️ Не удалось сгенерировать обложку. Попробуйте позже.")
		return fmt.Errorf("cover image for %s: %w", postID, err)
	}

	path, err := b.saveGeneratedImage(postID, image)
	if err != nil {
		return err
	}

	err = b.store.Update(ctx, func(st *post.State) {
		stored, ok := st.Pending[postID]
		if !ok {
			return
		}
		stored.AddGeneratedImage(path, b.clock())
		st.Pending[postID] = stored
	})
	if err != nil {
		return err
	}

	adminChat := fmt.Sprintf("%d", b.adminChatID)
	if _, err := b.tg.SendPhoto(ctx, adminChat, path, "🎨 Обложка готова", nil); err != nil {
		log.Printf("Error sending generated cover: %v", err)
	}
	return nil
}

func (b *Bot) callbackFavorite(ctx context.Context, postID string, ack func(string)) error {
	var added bool
	err := b.store.Update(ctx, func(st *post.State) {
		if st.IsFavorite(postID) {
			state.RemoveFavorite(st, postID)
			return
		}
		st.Favorites = append(st.Favorites, postID)
		added = true
	})
	if err != nil {
		return err
	}

	if added {
		ack("Добавлено в избранное ⭐️")
	} else {
		ack("Убрано из избранного")
	}
	return nil
}

// callbackFull показывает пост с полной клавиатурой модерации.
// При первом просмотре страница статьи догружается ради галереи.
func (b *Bot) callbackFull(ctx context.Context, postID string, ack func(string)) error {
	p, ok := b.pendingPost(ctx, postID)
	if !ok {
		ack("Пост не найден")
		return nil
	}

	if p.NeedsParsing {
		ack("Загружаю галерею...")
		images, err := b.fetcher.FetchImages(ctx, p.Link)
		if err != nil {
			log.Printf("Error fetching gallery for %s: %v", postID, err)
		} else {
			err = b.store.Update(ctx, func(st *post.State) {
				stored, ok := st.Pending[postID]
				if !ok {
					return
				}
				if len(images) > 0 {
					stored.Images = append([]string(nil), images...)
					stored.OriginalImages = append([]string(nil), images...)
				}
				stored.NeedsParsing = false
				stored.Touch(b.clock())
				st.Pending[postID] = stored
				p = stored
			})
			if err != nil {
				return err
			}
		}
	} else {
		ack("")
	}

	return b.NotifyNewPost(ctx, p)
}

func autoPublishText(st post.State) string {
	status := "выключена"
	if st.AutoPublish {
		status = "включена"
	}
	return fmt.Sprintf(
		"🤖 <b>Автопубликация</b>\n\nСтатус: %s\nИнтервал: %d мин\nВ избранном: %d",
		status, st.PublishInterval/60, len(st.Favorites),
	)
}

func splitCallback(data string) (action, arg string) {
	if i := strings.Index(data, ":"); i >= 0 {
		return data[:i], data[i+1:]
	}
	return data, ""
}
