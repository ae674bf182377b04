// Package publisher отправляет посты в канал и собирает подписи к ним.
package publisher

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/thealinfix/hypebot/internal/post"
	"github.com/thealinfix/hypebot/internal/state"
	"github.com/thealinfix/hypebot/internal/tags"
	"github.com/thealinfix/hypebot/internal/telegram"
	"github.com/thealinfix/hypebot/internal/timeutil"
)

const (
	// maxCaptionLength — лимит Telegram на подпись к медиа.
	maxCaptionLength = 1024
	// maxMediaGroupSize — лимит Telegram на размер альбома.
	maxMediaGroupSize = 10
)

// sourceEmojis — эмодзи источников в подписи канала.
var sourceEmojis = map[string]string{
	"SneakerNews":           "📰",
	"Hypebeast":             "🔥",
	"Highsnobiety":          "💎",
	"Hypebeast Footwear":    "👟",
	"Hypebeast Fashion":     "👔",
	"Highsnobiety Sneakers": "✨",
	"Highsnobiety Fashion":  "🎨",
}

// Publisher публикует посты в канал и отправляет их админу на модерацию.
type Publisher struct {
	tg          telegram.TelegramClient
	store       *state.Store
	adminChatID int64
	clock       func() time.Time
}

// New создаёт паблишер.
func New(tg telegram.TelegramClient, store *state.Store, adminChatID int64, clock func() time.Time) *Publisher {
	if clock == nil {
		clock = time.Now
	}
	return &Publisher{
		tg:          tg,
		store:       store,
		adminChatID: adminChatID,
		clock:       clock,
	}
}

// PublishPost отправляет пост в канал и фиксирует публикацию в состоянии:
// ссылка попадает в историю, пост уходит из pending и избранного.
// channel пустой — берётся канал из состояния.
func (p *Publisher) PublishPost(ctx context.Context, pst *post.Post, channel string) error {
	if channel == "" {
		channel = p.store.Get(ctx).Channel
	}
	if channel == "" {
		return fmt.Errorf("no channel specified for publishing")
	}

	log.Printf("Publishing post %s to %s", pst.ID, channel)

	caption := BuildCaption(*pst, true)
	images := pst.DisplayImages(maxMediaGroupSize)

	if len(images) > 0 {
		if err := telegram.SendMediaGroupWithRetry(ctx, p.tg, channel, images, caption, "HTML"); err != nil {
			return fmt.Errorf("send media group: %w", err)
		}
	} else {
		if _, err := telegram.SendMessageWithRetry(ctx, p.tg, channel, caption, &telegram.SendOptions{ParseMode: "HTML"}); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}

	now := p.clock().UTC()
	pst.MarkPublished(now)

	err := p.store.Update(ctx, func(st *post.State) {
		state.AppendSentLink(st, pst.Link)
		delete(st.Pending, pst.ID)
		state.RemoveFavorite(st, pst.ID)
		if st.AutoPublish {
			st.LastAutoPublish = &now
		}
	})
	if err != nil {
		return fmt.Errorf("persist publish: %w", err)
	}

	log.Printf("Successfully published post %s", pst.ID)
	return nil
}

// PublishScheduled публикует все запланированные посты, чьё время
// наступило. Возвращает число опубликованных.
func (p *Publisher) PublishScheduled(ctx context.Context) int {
	st := p.store.Get(ctx)
	now := p.clock().UTC()

	published := 0
	for id, sp := range st.Scheduled {
		if sp.Time.IsZero() || now.Before(sp.Time) {
			continue
		}

		record := sp.Record
		if !record.Valid() {
			// Старый формат без записи: ищем в pending
			pending, ok := st.Pending[id]
			if !ok {
				log.Printf("Scheduled post %s not found, skipping", id)
				continue
			}
			record = pending
		}

		if err := p.PublishPost(ctx, &record, ""); err != nil {
			log.Printf("Error publishing scheduled post %s: %v", id, err)
			continue
		}

		published++
		if err := p.store.Update(ctx, func(st *post.State) {
			delete(st.Scheduled, id)
		}); err != nil {
			log.Printf("Error removing scheduled post %s: %v", id, err)
		}

		p.notifyAdmin(ctx, fmt.Sprintf("✅ Запланированный пост опубликован:\n%s", record.PreviewTitle()))
	}

	return published
}

// PublishFromFavorites публикует первый пост из избранного, если включена
// автопубликация и интервал с прошлой публикации истёк.
func (p *Publisher) PublishFromFavorites(ctx context.Context) bool {
	st := p.store.Get(ctx)

	if !st.AutoPublish {
		return false
	}

	if st.LastAutoPublish != nil {
		interval := time.Duration(st.PublishInterval) * time.Second
		if p.clock().UTC().Sub(*st.LastAutoPublish) < interval {
			return false
		}
	}

	for _, favID := range st.Favorites {
		record, ok := st.Pending[favID]
		if !ok {
			continue
		}

		if err := p.PublishPost(ctx, &record, ""); err != nil {
			log.Printf("Error auto-publishing favorite %s: %v", favID, err)
			return false
		}

		p.notifyAdmin(ctx, fmt.Sprintf("🤖 Автоматически опубликован пост из избранного:\n%s", record.PreviewTitle()))
		return true
	}

	return false
}

// SendForModeration отправляет пост админу: сначала альбом (если есть
// изображения), затем управляющее сообщение с инлайн-клавиатурой.
func (p *Publisher) SendForModeration(ctx context.Context, pst post.Post, keyboard *telegram.InlineKeyboardMarkup, loc *time.Location) error {
	adminChat := fmt.Sprintf("%d", p.adminChatID)

	images := pst.DisplayImages(maxMediaGroupSize)
	if len(images) > 0 {
		caption := BuildCaption(pst, false)
		if err := p.tg.SendMediaGroup(ctx, adminChat, images, caption, "HTML"); err != nil {
			return fmt.Errorf("send moderation media: %w", err)
		}
	}

	text := p.ModerationText(pst, loc)
	opts := &telegram.SendOptions{
		ParseMode:             "HTML",
		ReplyMarkup:           keyboard,
		DisableWebPagePreview: true,
	}
	if _, err := p.tg.SendMessage(ctx, adminChat, text, opts); err != nil {
		return fmt.Errorf("send moderation message: %w", err)
	}

	log.Printf("Sent post %s for moderation", pst.ID)
	return nil
}

// ModerationText собирает текст предпросмотра для админа.
func (p *Publisher) ModerationText(pst post.Post, loc *time.Location) string {
	categoryEmoji := "👟"
	if pst.Category == post.CategoryFashion {
		categoryEmoji = "👔"
	}

	dateStr := timeutil.FormatForDisplay(pst.Timestamp, loc, p.clock().UTC())
	hashtags := tags.Hashtags(pst.Title, string(pst.Category))

	var imgInfo string
	if len(pst.GeneratedImages) > 0 {
		imgInfo = fmt.Sprintf("🎨 Сгенерировано: %d, оригинальных: %d", len(pst.GeneratedImages), len(pst.OriginalImages))
	} else {
		imgInfo = fmt.Sprintf("🖼 Изображений: %d", len(pst.OriginalImages))
	}

	text := fmt.Sprintf("📅 %s\n%s <b>%s</b>\n\n", dateStr, categoryEmoji, pst.Title)

	if tagsDisplay := tags.FormatForDisplay(pst.Tags); tagsDisplay != "" {
		text += tagsDisplay + "\n\n"
	}

	text += fmt.Sprintf(
		"%s\n\n📍 Источник: %s\n🔗 Статья: %s\n%s\n\n%s\n\n🆔 ID: %s",
		pst.PreviewText(400), pst.Source, pst.Link, imgInfo, hashtags, pst.ID,
	)
	return text
}

// BuildCaption собирает подпись поста. Для канала добавляются источник,
// ссылка и хэштеги; при нехватке места текст урезается так, чтобы
// хэштеги остались целыми.
func BuildCaption(pst post.Post, forChannel bool) string {
	caption := pst.Description
	if caption == "" {
		caption = pst.Context
	}
	if caption == "" {
		caption = pst.Title
	}

	if !forChannel {
		return caption
	}

	hashtags := tags.Hashtags(pst.Title, string(pst.Category))

	sourceEmoji, ok := sourceEmojis[pst.Source]
	if !ok {
		sourceEmoji = "📍"
	}
	sourceText := fmt.Sprintf("\n\n%s %s", sourceEmoji, pst.Source)

	categoryEmoji := "👟"
	if pst.Category == post.CategoryFashion {
		categoryEmoji = "👔"
	}
	linkText := fmt.Sprintf("\n%s <a href=\"%s\">Читать полностью</a>", categoryEmoji, pst.Link)

	captionLen := len([]rune(caption))
	tagsLen := len([]rune(hashtags))

	total := captionLen + len([]rune(sourceText)) + len([]rune(linkText)) + tagsLen + 10
	switch {
	case total < maxCaptionLength:
		return caption + sourceText + linkText + "\n\n" + hashtags
	case captionLen+tagsLen+10 < maxCaptionLength:
		return caption + "\n\n" + hashtags
	default:
		// Урезаем текст, хэштеги не трогаем
		maxCaption := maxCaptionLength - tagsLen - 10
		return string([]rune(caption)[:maxCaption]) + "..." + "\n\n" + hashtags
	}
}

func (p *Publisher) notifyAdmin(ctx context.Context, text string) {
	adminChat := fmt.Sprintf("%d", p.adminChatID)
	if _, err := p.tg.SendMessage(ctx, adminChat, text, &telegram.SendOptions{ParseMode: "HTML"}); err != nil {
		log.Printf("Error notifying admin: %v", err)
	}
}
