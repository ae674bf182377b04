// Package bot реализует слой модерации: длинный опрос обновлений,
// команды администратора, инлайн-кнопки и диалоговый ввод.
package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/thealinfix/hypebot/internal/app"
	"github.com/thealinfix/hypebot/internal/gemini"
	"github.com/thealinfix/hypebot/internal/post"
	"github.com/thealinfix/hypebot/internal/publisher"
	"github.com/thealinfix/hypebot/internal/sources"
	"github.com/thealinfix/hypebot/internal/state"
	"github.com/thealinfix/hypebot/internal/telegram"
)

const pollTimeoutSeconds = 30

// Bot обрабатывает взаимодействие с единственным администратором.
type Bot struct {
	tg          telegram.TelegramClient
	store       *state.Store
	pipeline    *app.Pipeline
	fetcher     *sources.Fetcher
	captioner   *gemini.Captioner
	publisher   *publisher.Publisher
	adminChatID int64
	imageDir    string
	clock       func() time.Time

	offset int64
}

// Deps — зависимости бота.
type Deps struct {
	Telegram    telegram.TelegramClient
	Store       *state.Store
	Pipeline    *app.Pipeline
	Fetcher     *sources.Fetcher
	Captioner   *gemini.Captioner
	Publisher   *publisher.Publisher
	AdminChatID int64
	ImageDir    string
	Clock       func() time.Time
}

// New создаёт бота.
func New(deps Deps) *Bot {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Bot{
		tg:          deps.Telegram,
		store:       deps.Store,
		pipeline:    deps.Pipeline,
		fetcher:     deps.Fetcher,
		captioner:   deps.Captioner,
		publisher:   deps.Publisher,
		adminChatID: deps.AdminChatID,
		imageDir:    deps.ImageDir,
		clock:       clock,
	}
}

// SetPipeline подключает пайплайн проверки релизов. Вызывается после
// создания бота: пайплайн сам зависит от бота как от нотификатора.
func (b *Bot) SetPipeline(p *app.Pipeline) {
	b.pipeline = p
}

// Убеждаемся, что Bot умеет уведомлять о новых постах.
var _ app.Notifier = (*Bot)(nil)

// NotifyNewPost отправляет новый пост администратору на модерацию.
func (b *Bot) NotifyNewPost(ctx context.Context, p post.Post) error {
	st := b.store.Get(ctx)
	keyboard := moderationKeyboard(p.ID, st.IsFavorite(p.ID))
	return b.publisher.SendForModeration(ctx, p, keyboard, b.location(ctx))
}

// Run крутит цикл длинного опроса, пока контекст не отменён.
func (b *Bot) Run(ctx context.Context) error {
	log.Printf("Bot started, polling for updates (admin chat: %d)", b.adminChatID)

	for {
		select {
		case <-ctx.Done():
			log.Println("Bot update loop stopped")
			return ctx.Err()
		default:
		}

		updates, err := b.tg.GetUpdates(ctx, b.offset, pollTimeoutSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Error getting updates: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= b.offset {
				b.offset = update.UpdateID + 1
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate обрабатывает одно обновление. Паника или ошибка хендлера
// не роняет процесс: администратор получает общее сообщение об ошибке.
func (b *Bot) handleUpdate(ctx context.Context, update telegram.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in update handler: %v", r)
			b.reply(ctx, "⚠️ Произошла ошибка. Попробуйте ещё раз.")
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.From == nil || cb.From.ID != b.adminChatID {
			log.Printf("Ignoring callback from non-admin user")
			return
		}
		if err := b.handleCallback(ctx, cb); err != nil {
			log.Printf("Error handling callback %q: %v", cb.Data, err)
			b.reply(ctx, "⚠️ Произошла ошибка. Попробуйте ещё раз.")
		}
	case update.Message != nil:
		msg := update.Message
		if msg.From == nil || msg.From.ID != b.adminChatID {
			log.Printf("Ignoring message from chat %d", msg.Chat.ID)
			return
		}
		if err := b.handleMessage(ctx, msg); err != nil {
			log.Printf("Error handling message %q: %v", msg.Text, err)
			b.reply(ctx, "⚠️ Произошла ошибка. Попробуйте ещё раз.")
		}
	}
}

// location возвращает часовой пояс из настроек; при ошибке — UTC.
func (b *Bot) location(ctx context.Context) *time.Location {
	tz := b.store.Get(ctx).Timezone
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("Invalid timezone %q, falling back to UTC", tz)
		return time.UTC
	}
	return loc
}

// reply отправляет администратору простое текстовое сообщение.
func (b *Bot) reply(ctx context.Context, text string) {
	b.replyWithKeyboard(ctx, text, nil)
}

func (b *Bot) replyWithKeyboard(ctx context.Context, text string, keyboard *telegram.InlineKeyboardMarkup) {
	opts := &telegram.SendOptions{
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}
	if keyboard != nil {
		opts.ReplyMarkup = keyboard
	}
	adminChat := fmt.Sprintf("%d", b.adminChatID)
	if _, err := b.tg.SendMessage(ctx, adminChat, text, opts); err != nil {
		log.Printf("Error sending reply: %v", err)
	}
}

// pendingPost достаёт пост из очереди по id.
func (b *Bot) pendingPost(ctx context.Context, postID string) (post.Post, bool) {
	st := b.store.Get(ctx)
	p, ok := st.Pending[postID]
	return p, ok
}

// sortedPending возвращает посты очереди, свежие первыми.
func sortedPending(st post.State) []post.Post {
	posts := make([]post.Post, 0, len(st.Pending))
	for _, p := range st.Pending {
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].Timestamp.After(posts[j].Timestamp)
	})
	return posts
}

// sortScheduledIDs упорядочивает id запланированных постов: ближайшие первыми.
func sortScheduledIDs(ids []string, st post.State) {
	sort.Slice(ids, func(i, j int) bool {
		return st.Scheduled[ids[i]].Time.Before(st.Scheduled[ids[j]].Time)
	})
}

// sortedCountKeys возвращает ключи счётчика по убыванию значений.
func sortedCountKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

// saveGeneratedImage сохраняет сгенерированную обложку на диск и
// возвращает путь к файлу.
func (b *Bot) saveGeneratedImage(postID string, data []byte) (string, error) {
	if err := os.MkdirAll(b.imageDir, 0755); err != nil {
		return "", fmt.Errorf("create image directory: %w", err)
	}
	name := fmt.Sprintf("%s_%d.png", postID, b.clock().UTC().UnixNano())
	path := filepath.Join(b.imageDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write image file: %w", err)
	}
	return path, nil
}
