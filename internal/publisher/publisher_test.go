package publisher

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/thealinfix/hypebot/internal/post"
	"github.com/thealinfix/hypebot/internal/state"
	"github.com/thealinfix/hypebot/internal/tags"
	"github.com/thealinfix/hypebot/internal/telegram"
)

// mockTelegram записывает вызовы вместо обращения к Bot API.
type mockTelegram struct {
	messages    []string
	mediaGroups [][]string
	captions    []string
}

var _ telegram.TelegramClient = (*mockTelegram)(nil)

func (m *mockTelegram) SendMessage(ctx context.Context, chatID, text string, opts *telegram.SendOptions) (int64, error) {
	m.messages = append(m.messages, text)
	return int64(len(m.messages)), nil
}

func (m *mockTelegram) SendPhoto(ctx context.Context, chatID, photo, caption string, opts *telegram.SendOptions) (int64, error) {
	return 1, nil
}

func (m *mockTelegram) SendMediaGroup(ctx context.Context, chatID string, photos []string, caption, parseMode string) error {
	m.mediaGroups = append(m.mediaGroups, photos)
	m.captions = append(m.captions, caption)
	return nil
}

func (m *mockTelegram) EditMessageText(ctx context.Context, chatID string, messageID int64, text string, opts *telegram.SendOptions) error {
	return nil
}

func (m *mockTelegram) DeleteMessage(ctx context.Context, chatID string, messageID int64) error {
	return nil
}

func (m *mockTelegram) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	return nil
}

func (m *mockTelegram) GetUpdates(ctx context.Context, offset int64, timeout int) ([]telegram.Update, error) {
	return nil, nil
}

var testNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func testPost(id string) post.Post {
	return post.Post{
		ID:             id,
		Title:          "Nike Dunk Low Retro",
		Link:           "https://example.com/" + id,
		Source:         "SneakerNews",
		Category:       post.CategorySneakers,
		Timestamp:      testNow.Add(-time.Hour),
		Description:    "Классический силуэт возвращается.",
		OriginalImages: []string{"https://cdn.example.com/dunk.jpg"},
		Status:         post.StatusPending,
	}
}

func newTestStore(t *testing.T) *state.Store {
	t.Helper()
	store := state.NewStore(state.Options{
		Path:            filepath.Join(t.TempDir(), "state.json"),
		DefaultChannel:  "@channel",
		DefaultTimezone: "UTC",
		Clock:           testClock,
	})
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return store
}

func TestBuildCaption_LengthInvariant(t *testing.T) {
	p := testPost("long")
	p.Description = strings.Repeat("Очень длинное описание релиза. ", 100)

	caption := BuildCaption(p, true)

	if got := len([]rune(caption)); got > 1024 {
		t.Errorf("caption length = %d runes, want <= 1024", got)
	}

	// Хэштеги при усечении остаются целыми в конце подписи
	hashtags := tags.Hashtags(p.Title, string(p.Category))
	if !strings.HasSuffix(caption, hashtags) {
		t.Errorf("caption does not end with intact hashtags:\n%s", caption)
	}
	if !strings.Contains(caption, "...") {
		t.Error("truncated caption should carry an ellipsis")
	}
}

func TestBuildCaption_ShortPostKeepsAllParts(t *testing.T) {
	p := testPost("short")
	caption := BuildCaption(p, true)

	for _, part := range []string{p.Description, p.Source, p.Link, "#nike"} {
		if !strings.Contains(caption, part) {
			t.Errorf("caption missing %q:\n%s", part, caption)
		}
	}
}

func TestBuildCaption_ModerationHasNoHashtags(t *testing.T) {
	p := testPost("mod")
	caption := BuildCaption(p, false)

	if strings.Contains(caption, "#") {
		t.Errorf("moderation caption should not carry hashtags: %s", caption)
	}
}

func TestPublishPost(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	tg := &mockTelegram{}
	pub := New(tg, store, 100, testClock)

	p := testPost("abc123")
	err := store.Update(ctx, func(st *post.State) {
		st.Pending[p.ID] = p
		st.Favorites = append(st.Favorites, p.ID)
	})
	if err != nil {
		t.Fatalf("seed state: %v", err)
	}

	if err := pub.PublishPost(ctx, &p, ""); err != nil {
		t.Fatalf("PublishPost() error = %v", err)
	}

	if p.Status != post.StatusPublished {
		t.Errorf("Status = %q, want published", p.Status)
	}
	if len(tg.mediaGroups) != 1 {
		t.Fatalf("media groups sent = %d, want 1", len(tg.mediaGroups))
	}

	st := store.Get(ctx)
	if _, ok := st.Pending[p.ID]; ok {
		t.Error("post still in pending after publish")
	}
	if st.IsFavorite(p.ID) {
		t.Error("post still in favorites after publish")
	}
	if !st.HasSentLink(p.Link) {
		t.Error("link missing from sent history")
	}
}

func TestPublishPost_NoChannel(t *testing.T) {
	ctx := context.Background()
	store := state.NewStore(state.Options{
		Path:            filepath.Join(t.TempDir(), "state.json"),
		DefaultTimezone: "UTC",
		Clock:           testClock,
	})
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	pub := New(&mockTelegram{}, store, 100, testClock)
	p := testPost("x")
	if err := pub.PublishPost(ctx, &p, ""); err == nil {
		t.Error("expected error when no channel configured")
	}
}

func TestPublishPost_TextOnly(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	tg := &mockTelegram{}
	pub := New(tg, store, 100, testClock)

	p := testPost("noimages")
	p.OriginalImages = nil

	if err := pub.PublishPost(ctx, &p, ""); err != nil {
		t.Fatalf("PublishPost() error = %v", err)
	}
	if len(tg.mediaGroups) != 0 {
		t.Error("text-only post should not send a media group")
	}
	if len(tg.messages) != 1 {
		t.Fatalf("messages sent = %d, want 1", len(tg.messages))
	}
}

func TestPublishScheduled(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	tg := &mockTelegram{}
	pub := New(tg, store, 100, testClock)

	due := testPost("due")
	future := testPost("future")

	err := store.Update(ctx, func(st *post.State) {
		st.Scheduled["due"] = post.ScheduledPost{Time: testNow.Add(-time.Minute), Record: due}
		st.Scheduled["future"] = post.ScheduledPost{Time: testNow.Add(time.Hour), Record: future}
	})
	if err != nil {
		t.Fatalf("seed state: %v", err)
	}

	if got := pub.PublishScheduled(ctx); got != 1 {
		t.Fatalf("PublishScheduled() = %d, want 1", got)
	}

	st := store.Get(ctx)
	if _, ok := st.Scheduled["due"]; ok {
		t.Error("due post still scheduled")
	}
	if _, ok := st.Scheduled["future"]; !ok {
		t.Error("future post removed prematurely")
	}
	if !st.HasSentLink(due.Link) {
		t.Error("due post link missing from history")
	}
}

func TestPublishFromFavorites(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled auto-publish does nothing", func(t *testing.T) {
		store := newTestStore(t)
		pub := New(&mockTelegram{}, store, 100, testClock)
		if pub.PublishFromFavorites(ctx) {
			t.Error("expected no publish with auto-publish off")
		}
	})

	t.Run("interval not elapsed", func(t *testing.T) {
		store := newTestStore(t)
		p := testPost("fav")
		recent := testNow.Add(-time.Minute)
		err := store.Update(ctx, func(st *post.State) {
			st.AutoPublish = true
			st.PublishInterval = 3600
			st.LastAutoPublish = &recent
			st.Pending[p.ID] = p
			st.Favorites = []string{p.ID}
		})
		if err != nil {
			t.Fatalf("seed state: %v", err)
		}

		pub := New(&mockTelegram{}, store, 100, testClock)
		if pub.PublishFromFavorites(ctx) {
			t.Error("expected no publish before interval elapses")
		}
	})

	t.Run("publishes first favorite still pending", func(t *testing.T) {
		store := newTestStore(t)
		gone := testPost("gone")
		p := testPost("fav")
		old := testNow.Add(-2 * time.Hour)
		err := store.Update(ctx, func(st *post.State) {
			st.AutoPublish = true
			st.PublishInterval = 3600
			st.LastAutoPublish = &old
			st.Pending[p.ID] = p
			// Первый id избранного уже не в pending
			st.Favorites = []string{gone.ID, p.ID}
		})
		if err != nil {
			t.Fatalf("seed state: %v", err)
		}

		tg := &mockTelegram{}
		pub := New(tg, store, 100, testClock)
		if !pub.PublishFromFavorites(ctx) {
			t.Fatal("expected a publish")
		}

		st := store.Get(ctx)
		if !st.HasSentLink(p.Link) {
			t.Error("favorite link missing from history")
		}
		if st.LastAutoPublish == nil || !st.LastAutoPublish.Equal(testNow) {
			t.Errorf("LastAutoPublish = %v, want %v", st.LastAutoPublish, testNow)
		}
	})
}
