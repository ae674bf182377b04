package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/thealinfix/hypebot/internal/app"
	"github.com/thealinfix/hypebot/internal/config"
	"github.com/thealinfix/hypebot/internal/gemini"
	"github.com/thealinfix/hypebot/internal/post"
	"github.com/thealinfix/hypebot/internal/publisher"
	"github.com/thealinfix/hypebot/internal/sources"
	"github.com/thealinfix/hypebot/internal/state"
	"github.com/thealinfix/hypebot/internal/telegram"
)

const adminID int64 = 42

var testNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

// mockTelegram записывает исходящие вызовы.
type mockTelegram struct {
	messages    []string
	mediaGroups [][]string
	answers     []string
	deleted     []int64
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
	return nil
}

func (m *mockTelegram) EditMessageText(ctx context.Context, chatID string, messageID int64, text string, opts *telegram.SendOptions) error {
	return nil
}

func (m *mockTelegram) DeleteMessage(ctx context.Context, chatID string, messageID int64) error {
	m.deleted = append(m.deleted, messageID)
	return nil
}

func (m *mockTelegram) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	m.answers = append(m.answers, text)
	return nil
}

func (m *mockTelegram) GetUpdates(ctx context.Context, offset int64, timeout int) ([]telegram.Update, error) {
	return nil, nil
}

// mockGemini отдаёт фиксированные ответы вместо Gemini API.
type mockGemini struct{}

var _ gemini.GeminiClient = (*mockGemini)(nil)

func (m *mockGemini) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	return "Сгенерированный текст поста", nil
}

func (m *mockGemini) GenerateImage(ctx context.Context, model, prompt string) ([]byte, error) {
	return []byte("png-bytes"), nil
}

func newTestBot(t *testing.T) (*Bot, *mockTelegram, *state.Store) {
	t.Helper()
	return newTestBotWith(t, sources.NewFetcher([]config.Source{}, nil, testClock, 10))
}

func newTestBotWith(t *testing.T, fetcher *sources.Fetcher) (*Bot, *mockTelegram, *state.Store) {
	t.Helper()
	ctx := context.Background()

	store := state.NewStore(state.Options{
		Path:            filepath.Join(t.TempDir(), "state.json"),
		DefaultChannel:  "@channel",
		DefaultTimezone: "UTC",
		Clock:           testClock,
	})
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tg := &mockTelegram{}
	captioner := gemini.NewCaptioner(&mockGemini{})
	pub := publisher.New(tg, store, adminID, testClock)

	b := New(Deps{
		Telegram:    tg,
		Store:       store,
		Fetcher:     fetcher,
		Captioner:   captioner,
		Publisher:   pub,
		AdminChatID: adminID,
		ImageDir:    filepath.Join(t.TempDir(), "generated"),
		Clock:       testClock,
	})
	b.SetPipeline(app.NewPipeline(app.PipelineDeps{
		Fetcher:   fetcher,
		Captioner: captioner,
		Store:     store,
		Notifier:  b,
	}))
	return b, tg, store
}

func seedPending(t *testing.T, store *state.Store, id string) post.Post {
	t.Helper()
	p := post.Post{
		ID:             id,
		Title:          "Nike Dunk Low Retro",
		Link:           "https://example.com/" + id,
		Source:         "SneakerNews",
		Category:       post.CategorySneakers,
		Timestamp:      testNow.Add(-time.Hour),
		Description:    "Классика возвращается.",
		OriginalImages: []string{"https://cdn.example.com/dunk.jpg"},
		Status:         post.StatusPending,
	}
	err := store.Update(context.Background(), func(st *post.State) {
		st.Pending[p.ID] = p
	})
	if err != nil {
		t.Fatalf("seed pending: %v", err)
	}
	return p
}

func adminCallback(data string) telegram.Update {
	return telegram.Update{
		UpdateID: 1,
		CallbackQuery: &telegram.CallbackQuery{
			ID:      "cb1",
			From:    &telegram.User{ID: adminID},
			Message: &telegram.Message{MessageID: 10, Chat: telegram.Chat{ID: adminID}},
			Data:    data,
		},
	}
}

func adminMessage(text string) telegram.Update {
	return telegram.Update{
		UpdateID: 1,
		Message: &telegram.Message{
			MessageID: 10,
			Text:      text,
			From:      &telegram.User{ID: adminID},
			Chat:      telegram.Chat{ID: adminID},
		},
	}
}

func TestApproveCallback_PublishesAndCleansUp(t *testing.T) {
	ctx := context.Background()
	b, tg, store := newTestBot(t)
	p := seedPending(t, store, "abc123")

	b.handleUpdate(ctx, adminCallback("approve:"+p.ID))

	st := store.Get(ctx)
	if _, ok := st.Pending[p.ID]; ok {
		t.Error("post still pending after approve")
	}
	if !st.HasSentLink(p.Link) {
		t.Error("link missing from sent history")
	}
	if len(tg.mediaGroups) != 1 {
		t.Errorf("media groups sent = %d, want 1", len(tg.mediaGroups))
	}
}

func TestRejectCallback_RemovesFromQueue(t *testing.T) {
	ctx := context.Background()
	b, _, store := newTestBot(t)
	p := seedPending(t, store, "rej1")

	b.handleUpdate(ctx, adminCallback("reject:"+p.ID))

	st := store.Get(ctx)
	if _, ok := st.Pending[p.ID]; ok {
		t.Error("post still pending after reject")
	}
	if st.HasSentLink(p.Link) {
		t.Error("rejected post should not enter sent history")
	}
}

func TestFavoriteCallback_Toggles(t *testing.T) {
	ctx := context.Background()
	b, _, store := newTestBot(t)
	p := seedPending(t, store, "fav1")

	b.handleUpdate(ctx, adminCallback("favorite:"+p.ID))
	if !store.Get(ctx).IsFavorite(p.ID) {
		t.Fatal("post not added to favorites")
	}

	b.handleUpdate(ctx, adminCallback("favorite:"+p.ID))
	if store.Get(ctx).IsFavorite(p.ID) {
		t.Error("second toggle should remove favorite")
	}
}

func TestScheduleFlow(t *testing.T) {
	ctx := context.Background()
	b, _, store := newTestBot(t)
	p := seedPending(t, store, "sch1")

	// Нажатие "Запланировать" включает режим ожидания
	b.handleUpdate(ctx, adminCallback("schedule:"+p.ID))

	st := store.Get(ctx)
	if st.Awaiting.Kind != post.AwaitSchedule || st.Awaiting.PostID != p.ID {
		t.Fatalf("Awaiting = %+v, want schedule/%s", st.Awaiting, p.ID)
	}

	// Ответ времени планирует пост и снимает ожидание
	b.handleUpdate(ctx, adminMessage("+2h"))

	st = store.Get(ctx)
	if st.Awaiting.Active() {
		t.Error("awaiting not cleared after input")
	}
	sp, ok := st.Scheduled[p.ID]
	if !ok {
		t.Fatal("post not scheduled")
	}
	if want := testNow.Add(2 * time.Hour); !sp.Time.Equal(want) {
		t.Errorf("scheduled time = %v, want %v", sp.Time, want)
	}
	if _, ok := st.Pending[p.ID]; ok {
		t.Error("scheduled post should leave the pending queue")
	}
	if sp.Record.Status != post.StatusScheduled {
		t.Errorf("record status = %q, want scheduled", sp.Record.Status)
	}
}

func TestScheduleFlow_BadInputKeepsAwaiting(t *testing.T) {
	ctx := context.Background()
	b, tg, store := newTestBot(t)
	p := seedPending(t, store, "sch2")

	b.handleUpdate(ctx, adminCallback("schedule:"+p.ID))
	b.handleUpdate(ctx, adminMessage("когда-нибудь"))

	st := store.Get(ctx)
	if !st.Awaiting.Active() {
		t.Error("awaiting dropped on unparseable input")
	}
	if len(tg.messages) == 0 || !strings.Contains(tg.messages[len(tg.messages)-1], "Не понял время") {
		t.Error("admin not told about the bad format")
	}
}

func TestCancelCommand(t *testing.T) {
	ctx := context.Background()
	b, _, store := newTestBot(t)
	p := seedPending(t, store, "cnl1")

	b.handleUpdate(ctx, adminCallback("schedule:"+p.ID))
	b.handleUpdate(ctx, adminMessage("/cancel"))

	if store.Get(ctx).Awaiting.Active() {
		t.Error("awaiting not cleared by /cancel")
	}
}

func TestChannelInput(t *testing.T) {
	ctx := context.Background()
	b, _, store := newTestBot(t)

	b.handleUpdate(ctx, adminCallback("settings_channel"))
	b.handleUpdate(ctx, adminMessage("@newchannel"))

	st := store.Get(ctx)
	if st.Channel != "@newchannel" {
		t.Errorf("Channel = %q, want @newchannel", st.Channel)
	}
	if st.Awaiting.Active() {
		t.Error("awaiting not cleared after channel input")
	}
}

func TestTimezoneInput(t *testing.T) {
	ctx := context.Background()
	b, tg, store := newTestBot(t)

	b.handleUpdate(ctx, adminCallback("settings_timezone"))
	b.handleUpdate(ctx, adminMessage("Asia/Tokyo"))

	st := store.Get(ctx)
	if st.Timezone != "Asia/Tokyo" {
		t.Errorf("Timezone = %q, want Asia/Tokyo", st.Timezone)
	}
	if st.Awaiting.Active() {
		t.Error("awaiting not cleared after timezone input")
	}

	b.handleUpdate(ctx, adminCallback("settings_timezone"))
	b.handleUpdate(ctx, adminMessage("Nowhere/Invalid"))

	st = store.Get(ctx)
	if st.Timezone != "Asia/Tokyo" {
		t.Errorf("invalid timezone overwrote setting: %q", st.Timezone)
	}
	if !st.Awaiting.Active() {
		t.Error("awaiting dropped on invalid timezone")
	}
	if len(tg.messages) == 0 || !strings.Contains(tg.messages[len(tg.messages)-1], "Не знаю такой часовой пояс") {
		t.Error("admin not told about the invalid timezone")
	}
}

func TestIntervalInput(t *testing.T) {
	ctx := context.Background()
	b, _, store := newTestBot(t)

	b.handleUpdate(ctx, adminCallback("auto_custom"))
	b.handleUpdate(ctx, adminMessage("45"))

	if got := store.Get(ctx).PublishInterval; got != 45*60 {
		t.Errorf("PublishInterval = %d, want %d", got, 45*60)
	}
}

func TestGenImageCallback_StoresCover(t *testing.T) {
	ctx := context.Background()
	b, _, store := newTestBot(t)
	p := seedPending(t, store, "img1")

	b.handleUpdate(ctx, adminCallback("genimage:"+p.ID))

	st := store.Get(ctx)
	stored := st.Pending[p.ID]
	if len(stored.GeneratedImages) != 1 {
		t.Fatalf("generated images = %d, want 1", len(stored.GeneratedImages))
	}
	// Сгенерированная обложка показывается первой
	if all := stored.AllImages(); all[0] != stored.GeneratedImages[0] {
		t.Error("generated cover should lead the display order")
	}
}

func TestFullCallback_FetchesGalleryOnFirstView(t *testing.T) {
	page := `<html><body><div class="gallery">
		<img src="/img/one.jpg">
		<img src="/img/two.jpg">
	</div></body></html>`

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(page))
	}))
	defer server.Close()

	ctx := context.Background()
	fetcher := sources.NewFetcher([]config.Source{}, server.Client(), testClock, 10)
	b, tg, store := newTestBotWith(t, fetcher)

	p := seedPending(t, store, "full1")
	err := store.Update(ctx, func(st *post.State) {
		stored := st.Pending[p.ID]
		stored.Link = server.URL + "/article"
		stored.NeedsParsing = true
		st.Pending[p.ID] = stored
	})
	if err != nil {
		t.Fatalf("seed state: %v", err)
	}

	b.handleUpdate(ctx, adminCallback("full:"+p.ID))

	st := store.Get(ctx)
	stored := st.Pending[p.ID]
	if stored.NeedsParsing {
		t.Error("needs_parsing not cleared after deep fetch")
	}
	want := []string{server.URL + "/img/one.jpg", server.URL + "/img/two.jpg"}
	if len(stored.OriginalImages) != 2 || stored.OriginalImages[0] != want[0] || stored.OriginalImages[1] != want[1] {
		t.Errorf("OriginalImages = %v, want %v", stored.OriginalImages, want)
	}
	if len(tg.mediaGroups) != 1 {
		t.Errorf("moderation albums sent = %d, want 1", len(tg.mediaGroups))
	}
	if requests != 1 {
		t.Errorf("article fetched %d times, want 1", requests)
	}

	// Повторный просмотр страницу не перечитывает
	b.handleUpdate(ctx, adminCallback("full:"+p.ID))
	if requests != 1 {
		t.Errorf("page refetched on second view: %d requests", requests)
	}
}

func TestFullCallback_KeepsImagesWhenGalleryEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>no pictures here</p></body></html>`))
	}))
	defer server.Close()

	ctx := context.Background()
	fetcher := sources.NewFetcher([]config.Source{}, server.Client(), testClock, 10)
	b, _, store := newTestBotWith(t, fetcher)

	p := seedPending(t, store, "full2")
	err := store.Update(ctx, func(st *post.State) {
		stored := st.Pending[p.ID]
		stored.Link = server.URL + "/article"
		stored.NeedsParsing = true
		st.Pending[p.ID] = stored
	})
	if err != nil {
		t.Fatalf("seed state: %v", err)
	}

	b.handleUpdate(ctx, adminCallback("full:"+p.ID))

	stored := store.Get(ctx).Pending[p.ID]
	if stored.NeedsParsing {
		t.Error("needs_parsing not cleared after empty gallery")
	}
	// Обложка из ленты остаётся, если на странице ничего не нашлось
	if len(stored.OriginalImages) != 1 || stored.OriginalImages[0] != "https://cdn.example.com/dunk.jpg" {
		t.Errorf("OriginalImages = %v, want the feed image kept", stored.OriginalImages)
	}
}

func TestNonAdminIgnored(t *testing.T) {
	ctx := context.Background()
	b, tg, store := newTestBot(t)
	p := seedPending(t, store, "sec1")

	update := adminCallback("approve:" + p.ID)
	update.CallbackQuery.From.ID = 999

	b.handleUpdate(ctx, update)

	if _, ok := store.Get(ctx).Pending[p.ID]; !ok {
		t.Error("non-admin callback must not mutate state")
	}
	if len(tg.mediaGroups) != 0 || len(tg.messages) != 0 {
		t.Error("non-admin callback must not trigger sends")
	}
}

func TestAutoToggleCallback(t *testing.T) {
	ctx := context.Background()
	b, _, store := newTestBot(t)

	b.handleUpdate(ctx, adminCallback("auto_toggle"))
	if !store.Get(ctx).AutoPublish {
		t.Fatal("auto-publish not enabled")
	}

	b.handleUpdate(ctx, adminCallback("auto_toggle"))
	if store.Get(ctx).AutoPublish {
		t.Error("auto-publish not disabled by second toggle")
	}
}

func TestStatsCommand(t *testing.T) {
	ctx := context.Background()
	b, tg, store := newTestBot(t)
	seedPending(t, store, "st1")

	b.handleUpdate(ctx, adminMessage("/stats"))

	if len(tg.messages) == 0 || !strings.Contains(tg.messages[len(tg.messages)-1], "В очереди: 1") {
		t.Errorf("stats reply missing queue count: %v", tg.messages)
	}
}
