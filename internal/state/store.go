// Package state хранит всё состояние бота в одном JSON-файле.
// Все чтения и изменения сериализуются одним мьютексом процесса;
// запись на диск атомарна (временный файл + переименование).
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/thealinfix/hypebot/internal/post"
)

const (
	// maxSentLinks — порог, после которого история ссылок обрезается.
	maxSentLinks = 1000
	// trimSentLinksTo — сколько последних ссылок остаётся после обрезки.
	trimSentLinksTo = 500

	defaultPublishInterval = 3600 // секунды
)

// Options задают поведение стора.
type Options struct {
	Path            string
	MaxPending      int
	MaxPostAgeDays  int
	DefaultChannel  string
	DefaultTimezone string
	Clock           func() time.Time
}

// Store — файловый стор состояния с единственной блокировкой.
type Store struct {
	mu    sync.Mutex
	state post.State

	path       string
	maxPending int
	maxAgeDays int
	defChannel string
	defTz      string
	clock      func() time.Time
}

// NewStore создаёт стор. Состояние нужно загрузить через Load до
// первого использования.
func NewStore(opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.MaxPending <= 0 {
		opts.MaxPending = 100
	}
	if opts.MaxPostAgeDays <= 0 {
		opts.MaxPostAgeDays = 7
	}
	return &Store{
		path:       opts.Path,
		maxPending: opts.MaxPending,
		maxAgeDays: opts.MaxPostAgeDays,
		defChannel: opts.DefaultChannel,
		defTz:      opts.DefaultTimezone,
		clock:      opts.Clock,
	}
}

func (s *Store) defaultState() post.State {
	return post.State{
		Pending:         map[string]post.Post{},
		Scheduled:       map[string]post.ScheduledPost{},
		Favorites:       []string{},
		SentLinks:       []string{},
		Channel:         s.defChannel,
		Timezone:        s.defTz,
		PublishInterval: defaultPublishInterval,
	}
}

// Load читает состояние из файла. Отсутствующий файл даёт состояние
// по умолчанию; повреждённый переименовывается в .broken и тоже
// заменяется состоянием по умолчанию, чтобы бот мог продолжить работу.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.state = s.defaultState()
			return nil
		}
		return fmt.Errorf("read state file: %w", err)
	}

	var loaded post.State
	if err := json.Unmarshal(data, &loaded); err != nil {
		brokenPath := s.path + ".broken"
		_ = os.WriteFile(brokenPath, data, 0644) // сохраняем для диагностики
		log.Printf("State file corrupted, starting from defaults (saved as %s): %v", brokenPath, err)
		s.state = s.defaultState()
		return nil
	}

	s.mergeDefaults(&loaded)
	dropped := dropInvalidPending(&loaded)
	if dropped > 0 {
		log.Printf("Dropped %d invalid pending entries on load", dropped)
	}
	removed := s.cleanPendingLocked(&loaded)
	if removed > 0 {
		log.Printf("Removed %d stale pending posts on load", removed)
	}

	s.state = loaded
	return nil
}

// mergeDefaults подставляет значения по умолчанию для отсутствующих полей.
func (s *Store) mergeDefaults(st *post.State) {
	if st.Pending == nil {
		st.Pending = map[string]post.Post{}
	}
	if st.Scheduled == nil {
		st.Scheduled = map[string]post.ScheduledPost{}
	}
	if st.Favorites == nil {
		st.Favorites = []string{}
	}
	if st.SentLinks == nil {
		st.SentLinks = []string{}
	}
	if st.Channel == "" {
		st.Channel = s.defChannel
	}
	if st.Timezone == "" {
		st.Timezone = s.defTz
	}
	if st.PublishInterval <= 0 {
		st.PublishInterval = defaultPublishInterval
	}
}

func dropInvalidPending(st *post.State) int {
	dropped := 0
	for id, p := range st.Pending {
		if !p.Valid() {
			delete(st.Pending, id)
			dropped++
		}
	}
	return dropped
}

// cleanPendingLocked удаляет просроченные посты и обрезает очередь до
// потолка, оставляя самые свежие по timestamp.
func (s *Store) cleanPendingLocked(st *post.State) int {
	now := s.clock().UTC()
	removed := 0

	for id, p := range st.Pending {
		if p.IsOld(s.maxAgeDays, now) {
			delete(st.Pending, id)
			removed++
		}
	}

	if len(st.Pending) > s.maxPending {
		type entry struct {
			id string
			ts time.Time
		}
		entries := make([]entry, 0, len(st.Pending))
		for id, p := range st.Pending {
			entries = append(entries, entry{id: id, ts: p.Timestamp})
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].ts.After(entries[j].ts)
		})
		for _, e := range entries[s.maxPending:] {
			delete(st.Pending, e.id)
			removed++
		}
	}

	return removed
}

// Get возвращает защитную копию состояния.
func (s *Store) Get(ctx context.Context) post.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Update применяет мутацию под блокировкой и сохраняет состояние на диск.
// Все изменения состояния проходят через этот метод.
func (s *Store) Update(ctx context.Context, fn func(st *post.State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.state)
	return s.saveLocked()
}

// CleanOld удаляет старые pending-посты, просроченные запланированные
// записи и обрезает историю ссылок. Возвращает (удалено постов,
// удалено запланированных).
func (s *Store) CleanOld(ctx context.Context) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.cleanPendingLocked(&s.state)

	now := s.clock().UTC()
	expired := 0
	for id, sp := range s.state.Scheduled {
		// Записи старше суток после намеченного времени считаем мёртвыми
		if sp.Time.IsZero() || now.Sub(sp.Time) > 24*time.Hour {
			delete(s.state.Scheduled, id)
			expired++
		}
	}

	trimmed := TrimSentLinks(&s.state)
	if trimmed {
		log.Printf("Trimmed sent links history to %d entries", trimSentLinksTo)
	}

	if removed == 0 && expired == 0 && !trimmed {
		return 0, 0, nil
	}
	return removed, expired, s.saveLocked()
}

// Reset сбрасывает состояние к значениям по умолчанию.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = s.defaultState()
	return s.saveLocked()
}

// TrimSentLinks обрезает историю отправленных ссылок, когда она
// превышает порог. Возвращает true, если обрезка произошла.
func TrimSentLinks(st *post.State) bool {
	if len(st.SentLinks) <= maxSentLinks {
		return false
	}
	st.SentLinks = append([]string(nil), st.SentLinks[len(st.SentLinks)-trimSentLinksTo:]...)
	return true
}

// AppendSentLink добавляет ссылку в историю (без дублей) и при
// необходимости обрезает её.
func AppendSentLink(st *post.State, link string) {
	if st.HasSentLink(link) {
		return
	}
	st.SentLinks = append(st.SentLinks, link)
	TrimSentLinks(st)
}

// RemoveFavorite убирает пост из избранного, если он там был.
func RemoveFavorite(st *post.State, postID string) {
	for i, id := range st.Favorites {
		if id == postID {
			st.Favorites = append(st.Favorites[:i], st.Favorites[i+1:]...)
			return
		}
	}
}

// saveLocked сериализует состояние и атомарно записывает его в файл.
// Вызывается только под мьютексом.
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp state file: %w", err)
	}

	// Переименование атомарно на большинстве файловых систем
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp state file: %w", err)
	}

	return nil
}
