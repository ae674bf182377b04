// Package app связывает этапы проверки релизов в единый пайплайн.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/thealinfix/hypebot/internal/post"
)

// ErrNotConfigured возвращается, когда пайплайн запущен без обязательных зависимостей.
var ErrNotConfigured = errors.New("pipeline dependencies not configured")

// Clock определяет источник времени (удобно подменять в тестах).
type Clock func() time.Time

// Fetcher собирает новости из подключённых источников.
type Fetcher interface {
	FetchAll(ctx context.Context) []post.Post
}

// Captioner генерирует подпись к посту.
type Captioner interface {
	Caption(ctx context.Context, title, context string, category post.Category) string
}

// StateStore хранит состояние бота.
type StateStore interface {
	Get(ctx context.Context) post.State
	Update(ctx context.Context, fn func(st *post.State)) error
}

// Notifier отправляет новый пост администратору на модерацию.
type Notifier interface {
	NotifyNewPost(ctx context.Context, p post.Post) error
}

// PipelineDeps перечисляет зависимости пайплайна.
type PipelineDeps struct {
	Fetcher   Fetcher
	Captioner Captioner
	Store     StateStore
	Notifier  Notifier
	Clock     Clock
}

// Pipeline инкапсулирует цикл проверки релизов: получить новости,
// отсеять уже известные, обогатить подписью, положить в очередь
// и показать администратору.
type Pipeline struct {
	fetcher   Fetcher
	captioner Captioner
	store     StateStore
	notifier  Notifier
	clock     Clock
}

// NewPipeline создаёт новый экземпляр пайплайна.
func NewPipeline(deps PipelineDeps) *Pipeline {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Pipeline{
		fetcher:   deps.Fetcher,
		captioner: deps.Captioner,
		store:     deps.Store,
		notifier:  deps.Notifier,
		clock:     clock,
	}
}

// CheckReleases исполняет полный цикл проверки. Возвращает число новых
// постов, попавших в очередь модерации.
func (p *Pipeline) CheckReleases(ctx context.Context) (int, error) {
	if err := p.validateDeps(); err != nil {
		return 0, err
	}

	log.Println("Step 1: Fetching releases from sources...")
	items := p.fetcher.FetchAll(ctx)
	log.Printf("Fetched %d candidate posts", len(items))

	st := p.store.Get(ctx)

	log.Println("Step 2: Filtering known posts...")
	fresh := make([]post.Post, 0, len(items))
	for _, item := range items {
		if st.HasSentLink(item.Link) {
			continue
		}
		if _, ok := st.Pending[item.ID]; ok {
			continue
		}
		fresh = append(fresh, item)
	}
	log.Printf("After filtering: %d new posts", len(fresh))

	if len(fresh) == 0 {
		return 0, nil
	}

	log.Println("Step 3: Generating captions...")
	for i := range fresh {
		fresh[i].Description = p.captioner.Caption(ctx, fresh[i].Title, fresh[i].Context, fresh[i].Category)
	}

	log.Println("Step 4: Queueing for moderation...")
	err := p.store.Update(ctx, func(st *post.State) {
		for _, item := range fresh {
			st.Pending[item.ID] = item
		}
	})
	if err != nil {
		return 0, fmt.Errorf("queue posts: %w", err)
	}

	// Ошибка уведомления не откатывает очередь: пост останется в pending
	// и будет виден через /preview
	for _, item := range fresh {
		if err := p.notifier.NotifyNewPost(ctx, item); err != nil {
			log.Printf("Error notifying about post %s: %v", item.ID, err)
		}
	}

	return len(fresh), nil
}

func (p *Pipeline) validateDeps() error {
	switch {
	case p.fetcher == nil,
		p.captioner == nil,
		p.store == nil,
		p.notifier == nil,
		p.clock == nil:
		return ErrNotConfigured
	default:
		return nil
	}
}
