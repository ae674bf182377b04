// Package sources загружает и разбирает новости из настроенных
// источников (WordPress JSON API и RSS-ленты).
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/thealinfix/hypebot/internal/config"
	"github.com/thealinfix/hypebot/internal/post"
	"github.com/thealinfix/hypebot/internal/tags"
)

const (
	// maxItemsPerSource — сколько записей берём из одного источника за проход.
	maxItemsPerSource = 10
	// minTitleLength отсекает служебные и пустые заголовки.
	minTitleLength = 10
	// contextLimit — сколько символов описания сохраняем в посте.
	contextLimit = 500

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// sneakerKeywords — фильтр релевантности для RSS-источников рубрики sneakers.
var sneakerKeywords = []string{
	"nike", "adidas", "jordan", "yeezy", "new balance", "puma",
	"reebok", "vans", "converse", "asics", "sneaker", "shoe",
	"footwear", "release", "drop", "collab", "air max", "dunk",
	"trainer", "runner", "retro", "kicks", "sneakerhead",
}

// Fetcher обходит список источников и превращает их записи в посты.
type Fetcher struct {
	sources   []config.Source
	client    *http.Client
	clock     func() time.Time
	maxImages int
}

// NewFetcher создаёт новый экземпляр.
func NewFetcher(sources []config.Source, client *http.Client, clock func() time.Time, maxImages int) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if clock == nil {
		clock = time.Now
	}
	if maxImages <= 0 {
		maxImages = 10
	}
	return &Fetcher{
		sources:   sources,
		client:    client,
		clock:     clock,
		maxImages: maxImages,
	}
}

// FetchAll опрашивает все источники. Ошибка одного источника логируется,
// остальные продолжают обрабатываться. Дубликаты по нормализованному
// заголовку внутри одного прохода отбрасываются: первый выигрывает.
func (f *Fetcher) FetchAll(ctx context.Context) []post.Post {
	var results []post.Post
	seenTitles := map[string]struct{}{}

	for _, src := range f.sources {
		items, err := f.fetchSource(ctx, src, seenTitles)
		if err != nil {
			log.Printf("Error fetching %s: %v", src.Name, err)
			continue
		}
		log.Printf("Got %d posts from %s", len(items), src.Name)
		results = append(results, items...)
	}

	// Свежие первыми
	sort.Slice(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})

	return results
}

func (f *Fetcher) fetchSource(ctx context.Context, src config.Source, seenTitles map[string]struct{}) ([]post.Post, error) {
	body, err := f.get(ctx, src.API)
	if err != nil {
		return nil, err
	}

	switch src.Type {
	case config.SourceJSON:
		return f.parseJSONSource(src, body, seenTitles)
	case config.SourceRSS:
		return f.parseRSSSource(src, body, seenTitles)
	default:
		return nil, fmt.Errorf("unknown source type %q", src.Type)
	}
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/json, application/xml, text/xml, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// --- WordPress JSON API ---

type wpPost struct {
	Link     string     `json:"link"`
	Date     string     `json:"date"`
	Modified string     `json:"modified"`
	Title    wpRendered `json:"title"`
	Content  wpRendered `json:"content"`
	Embedded wpEmbedded `json:"_embedded"`
}

type wpRendered struct {
	Rendered string `json:"rendered"`
}

type wpEmbedded struct {
	FeaturedMedia []wpMedia `json:"wp:featuredmedia"`
}

type wpMedia struct {
	SourceURL string `json:"source_url"`
}

func (f *Fetcher) parseJSONSource(src config.Source, body []byte, seenTitles map[string]struct{}) ([]post.Post, error) {
	var items []wpPost
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}

	if len(items) > maxItemsPerSource {
		items = items[:maxItemsPerSource]
	}

	var results []post.Post
	for _, item := range items {
		if item.Link == "" {
			continue
		}

		title := CleanHTML(item.Title.Rendered)
		if len([]rune(title)) < minTitleLength {
			continue
		}
		if !claimTitle(title, seenTitles) {
			continue
		}

		timestamp := f.parseWPDate(item.Date, item.Modified)
		context := truncateRunes(CleanHTML(item.Content.Rendered), contextLimit)

		var images []string
		if len(item.Embedded.FeaturedMedia) > 0 {
			if u := item.Embedded.FeaturedMedia[0].SourceURL; IsValidImageURL(u) {
				images = append(images, u)
			}
		}

		results = append(results, f.newPost(src, title, item.Link, timestamp, context, images))
	}
	return results, nil
}

func (f *Fetcher) parseWPDate(date, modified string) time.Time {
	raw := date
	if raw == "" {
		raw = modified
	}
	for _, format := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(format, raw); err == nil {
			return t.UTC()
		}
	}
	return f.clock().UTC()
}

// --- RSS / Atom ---

func (f *Fetcher) parseRSSSource(src config.Source, body []byte, seenTitles map[string]struct{}) ([]post.Post, error) {
	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := feed.Items
	if len(items) > maxItemsPerSource {
		items = items[:maxItemsPerSource]
	}

	var results []post.Post
	for _, item := range items {
		if item.Link == "" {
			continue
		}

		title := CleanHTML(item.Title)
		if len([]rune(title)) < minTitleLength {
			continue
		}
		if !claimTitle(title, seenTitles) {
			continue
		}

		// Для кроссовочных лент отсекаем нерелевантные записи
		if src.Category == "sneakers" && !isSneakerRelated(title) {
			continue
		}

		timestamp := f.clock().UTC()
		if item.PublishedParsed != nil {
			timestamp = item.PublishedParsed.UTC()
		} else if item.UpdatedParsed != nil {
			timestamp = item.UpdatedParsed.UTC()
		}

		description := truncateRunes(CleanHTML(item.Description), contextLimit)

		var images []string
		if u := FirstImageURL(item.Description, item.Link); u != "" {
			images = append(images, u)
		} else if item.Image != nil && IsValidImageURL(item.Image.URL) {
			images = append(images, item.Image.URL)
		}

		results = append(results, f.newPost(src, title, item.Link, timestamp, description, images))
	}
	return results, nil
}

func (f *Fetcher) newPost(src config.Source, title, link string, timestamp time.Time, context string, images []string) post.Post {
	now := f.clock().UTC()
	return post.Post{
		ID:             post.MakeID(src.Key, link),
		Title:          truncateRunes(title, 200),
		Link:           strings.TrimSpace(link),
		Source:         src.Name,
		Category:       post.Category(src.Category),
		Timestamp:      timestamp,
		Context:        context,
		Images:         append([]string(nil), images...),
		OriginalImages: append([]string(nil), images...),
		Tags:           tags.Extract(title, context).ToMap(),
		Status:         post.StatusPending,
		NeedsParsing:   true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// claimTitle регистрирует заголовок в множестве текущего прохода.
// Возвращает false, если такой заголовок уже встречался.
func claimTitle(title string, seen map[string]struct{}) bool {
	key := strings.ToLower(strings.TrimSpace(title))
	if _, ok := seen[key]; ok {
		return false
	}
	seen[key] = struct{}{}
	return true
}

func isSneakerRelated(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range sneakerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// SourceStatus — результат проверки одного источника.
type SourceStatus struct {
	Name     string
	Type     config.SourceType
	Category string
	Items    int
	Err      error
}

// TestSources проверяет доступность всех источников и возвращает сводку.
func (f *Fetcher) TestSources(ctx context.Context) []SourceStatus {
	results := make([]SourceStatus, 0, len(f.sources))

	for _, src := range f.sources {
		status := SourceStatus{Name: src.Name, Type: src.Type, Category: src.Category}

		body, err := f.get(ctx, src.API)
		if err != nil {
			status.Err = err
			results = append(results, status)
			continue
		}

		switch src.Type {
		case config.SourceRSS:
			feed, err := gofeed.NewParser().ParseString(string(body))
			if err != nil {
				status.Err = err
			} else {
				status.Items = len(feed.Items)
			}
		case config.SourceJSON:
			var items []wpPost
			if err := json.Unmarshal(body, &items); err != nil {
				status.Err = err
			} else {
				status.Items = len(items)
			}
		}

		results = append(results, status)
	}
	return results
}
