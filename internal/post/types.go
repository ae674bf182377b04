package post

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// Status описывает этап жизненного цикла поста.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusPublished Status = "published"
	StatusScheduled Status = "scheduled"
	StatusFailed    Status = "failed"
)

// Category — рубрика поста.
type Category string

const (
	CategorySneakers Category = "sneakers"
	CategoryFashion  Category = "fashion"
	CategoryThoughts Category = "thoughts"
)

// Post описывает одну найденную новость-кандидата на публикацию.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Source    string    `json:"source"`
	Category  Category  `json:"category"`
	Timestamp time.Time `json:"timestamp"`

	// Контент
	Context     string `json:"context,omitempty"`
	Description string `json:"description,omitempty"`

	// Изображения: сгенерированные имеют приоритет при показе
	Images          []string `json:"images,omitempty"`
	OriginalImages  []string `json:"original_images,omitempty"`
	GeneratedImages []string `json:"generated_images,omitempty"`

	// Теги: brand/model/type/color -> найденные значения
	Tags map[string][]string `json:"tags,omitempty"`

	Status       Status `json:"status"`
	NeedsParsing bool   `json:"needs_parsing"`

	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`

	// Счётчики аналитики (пока только хранятся)
	Views int `json:"views"`
	Likes int `json:"likes"`
}

// MakeID строит стабильный идентификатор поста из ключа источника и ссылки.
// Одна и та же пара (source, link) всегда даёт один и тот же id.
func MakeID(sourceKey, link string) string {
	h := md5.Sum([]byte(fmt.Sprintf("%s|%s", sourceKey, link)))
	return hex.EncodeToString(h[:])[:12]
}

// Valid проверяет наличие обязательных полей. Записи без них
// отбрасываются при загрузке состояния.
func (p Post) Valid() bool {
	return p.ID != "" && p.Title != "" && p.Link != ""
}

// Touch обновляет отметку последнего изменения.
func (p *Post) Touch(now time.Time) {
	p.UpdatedAt = now.UTC()
}

// MarkPublished переводит пост в статус published.
func (p *Post) MarkPublished(now time.Time) {
	now = now.UTC()
	p.Status = StatusPublished
	p.PublishedAt = &now
	p.Touch(now)
}

// MarkScheduled переводит пост в статус scheduled на указанное время.
func (p *Post) MarkScheduled(at, now time.Time) {
	at = at.UTC()
	p.Status = StatusScheduled
	p.ScheduledTime = &at
	p.Touch(now)
}

// AddGeneratedImage добавляет сгенерированное изображение без дублей.
func (p *Post) AddGeneratedImage(url string, now time.Time) {
	for _, existing := range p.GeneratedImages {
		if existing == url {
			return
		}
	}
	p.GeneratedImages = append(p.GeneratedImages, url)
	p.Touch(now)
}

// ClearGeneratedImages удаляет все сгенерированные изображения.
func (p *Post) ClearGeneratedImages(now time.Time) {
	p.GeneratedImages = nil
	p.Touch(now)
}

// AllImages возвращает изображения в порядке показа:
// сначала сгенерированные, потом оригинальные.
func (p Post) AllImages() []string {
	all := make([]string, 0, len(p.GeneratedImages)+len(p.OriginalImages))
	all = append(all, p.GeneratedImages...)
	all = append(all, p.OriginalImages...)
	return all
}

// DisplayImages возвращает не более max изображений для показа.
func (p Post) DisplayImages(max int) []string {
	all := p.AllImages()
	if max > 0 && len(all) > max {
		all = all[:max]
	}
	return all
}

// HasImages сообщает, есть ли у поста хоть одно изображение.
func (p Post) HasImages() bool {
	return len(p.Images) > 0 || len(p.OriginalImages) > 0 || len(p.GeneratedImages) > 0
}

// AgeDays возвращает возраст поста в сутках относительно now.
func (p Post) AgeDays(now time.Time) int {
	if p.Timestamp.IsZero() {
		return 0
	}
	age := now.Sub(p.Timestamp)
	if age < 0 {
		return 0
	}
	return int(age.Hours() / 24)
}

// IsOld сообщает, старше ли пост maxAgeDays суток.
func (p Post) IsOld(maxAgeDays int, now time.Time) bool {
	return p.AgeDays(now) > maxAgeDays
}

// PreviewText возвращает краткий текст для предпросмотра.
func (p Post) PreviewText(maxLen int) string {
	text := p.Description
	if text == "" {
		text = p.Context
	}
	if text == "" {
		text = p.Title
	}
	runes := []rune(text)
	if maxLen <= 0 || len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// PreviewTitle возвращает заголовок, укороченный для уведомлений.
func (p Post) PreviewTitle() string {
	runes := []rune(p.Title)
	if len(runes) <= 50 {
		return p.Title
	}
	return string(runes[:50]) + "..."
}

// Clone возвращает глубокую копию поста.
func (p Post) Clone() Post {
	c := p
	c.Images = append([]string(nil), p.Images...)
	c.OriginalImages = append([]string(nil), p.OriginalImages...)
	c.GeneratedImages = append([]string(nil), p.GeneratedImages...)
	if p.Tags != nil {
		c.Tags = make(map[string][]string, len(p.Tags))
		for k, v := range p.Tags {
			c.Tags[k] = append([]string(nil), v...)
		}
	}
	if p.ScheduledTime != nil {
		t := *p.ScheduledTime
		c.ScheduledTime = &t
	}
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		c.PublishedAt = &t
	}
	return c
}
