package post

import "time"

// AwaitKind перечисляет виды ожидаемого текстового ввода администратора.
type AwaitKind string

const (
	AwaitNone     AwaitKind = ""
	AwaitChannel  AwaitKind = "channel"
	AwaitTimezone AwaitKind = "timezone"
	AwaitSchedule AwaitKind = "schedule"
	AwaitPrompt   AwaitKind = "prompt"
	AwaitInterval AwaitKind = "interval"
)

// AwaitingInput — единственный слот диалогового состояния администратора.
// Одновременно активен максимум один вид ожидания; отдельные булевые
// флаги на каждый сценарий не заводятся.
type AwaitingInput struct {
	Kind   AwaitKind `json:"kind,omitempty"`
	PostID string    `json:"post_id,omitempty"`
}

// Active сообщает, ждёт ли бот текстового ввода.
func (a AwaitingInput) Active() bool {
	return a.Kind != AwaitNone
}

// ScheduledPost — запись очереди отложенной публикации.
// Пост встраивается целиком, чтобы публикация не зависела от pending.
type ScheduledPost struct {
	Time   time.Time `json:"time"`
	Record Post      `json:"record"`
}

// State — всё состояние бота, сериализуемое в один JSON-файл.
type State struct {
	Pending   map[string]Post          `json:"pending"`
	Scheduled map[string]ScheduledPost `json:"scheduled_posts"`
	Favorites []string                 `json:"favorites"`
	SentLinks []string                 `json:"sent_links"`

	Channel  string `json:"channel"`
	Timezone string `json:"timezone"`

	AutoPublish     bool       `json:"auto_publish"`
	PublishInterval int        `json:"publish_interval"` // секунды между автопубликациями
	LastAutoPublish *time.Time `json:"last_auto_publish,omitempty"`

	Awaiting AwaitingInput `json:"awaiting_input"`
}

// IsFavorite проверяет, отмечен ли пост как избранный.
func (s State) IsFavorite(postID string) bool {
	for _, id := range s.Favorites {
		if id == postID {
			return true
		}
	}
	return false
}

// HasSentLink проверяет, публиковалась ли уже эта ссылка.
func (s State) HasSentLink(link string) bool {
	for _, l := range s.SentLinks {
		if l == link {
			return true
		}
	}
	return false
}

// Clone возвращает глубокую копию состояния.
func (s State) Clone() State {
	c := s
	c.Pending = make(map[string]Post, len(s.Pending))
	for id, p := range s.Pending {
		c.Pending[id] = p.Clone()
	}
	c.Scheduled = make(map[string]ScheduledPost, len(s.Scheduled))
	for id, sp := range s.Scheduled {
		c.Scheduled[id] = ScheduledPost{Time: sp.Time, Record: sp.Record.Clone()}
	}
	c.Favorites = append([]string(nil), s.Favorites...)
	c.SentLinks = append([]string(nil), s.SentLinks...)
	if s.LastAutoPublish != nil {
		t := *s.LastAutoPublish
		c.LastAutoPublish = &t
	}
	return c
}
