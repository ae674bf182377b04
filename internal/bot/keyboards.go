package bot

import (
	"fmt"

	"github.com/thealinfix/hypebot/internal/telegram"
)

func btn(text, data string) telegram.InlineKeyboardButton {
	return telegram.InlineKeyboardButton{Text: text, CallbackData: data}
}

// moderationKeyboard — действия над постом в очереди модерации.
func moderationKeyboard(postID string, isFavorite bool) *telegram.InlineKeyboardMarkup {
	favText := "☆ В избранное"
	if isFavorite {
		favText = "⭐️ Из избранного"
	}
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{btn("✅ Опубликовать", "approve:"+postID)},
			{btn("🔄 Перегенерировать текст", "regen:"+postID)},
			{
				btn("🎨 Генерировать обложку", "genimage:"+postID),
				btn("✏️ Свой промпт", "prompt:"+postID),
			},
			{
				btn("↩️ Вернуть оригинал", "revert:"+postID),
				btn("❌ Пропустить", "reject:"+postID),
			},
			{
				btn("⏰ Запланировать", "schedule:"+postID),
				btn(favText, "favorite:"+postID),
			},
		},
	}
}

// previewKeyboard — навигация по очереди постов.
func previewKeyboard(idx, total int, postID string, isFavorite bool) *telegram.InlineKeyboardMarkup {
	var nav []telegram.InlineKeyboardButton
	if idx > 0 {
		nav = append(nav, btn("◀️ Назад", fmt.Sprintf("preview:%d", idx-1)))
	}
	nav = append(nav, btn(fmt.Sprintf("%d/%d", idx+1, total), "noop"))
	if idx < total-1 {
		nav = append(nav, btn("Вперед ▶️", fmt.Sprintf("preview:%d", idx+1)))
	}

	favText := "☆"
	if isFavorite {
		favText = "⭐️"
	}

	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			nav,
			{
				btn("👁 Полный просмотр", "full:"+postID),
				btn(favText, "favorite:"+postID),
			},
			{
				btn("🎨 Генерировать обложку", "genimage:"+postID),
				btn("⏰ Запланировать", "schedule:"+postID),
			},
			{btn("❌ Закрыть", "preview_close")},
		},
	}
}

// settingsKeyboard — меню настроек.
func settingsKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{btn("📢 Изменить канал", "settings_channel")},
			{btn("🕐 Часовой пояс", "settings_timezone")},
			{btn("🤖 Авто-публикация", "auto_menu")},
		},
	}
}

// autoPublishKeyboard — меню автопубликации.
func autoPublishKeyboard(enabled bool) *telegram.InlineKeyboardMarkup {
	toggleText := "🟢 Включить"
	if enabled {
		toggleText = "🔴 Выключить"
	}
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{btn(toggleText, "auto_toggle")},
			{
				btn("30 мин", "auto_interval:1800"),
				btn("1 час", "auto_interval:3600"),
				btn("2 часа", "auto_interval:7200"),
			},
			{btn("⏱ Свой интервал", "auto_custom")},
		},
	}
}

// scheduledKeyboard — действия над запланированными постами.
func scheduledKeyboard(postIDs []string) *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(postIDs))
	for _, id := range postIDs {
		rows = append(rows, []telegram.InlineKeyboardButton{
			btn("🗑 Удалить", "unschedule:"+id),
		})
	}
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// cancelKeyboard — единственная кнопка отмены ввода.
func cancelKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{btn("❌ Отмена", "cancel")},
		},
	}
}
