package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/thealinfix/hypebot/internal/post"
)

// Модели перебираются по порядку, пока одна не ответит.
var defaultTextModels = []string{
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-1.5-flash",
}

const defaultImageModel = "imagen-3.0-generate-002"

// imageStyle описывает шаблон промпта для обложки одной рубрики.
type imageStyle struct {
	promptTemplate string
	enhancement    string
}

var imageStyles = map[string]imageStyle{
	"sneakers": {
		promptTemplate: "Modern minimalist sneaker promotional image, %s, clean background, professional product photography, studio lighting, high quality, 4k",
		enhancement:    "professional photography, studio lighting, high quality, sharp focus, 4k resolution",
	},
	"fashion": {
		promptTemplate: "Fashion editorial style image, %s, trendy streetwear aesthetic, urban background, magazine quality",
		enhancement:    "fashion magazine style, editorial photography, trendy aesthetic, professional",
	},
	"thoughts": {
		promptTemplate: "Artistic abstract representation of %s, modern digital art, vibrant colors, emotional expression",
		enhancement:    "digital art, creative composition, vibrant colors, artistic interpretation",
	},
	"custom": {
		promptTemplate: "%s",
		enhancement:    "imaginative, unique perspective, creative design, eye-catching",
	},
}

const captionPrompt = `Ты — автор Telegram-канала про кроссовки и уличную моду. Твоя задача — писать короткие, цепляющие и стильные посты о релизах, трендах и коллаборациях.

ПРАВИЛА ИСПОЛЬЗОВАНИЯ ЭМОДЗИ:
- ТОЛЬКО один эмодзи в начале поста (настроение/тема)
- Можно добавить ОДИН эмодзи в конце (призыв/вопрос)
- НЕ используй эмодзи внутри текста
- Подходящие эмодзи для начала: 🔥 ⚡️ 💫 👟 🚨
- Подходящие для конца: 👀 🤔 💭

Пиши в нейтрально-молодёжном тоне: без пафоса, без канцелярита, без жаргона. Стиль — живой, лёгкий, современный.

Структура поста:
1. Начни с ОДНОГО эмодзи и цепляющей фразы (1-2 предложения)
2. Суть релиза: бренд, модель, особенности - БЕЗ эмодзи
3. Детали: материалы, цвета, что выделяет - БЕЗ эмодзи
4. Завершение: мнение или вопрос (можно добавить ОДИН эмодзи в конце)

Избегай: длинных текстов, технических деталей, рекламных клише.
Ответь только текстом поста, без пояснений. Максимум 600 символов.

Заголовок: %s
Детали: %s`

// Captioner реализует генерацию подписей и обложек постов.
type Captioner struct {
	client     GeminiClient
	textModels []string
	imageModel string
}

// NewCaptioner создаёт новый экземпляр.
func NewCaptioner(client GeminiClient) *Captioner {
	return &Captioner{
		client:     client,
		textModels: defaultTextModels,
		imageModel: defaultImageModel,
	}
}

// Caption генерирует подпись для поста. Модели перебираются по цепочке;
// если все недоступны, возвращается шаблонная подпись, чтобы публикация
// не останавливалась.
func (c *Captioner) Caption(ctx context.Context, title, context_ string, category post.Category) string {
	details := strings.TrimSpace(context_)
	if details == "" {
		details = "Нет информации"
	}
	prompt := fmt.Sprintf(captionPrompt, title, details)

	for _, model := range c.textModels {
		text, err := c.client.GenerateText(ctx, model, prompt)
		if err != nil {
			log.Printf("Error generating caption with %s: %v", model, err)
			continue
		}

		generated := strings.TrimSpace(text)
		if generated == "" {
			continue
		}
		log.Printf("Caption generated successfully with %s", model)

		// Заголовок добавляем, если модель его опустила
		if !strings.Contains(strings.ToLower(generated), strings.ToLower(title)) {
			generated = fmt.Sprintf("<b>%s</b>\n\n%s", title, generated)
		}
		return generated
	}

	log.Printf("All caption models failed for %q, using fallback", title)
	return FallbackCaption(title)
}

// FallbackCaption — шаблонная подпись на случай недоступности моделей.
func FallbackCaption(title string) string {
	return fmt.Sprintf("<b>%s</b>\n\n🔥 Новый релиз. Подробности скоро!", title)
}

// CoverImage генерирует обложку поста и возвращает PNG-байты.
// customPrompt, если задан, используется вместо шаблона рубрики.
func (c *Captioner) CoverImage(ctx context.Context, title string, category post.Category, customPrompt string) ([]byte, error) {
	var prompt string
	if customPrompt != "" {
		style := imageStyles["custom"]
		prompt = fmt.Sprintf("%s, %s", customPrompt, style.enhancement)
	} else {
		style, ok := imageStyles[string(category)]
		if !ok {
			style = imageStyles["sneakers"]
		}
		prompt = fmt.Sprintf(style.promptTemplate+", %s", title, style.enhancement)
	}

	log.Printf("Generating image with prompt: %s...", truncateForLog(prompt, 50))
	image, err := c.client.GenerateImage(ctx, c.imageModel, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	log.Printf("Image generated successfully (%d bytes)", len(image))
	return image, nil
}

func truncateForLog(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
