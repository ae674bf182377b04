// Package gemini инкапсулирует работу с Gemini API: генерация подписей
// к постам и обложек.
package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiClient определяет интерфейс для работы с Gemini API.
// Это позволяет легко создавать моки для тестирования.
type GeminiClient interface {
	GenerateText(ctx context.Context, model string, prompt string) (string, error)
	GenerateImage(ctx context.Context, model string, prompt string) ([]byte, error)
}

// Client инкапсулирует работу с Gemini API через официальный SDK.
type Client struct {
	client *genai.Client
}

// Убеждаемся, что Client реализует интерфейс GeminiClient.
var _ GeminiClient = (*Client)(nil)

// NewClient создаёт новый клиент для работы с Gemini API.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{client: client}, nil
}

// GenerateText отправляет запрос к Gemini API и возвращает текстовый ответ.
// model - имя модели (например, "gemini-2.5-flash")
// prompt - текстовый промпт для модели
// Включает обработку ошибок лимитов и retry-логику для временных ошибок (503, 500, 502, 504).
func (c *Client) GenerateText(ctx context.Context, model string, prompt string) (string, error) {
	var text string
	err := c.withRetries(ctx, func() error {
		result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
		if err != nil {
			return err
		}
		t, textErr := result.Text()
		if textErr != nil {
			return fmt.Errorf("get text from result: %w", textErr)
		}
		text = t
		return nil
	})
	return text, err
}

// GenerateImage генерирует изображение по промпту и возвращает PNG-байты.
func (c *Client) GenerateImage(ctx context.Context, model string, prompt string) ([]byte, error) {
	var image []byte
	err := c.withRetries(ctx, func() error {
		result, err := c.client.Models.GenerateImages(ctx, model, prompt, &genai.GenerateImagesConfig{
			NumberOfImages: genai.Ptr[int64](1),
		})
		if err != nil {
			return err
		}
		if len(result.GeneratedImages) == 0 || result.GeneratedImages[0].Image == nil {
			return fmt.Errorf("empty image response")
		}
		image = result.GeneratedImages[0].Image.ImageBytes
		return nil
	})
	return image, err
}

// withRetries выполняет запрос с учётом лимитов Gemini API.
// 429 RPM/TPM — пауза минута, 503 — пять минут, 500/502/504 —
// экспоненциальная задержка. Дневная квота (RPD) повторов не получает.
func (c *Client) withRetries(ctx context.Context, call func() error) error {
	const maxRetries = 5
	const baseDelay = 12 * time.Second              // минимум между запросами для RPM=5
	const serviceUnavailableDelay = 5 * time.Minute // модель перегружена (503)

	var lastErr error
	var isServiceUnavailable bool
	var isRateLimitRPMTPM bool
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			var delay time.Duration
			if isServiceUnavailable {
				delay = serviceUnavailableDelay
				log.Printf("Service unavailable (503) - waiting 5 minutes before retry (attempt %d/%d)...", attempt+1, maxRetries)
			} else if isRateLimitRPMTPM {
				delay = 1 * time.Minute
				log.Printf("Rate limit (RPM/TPM) - waiting 1 minute before retry (attempt %d/%d)...", attempt+1, maxRetries)
			} else {
				delay = baseDelay * time.Duration(attempt)
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				log.Printf("Retrying Gemini API request (attempt %d/%d) after %v...", attempt+1, maxRetries, delay)
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := call()
		if err == nil {
			return nil
		}

		lastErr = err
		errStr := err.Error()

		if isRPDQuotaError(errStr) {
			// Дневной лимит исчерпан - повторы бессмысленны
			log.Printf("CRITICAL: RPD quota exceeded (daily limit reached) - stopping retries: %v", err)
			return fmt.Errorf("gemini API RPD quota exceeded (daily limit reached): %w", err)
		}

		if isRateLimitError(errStr) {
			log.Printf("Rate limit error (RPM/TPM) from Gemini API: %v", err)
			isServiceUnavailable = false
			isRateLimitRPMTPM = true
			continue
		}

		isRateLimitRPMTPM = false

		if isServiceUnavailableError(errStr) {
			log.Printf("Service unavailable (503) from Gemini API - model overloaded: %v", err)
			isServiceUnavailable = true
			continue
		}

		if isTemporaryError(errStr) {
			log.Printf("Temporary error from Gemini API (500/502/504): %v", err)
			isServiceUnavailable = false
			continue
		}

		isServiceUnavailable = false

		if isQuotaExceededError(errStr) {
			return fmt.Errorf("gemini API quota exceeded: %w", err)
		}

		// Для остальных ошибок не повторяем
		return fmt.Errorf("generate content: %w", err)
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// rpdQuotaMarkers — признаки дневного лимита (RPD) в тексте 429-й ошибки.
// Метрики зависят от тарифа, список при необходимости расширяется.
var rpdQuotaMarkers = []string{
	"generate_content_free_tier_requests",
	"requests per day",
	"perday",
}

// isRPDQuotaError отличает исчерпание дневной квоты от обычного
// rate limit: и то и другое приходит как 429, но дневную квоту
// повторами не переждать.
func isRPDQuotaError(errStr string) bool {
	errLower := strings.ToLower(errStr)
	if !strings.Contains(errLower, "429") {
		return false
	}
	for _, marker := range rpdQuotaMarkers {
		if strings.Contains(errLower, marker) {
			return true
		}
	}
	return false
}

// isRateLimitError проверяет, является ли ошибка связанной с rate limit (RPM/TPM).
// Это 429 ошибка, но НЕ RPD (quota exceeded).
func isRateLimitError(errStr string) bool {
	errLower := strings.ToLower(errStr)
	if isRPDQuotaError(errStr) {
		return false
	}
	return strings.Contains(errLower, "rate limit") ||
		strings.Contains(errLower, "429") ||
		strings.Contains(errLower, "too many requests") ||
		strings.Contains(errLower, "resource exhausted")
}

// isServiceUnavailableError проверяет, является ли ошибка 503 (Service Unavailable).
func isServiceUnavailableError(errStr string) bool {
	errLower := strings.ToLower(errStr)
	return strings.Contains(errLower, "503") ||
		strings.Contains(errLower, "service unavailable") ||
		strings.Contains(errLower, "overloaded") ||
		strings.Contains(errLower, "model overloaded")
}

// isTemporaryError проверяет, является ли ошибка временной (500, 502, 504).
func isTemporaryError(errStr string) bool {
	errLower := strings.ToLower(errStr)
	return strings.Contains(errLower, "500") ||
		strings.Contains(errLower, "502") ||
		strings.Contains(errLower, "504") ||
		strings.Contains(errLower, "internal server error") ||
		strings.Contains(errLower, "bad gateway") ||
		strings.Contains(errLower, "gateway timeout")
}

// isQuotaExceededError проверяет, является ли ошибка связанной с превышением квоты.
func isQuotaExceededError(errStr string) bool {
	errLower := strings.ToLower(errStr)
	return strings.Contains(errLower, "quota") ||
		strings.Contains(errLower, "quota exceeded") ||
		strings.Contains(errLower, "daily limit") ||
		strings.Contains(errLower, "403")
}
