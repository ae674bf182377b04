package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	// retryAttempts - количество попыток отправки при ошибке
	retryAttempts = 3
	// retryDelay - задержка между попытками
	retryDelay = 2 * time.Second
)

// SendMessageWithRetry отправляет сообщение с повторными попытками
// при временных ошибках.
func SendMessageWithRetry(ctx context.Context, client TelegramClient, chatID string, text string, opts *SendOptions) (int64, error) {
	var messageID int64
	err := withRetry(ctx, func() error {
		id, err := client.SendMessage(ctx, chatID, text, opts)
		if err != nil {
			return err
		}
		messageID = id
		return nil
	})
	return messageID, err
}

// SendMediaGroupWithRetry отправляет альбом с повторными попытками.
func SendMediaGroupWithRetry(ctx context.Context, client TelegramClient, chatID string, photos []string, caption string, parseMode string) error {
	return withRetry(ctx, func() error {
		return client.SendMediaGroup(ctx, chatID, photos, caption, parseMode)
	})
}

// withRetry выполняет отправку с экспоненциальной задержкой между
// попытками. Непоправимые ошибки (чат не найден, бот заблокирован)
// возвращаются сразу.
func withRetry(ctx context.Context, send func() error) error {
	var lastErr error

	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			delay := retryDelay * time.Duration(attempt)
			if delay > 10*time.Second {
				delay = 10 * time.Second
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := send()
		if err == nil {
			return nil
		}

		lastErr = err

		if !isRetryableError(err) {
			return err
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryableError определяет, можно ли повторить отправку при данной ошибке.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()

	// Ошибки, при которых повтор не поможет
	nonRetryableErrors := []string{
		"chat not found",
		"bot was blocked",
		"user is deactivated",
		"chat_id is empty",
		"message is too long",
		"bad request",
	}

	for _, nonRetryable := range nonRetryableErrors {
		if containsIgnoreCase(errStr, nonRetryable) {
			return false
		}
	}

	// По умолчанию считаем ошибку повторяемой (сетевые ошибки, временные проблемы API)
	return true
}

// containsIgnoreCase проверяет, содержит ли строка подстроку (без учёта регистра).
func containsIgnoreCase(s, substr string) bool {
	s = strings.ToLower(s)
	substr = strings.ToLower(substr)
	return strings.Contains(s, substr)
}
