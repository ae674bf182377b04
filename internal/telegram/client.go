// Package telegram — минимальный клиент Telegram Bot API поверх net/http.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TelegramClient определяет интерфейс для работы с Telegram Bot API.
// Это позволяет легко создавать моки для тестирования.
type TelegramClient interface {
	SendMessage(ctx context.Context, chatID string, text string, opts *SendOptions) (int64, error)
	SendPhoto(ctx context.Context, chatID string, photo string, caption string, opts *SendOptions) (int64, error)
	SendMediaGroup(ctx context.Context, chatID string, photos []string, caption string, parseMode string) error
	EditMessageText(ctx context.Context, chatID string, messageID int64, text string, opts *SendOptions) error
	DeleteMessage(ctx context.Context, chatID string, messageID int64) error
	AnswerCallbackQuery(ctx context.Context, callbackID string, text string) error
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error)
}

// Client инкапсулирует работу с Telegram Bot API.
type Client struct {
	token  string
	client *http.Client
	apiURL string
}

// Убеждаемся, что Client реализует интерфейс TelegramClient.
var _ TelegramClient = (*Client)(nil)

// NewClient создаёт клиента. token обязателен.
func NewClient(token string) *Client {
	return &Client{
		token: token,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		apiURL: fmt.Sprintf("https://api.telegram.org/bot%s", token),
	}
}

// SendMessage отправляет текстовое сообщение и возвращает его message_id.
func (c *Client) SendMessage(ctx context.Context, chatID string, text string, opts *SendOptions) (int64, error) {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	applyOptions(payload, opts)

	var msg Message
	if err := c.post(ctx, "sendMessage", payload, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// SendPhoto отправляет одно фото. photo — URL либо путь к локальному
// файлу; локальный файл загружается multipart-запросом.
func (c *Client) SendPhoto(ctx context.Context, chatID string, photo string, caption string, opts *SendOptions) (int64, error) {
	var msg Message

	if isRemote(photo) {
		payload := map[string]interface{}{
			"chat_id": chatID,
			"photo":   photo,
		}
		if caption != "" {
			payload["caption"] = caption
		}
		applyOptions(payload, opts)
		if err := c.post(ctx, "sendPhoto", payload, &msg); err != nil {
			return 0, err
		}
		return msg.MessageID, nil
	}

	fields := map[string]string{"chat_id": chatID}
	if caption != "" {
		fields["caption"] = caption
	}
	if opts != nil {
		if opts.ParseMode != "" {
			fields["parse_mode"] = opts.ParseMode
		}
		if opts.ReplyMarkup != nil {
			markup, err := json.Marshal(opts.ReplyMarkup)
			if err != nil {
				return 0, fmt.Errorf("marshal reply markup: %w", err)
			}
			fields["reply_markup"] = string(markup)
		}
	}

	if err := c.postMultipart(ctx, "sendPhoto", fields, map[string]string{"photo": photo}, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// SendMediaGroup отправляет альбом фотографий; подпись ставится на первое
// фото. Локальные файлы загружаются через attach://, URL передаются как есть.
func (c *Client) SendMediaGroup(ctx context.Context, chatID string, photos []string, caption string, parseMode string) error {
	if len(photos) == 0 {
		return fmt.Errorf("media group is empty")
	}

	media := make([]map[string]interface{}, 0, len(photos))
	files := map[string]string{}

	for i, photo := range photos {
		item := map[string]interface{}{"type": "photo"}
		if isRemote(photo) {
			item["media"] = photo
		} else {
			field := fmt.Sprintf("file%d", i)
			item["media"] = "attach://" + field
			files[field] = photo
		}
		if i == 0 && caption != "" {
			item["caption"] = caption
			if parseMode != "" {
				item["parse_mode"] = parseMode
			}
		}
		media = append(media, item)
	}

	if len(files) == 0 {
		payload := map[string]interface{}{
			"chat_id": chatID,
			"media":   media,
		}
		return c.post(ctx, "sendMediaGroup", payload, nil)
	}

	mediaJSON, err := json.Marshal(media)
	if err != nil {
		return fmt.Errorf("marshal media: %w", err)
	}
	fields := map[string]string{
		"chat_id": chatID,
		"media":   string(mediaJSON),
	}
	return c.postMultipart(ctx, "sendMediaGroup", fields, files, nil)
}

// EditMessageText меняет текст уже отправленного сообщения.
func (c *Client) EditMessageText(ctx context.Context, chatID string, messageID int64, text string, opts *SendOptions) error {
	payload := map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}
	applyOptions(payload, opts)
	return c.post(ctx, "editMessageText", payload, nil)
}

// DeleteMessage удаляет сообщение.
func (c *Client) DeleteMessage(ctx context.Context, chatID string, messageID int64) error {
	payload := map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
	}
	return c.post(ctx, "deleteMessage", payload, nil)
}

// AnswerCallbackQuery подтверждает нажатие инлайн-кнопки.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID string, text string) error {
	payload := map[string]interface{}{
		"callback_query_id": callbackID,
	}
	if text != "" {
		payload["text"] = text
	}
	return c.post(ctx, "answerCallbackQuery", payload, nil)
}

// GetUpdates получает входящие обновления, начиная с offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	params := url.Values{}
	if offset > 0 {
		params.Set("offset", fmt.Sprintf("%d", offset))
	}
	if timeout <= 0 {
		timeout = 5
	}
	params.Set("timeout", fmt.Sprintf("%d", timeout))

	var updates []Update
	if err := c.get(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func applyOptions(payload map[string]interface{}, opts *SendOptions) {
	if opts == nil {
		return
	}
	if opts.ParseMode != "" {
		payload["parse_mode"] = opts.ParseMode
	}
	if opts.ReplyMarkup != nil {
		payload["reply_markup"] = opts.ReplyMarkup
	}
	if opts.DisableWebPagePreview {
		payload["disable_web_page_preview"] = true
	}
}

func isRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

func (c *Client) post(ctx context.Context, method string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/"+method, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, method, out)
}

func (c *Client) postMultipart(ctx context.Context, method string, fields map[string]string, files map[string]string, out interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return fmt.Errorf("write field %s: %w", name, err)
		}
	}

	for field, path := range files {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		part, err := writer.CreateFormFile(field, filepath.Base(path))
		if err != nil {
			file.Close()
			return fmt.Errorf("create form file %s: %w", field, err)
		}
		if _, err := io.Copy(part, file); err != nil {
			file.Close()
			return fmt.Errorf("copy %s: %w", path, err)
		}
		file.Close()
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/"+method, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(req, method, out)
}

func (c *Client) get(ctx context.Context, method string, params url.Values, out interface{}) error {
	u := c.apiURL + "/" + method
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	return c.do(req, method, out)
}

// do выполняет запрос и разбирает общую обёртку ответа Bot API.
// Ошибки API возвращаются вместе с description (например, "chat not found").
func (c *Client) do(req *http.Request, method string, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var api apiResponse
	if err := json.Unmarshal(body, &api); err != nil {
		return fmt.Errorf("telegram %s: status %d: %w", method, resp.StatusCode, err)
	}
	if !api.OK {
		return fmt.Errorf("telegram %s: %s", method, api.Description)
	}

	if out == nil || len(api.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(api.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}
