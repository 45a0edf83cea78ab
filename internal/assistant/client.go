// Package assistant реализует REST-клиент assistant API для чата поддержки:
// создание треда, добавление сообщения, запуск ассистента, опрос запуска
// и чтение последнего ответа.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Client клиент assistant API.
type Client struct {
	apiKey      string
	apiURL      string
	assistantID string
	httpClient  *http.Client
}

// NewClient создаёт новый клиент assistant API.
func NewClient(apiURL, apiKey, assistantID string) *Client {
	return &Client{
		apiKey:      apiKey,
		apiURL:      apiURL,
		assistantID: assistantID,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, result any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OpenAI-Beta", "assistants=v2")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return errors.New("unexpected status: " + resp.Status)
	}
	if result == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

// CreateThread создаёт новый тред разговора.
func (c *Client) CreateThread(ctx context.Context) (*Thread, error) {
	var thread Thread
	if err := c.do(ctx, "POST", "/threads", map[string]any{}, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// AddMessage добавляет сообщение пользователя в тред.
func (c *Client) AddMessage(ctx context.Context, threadID, text string) error {
	body := map[string]string{
		"role":    "user",
		"content": text,
	}
	return c.do(ctx, "POST", "/threads/"+threadID+"/messages", body, nil)
}

// CreateRun запускает ассистента на треде.
func (c *Client) CreateRun(ctx context.Context, threadID string) (*Run, error) {
	body := map[string]string{
		"assistant_id": c.assistantID,
	}
	var run Run
	if err := c.do(ctx, "POST", "/threads/"+threadID+"/runs", body, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRun возвращает текущее состояние запуска.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var run Run
	if err := c.do(ctx, "GET", "/threads/"+threadID+"/runs/"+runID, nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// WaitRun опрашивает запуск до завершения с заданным интервалом.
// Отмена контекста прекращает опрос.
func (c *Client) WaitRun(ctx context.Context, threadID, runID string, interval time.Duration) (*Run, error) {
	const op = "assistant.WaitRun"
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-ticker.C:
			run, err := c.GetRun(ctx, threadID, runID)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			switch run.Status {
			case RunStatusCompleted:
				return run, nil
			case RunStatusFailed, RunStatusCancelled, RunStatusExpired:
				return nil, fmt.Errorf("%s: run finished with status %s", op, run.Status)
			}
		}
	}
}

// LatestAssistantReply возвращает текст последнего ответа ассистента в треде.
func (c *Client) LatestAssistantReply(ctx context.Context, threadID string) (string, error) {
	const op = "assistant.LatestAssistantReply"
	var list MessageList
	if err := c.do(ctx, "GET", "/threads/"+threadID+"/messages?order=desc&limit=10", nil, &list); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	for _, msg := range list.Data {
		if msg.Role != "assistant" {
			continue
		}
		for _, content := range msg.Content {
			if content.Type == "text" {
				return content.Text.Value, nil
			}
		}
	}
	return "", fmt.Errorf("%s: no assistant reply found", op)
}
