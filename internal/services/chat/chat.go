// Package chat реализует чат поддержки поверх внешнего assistant API.
// Идентификатор треда пользователя хранится в Redis с явным TTL,
// поэтому переживает рестарт процесса и истекает сам.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/traderelay/traderelay/internal/assistant"
	"github.com/traderelay/traderelay/internal/config"
)

// AssistantAPI описывает контракт клиента assistant API.
type AssistantAPI interface {
	CreateThread(ctx context.Context) (*assistant.Thread, error)
	AddMessage(ctx context.Context, threadID, text string) error
	CreateRun(ctx context.Context, threadID string) (*assistant.Run, error)
	WaitRun(ctx context.Context, threadID, runID string, interval time.Duration) (*assistant.Run, error)
	LatestAssistantReply(ctx context.Context, threadID string) (string, error)
}

// ThreadStore хранит идентификаторы тредов по ключу с TTL.
type ThreadStore interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// ChatService пересылает сообщения пользователя ассистенту и возвращает ответ.
type ChatService struct {
	api     AssistantAPI
	threads ThreadStore
	cfg     config.Assistant
	log     *slog.Logger
}

// NewChatService создает новый экземпляр ChatService.
func NewChatService(api AssistantAPI, threads ThreadStore, cfg config.Assistant, log *slog.Logger) *ChatService {
	return &ChatService{
		api:     api,
		threads: threads,
		cfg:     cfg,
		log:     log,
	}
}

func threadKey(userUID string) string {
	return "chat:thread:" + userUID
}

// SendMessage добавляет сообщение в тред пользователя (создавая тред при
// необходимости), запускает ассистента и возвращает его ответ.
// TTL ключа треда продлевается при каждом обращении.
func (s *ChatService) SendMessage(ctx context.Context, userUID, text string) (string, error) {
	const op = "services.chat.SendMessage"

	threadID, err := s.getOrCreateThread(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.api.AddMessage(ctx, threadID, text); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	run, err := s.api.CreateRun(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.RunPollTimeout)
	defer cancel()
	if _, err := s.api.WaitRun(waitCtx, threadID, run.ID, s.cfg.RunPollInterval); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	reply, err := s.api.LatestAssistantReply(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return reply, nil
}

// Reset удаляет сохранённый тред пользователя: следующий вопрос начнёт новый разговор.
func (s *ChatService) Reset(ctx context.Context, userUID string) error {
	return s.threads.Invalidate(ctx, threadKey(userUID))
}

func (s *ChatService) getOrCreateThread(ctx context.Context, userUID string) (string, error) {
	key := threadKey(userUID)

	var threadID string
	found, err := s.threads.Get(ctx, key, &threadID)
	if err != nil {
		return "", err
	}
	if !found {
		thread, err := s.api.CreateThread(ctx)
		if err != nil {
			return "", err
		}
		threadID = thread.ID
		s.log.Info("assistant thread created",
			slog.String("user_uid", userUID),
			slog.String("thread_id", threadID))
	}

	if err := s.threads.Set(ctx, key, threadID, s.cfg.ThreadTTL); err != nil {
		return "", err
	}
	return threadID, nil
}
