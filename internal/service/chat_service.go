package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"promptly/internal/domain"
	"promptly/internal/repository"
)

// ChatService maneja el ciclo de vida de los chats, incluido el borrado en
// cascada de mensajes y entradas de memoria.
type ChatService struct {
	logger   *zap.Logger
	chats    repository.ChatRepository
	messages repository.MessageRepository
	memory   repository.MemoryIndex
}

var (
	ErrChatNotFound     = errors.New("chat not found")
	ErrChatInvalidInput = errors.New("chat invalid input")
)

func NewChatService(
	logger *zap.Logger,
	chats repository.ChatRepository,
	messages repository.MessageRepository,
	memory repository.MemoryIndex,
) *ChatService {
	return &ChatService{
		logger:   logger,
		chats:    chats,
		messages: messages,
		memory:   memory,
	}
}

func (s *ChatService) Create(ctx context.Context, userID, title string) (domain.Chat, error) {
	userID = strings.TrimSpace(userID)
	title = strings.TrimSpace(title)
	if userID == "" || title == "" {
		return domain.Chat{}, ErrChatInvalidInput
	}

	now := time.Now().UTC()
	chat := domain.Chat{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        title,
		LastActivity: now,
		CreatedAt:    now,
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return domain.Chat{}, err
	}
	return chat, nil
}

func (s *ChatService) ListByUser(ctx context.Context, userID string) ([]domain.Chat, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return []domain.Chat{}, nil
	}
	chats, err := s.chats.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if chats == nil {
		chats = []domain.Chat{}
	}
	return chats, nil
}

// History devuelve el historial completo de un chat del usuario, del mas
// antiguo al mas nuevo.
func (s *ChatService) History(ctx context.Context, userID, chatID string) ([]domain.Message, error) {
	if _, err := s.ownedChat(ctx, userID, chatID); err != nil {
		return nil, err
	}
	messages, err := s.messages.ListByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// Delete elimina el chat en cascada: primero intenta limpiar los vectores de
// memoria (best-effort), luego borra mensajes y finalmente el chat. Un fallo
// del indice vectorial no bloquea el borrado de filas.
func (s *ChatService) Delete(ctx context.Context, userID, chatID string) error {
	if _, err := s.ownedChat(ctx, userID, chatID); err != nil {
		return err
	}

	ids, err := s.messages.ListIDsByChatID(ctx, chatID)
	if err != nil {
		return err
	}
	if s.memory != nil {
		s.memory.DeleteMany(ctx, ids)
	}
	if err := s.messages.DeleteByChatID(ctx, chatID); err != nil {
		return err
	}
	return s.chats.Delete(ctx, chatID)
}

func (s *ChatService) ownedChat(ctx context.Context, userID, chatID string) (domain.Chat, error) {
	userID = strings.TrimSpace(userID)
	chatID = strings.TrimSpace(chatID)
	if userID == "" || chatID == "" {
		return domain.Chat{}, ErrChatInvalidInput
	}
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Chat{}, ErrChatNotFound
		}
		return domain.Chat{}, err
	}
	if chat.UserID != userID {
		return domain.Chat{}, ErrChatNotFound
	}
	return chat, nil
}
