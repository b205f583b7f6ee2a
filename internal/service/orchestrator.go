package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"promptly/internal/domain"
	"promptly/internal/llm"
	"promptly/internal/repository"
)

// InboundMessage es el payload del evento ai-message.
type InboundMessage struct {
	Content string `json:"content"`
	ChatID  string `json:"chat"`
}

// OutboundMessage es el payload del evento ai-message-response.
type OutboundMessage struct {
	Content string `json:"content"`
	ChatID  string `json:"chat"`
}

var (
	ErrInvalidPayload = errors.New("invalid message payload")
	ErrPersistence    = errors.New("persistence failed")
	ErrEmbedding      = errors.New("embedding failed")
	ErrGeneration     = errors.New("generation failed")
)

// MessageOrchestrator ejecuta el pipeline completo por mensaje entrante:
// persistir el turno del usuario, vectorizarlo, recuperar memoria, armar el
// contexto, generar la respuesta, emitirla y registrar el turno del modelo.
// Las operaciones independientes de cada etapa se despachan en paralelo y se
// juntan antes de avanzar.
type MessageOrchestrator struct {
	logger    *zap.Logger
	chats     repository.ChatRepository
	messages  repository.MessageRepository
	memory    repository.MemoryIndex
	generator llm.Generator
	assembler MemoryAssembler
	locks     *chatLocks

	shortTermLimit int
	memoryTopK     int
	embedTimeout   time.Duration
	memoryTimeout  time.Duration
	genTimeout     time.Duration
	writeTimeout   time.Duration
}

func NewMessageOrchestrator(
	logger *zap.Logger,
	chats repository.ChatRepository,
	messages repository.MessageRepository,
	memory repository.MemoryIndex,
	generator llm.Generator,
) *MessageOrchestrator {
	return &MessageOrchestrator{
		logger:         logger,
		chats:          chats,
		messages:       messages,
		memory:         memory,
		generator:      generator,
		assembler:      NewMemoryAssembler(3),
		locks:          newChatLocks(),
		shortTermLimit: 3,
		memoryTopK:     3,
		embedTimeout:   30 * time.Second,
		memoryTimeout:  5 * time.Second,
		genTimeout:     60 * time.Second,
		writeTimeout:   30 * time.Second,
	}
}

// Handle procesa un mensaje de principio a fin y llama a emit exactamente una
// vez si hay respuesta. Cualquier fallo antes de la generacion aborta el
// pipeline sin emitir nada; el mensaje del usuario ya persistido se conserva.
// Los fallos posteriores a la emision solo se registran.
//
// Los pipelines del mismo chat se serializan: a lo sumo uno en vuelo por chat.
func (o *MessageOrchestrator) Handle(ctx context.Context, user domain.User, in InboundMessage, emit func(OutboundMessage)) error {
	content := strings.TrimSpace(in.Content)
	chatID := strings.TrimSpace(in.ChatID)
	if content == "" || chatID == "" {
		return ErrInvalidPayload
	}

	o.locks.lock(chatID)
	defer o.locks.unlock(chatID)

	userMsg := domain.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		UserID:    user.ID,
		Content:   content,
		Role:      domain.RoleUser,
		CreatedAt: time.Now().UTC(),
	}

	// Persistencia y embedding del turno del usuario son independientes;
	// ambos deben completar antes de consultar memoria.
	var (
		persistErr error
		vector     []float32
		embedErr   error
	)
	wg := conc.NewWaitGroup()
	wg.Go(func() {
		if persistErr = o.messages.Create(ctx, userMsg); persistErr != nil {
			return
		}
		if err := o.chats.TouchLastActivity(ctx, chatID, userMsg.CreatedAt); err != nil {
			o.logger.Warn("touch last activity failed", zap.Error(err), zap.String("chat_id", chatID))
		}
	})
	wg.Go(func() {
		ectx, cancel := context.WithTimeout(ctx, o.embedTimeout)
		defer cancel()
		vector, embedErr = o.generator.Embed(ectx, content)
	})
	wg.Wait()

	if persistErr != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, persistErr)
	}
	if embedErr != nil {
		return fmt.Errorf("%w: %v", ErrEmbedding, embedErr)
	}

	// Consulta de memoria, historial reciente y upsert del turno del usuario
	// corren en paralelo. La memoria es best-effort: si falla, se degrada a un
	// bloque vacio. El upsert puede perder la carrera contra la consulta sin
	// problema: el turno actual no necesita recuperarse a si mismo.
	var (
		matches   []domain.MemoryMatch
		recent    []domain.Message
		recentErr error
	)
	wg = conc.NewWaitGroup()
	wg.Go(func() {
		mctx, cancel := context.WithTimeout(ctx, o.memoryTimeout)
		defer cancel()
		found, err := o.memory.Query(mctx, vector, o.memoryTopK, user.ID)
		if err != nil {
			o.logger.Warn("memory query failed", zap.Error(err), zap.String("chat_id", chatID))
			return
		}
		matches = found
	})
	wg.Go(func() {
		recent, recentErr = o.messages.ListRecent(ctx, chatID, o.shortTermLimit)
	})
	wg.Go(func() {
		mctx, cancel := context.WithTimeout(ctx, o.memoryTimeout)
		defer cancel()
		err := o.memory.Upsert(mctx, domain.MemoryEntry{
			MessageID: userMsg.ID,
			ChatID:    chatID,
			UserID:    user.ID,
			Text:      content,
			Embedding: vector,
		})
		if err != nil {
			o.logger.Warn("memory upsert failed", zap.Error(err), zap.String("message_id", userMsg.ID))
		}
	})
	wg.Wait()

	if recentErr != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, recentErr)
	}

	turns := o.assembler.Build(recent, matches)

	gctx, cancel := context.WithTimeout(ctx, o.genTimeout)
	defer cancel()
	reply, err := o.generator.GenerateReply(gctx, turns)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	if emit != nil {
		emit(OutboundMessage{Content: reply, ChatID: chatID})
	}

	o.recordAssistantTurn(user, chatID, reply)
	return nil
}

// recordAssistantTurn persiste y vectoriza la respuesta ya emitida. El usuario
// ya tiene su respuesta: aqui nada es fatal, solo se registra. Usa un contexto
// propio para que una desconexion no cancele las escrituras.
func (o *MessageOrchestrator) recordAssistantTurn(user domain.User, chatID, reply string) {
	ctx, cancel := context.WithTimeout(context.Background(), o.writeTimeout)
	defer cancel()

	modelMsg := domain.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		UserID:    user.ID,
		Content:   reply,
		Role:      domain.RoleModel,
		CreatedAt: time.Now().UTC(),
	}

	wg := conc.NewWaitGroup()
	wg.Go(func() {
		if err := o.messages.Create(ctx, modelMsg); err != nil {
			o.logger.Error("persist assistant message failed", zap.Error(err), zap.String("chat_id", chatID))
		}
	})
	wg.Go(func() {
		vector, err := o.generator.Embed(ctx, reply)
		if err != nil {
			o.logger.Warn("embed assistant message failed", zap.Error(err), zap.String("message_id", modelMsg.ID))
			return
		}
		err = o.memory.Upsert(ctx, domain.MemoryEntry{
			MessageID: modelMsg.ID,
			ChatID:    chatID,
			UserID:    user.ID,
			Text:      reply,
			Embedding: vector,
		})
		if err != nil {
			o.logger.Warn("memory upsert failed", zap.Error(err), zap.String("message_id", modelMsg.ID))
		}
	})
	wg.Wait()
}
