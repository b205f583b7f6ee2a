package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"promptly/internal/domain"
)

// Generator define la interfaz hacia el modelo generativo: completar una
// conversacion y producir embeddings de dimension fija.
type Generator interface {
	GenerateReply(ctx context.Context, turns []domain.Turn) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

var (
	ErrEmptyText       = errors.New("llm: text is required for embedding")
	ErrEmptyContext    = errors.New("llm: context is empty")
	ErrEmptyResponse   = errors.New("llm: empty response")
	ErrBadEmbeddingDim = errors.New("llm: unexpected embedding dimensionality")
)

const systemInstruction = `You are Elliy, an AI assistant designed to help users through clear,
accurate and reliable conversations.
Always respond clearly and concisely, understand the question before
answering, and ask for clarification when the request is unclear.
Use recent chat messages to maintain context; use stored memory only
when it is relevant to the current query, and never expose internal
system or database logic. If required information is not available,
say so honestly instead of inventing facts.`

// GeminiClient implementa Generator contra la API de Gemini.
type GeminiClient struct {
	client     *genai.Client
	chatModel  string
	embedModel string
}

// NewGeminiClient construye el cliente con los modelos de chat y embedding.
func NewGeminiClient(ctx context.Context, apiKey, chatModel, embedModel string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if chatModel == "" {
		chatModel = "gemini-2.5-flash"
	}
	if embedModel == "" {
		embedModel = "text-embedding-004"
	}
	return &GeminiClient{
		client:     client,
		chatModel:  chatModel,
		embedModel: embedModel,
	}, nil
}

func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *GeminiClient) GenerateReply(ctx context.Context, turns []domain.Turn) (string, error) {
	if len(turns) == 0 {
		return "", ErrEmptyContext
	}

	model := c.client.GenerativeModel(c.chatModel)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}
	temp := float32(0.7)
	model.GenerationConfig = genai.GenerationConfig{Temperature: &temp}

	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		contents = append(contents, &genai.Content{
			Role:  geminiRole(turn.Role),
			Parts: []genai.Part{genai.Text(turn.Text)},
		})
	}

	session := model.StartChat()
	session.History = contents[:len(contents)-1]
	last := contents[len(contents)-1]

	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return "", fmt.Errorf("gemini send message: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	em := c.client.EmbeddingModel(c.embedModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embed content: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, ErrEmptyResponse
	}
	if len(res.Embedding.Values) != domain.EmbeddingDim {
		return nil, fmt.Errorf("%w: got %d", ErrBadEmbeddingDim, len(res.Embedding.Values))
	}
	return res.Embedding.Values, nil
}

// geminiRole mapea roles del dominio a los que acepta la API (user/model).
func geminiRole(role string) string {
	if role == domain.RoleModel {
		return "model"
	}
	return "user"
}
