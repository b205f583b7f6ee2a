package llm

import (
	"context"

	"promptly/internal/domain"
)

// MockGenerator permite tests sin llamar a la API real.
type MockGenerator struct {
	Reply     string
	ReplyErr  error
	Embedding []float32
	EmbedErr  error

	GenerateCalls [][]domain.Turn
	EmbedCalls    []string
}

func (m *MockGenerator) GenerateReply(ctx context.Context, turns []domain.Turn) (string, error) {
	m.GenerateCalls = append(m.GenerateCalls, turns)
	return m.Reply, m.ReplyErr
}

func (m *MockGenerator) Embed(ctx context.Context, text string) ([]float32, error) {
	m.EmbedCalls = append(m.EmbedCalls, text)
	if m.EmbedErr != nil {
		return nil, m.EmbedErr
	}
	if m.Embedding != nil {
		return m.Embedding, nil
	}
	return make([]float32, domain.EmbeddingDim), nil
}
