package llm

import (
	"context"
	"errors"
	"testing"

	"promptly/internal/domain"
)

func TestGeminiRole(t *testing.T) {
	if got := geminiRole(domain.RoleModel); got != "model" {
		t.Fatalf("expected model, got %q", got)
	}
	if got := geminiRole(domain.RoleUser); got != "user" {
		t.Fatalf("expected user, got %q", got)
	}
	// Cualquier rol desconocido cae a user.
	if got := geminiRole("system"); got != "user" {
		t.Fatalf("expected user for unknown role, got %q", got)
	}
}

func TestGenerateReplyEmptyContext(t *testing.T) {
	c := &GeminiClient{}
	if _, err := c.GenerateReply(context.Background(), nil); !errors.Is(err, ErrEmptyContext) {
		t.Fatalf("expected ErrEmptyContext, got %v", err)
	}
}

func TestMockGeneratorDefaults(t *testing.T) {
	mock := &MockGenerator{Reply: "ok"}

	emb, err := mock.Embed(context.Background(), "hola")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(emb) != domain.EmbeddingDim {
		t.Fatalf("expected %d-dim default embedding, got %d", domain.EmbeddingDim, len(emb))
	}

	reply, err := mock.GenerateReply(context.Background(), []domain.Turn{{Role: domain.RoleUser, Text: "hola"}})
	if err != nil || reply != "ok" {
		t.Fatalf("unexpected result: %q, %v", reply, err)
	}
	if len(mock.GenerateCalls) != 1 || len(mock.EmbedCalls) != 1 {
		t.Fatalf("expected calls recorded, got %d/%d", len(mock.GenerateCalls), len(mock.EmbedCalls))
	}
}
