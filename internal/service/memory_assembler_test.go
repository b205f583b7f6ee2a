package service

import (
	"strings"
	"testing"
	"time"

	"promptly/internal/domain"
)

func TestMemoryAssemblerBuild(t *testing.T) {
	now := time.Now().UTC()

	t.Run("bloques en orden: largo plazo primero", func(t *testing.T) {
		recent := []domain.Message{
			{Role: domain.RoleUser, Content: "hola", CreatedAt: now.Add(-2 * time.Minute)},
			{Role: domain.RoleModel, Content: "hola, ¿en qué te ayudo?", CreatedAt: now.Add(-1 * time.Minute)},
		}
		memories := []domain.MemoryMatch{
			{Text: "el usuario se llama Fer"},
			{Text: "prefiere respuestas cortas"},
		}

		turns := NewMemoryAssembler(3).Build(recent, memories)
		if len(turns) != 3 {
			t.Fatalf("expected 3 turns, got %d", len(turns))
		}
		if turns[0].Role != domain.RoleUser {
			t.Fatalf("expected long-term turn with role user, got %q", turns[0].Role)
		}
		if !strings.HasPrefix(turns[0].Text, longTermPreamble) {
			t.Fatalf("expected long-term preamble, got: %s", turns[0].Text)
		}
		if !strings.Contains(turns[0].Text, "el usuario se llama Fer\nprefiere respuestas cortas") {
			t.Fatalf("expected memories joined by newline, got: %s", turns[0].Text)
		}
		if turns[1].Text != "hola" || turns[2].Text != "hola, ¿en qué te ayudo?" {
			t.Fatalf("expected short-term turns in chronological order, got %+v", turns[1:])
		}
	})

	t.Run("sin memorias el bloque sintetico queda vacio", func(t *testing.T) {
		turns := NewMemoryAssembler(3).Build(nil, nil)
		if len(turns) != 1 {
			t.Fatalf("expected only the synthetic turn, got %d", len(turns))
		}
		if turns[0].Text != longTermPreamble+"\n\n" {
			t.Fatalf("expected empty context after preamble, got: %q", turns[0].Text)
		}
	})

	t.Run("recorta al limite de corto plazo", func(t *testing.T) {
		var recent []domain.Message
		for i := 1; i <= 5; i++ {
			recent = append(recent, domain.Message{
				Role:      domain.RoleUser,
				Content:   "msg" + string(rune('0'+i)),
				CreatedAt: now.Add(time.Duration(i) * time.Minute),
			})
		}

		turns := NewMemoryAssembler(3).Build(recent, nil)
		if len(turns) != 4 {
			t.Fatalf("expected 1 long-term + 3 short-term turns, got %d", len(turns))
		}
		if turns[1].Text != "msg3" || turns[3].Text != "msg5" {
			t.Fatalf("expected window msg3..msg5, got %+v", turns[1:])
		}
	})

	t.Run("orden invertido se corrige", func(t *testing.T) {
		recent := []domain.Message{
			{Role: domain.RoleModel, Content: "segundo", CreatedAt: now.Add(time.Minute)},
			{Role: domain.RoleUser, Content: "primero", CreatedAt: now},
		}

		turns := NewMemoryAssembler(3).Build(recent, nil)
		if turns[1].Text != "primero" || turns[2].Text != "segundo" {
			t.Fatalf("expected chronological order, got %+v", turns[1:])
		}
	})

	t.Run("roles se preservan uno a uno", func(t *testing.T) {
		recent := []domain.Message{
			{Role: domain.RoleUser, Content: "a", CreatedAt: now},
			{Role: domain.RoleModel, Content: "b", CreatedAt: now.Add(time.Second)},
		}

		turns := NewMemoryAssembler(3).Build(recent, nil)
		if turns[1].Role != domain.RoleUser || turns[2].Role != domain.RoleModel {
			t.Fatalf("expected roles preserved, got %+v", turns[1:])
		}
	})
}
