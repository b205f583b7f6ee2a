package service

import (
	"sort"
	"strings"

	"promptly/internal/domain"
)

// longTermPreamble antecede las memorias recuperadas para que el modelo las
// trate como contexto de fondo y no las cite como historial literal.
const longTermPreamble = "Here is some relevant context from previous conversations. " +
	"Use this context to answer the user if relevant, but do not explicitly " +
	"mention that you are reading from a history file:"

// MemoryAssembler construye los bloques de contexto que alimentan al
// generador: memoria a largo plazo primero, luego los turnos recientes en
// orden cronologico. Funcion pura, sin llamadas externas.
type MemoryAssembler struct {
	ShortTermLimit int
}

func NewMemoryAssembler(shortTermLimit int) MemoryAssembler {
	if shortTermLimit <= 0 {
		shortTermLimit = 3
	}
	return MemoryAssembler{ShortTermLimit: shortTermLimit}
}

func (a MemoryAssembler) Build(recent []domain.Message, memories []domain.MemoryMatch) []domain.Turn {
	shortTerm := a.shortTermBlock(recent)
	turns := make([]domain.Turn, 0, len(shortTerm)+1)
	turns = append(turns, a.longTermBlock(memories))
	turns = append(turns, shortTerm...)
	return turns
}

func (a MemoryAssembler) longTermBlock(memories []domain.MemoryMatch) domain.Turn {
	texts := make([]string, 0, len(memories))
	for _, m := range memories {
		texts = append(texts, m.Text)
	}
	return domain.Turn{
		Role: domain.RoleUser,
		Text: longTermPreamble + "\n\n" + strings.Join(texts, "\n"),
	}
}

func (a MemoryAssembler) shortTermBlock(recent []domain.Message) []domain.Turn {
	messages := make([]domain.Message, len(recent))
	copy(messages, recent)

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})

	limit := a.ShortTermLimit
	if limit <= 0 {
		limit = 3
	}
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	turns := make([]domain.Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, domain.Turn{Role: m.Role, Text: m.Content})
	}
	return turns
}
