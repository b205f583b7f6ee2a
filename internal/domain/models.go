package domain

import "time"

// Roles de los turnos de conversacion, tal como los consume el generador.
const (
	RoleUser   = "user"
	RoleModel  = "model"
	RoleSystem = "system"
)

// EmbeddingDim es la dimensionalidad fija de los vectores de memoria.
const EmbeddingDim = 768

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Chat struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
}

// Message es un turno persistido de una conversacion. Inmutable despues de
// crearse; solo se elimina en cascada junto con su chat.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Turn es la unidad de contexto que recibe el generador.
type Turn struct {
	Role string
	Text string
}

// MemoryEntry es el registro vector+metadata ligado 1:1 a un Message.
type MemoryEntry struct {
	MessageID string
	ChatID    string
	UserID    string
	Text      string
	Embedding []float32
}

// MemoryMatch es un resultado de busqueda por similitud.
type MemoryMatch struct {
	MessageID string
	ChatID    string
	UserID    string
	Text      string
	Score     float64
}
