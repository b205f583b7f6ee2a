package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"promptly/internal/domain"
	"promptly/internal/repository"
	"promptly/internal/service"
)

// Eventos del contrato de la conexion.
const (
	eventAIMessage  = "ai-message"
	eventAIResponse = "ai-message-response"
	eventError      = "error"
)

// maxInboundBytes acota el tamaño de un frame entrante; un frame que lo excede
// cierra la conexion.
const maxInboundBytes = 64 << 10

// MessageHandler procesa un mensaje entrante de principio a fin y emite a lo
// sumo una respuesta por peticion.
type MessageHandler interface {
	Handle(ctx context.Context, user domain.User, in service.InboundMessage, emit func(service.OutboundMessage)) error
}

// Gateway acepta conexiones websocket autenticadas y despacha eventos
// ai-message al orquestador. Una conexion que no verifica su token se rechaza
// antes del upgrade y nunca recibe suscripcion a eventos.
type Gateway struct {
	logger   *zap.Logger
	jwtServ  *service.JWTService
	users    repository.UserRepository
	handler  MessageHandler
	upgrader websocket.Upgrader
}

func NewGateway(logger *zap.Logger, jwtServ *service.JWTService, users repository.UserRepository, handler MessageHandler) *Gateway {
	return &Gateway{
		logger:  logger,
		jwtServ: jwtServ,
		users:   users,
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// El control de origen queda en la capa que publica este servicio.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handle maneja GET /ws: verifica la credencial, resuelve el usuario y recien
// entonces promueve la conexion.
func (g *Gateway) Handle(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		if cookie, err := c.Cookie("token"); err == nil {
			token = strings.TrimSpace(cookie)
		}
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	claims, err := g.jwtServ.ParseAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	user, err := g.users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	g.serve(conn, user)
}

type inboundEnvelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type outboundEnvelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

func (g *Gateway) serve(conn *websocket.Conn, user domain.User) {
	defer conn.Close()

	conn.SetReadLimit(maxInboundBytes)

	sess := &session{logger: g.logger, conn: conn}
	wg := conc.NewWaitGroup()
	// Una desconexion no cancela pipelines en vuelo: completan y sus
	// escrituras aterrizan aunque la emision ya no tenga receptor.
	defer wg.Wait()

	for {
		var env inboundEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.logger.Warn("websocket read failed", zap.Error(err), zap.String("user_id", user.ID))
			}
			return
		}

		switch env.Event {
		case eventAIMessage:
			var in service.InboundMessage
			if err := json.Unmarshal(env.Payload, &in); err != nil {
				sess.send(eventError, gin.H{"message": "invalid payload"})
				continue
			}
			wg.Go(func() {
				g.dispatch(sess, user, in)
			})
		default:
			sess.send(eventError, gin.H{"message": "unknown event"})
		}
	}
}

func (g *Gateway) dispatch(sess *session, user domain.User, in service.InboundMessage) {
	err := g.handler.Handle(context.Background(), user, in, func(out service.OutboundMessage) {
		sess.send(eventAIResponse, out)
	})
	if err == nil {
		return
	}
	if errors.Is(err, service.ErrInvalidPayload) {
		sess.send(eventError, gin.H{"message": "invalid payload"})
		return
	}
	// Fallos del pipeline antes de generar no producen evento alguno: el
	// mensaje del usuario quedo persistido y la interaccion es reintentable.
	g.logger.Error("message pipeline failed", zap.Error(err), zap.String("user_id", user.ID), zap.String("chat_id", in.ChatID))
}

// session serializa las escrituras sobre la conexion: gorilla permite un solo
// escritor concurrente.
type session struct {
	logger *zap.Logger
	mu     sync.Mutex
	conn   *websocket.Conn
}

func (s *session) send(event string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteJSON(outboundEnvelope{Event: event, Payload: payload}); err != nil {
		s.logger.Warn("websocket write failed", zap.Error(err), zap.String("event", event))
	}
}
