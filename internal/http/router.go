package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"promptly/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	authH *AuthHandler,
	chatH *ChatHandler,
	wsHandler gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging y recovery.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	auth := r.Group("/api/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.POST("/refresh", authH.RefreshToken)
	auth.POST("/logout", authH.Logout)
	auth.GET("/profile", JWTAuthMiddleware(jwtSvc), authH.Profile)

	protected := r.Group("/api", JWTAuthMiddleware(jwtSvc))
	protected.POST("/chat", chatH.CreateChat)
	protected.GET("/chat", chatH.ListChats)
	protected.DELETE("/chat/:chatId", chatH.DeleteChat)
	protected.GET("/message/:chatId", chatH.GetMessages)

	// El handshake del websocket valida el token por su cuenta: el cliente lo
	// manda por query o cookie, no por header Authorization.
	r.GET("/ws", wsHandler)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
