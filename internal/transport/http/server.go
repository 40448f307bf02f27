package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireroom-server/internal/auth"
	"github.com/vovakirdan/wireroom-server/internal/config"
	"github.com/vovakirdan/wireroom-server/internal/core"
	"github.com/vovakirdan/wireroom-server/internal/files"
)

// NewServer builds the HTTP server with REST routes and the event channel.
func NewServer(ctrl *core.Controller, docs *files.Storage, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	jwtCfg := &auth.JWTConfig{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	}

	rooms := NewRoomHandlers(ctrl.Rooms(), logger)
	chat := NewChatHandlers(ctrl.Chat(), logger)
	documents := NewDocumentHandlers(ctrl.Rooms(), ctrl, docs, logger)
	ws := NewWSHandler(ctrl, WSOptions{
		JWT:                jwtCfg,
		AuthRequired:       cfg.Auth.Required,
		ReadLimit:          cfg.MaxMessageBytes,
		SendBuffer:         cfg.SendBuffer,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, logger)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))
	router.MaxMultipartMemory = cfg.Documents.MaxUploadBytes

	router.GET("/health", healthHandler)

	api := router.Group("/api", IdentityMiddleware(jwtCfg, cfg.Auth.Required, logger))
	{
		api.POST("/rooms", rooms.CreateRoom)
		api.GET("/rooms/:roomId", rooms.GetRoom)
		api.GET("/rooms/:roomId/participants", rooms.Participants)

		api.GET("/chat/:roomId", chat.History)
		api.POST("/chat/:roomId", chat.PostMessage)

		api.POST("/pdf/upload/:roomId", documents.Upload)
		api.GET("/pdf/file/:filename", documents.File)
		api.GET("/pdf/:roomId", documents.Session)
	}

	// The event channel stays outside gin: its writer refuses the hijack
	// after the upgrade response is written.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", ws)
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
