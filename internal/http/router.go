package http

import (
	"log"
	"os"

	"github.com/voxprep/voxprep-backend/internal/config"
	"github.com/voxprep/voxprep-backend/internal/core/feedback"
	"github.com/voxprep/voxprep-backend/internal/core/gemini"
	"github.com/voxprep/voxprep-backend/internal/http/handlers"
	"github.com/voxprep/voxprep-backend/internal/repo/memory"
	"github.com/voxprep/voxprep-backend/pkg/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(cfg config.Config) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = []string{cfg.AllowedOrigin}
	corsCfg.AllowMethods = []string{"GET", "POST"}
	corsCfg.AllowHeaders = []string{"Content-Type"}
	corsCfg.AllowCredentials = true
	r.Use(cors.New(corsCfg))

	repo := memory.NewInterviewRepo()
	hub := ws.NewHub()

	requester := feedback.NewRequester(nil)
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.New(cfg.GeminiAPIKey, cfg.FeedbackModel)
		if err != nil {
			log.Printf("[router] feedback client unavailable: %v", err)
		} else {
			requester = feedback.NewRequester(client)
		}
	}

	baseScheme := "ws"
	if os.Getenv("TLS") == "1" {
		baseScheme = "wss"
	}
	host := os.Getenv("PUBLIC_HOST")
	if host == "" {
		host = "localhost:" + cfg.Port
	}

	ih := handlers.NewInterviewsHandler(repo, baseScheme, host)
	sh := handlers.NewStreamHandler(hub, repo, cfg, requester)

	api := r.Group("/v1")
	api.POST("/interviews", ih.Create)
	api.GET("/interviews/:id/summary", ih.Summary)
	api.GET("/interviews/:id/transcript", ih.Transcript)
	r.GET("/v1/stream", sh.WS)
	return r
}
