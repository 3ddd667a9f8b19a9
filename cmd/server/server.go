package main

import (
	"log"

	"github.com/voxprep/voxprep-backend/internal/config"
	h "github.com/voxprep/voxprep-backend/internal/http"
	"github.com/voxprep/voxprep-backend/internal/logging"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logging.Setup(cfg.LogFile)
	r := h.NewRouter(cfg)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
