package handler

import (
	"net/http"

	"github.com/arnavshah/advent-allocator/pkg/config"
	"github.com/arnavshah/advent-allocator/pkg/handlers"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var r *gin.Engine

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	config.LoadDotEnv(".env", "../.env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	h, err := handlers.Setup(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialise handler")
	}

	gin.SetMode(gin.ReleaseMode)
	r = handlers.NewRouter(h)
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, r_req *http.Request) {
	r.ServeHTTP(w, r_req)
}
