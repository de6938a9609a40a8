package handlers

import (
	"os"

	"github.com/arnavshah/advent-allocator/pkg/config"
	"github.com/arnavshah/advent-allocator/pkg/database"
	"github.com/arnavshah/advent-allocator/pkg/logger"
	"github.com/arnavshah/advent-allocator/pkg/metrics"
	"github.com/arnavshah/advent-allocator/pkg/roster"
	"github.com/arnavshah/advent-allocator/pkg/tracing"
)

// Setup builds a Handler from configuration: logger, store, tracing and metrics
func Setup(cfg *config.Config) (*Handler, error) {
	log := logger.New(os.Stdout, cfg.LogLevel, cfg.LogPretty)

	if cfg.TraceStdout {
		if err := tracing.Init("advent-allocator", Version, os.Stderr); err != nil {
			return nil, err
		}
	}

	db, err := database.InitDB(cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	return &Handler{
		Store:   database.NewStore(db, cfg.RunTTL),
		Config:  cfg,
		Metrics: metrics.New(),
		Fetcher: roster.NewFetcher(cfg.FetchTimeout, roster.WebSchemes...),
		Log:     log,
	}, nil
}
