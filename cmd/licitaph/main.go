package main

import (
	"fmt"
	"os"

	"github.com/yeiden10/licitaph-sub000/internal/auth"
	"github.com/yeiden10/licitaph-sub000/internal/clock"
	"github.com/yeiden10/licitaph-sub000/internal/config"
	"github.com/yeiden10/licitaph-sub000/internal/db"
	"github.com/yeiden10/licitaph-sub000/internal/evaluator"
	"github.com/yeiden10/licitaph-sub000/internal/events"
	"github.com/yeiden10/licitaph-sub000/internal/export"
	httphandler "github.com/yeiden10/licitaph-sub000/internal/http"
	"github.com/yeiden10/licitaph-sub000/internal/http/middleware"
	"github.com/yeiden10/licitaph-sub000/internal/logger"
	"github.com/yeiden10/licitaph-sub000/internal/repository"
	"github.com/yeiden10/licitaph-sub000/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	var store service.Store
	if cfg.DB.DSN != "" {
		database, err := db.New(cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect database")
		}
		store = repository.NewStore(database)
	} else {
		log.Warn().Msg("DB_DSN not set, using in-memory store")
		store = repository.NewMemory()
	}

	var publisher events.Publisher
	if cfg.Events.NATSURL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect nats")
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	} else {
		publisher = events.NewLogPublisher(log)
	}

	eval := evaluator.NewOpenAI(cfg.Evaluator, cfg.Weights)
	engine := service.New(
		store,
		clock.Real(),
		eval,
		publisher,
		export.NewRankingExcel(),
		export.NewContractPDF(),
		cfg,
		log,
	)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(engine, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting procurement engine")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
