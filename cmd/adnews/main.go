package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/aidoptation/news/internal/app"
	"github.com/aidoptation/news/internal/config"
	"github.com/aidoptation/news/internal/fetch"
	"github.com/aidoptation/news/internal/logger"
	"github.com/aidoptation/news/internal/scraper"
	"github.com/aidoptation/news/internal/server"
	"github.com/aidoptation/news/internal/sources"
	"github.com/aidoptation/news/internal/storage"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	registry := sources.Default()
	if cfg.SourcesConfigPath != "" {
		registry, err = sources.Load(cfg.SourcesConfigPath)
		if err != nil {
			log.Fatalf("Sources config error: %v", err)
		}
	}

	store, err := storage.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Storage error: %v", err)
	}
	defer store.Close()

	limiter := rate.NewLimiter(rate.Limit(cfg.HuntRatePerSecond), cfg.HuntRatePerSecond)
	hunter := scraper.NewHunter(cfg.HuntTimeout, limiter)
	fetcher := fetch.New(registry, hunter,
		fetch.WithFeedTimeout(cfg.FeedTimeout),
		fetch.WithMaxAge(cfg.ArticleMaxAge),
		fetch.WithHuntsPerSource(cfg.HuntsPerSource),
	)

	pipeline := app.New(registry, fetcher, store)

	srv := server.New(&server.Config{Pipeline: pipeline, Store: store})
	log.WithFields(log.Fields{"addr": cfg.ListenAddr}).Info("Starting server")
	if err := srv.Listen(cfg.ListenAddr); err != nil {
		log.Errorf("Server error: %v", err)
		os.Exit(1)
	}
}
