package main

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guesstheflag/internal/config"
	"github.com/robalobadob/guesstheflag/internal/flags"
	"github.com/robalobadob/guesstheflag/internal/httpserver"
	"github.com/robalobadob/guesstheflag/internal/store"
	"github.com/robalobadob/guesstheflag/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	cat, err := loadCatalog(cfg.CatalogFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load flag catalog")
	}
	log.Info().Int("countries", cat.Len()).Msg("catalog loaded")

	if cfg.SessionSecret == "dev_secret_change_me" {
		log.Warn().Msg("SESSION_SECRET not set; using development secret")
	}
	tokens, err := token.NewIssuer(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up session tokens")
	}

	srv := httpserver.New(store.NewMemoryStore(), cat, tokens, httpserver.Options{
		ClientOrigin: cfg.ClientOrigin,
		CookieName:   cfg.CookieName,
		SessionTTL:   cfg.SessionTTL,
		Secure:       cfg.Production,
		Seed:         cfg.Seed,
		DailySalt:    cfg.DailySalt,
	})
	log.Info().Str("port", cfg.Port).Msg("starting go-server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func loadCatalog(path string) (*flags.Catalog, error) {
	if path == "" {
		return flags.Default()
	}
	return flags.Load(path)
}
