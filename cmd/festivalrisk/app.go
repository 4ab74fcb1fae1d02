package main

import (
	"fmt"
	"net/http"

	"festivalrisk/internal/app/artists"
	"festivalrisk/internal/app/assessments"
	"festivalrisk/internal/app/calendar"
	"festivalrisk/internal/app/contacts"
	"festivalrisk/internal/app/users"
	"festivalrisk/internal/auth"
	"festivalrisk/internal/config"
	"festivalrisk/internal/feed"
	"festivalrisk/internal/festival"
	"festivalrisk/internal/http/middleware"
	"festivalrisk/internal/httpapi"
	"festivalrisk/internal/logging"
	"festivalrisk/internal/metrics"
	"festivalrisk/internal/reconcile"
	"festivalrisk/internal/store"
)

type app struct {
	users     users.Service
	contacts  contacts.Service
	scheduler *reconcile.Scheduler
	handler   http.Handler
}

func newApp(cfg *config.Config, dataStore *store.Store, logger *logging.Logger) (*app, error) {
	loc := cfg.Festival.Location
	tokens := auth.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.SessionTTL, cfg.Security.CookieSecure)

	registry := metrics.NewRegistry()
	syncMetrics := metrics.NewSync(registry)

	a := &app{
		users:    users.New(dataStore, tokens),
		contacts: contacts.New(dataStore),
	}

	svc := httpapi.Services{
		Users:       a.users,
		Cookies:     tokens,
		Artists:     artists.New(dataStore, loc),
		Assessments: assessments.New(dataStore),
		Calendar: calendar.New(dataStore, calendar.Options{
			Location:      loc,
			SentinelStage: cfg.Festival.SentinelStage,
			Weekdays:      festival.WeekdaysFor(cfg.Festival.WeekdayLocale),
			Logger:        logger.Component("calendar"),
		}),
		Contacts: a.contacts,
		Health:   dataStore,
		Metrics:  metrics.Handler(registry),
	}

	if cfg.Feed.URL != "" {
		engine := reconcile.NewEngine(dataStore, reconcile.Options{
			SentinelStage: cfg.Festival.SentinelStage,
			Location:      loc,
			Logger:        logger.Component("reconcile"),
		})
		syncer := reconcile.NewSyncer(feed.NewClient(cfg.Feed.URL, cfg.Feed.Timeout), engine, syncMetrics, logger.Component("sync"))
		scheduler, err := reconcile.NewScheduler(syncer, cfg.Sync.Schedule, loc, syncMetrics, logger.Component("scheduler"))
		if err != nil {
			return nil, fmt.Errorf("create scheduler: %w", err)
		}
		a.scheduler = scheduler
		svc.Sync = scheduler
	}

	server, err := httpapi.New(svc)
	if err != nil {
		return nil, err
	}

	a.handler = middleware.Chain(server.Routes(),
		middleware.RequestLogging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)
	return a, nil
}
