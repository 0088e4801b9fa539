package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"crm/auth"
	"crm/config"
	"crm/database"
	"crm/entities/accounts"
	"crm/entities/contacts"
	crmsettings "crm/entities/crm_settings"
	dealstages "crm/entities/deal_stages"
	"crm/entities/deals"
	leadhistory "crm/entities/lead_history"
	"crm/entities/leads"
	"crm/entities/users"
	"crm/lifecycle"
	"crm/logger"
	"crm/middlewares"
	"crm/realtime"
	"crm/repository"
	"crm/settings"

	"github.com/redis/go-redis/v9"
)

// app holds the services the routes are built from.
type app struct {
	auth     *auth.Service
	engine   *lifecycle.Engine
	settings *settings.Resolver
	stages   *settings.Stages
	hub      *realtime.Hub
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.GetLogger("server")

	if cfg.IsProduction() {
		log.Warn("running in PRODUCTION environment")
	} else {
		log.Infof("current environment: %s", cfg.Env)
	}

	ctx := context.Background()
	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("mongodb unavailable")
	}
	defer client.Disconnect(ctx)

	db := client.Database(database.GetDB(cfg.Env))
	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.WithError(err).Fatal("cannot create indexes")
	}
	repos := database.NewSet(db)

	var rdb *redis.Client
	if cfg.RedisURI != "" {
		if rdb, err = database.ConnectRedis(ctx, cfg.RedisURI); err != nil {
			log.WithError(err).Fatal("redis unavailable")
		}
		defer rdb.Close()
	}

	a := build(cfg, repos, rdb)

	log.Infof("server started on port %s at %s", cfg.Port, time.Now().Format("2006-01-02 15:04:05"))
	handler := middlewares.RequestLogger(logger.GetLogger("http"))(middlewares.Cors(cfg.CORSOrigins)(a.routes()))
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), handler); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

// build wires the services over a repository set. rdb may be nil.
func build(cfg *config.Configuration, repos *repository.Set, rdb *redis.Client) *app {
	opts := []settings.Option{settings.WithLogger(logger.GetLogger("settings"))}
	if rdb != nil {
		opts = append(opts, settings.WithCache(settings.NewCache(rdb, cfg.SettingsCacheTTL)))
	}
	resolver := settings.NewResolver(repos.Settings, opts...)
	stages := settings.NewStages(repos.DealStages, repos.Deals, time.Now)

	authSvc := auth.NewService(repos.Users, repos.Organizations, cfg.JwtSecret, cfg.JwtExpiry)
	hub := realtime.NewHub(authSvc, logger.GetLogger("realtime"))

	var seq lifecycle.AccountSequencer = lifecycle.CountSequencer{Accounts: repos.Accounts}
	if cfg.AccountSequence == config.ACCOUNT_SEQUENCE_REDIS && rdb != nil {
		seq = lifecycle.RedisSequencer{Client: rdb, Seed: seq}
	}

	engine := lifecycle.New(lifecycle.Deps{
		Repos:     repos,
		Settings:  resolver,
		Stages:    stages,
		Sequencer: seq,
		Events:    hub,
		Logger:    logger.GetLogger("lifecycle"),
	})

	return &app{auth: authSvc, engine: engine, settings: resolver, stages: stages, hub: hub}
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	protect := middlewares.Auth(a.auth)

	usersH := users.New(a.auth)
	mux.HandleFunc("POST /v1/auth/register", usersH.Register)
	mux.HandleFunc("POST /v1/auth/login", usersH.Login)
	mux.Handle("GET /v1/users", protect(http.HandlerFunc(usersH.GetAll)))
	mux.Handle("POST /v1/users", protect(http.HandlerFunc(usersH.CreateOne)))

	leadsH := leads.New(a.engine)
	mux.Handle("GET /v1/leads", protect(http.HandlerFunc(leadsH.GetAll)))
	mux.Handle("GET /v1/leads/{id}", protect(http.HandlerFunc(leadsH.GetOne)))
	mux.Handle("POST /v1/leads", protect(http.HandlerFunc(leadsH.CreateOne)))
	mux.Handle("PUT /v1/leads/{id}", protect(http.HandlerFunc(leadsH.UpdateOne)))
	mux.Handle("DELETE /v1/leads/{id}", protect(http.HandlerFunc(leadsH.DeleteOne)))
	mux.Handle("POST /v1/leads/{id}/restore", protect(http.HandlerFunc(leadsH.RestoreOne)))
	mux.Handle("GET /v1/leads/{id}/delete-info", protect(http.HandlerFunc(leadsH.GetDeleteInfo)))

	historyH := leadhistory.New(a.engine)
	mux.Handle("GET /v1/lead-history/{leadId}", protect(http.HandlerFunc(historyH.GetAll)))

	contactsH := contacts.New(a.engine)
	mux.Handle("GET /v1/contacts", protect(http.HandlerFunc(contactsH.GetAll)))
	mux.Handle("GET /v1/contacts/{id}", protect(http.HandlerFunc(contactsH.GetOne)))
	mux.Handle("POST /v1/contacts", protect(http.HandlerFunc(contactsH.CreateOne)))
	mux.Handle("PUT /v1/contacts/{id}", protect(http.HandlerFunc(contactsH.UpdateOne)))
	mux.Handle("DELETE /v1/contacts/{id}", protect(http.HandlerFunc(contactsH.DeleteOne)))
	mux.Handle("POST /v1/contacts/{id}/restore", protect(http.HandlerFunc(contactsH.RestoreOne)))
	mux.Handle("GET /v1/contacts/{id}/delete-info", protect(http.HandlerFunc(contactsH.GetDeleteInfo)))

	dealsH := deals.New(a.engine)
	mux.Handle("GET /v1/deals", protect(http.HandlerFunc(dealsH.GetAll)))
	mux.Handle("GET /v1/deals/{id}", protect(http.HandlerFunc(dealsH.GetOne)))
	mux.Handle("POST /v1/deals", protect(http.HandlerFunc(dealsH.CreateOne)))
	mux.Handle("PUT /v1/deals/{id}", protect(http.HandlerFunc(dealsH.UpdateOne)))
	mux.Handle("DELETE /v1/deals/{id}", protect(http.HandlerFunc(dealsH.DeleteOne)))
	mux.Handle("POST /v1/deals/{id}/restore", protect(http.HandlerFunc(dealsH.RestoreOne)))
	mux.Handle("GET /v1/deals/{id}/delete-info", protect(http.HandlerFunc(dealsH.GetDeleteInfo)))

	accountsH := accounts.New(a.engine)
	mux.Handle("GET /v1/accounts", protect(http.HandlerFunc(accountsH.GetAll)))
	mux.Handle("GET /v1/accounts/{id}", protect(http.HandlerFunc(accountsH.GetOne)))
	mux.Handle("POST /v1/accounts", protect(http.HandlerFunc(accountsH.CreateOne)))
	mux.Handle("PUT /v1/accounts/{id}", protect(http.HandlerFunc(accountsH.UpdateOne)))
	mux.Handle("DELETE /v1/accounts/{id}", protect(http.HandlerFunc(accountsH.DeleteOne)))
	mux.Handle("POST /v1/accounts/{id}/restore", protect(http.HandlerFunc(accountsH.RestoreOne)))
	mux.Handle("GET /v1/accounts/{id}/delete-info", protect(http.HandlerFunc(accountsH.GetDeleteInfo)))

	stagesH := dealstages.New(a.stages)
	mux.Handle("GET /v1/deal-stages", protect(http.HandlerFunc(stagesH.GetAll)))
	mux.Handle("GET /v1/deal-stages/active", protect(http.HandlerFunc(stagesH.GetActive)))
	mux.Handle("POST /v1/deal-stages", protect(http.HandlerFunc(stagesH.CreateOne)))
	mux.Handle("PUT /v1/deal-stages/reorder", protect(http.HandlerFunc(stagesH.Reorder)))
	mux.Handle("PUT /v1/deal-stages/{id}", protect(http.HandlerFunc(stagesH.UpdateOne)))
	mux.Handle("DELETE /v1/deal-stages/{id}", protect(http.HandlerFunc(stagesH.DeleteOne)))
	mux.Handle("POST /v1/deal-stages/initialize", protect(http.HandlerFunc(stagesH.Initialize)))

	settingsH := crmsettings.New(a.settings)
	mux.Handle("GET /v1/crm-settings", protect(http.HandlerFunc(settingsH.GetOne)))
	mux.Handle("PUT /v1/crm-settings", protect(http.HandlerFunc(settingsH.UpdateOne)))
	mux.Handle("POST /v1/crm-settings/reset", protect(http.HandlerFunc(settingsH.Reset)))
	mux.Handle("GET /v1/crm-settings/active-sources", protect(http.HandlerFunc(settingsH.GetActiveSources)))
	mux.Handle("GET /v1/crm-settings/active-stages", protect(http.HandlerFunc(settingsH.GetActiveStages)))
	mux.Handle("GET /v1/crm-settings/field-config", protect(http.HandlerFunc(settingsH.GetFieldConfig)))

	mux.Handle("/v1/ws/crm", a.hub)

	return mux
}
