// Package app wires configuration into the running components.
package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cloudkeeper/adapters/mail"
	"cloudkeeper/api"
	"cloudkeeper/core/account"
	"cloudkeeper/core/catalog"
	"cloudkeeper/core/query"
	"cloudkeeper/db/postgres"
	"cloudkeeper/internal/config"
	"cloudkeeper/internal/errors"
)

// Version is the released version of cloudkeeper
const Version = "0.1.0"

// LoadConfig reads .env, the config file at path and the environment, in
// that order of increasing precedence, then validates the result.
func LoadConfig(path string) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEngine loads the pricing dataset. A missing or corrupt file yields an
// engine over an empty dataset.
func LoadEngine(cfg *config.Config, log *zap.Logger) *query.Engine {
	return query.NewEngine(catalog.Load(cfg.Data.CSVPath, log.Named("catalog")))
}

// NewMailer selects SMTP delivery, or logging when mail is disabled or
// credentials are missing.
func NewMailer(cfg *config.Config, log *zap.Logger) account.Mailer {
	mc := mail.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		FromName: cfg.Mail.FromName,
	}
	if cfg.Mail.LogOnly {
		return mail.NewLogMailer(log)
	}
	if !mc.Configured() {
		log.Warn("EMAIL_USER or PASSWORD not set, OTPs will be logged instead of sent")
		return mail.NewLogMailer(log)
	}
	return mail.NewSMTPMailer(mc, log)
}

// OpenStore opens the configured account store. The returned close func is never nil.
func OpenStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (account.Store, func() error, error) {
	switch cfg.Accounts.Backend {
	case config.BackendPostgres:
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		store, err := postgres.New(ctx, cfg.Accounts.DSN)
		if err != nil {
			return nil, nil, errors.Wrap(errors.TypeConfig, "failed to open account database", err)
		}
		log.Info("account store ready", zap.String("backend", config.BackendPostgres))
		return store, store.Close, nil
	default:
		log.Info("account store ready", zap.String("backend", config.BackendMemory))
		return account.NewMemoryStore(), func() error { return nil }, nil
	}
}

// APIConfig maps the application config onto the HTTP server config
func APIConfig(cfg *config.Config) *api.Config {
	ac := api.DefaultConfig()
	ac.Address = cfg.Server.Address
	ac.ReadTimeout = cfg.Server.ReadTimeout
	ac.WriteTimeout = cfg.Server.WriteTimeout
	ac.EnableCORS = cfg.Server.EnableCORS
	ac.AllowedOrigins = cfg.Server.AllowedOrigins
	ac.EnableMetrics = cfg.Server.EnableMetrics
	ac.CookieName = cfg.Session.CookieName
	ac.CookieSecure = cfg.Session.Secure
	ac.SessionTTL = cfg.Session.TTL()
	ac.DefaultLimit = cfg.Query.DefaultLimit
	ac.DefaultSortBy = cfg.Query.DefaultSortBy
	return ac
}

// NewServer builds the HTTP server and everything behind it. Call the
// returned cleanup func once the server has stopped.
func NewServer(ctx context.Context, cfg *config.Config, log *zap.Logger) (*api.Server, func(), error) {
	if log == nil {
		log = zap.NewNop()
	}

	engine := LoadEngine(cfg, log)

	store, closeStore, err := OpenStore(ctx, cfg, log.Named("accounts"))
	if err != nil {
		return nil, nil, err
	}

	svc := account.NewService(store, NewMailer(cfg, log.Named("mail")), account.Options{
		AllowedDomain:     cfg.Accounts.AllowedDomain,
		MinPasswordLength: cfg.Accounts.MinPasswordLength,
		Logger:            log.Named("accounts"),
	})

	srv := api.NewServer(APIConfig(cfg), engine, svc, log.Named("http"), Version)
	cleanup := func() {
		if err := closeStore(); err != nil {
			log.Warn("failed to close account store", zap.Error(err))
		}
	}
	return srv, cleanup, nil
}
