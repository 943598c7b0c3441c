package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	csh_auth "github.com/computersciencehouse/csh-auth"
	"github.com/computersciencehouse/borda/api"
	"github.com/computersciencehouse/borda/config"
	"github.com/computersciencehouse/borda/database"
	"github.com/computersciencehouse/borda/logging"
	"github.com/computersciencehouse/borda/service"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type store interface {
	service.Store
	io.Closer
}

func openStore(cfg *config.Config) (store, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		return database.ConnectMongo(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Store.Timeout)
	case config.DriverMemory:
		logging.Logger.WithFields(logrus.Fields{"module": "main", "method": "openStore"}).Warn("using in-memory store, data will not survive a restart")
		return database.NewMemoryStore(), nil
	default:
		return database.OpenGorm(cfg.Store.Driver, cfg.DatabaseDSN, cfg.Store.Timeout)
	}
}

func identity(cfg *config.Config) api.Identity {
	if cfg.Auth.Mode == config.AuthHeader {
		logging.Logger.WithFields(logrus.Fields{"module": "main", "method": "identity"}).Warnf("trusting the %s header for identity", api.UserHeader)
		return api.HeaderIdentity{}
	}

	csh := &csh_auth.CSHAuth{}
	csh.Init(
		cfg.Auth.ClientID,
		cfg.Auth.Secret,
		cfg.Auth.JWTSecret,
		cfg.Auth.State,
		cfg.Auth.Host,
		cfg.Auth.Host+"/auth/callback",
		cfg.Auth.Host+"/auth/login",
		[]string{"profile", "email", "groups"},
	)
	return api.CSHIdentity{Auth: csh}
}

func main() {
	fields := logrus.Fields{"module": "main", "method": "main"}

	cfg, err := config.Load()
	if err != nil {
		logging.Logger.WithFields(fields).WithField("error", err).Fatal("invalid configuration")
	}
	logging.Configure(cfg.Log.Level, cfg.Log.Format)

	st, err := openStore(cfg)
	if err != nil {
		logging.Logger.WithFields(fields).WithField("error", err).Fatal("could not open store")
	}

	router := api.NewRouter(service.NewPollService(st), api.Options{
		Identity:     identity(cfg),
		Limiter:      rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst),
		AllowOrigins: cfg.HTTP.AllowOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Logger.WithFields(fields).WithField("addr", cfg.HTTP.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.WithFields(fields).WithField("error", err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Logger.WithFields(fields).Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.WithFields(fields).WithField("error", err).Error("forced shutdown")
	}
	if err := st.Close(); err != nil {
		logging.Logger.WithFields(fields).WithField("error", err).Error("error closing store")
	}
}
