package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/todo_list/internal/config"
	"github.com/Skotchmaster/todo_list/internal/es"
	"github.com/Skotchmaster/todo_list/internal/httpserver"
	"github.com/Skotchmaster/todo_list/internal/logging"
	"github.com/Skotchmaster/todo_list/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/todo_list/internal/middleware/logging"
	"github.com/Skotchmaster/todo_list/internal/mongodb"
	"github.com/Skotchmaster/todo_list/internal/mykafka"
	"github.com/Skotchmaster/todo_list/internal/repo"
	"github.com/Skotchmaster/todo_list/internal/service"
	"github.com/Skotchmaster/todo_list/internal/tokens"
)

type store interface {
	service.CredentialStore
	service.SessionRemover
	service.TaskStore
	tokens.SessionStore
	Ping(ctx context.Context) error
}

// @title                       Todo list API
// @version                     1.0
// @description                 Multi-tenant to-do lists with JWT sessions.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store, func(), error) {
	if cfg.StorageDriver == config.DriverMongo {
		st, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.StoreTimeout)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := st.Close(ctx); err != nil {
				slog.Error("mongo close error", "error", err)
			}
		}
		return st, closeFn, nil
	}

	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		sqlDB, err := db.DB()
		if err != nil {
			slog.Error("db() error", "error", err)
			return
		}
		if err := sqlDB.Close(); err != nil {
			slog.Error("db close error", "error", err)
		}
	}
	return repo.New(db, cfg.StoreTimeout), closeFn, nil
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StorageDriver, err)
	}
	defer closeStore()

	tokenSvc := tokens.NewService(
		[]byte(cfg.AccessTokenSecret),
		[]byte(cfg.RefreshTokenSecret),
		st,
		tokens.WithTTL(cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
	)

	account := &service.AccountService{Users: st, Sessions: st, Tokens: tokenSvc}
	if cfg.KafkaEnabled() {
		prod := mykafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() {
			if err := prod.Close(); err != nil {
				logger.Error("kafka close error", "error", err)
			}
		}()
		account.Events = prod
		logger.Info("kafka events enabled", "topic", prod.Topic())
	}

	tasks := &service.TaskService{Store: st}
	if cfg.SearchEnabled() {
		client, err := es.NewClient(ctx, es.ClientConfig{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword}, logger)
		if err != nil {
			return fmt.Errorf("elasticsearch: %w", err)
		}
		idx := es.NewTaskIndex(client, cfg.ESIndex)
		if err := idx.EnsureIndex(ctx); err != nil {
			return fmt.Errorf("elasticsearch: %w", err)
		}
		tasks.Index = idx
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpserver.ErrorHandler
	e.Validator = httpserver.NewRequestValidator()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Auth:           &httpserver.AuthHTTP{Svc: account, CookieSecure: cfg.SecureCookies()},
		Users:          &httpserver.UserHTTP{Svc: account},
		Tasks:          &httpserver.TaskHTTP{Svc: tasks},
		Guard:          auth.New(tokenSvc),
		AllowedOrigins: cfg.AllowedOrigins,
		AuthRateLimit:  cfg.AuthRateLimit,
		Ready:          st.Ping,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server started", "addr", cfg.HTTPAddr, "driver", cfg.StorageDriver, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
