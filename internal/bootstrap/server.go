package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/janj3143/careertrojan-bridge/internal/config"
	"github.com/janj3143/careertrojan-bridge/internal/infra/messaging"
	"github.com/janj3143/careertrojan-bridge/internal/infra/persistence"
	"github.com/janj3143/careertrojan-bridge/internal/transport/http/handlers"
	"github.com/janj3143/careertrojan-bridge/internal/transport/http/middleware"
	"github.com/janj3143/careertrojan-bridge/internal/usecase"
)

// Run wires the store, the bridge and the HTTP API together and blocks
// until ctx is cancelled. The bridge lifecycle is owned here: started
// before the server accepts traffic, stopped after the server drains.
func Run(ctx context.Context, cfg config.Config) error {
	start := time.Now()
	log, err := buildLogger(cfg)
	if err != nil {
		return err
	}

	conn, err := persistence.New(ctx, persistence.Config{
		Driver:          cfg.Database.Driver,
		Path:            cfg.Database.Path,
		DSN:             cfg.Database.DSN,
		BusyTimeout:     cfg.Database.BusyTimeout,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		return err
	}
	log.Infof("bootstrap: store init in %s", time.Since(start))
	defer conn.Close()

	pingCtx := ctx
	if cfg.Database.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
		defer cancel()
	}
	if err := conn.Ping(pingCtx); err != nil {
		return err
	}

	natsClient, err := messaging.NewNATS(ctx, cfg.NATS)
	if err != nil {
		return err
	}
	defer natsClient.Close()

	deps := usecase.Deps{
		Store:         conn,
		Events:        persistence.NewEventRepository(conn),
		Notifications: persistence.NewNotificationRepository(conn),
		Profiles:      persistence.NewProfileRepository(conn),
		Statuses:      persistence.NewStatusRepository(conn),
		Log:           log,
	}
	if natsClient != nil {
		deps.Mirror = natsClient
		log.Infof("bootstrap: notification mirror enabled (stream=%s)", cfg.NATS.Stream)
	}
	bridge := usecase.New(deps, cfg.Bridge)
	if err := bridge.Start(ctx); err != nil {
		return err
	}
	defer bridge.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logger(log), gin.Recovery())
	handler := handlers.NewHandler(bridge, conn)
	routerBuilder := handlers.NewRouter(handler)
	routerBuilder.RegisterRoutes(router, middleware.Idempotency())

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("bootstrap: server listening on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.WithError(err).Error("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown error")
	}

	return nil
}

func buildLogger(cfg config.Config) (*logrus.Logger, error) {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)
	switch cfg.Log.Format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	case "console", "":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		})
	default:
		return nil, errors.New("log format error: supported values are console or json")
	}
	return log, nil
}
