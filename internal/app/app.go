package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/watchparty/server/internal/controller"
	"github.com/watchparty/server/internal/peerbroker"
	conninmemory "github.com/watchparty/server/internal/repository/connection/inmemory"
	roomrepo "github.com/watchparty/server/internal/repository/room"
	roominmemory "github.com/watchparty/server/internal/repository/room/inmemory"
	roomredis "github.com/watchparty/server/internal/repository/room/redis"
	"github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/ctxlogger"
	"github.com/watchparty/server/pkg/redisclient"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"

	shutdownTimeout = 30 * time.Second
)

type AppConfig struct {
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	LogLevel          string        `json:"log_level"`
	Store             string        `json:"store"`
	RedisHost         string        `json:"redis_host"`
	RedisPort         int           `json:"redis_port"`
	RedisPassword     string        `json:"-"`
	RoomTTL           time.Duration `json:"room_ttl"`
	SendQueueSize     int           `json:"send_queue_size"`
	PeerKey           string        `json:"peer_key"`
	PeerAliveTimeout  time.Duration `json:"peer_alive_timeout"`
	PeerExpireTimeout time.Duration `json:"peer_expire_timeout"`
	PeerDiscovery     bool          `json:"peer_discovery"`
}

func (cfg *AppConfig) Validate() error {
	var errs []error

	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port))
	}
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if cfg.Store != StoreMemory && cfg.Store != StoreRedis {
		errs = append(errs, fmt.Errorf("store must be %q or %q, got %q", StoreMemory, StoreRedis, cfg.Store))
	}
	if cfg.Store == StoreRedis && cfg.RoomTTL < time.Second {
		errs = append(errs, fmt.Errorf("room ttl must be at least 1s"))
	}
	if cfg.SendQueueSize < 1 {
		errs = append(errs, fmt.Errorf("send queue size must be greater than 0"))
	}
	if cfg.PeerKey == "" {
		errs = append(errs, fmt.Errorf("peer key must not be empty"))
	}
	if cfg.PeerAliveTimeout <= 0 || cfg.PeerExpireTimeout <= 0 {
		errs = append(errs, fmt.Errorf("peer timeouts must be greater than 0"))
	}

	return errors.Join(errs...)
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", s, err)
	}

	return level, nil
}

func newLogger(cfg *AppConfig) (*slog.Logger, error) {
	logLevel, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h), nil
}

// newRoomRepo returns the configured room store and a function releasing it.
func newRoomRepo(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (roomrepo.Repo, func(), error) {
	switch cfg.Store {
	case StoreRedis:
		rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create redis client: %w", err)
		}

		return roomredis.NewRepo(rc, cfg.RoomTTL, logger), func() { rc.Close() }, nil
	case StoreMemory:
		return roominmemory.NewRepo(logger), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// newHandler wires every component. The peer broker sweeper and, for redis, the
// room keeper run until ctx is done.
func newHandler(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (http.Handler, func(), error) {
	roomRepo, closeRepo, err := newRoomRepo(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	connRepo := conninmemory.NewRepo(logger)
	roomService := room.NewService(roomRepo, connRepo, logger)
	if cfg.Store == StoreRedis {
		go roomService.RunRoomKeeper(ctx, cfg.RoomTTL/3)
	}

	broker := peerbroker.NewBroker(&peerbroker.Config{
		Key:            cfg.PeerKey,
		AliveTimeout:   cfg.PeerAliveTimeout,
		ExpireTimeout:  cfg.PeerExpireTimeout,
		AllowDiscovery: cfg.PeerDiscovery,
	}, logger)
	go broker.Run(ctx)

	c := controller.NewController(roomService, logger, &controller.Config{
		SendQueueSize: cfg.SendQueueSize,
		PeerBroker:    broker,
	})

	return c.GetMux(), closeRepo, nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler, closeRepo, err := newHandler(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: handler,
	}

	errc := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting server", "address", server.Addr, "store", cfg.Store)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	// graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return <-errc
}
