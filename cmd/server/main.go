package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	appservice "github.com/turtacn/authgate/internal/application/service"
	"github.com/turtacn/authgate/internal/config"
	"github.com/turtacn/authgate/internal/domain/repository"
	domainservice "github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/internal/infrastructure/audit"
	"github.com/turtacn/authgate/internal/infrastructure/crypto"
	"github.com/turtacn/authgate/internal/infrastructure/identity"
	memblacklist "github.com/turtacn/authgate/internal/infrastructure/memory"
	"github.com/turtacn/authgate/internal/infrastructure/monitoring"
	memstore "github.com/turtacn/authgate/internal/infrastructure/persistence/memory"
	"github.com/turtacn/authgate/internal/infrastructure/persistence/postgres"
	redisinfra "github.com/turtacn/authgate/internal/infrastructure/redis"
	httpiface "github.com/turtacn/authgate/internal/interfaces/http"
	"github.com/turtacn/authgate/internal/interfaces/http/handlers"
	"github.com/turtacn/authgate/internal/tasks"
	"github.com/turtacn/authgate/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger, err := monitoring.NewZapLogger(monitoring.LogConfig(cfg.Log))
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	if leveled, ok := appLogger.(interface{ SetLevel(string) }); ok {
		config.WatchLogLevel(v, leveled.SetLevel)
	}

	shutdownTracing, _, err := monitoring.InitTracing(monitoring.TracingConfig(cfg.Tracing))
	if err != nil {
		appLogger.Fatal(ctx, "initialize tracing", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	metrics := monitoring.NewMetrics()

	keys, err := buildKeyManager(ctx, cfg)
	if err != nil {
		appLogger.Fatal(ctx, "initialize signing keys", err)
	}
	codec := crypto.NewJWTCodec(keys, crypto.CodecConfig{
		Issuer:         cfg.Token.Issuer,
		Audience:       cfg.Token.Audience,
		AccessTokenTTL: cfg.Token.AccessTokenTTL,
	}, nil)

	tokenRepo, err := buildTokenRepo(cfg, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "initialize token store", err)
	}

	blacklist, err := buildBlacklist(ctx, cfg)
	if err != nil {
		appLogger.Fatal(ctx, "initialize token blacklist", err)
	}

	auditPublisher := buildAuditPublisher(cfg, appLogger)
	if closer, ok := auditPublisher.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	engine := domainservice.NewLifecycleEngine(tokenRepo, auditPublisher, domainservice.TokenPolicy{
		StandardTTL:     cfg.Token.StandardTTL,
		PersistentTTL:   cfg.Token.PersistentTTL,
		GracePeriod:     cfg.Token.GracePeriod,
		MaxActiveTokens: cfg.Token.MaxActiveTokens,
		RetentionWindow: cfg.Token.RetentionWindow,
	}, appLogger, nil)

	users := identity.NewStaticProvider(toIdentityEntries(cfg.Identity.Users))
	authSvc := appservice.NewAuthService(engine, codec, blacklist, tokenRepo, users, users, appLogger)

	server := httpiface.NewServer(httpiface.RouterDeps{
		Config:        &cfg.Server,
		Logger:        appLogger,
		AuthService:   authSvc,
		AuthHandler:   handlers.NewAuthHandler(authSvc, metrics),
		HealthHandler: handlers.NewHealthHandler(nil),
	})
	sweeper := tasks.NewSweeper(engine, cfg.Sweeper.Interval, metrics, appLogger)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		appLogger.Info(groupCtx, "http server listening", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		err := sweeper.Run(groupCtx)
		if err == context.Canceled {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-groupCtx.Done()
		return httpiface.Shutdown(context.Background(), server, cfg.Server.WriteTimeout)
	})

	if err := group.Wait(); err != nil {
		appLogger.Fatal(context.Background(), "server exited", err)
	}
	appLogger.Info(context.Background(), "server stopped")
}

func buildKeyManager(ctx context.Context, cfg *config.Config) (*crypto.KeyManager, error) {
	switch cfg.Keys.Source {
	case "file":
		return crypto.NewKeyManagerFromPEM(cfg.Keys.PrivateKeyFile)
	case "vault":
		source, err := crypto.NewVaultKeySource(cfg.Keys.VaultAddress, cfg.Keys.VaultToken, cfg.Keys.VaultMount, cfg.Keys.VaultSecret)
		if err != nil {
			return nil, err
		}
		return source.Load(ctx)
	default:
		return crypto.NewGeneratedKeyManager()
	}
}

func buildTokenRepo(cfg *config.Config, log logger.Logger) (repository.TokenRepository, error) {
	if cfg.Storage.Driver == "memory" {
		return memstore.NewTokenRepo(), nil
	}
	db, err := postgres.Open(postgres.ConnectionConfig{
		Host:            cfg.Storage.Host,
		Port:            cfg.Storage.Port,
		User:            cfg.Storage.User,
		Password:        cfg.Storage.Password,
		Database:        cfg.Storage.Database,
		SSLMode:         cfg.Storage.SSLMode,
		MaxOpenConns:    cfg.Storage.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.MaxIdleConns,
		ConnMaxLifetime: cfg.Storage.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	return postgres.NewTokenRepo(db, log), nil
}

func buildBlacklist(ctx context.Context, cfg *config.Config) (domainservice.TokenBlacklist, error) {
	if cfg.Blacklist.Backend == "memory" {
		return memblacklist.NewTokenBlacklist(), nil
	}
	client, err := redisinfra.NewClient(ctx, redisinfra.ConnectionConfig{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err != nil {
		return nil, err
	}
	return redisinfra.NewTokenBlacklist(client), nil
}

func buildAuditPublisher(cfg *config.Config, log logger.Logger) domainservice.AuditPublisher {
	if !cfg.Audit.Enabled {
		return audit.NewNoopPublisher()
	}
	return audit.NewKafkaProducer(audit.KafkaConfig{
		Brokers:      cfg.Audit.Brokers,
		Topic:        cfg.Audit.Topic,
		BatchTimeout: cfg.Audit.BatchTimeout,
		WriteTimeout: cfg.Audit.WriteTimeout,
	}, log)
}

func toIdentityEntries(entries []config.UserEntry) []identity.UserEntry {
	out := make([]identity.UserEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, identity.UserEntry{
			ID:             e.ID,
			Username:       e.Username,
			PasswordSHA256: e.PasswordSHA256,
			Name:           e.Name,
			Roles:          e.Roles,
			Active:         e.Active,
		})
	}
	return out
}
