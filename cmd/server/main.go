package main

import (
	"context"
	"dm-chat/auth"
	"dm-chat/contract"
	"dm-chat/infrastructure/api"
	"dm-chat/infrastructure/gateway"
	"dm-chat/internal"
	"dm-chat/moderation"
	"dm-chat/repositories"
	"dm-chat/repositories/mongostore"
	"dm-chat/runtime"
	"dm-chat/runtime/workers"
	"dm-chat/services"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// store groups the repositories of the selected driver and what must be closed on exit.
type store struct {
	users    contract.IUserRepository
	messages contract.IMessageRepository
	close    func()
}

// run initializes all components and blocks until a signal arrives.
// Returning instead of exiting lets every defer release the databases.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Storage
	st, err := openStore(ctx, config, logger)
	if err != nil {
		return exitRuntime, err
	}
	defer st.close()

	// 4. Domain services
	moderator, err := moderation.NewModerator(moderation.ParseWords(config.CensoredWords), charReplacement, logger)
	if err != nil {
		return exitConfig, fmt.Errorf("moderation setup failed: %w", err)
	}

	registry := runtime.NewRegistry()
	tokens := auth.NewTokenService(config.SecretKey, config.TokenDuration)
	hasher := auth.NewPasswordHasher(auth.DefaultArgon2Params)

	authService := services.NewAuthService(st.users, hasher, tokens, logger)
	profileService := services.NewProfileService(st.users)
	contactService := services.NewContactService(st.users, st.messages, logger)
	messageService := services.NewMessageService(st.messages)
	chatService := services.NewChatService(
		st.users, st.messages, registry, moderator, logger,
		config.DeliveryTimeout, config.MaxContentLength,
	)

	// 5. Transports
	gatewayCfg := gateway.DefaultConfig()
	gatewayCfg.BufferSize = config.ConnectionBufferSize
	gatewayCfg.AllowedOrigin = config.Origin
	gw := gateway.NewGateway(tokens, registry, chatService, gatewayCfg, logger)

	handler := api.NewHandler(
		authService, profileService, contactService, messageService,
		registry, tokens.Duration(),
		auth.CookieOptions{Secure: config.CookieSecure, Domain: config.CookieDomain},
		logger,
	)
	router := api.NewRouter(handler, tokens, gw, config.Origin, logger)

	server := &http.Server{
		Addr:              config.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. Supervision
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	sup.Add(
		workers.NewHTTPServerWorker(logger, server, config.ShutdownTimeout, gw),
		workers.NewHeartbeatWorker(logger, registry, config.MetricInterval),
	)

	logger.Info("Starting dm-chat",
		"addr", config.Addr(),
		"driver", config.StoreDriver,
		"at", time.Now().UTC())

	// Run blocks until the signal cancels ctx and every worker has returned.
	sup.Run(ctx)

	logger.Info("Program stopped cleanly")
	return exitOK, nil
}

func openStore(ctx context.Context, config internal.Config, logger *slog.Logger) (store, error) {
	if config.StoreDriver == internal.DriverMongo {
		return openMongo(ctx, config, logger)
	}
	return openBadger(ctx, config, logger)
}

func openBadger(ctx context.Context, config internal.Config, logger *slog.Logger) (store, error) {
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return store{}, fmt.Errorf("database opening failed: %w", err)
	}

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		_ = db.Close()
		return store{}, fmt.Errorf("failed to open bluge writer: %w", err)
	}

	index := repositories.NewContactIndex(writer, repositories.DefaultSearchLimit)
	users := repositories.NewUserRepository(db, index, logger)
	count, err := users.RebuildIndex(ctx)
	if err != nil {
		_ = index.Close()
		_ = db.Close()
		return store{}, fmt.Errorf("contact index rebuild failed: %w", err)
	}
	logger.Info("Contact index ready", "users", count)

	return store{
		users:    users,
		messages: repositories.NewMessageRepository(db, logger),
		close: func() {
			logger.Info("Closing Bluge...")
			_ = index.Close()
			// The database lock is released and buffers are flushed before exit.
			logger.Info("Closing BadgerDB...")
			_ = db.Close()
		},
	}, nil
}

func openMongo(ctx context.Context, config internal.Config, logger *slog.Logger) (store, error) {
	client, err := mongostore.Connect(ctx, config.DatabaseURL)
	if err != nil {
		return store{}, fmt.Errorf("mongo connection failed: %w", err)
	}
	db := client.Database(config.MongoDatabase)
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return store{}, fmt.Errorf("mongo index creation failed: %w", err)
	}
	logger.Info("Connected to MongoDB", "database", config.MongoDatabase)

	return store{
		users:    mongostore.NewUserRepository(db),
		messages: mongostore.NewMessageRepository(db),
		close: func() {
			logger.Info("Closing MongoDB...")
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		},
	}, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
