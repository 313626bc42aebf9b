package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"trivia-live/internal/app"
	"trivia-live/internal/config"
	filebank "trivia-live/internal/infra/file"
	"trivia-live/internal/infra/memory"
	pgloader "trivia-live/internal/infra/postgres"
	redisstore "trivia-live/internal/infra/redis"
	transport "trivia-live/internal/transport/http"
)

const defaultBankFile = "data/questions.json"

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the trivia session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var store app.SnapshotStore
	if redisClient != nil {
		// zero TTL keeps snapshots forever; rooms are never destroyed
		store = redisstore.NewSnapshotStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 0))
	} else {
		store = memory.NewSnapshotStore()
	}

	bank, err := buildQuestionBank(ctx, cfg)
	if err != nil {
		return err
	}

	setID := cfg.Bank.Set
	if setID == "" {
		setID = "default"
	}

	registry := app.NewRoomRegistry(store, bank, setID, clockwork.NewRealClock())
	wsHandler := transport.NewWSHandler(registry)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting trivia session server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildQuestionBank picks the question source: Postgres behind a TTL cache
// when configured, otherwise the JSON file bank. Either way the bank fails
// fast on empty or malformed content.
func buildQuestionBank(ctx context.Context, cfg config.Config) (app.QuestionBank, error) {
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		ttl := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
		return memory.NewQuestionBank(pgloader.NewQuestionLoader(pool), ttl), nil
	}

	path := cfg.Bank.File
	if path == "" {
		path = defaultBankFile
	}
	bank, err := filebank.NewQuestionBank(path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", path).Int("questions", bank.Len()).Msg("question bank loaded")
	return bank, nil
}
