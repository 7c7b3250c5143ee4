package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/app"
	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/config"
	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/domain"
	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/infra/memory"
	pgloader "github.com/lifelinezhang/frequency-smallgame-sub000/internal/infra/postgres"
	redisinfra "github.com/lifelinezhang/frequency-smallgame-sub000/internal/infra/redis"
	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/session"
	transport "github.com/lifelinezhang/frequency-smallgame-sub000/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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

	storageKeys := app.DefaultStorageKeys()
	if cfg.Storage.CompleteKey != "" {
		storageKeys.Complete = cfg.Storage.CompleteKey
	}
	if cfg.Storage.LegacyKey != "" {
		storageKeys.Legacy = cfg.Storage.LegacyKey
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader redisinfra.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestionSets())
	if pool != nil {
		loader = pgloader.NewQuestionLoader(pool)
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var questions app.QuestionRepository
	if redisClient != nil {
		questions = redisinfra.NewQuestionRepository(redisClient, loader, questionTTL)
	} else {
		questions = memory.NewQuestionRepository(loader, questionTTL)
	}

	var friends app.FriendStorage
	var answers session.AnswerStore
	var keyStore app.KeyStore
	var submitter session.AnswerSubmitter
	if redisClient != nil {
		cloud := redisinfra.NewCloudStorage(redisClient, storageKeys)
		friends, answers = cloud, cloud
		keyStore = redisinfra.NewKeyStore(redisClient)
		submitter = redisinfra.NewSubmitQueue(redisClient)
	} else {
		cloud := memory.NewCloudStorage(storageKeys)
		friends, answers = cloud, cloud
		keyStore = memory.NewKeyStore()
		submitter = memory.NewSubmitRecorder()
	}

	var reports app.ReportRepository
	if pool != nil {
		reports = pgloader.NewReportLoader(pool)
	} else {
		reports = memory.NewReportStore()
	}

	service := app.NewQuizService(questions, friends, keyStore, reports, submitter, answers, storageKeys)
	wsHandler := transport.NewWSHandler(service)

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
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestionSets provides a minimal question set; swap the loader for the
// Postgres-backed one in production.
func sampleQuestionSets() map[string]domain.QuestionSet {
	return map[string]domain.QuestionSet{
		"daily": {
			ID:       "daily",
			Category: "personality",
			Questions: []domain.Question{
				{
					ID:         "q1",
					Title:      "Weekend plans look like",
					Choices:    []string{"A quiet day at home", "Out with friends", "Trying something new"},
					OptionKeys: []string{"A", "B", "C"},
					SortOrder:  1,
				},
				{
					ID:         "q2",
					Title:      "Pick a breakfast",
					Choices:    []string{"Congee", "Toast", "Skip it"},
					OptionKeys: []string{"A", "B", "C"},
					SortOrder:  2,
				},
				{
					ID:         "q3",
					Title:      "Your phone battery usually sits at",
					Choices:    []string{"Above 80%", "Around half", "Red zone"},
					OptionKeys: []string{"A", "B", "C"},
					SortOrder:  3,
				},
			},
		},
	}
}
