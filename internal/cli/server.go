package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/omaks45/Brainiac-backend/internal/app"
	"github.com/omaks45/Brainiac-backend/internal/config"
	"github.com/omaks45/Brainiac-backend/internal/event"
	"github.com/omaks45/Brainiac-backend/internal/infra/gemini"
	"github.com/omaks45/Brainiac-backend/internal/infra/memory"
	mongostore "github.com/omaks45/Brainiac-backend/internal/infra/mongo"
	redisinfra "github.com/omaks45/Brainiac-backend/internal/infra/redis"
	"github.com/omaks45/Brainiac-backend/internal/notify"
	transport "github.com/omaks45/Brainiac-backend/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the challenge server",
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
	log := logrus.WithField("component", "server")

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var (
		challengeStore app.ChallengeStore
		attemptStore   app.AttemptStore
		quizRepo       app.QuizRepository
		quizSource     app.QuizSource
		quizStats      app.QuizStats
	)
	if cfg.Mongo.URI != "" {
		client, err := driver.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		db := client.Database(cfg.Mongo.Database)
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			return err
		}
		challengeStore = mongostore.NewChallengeStore(db)
		attemptStore = mongostore.NewAttemptStore(db)
		qs := mongostore.NewQuizStore(db)
		quizRepo, quizSource, quizStats = qs, qs, qs
		log.Infof("using mongodb database %s", cfg.Mongo.Database)
	} else {
		challengeStore = memory.NewChallengeStore()
		attemptStore = memory.NewAttemptStore()
		qs := memory.NewQuizStore()
		quizRepo, quizSource, quizStats = qs, qs, qs
		log.Warn("mongo uri not configured, using in-memory stores")
	}

	var presence notify.Presence
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		presence = redisinfra.NewPresenceStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
		cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
		quizSource = redisinfra.NewQuizKeyCache(redisClient, quizRepo, cacheTTL)
		log.Infof("answer-key cache enabled via redis at %s", cfg.Redis.Addr)
	}

	var generator app.QuizGenerator
	if os.Getenv("GEMINI_API_KEY") != "" || os.Getenv("GOOGLE_API_KEY") != "" {
		g, err := gemini.NewGenerator(ctx, cfg.Gemini.Model, config.TTLDuration(cfg.Gemini.MinInterval, gemini.DefaultMinInterval), logrus.WithField("component", "gemini"))
		if err != nil {
			return err
		}
		defer g.Close()
		generator = g
	} else {
		generator = memory.NewStaticQuizGenerator()
		log.Warn("no gemini api key in environment, using static quiz generator")
	}

	var publisher app.EventPublisher
	if cfg.AMQP.URL != "" {
		p, err := event.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		defer p.Close()
		publisher = p
		log.Infof("mirroring events to exchange %s", cfg.AMQP.Exchange)
	}

	hub := notify.NewHub(presence)
	challengeService := app.NewChallengeService(challengeStore, quizRepo, generator, hub, publisher, app.ChallengeConfig{
		TTL:           config.TTLDuration(cfg.Challenge.TTL, app.DefaultChallengeTTL),
		QuestionCount: cfg.Challenge.QuestionCount,
	})
	attemptService := app.NewAttemptService(attemptStore, quizSource, quizStats, challengeService)
	quizService := app.NewQuizService(quizRepo, generator)
	wsHandler := transport.NewWSHandler(challengeService, attemptService, quizService, hub)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepExpired(sweepCtx, challengeService, config.TTLDuration(cfg.Challenge.SweepInterval, time.Minute))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		log.Infof("starting challenge service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sweepExpired periodically moves pending challenges past their deadline to
// the expired state.
func sweepExpired(ctx context.Context, challenges *app.ChallengeService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := challenges.ExpirePending(ctx); err != nil {
				logrus.WithError(err).Warn("expiry sweep failed")
			}
		case <-ctx.Done():
			return
		}
	}
}
