package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"video_fetcher/internal/config"
	"video_fetcher/internal/domain"
	"video_fetcher/internal/publisher"
	"video_fetcher/internal/service"
	"video_fetcher/internal/source/youtube"
	"video_fetcher/internal/storage/postgres"
)

const usage = `usage: videofetcher [-config path] <command> [args]

commands:
  get <video_id>            print a video, from the store or the platform
  fetch <video_id>          like get, then save it when it came from the platform
  list [-offset N] [-limit N]
                            print stored video ids
  search <query>            print video ids matching query
`

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Debug("connected to database")

	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	ytClient, err := youtube.New(ctx, youtube.Config{
		APIKey:  cfg.YouTube.APIKey,
		BaseURL: cfg.YouTube.BaseURL,
		Timeout: cfg.YouTube.Timeout,
	}, logger)
	if err != nil {
		logger.Error("failed to create youtube client", "error", err)
		os.Exit(1)
	}

	videoService := service.NewVideoService(
		ytClient,
		postgres.NewVideoStore(db),
		postgres.NewTransactionManager(db),
		pub,
		logger,
		cfg.Service,
	)

	if err := run(ctx, videoService, flag.Args()); err != nil {
		logger.Error("command failed", "command", flag.Arg(0), "error", err)
		if errors.Is(err, domain.ErrNotFound) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, svc *service.VideoService, args []string) error {
	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")

	switch cmd, rest := args[0], args[1:]; cmd {
	case "get", "fetch":
		if len(rest) != 1 {
			return fmt.Errorf("%s takes exactly one video id", cmd)
		}
		lookup := svc.GetVideo
		if cmd == "fetch" {
			lookup = svc.FetchVideo
		}
		video, err := lookup(ctx, rest[0])
		if err != nil {
			return err
		}
		return out.Encode(video)

	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		offset := fs.Int("offset", domain.DefaultPageOffset, "number of ids to skip")
		limit := fs.Int("limit", domain.DefaultPageLimit, "maximum number of ids")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		ids, err := svc.ListVideoIDs(ctx, *offset, *limit)
		if err != nil {
			return err
		}
		return out.Encode(ids)

	case "search":
		if len(rest) == 0 {
			return errors.New("search needs a query")
		}
		ids, err := svc.SearchVideos(ctx, strings.Join(rest, " "))
		if err != nil {
			return err
		}
		return out.Encode(ids)

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}
