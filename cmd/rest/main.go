package main

import (
	"birthday-notes-be/internal/config"
	"birthday-notes-be/internal/controller"
	"birthday-notes-be/internal/pkg/serverutils"
	"birthday-notes-be/internal/repository"
	"birthday-notes-be/internal/service"
	"birthday-notes-be/pkg/database"
	"birthday-notes-be/pkg/objectstorage"
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	level, _ := config.ParseLogLevel(cfg.LogLevel)
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(serverutils.ErrorHandlerMiddleware())

	var noteRepository repository.INoteRepository
	var txBeginner database.TxBeginner
	if cfg.DatabaseURL != "" {
		db := database.ConnectDB(cfg.DatabaseURL)
		defer db.Close()

		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal(err)
		}

		noteRepository = repository.NewNoteRepository(db)
		txBeginner = db
	} else {
		log.Warn("[Database] DB_CONNECTION_STRING not set, notes are kept in memory")
		noteRepository = repository.NewNoteMemoryRepository()
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("[Cache] invalid REDIS_URL: %v", err)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warnf("[Cache] redis unreachable, reads fall through to the store: %v", err)
		}
		noteRepository = repository.NewNoteCacheRepository(noteRepository, redisClient, cfg.CacheTTL)
	}

	var storage *objectstorage.Client
	if cfg.ArchiveEnabled() {
		storage, err = objectstorage.NewClient(ctx, objectstorage.Config{
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
		})
		if err != nil {
			log.Fatalf("[Archive] failed to create storage client: %v", err)
		}
		if err := storage.EnsureBucket(ctx, cfg.S3Bucket); err != nil {
			log.Fatalf("[Archive] failed to prepare bucket %s: %v", cfg.S3Bucket, err)
		}
	}

	watermillLogger := watermill.NewStdLogger(cfg.LogLevel == "debug", cfg.LogLevel == "trace")
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)
	defer pubSub.Close()

	publisherService := service.NewPublisherService(cfg.NoteEventsTopicName, pubSub)
	archiveService := service.NewArchiveService(noteRepository, storage, cfg.S3Bucket)
	consumerService := service.NewConsumerService(pubSub, cfg.NoteEventsTopicName, archiveService)
	noteService := service.NewNoteService(noteRepository, publisherService, txBeginner)

	healthController := controller.NewHealthController(noteRepository)
	noteController := controller.NewNoteController(noteService, archiveService)

	healthController.RegisterRoutes(app)
	api := app.Group("/api")
	noteController.RegisterRoutes(api)

	if err := consumerService.Consume(ctx); err != nil {
		log.Fatal(err)
	}

	if archiveService.Enabled() {
		if err := archiveService.Refresh(ctx); err != nil {
			log.Errorf("[Archive] initial export failed: %v", err)
		}
	}

	go func() {
		log.Infof("[Server] listening on %s", cfg.ListenAddr())
		if err := app.Listen(cfg.ListenAddr()); err != nil {
			log.Errorf("[Server] %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("[Server] shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Errorf("[Server] shutdown: %v", err)
	}
}
