package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	natsio "github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tradepost/listing-service/internal/adapter/httpapi"
	"github.com/tradepost/listing-service/internal/adapter/messaging/discord"
	"github.com/tradepost/listing-service/internal/adapter/messaging/nats"
	"github.com/tradepost/listing-service/internal/adapter/repository/cache"
	"github.com/tradepost/listing-service/internal/adapter/repository/mongodb"
	"github.com/tradepost/listing-service/internal/adapter/storage/s3"
	"github.com/tradepost/listing-service/internal/config"
	"github.com/tradepost/listing-service/internal/listing/domain"
	"github.com/tradepost/listing-service/internal/listing/usecase"
	"github.com/tradepost/listing-service/internal/platform/logger"
	"github.com/tradepost/listing-service/internal/platform/tracer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logg, err := logger.NewZapLogger(logger.Config{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		TimeFormat: cfg.Logger.TimeFormat,
	})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.OTLPEndpoint != "" {
		tp, err := tracer.Init(ctx, cfg.Tracing.OTLPEndpoint)
		if err != nil {
			logg.Fatalf("failed to initialize tracer: %v", err)
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logg.Warnf("tracer shutdown: %v", err)
			}
		}()
	}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logg.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		logg.Fatalf("failed to ping MongoDB: %v", err)
	}
	db := mongoClient.Database(cfg.Mongo.Database)

	listingRepo := mongodb.NewListingRepository(mongoClient, db)
	eventRepo := mongodb.NewEventRepository(db, listingRepo)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logg.Fatalf("failed to ping Redis: %v", err)
	}
	listingCache := cache.NewListingCache(redisClient)

	var publisher domain.EventPublisher
	if cfg.NATS.URL != "" {
		conn, err := natsio.Connect(cfg.NATS.URL)
		if err != nil {
			logg.Fatalf("failed to connect to NATS: %v", err)
		}
		natsPublisher, err := nats.NewPublisher(conn)
		if err != nil {
			logg.Fatalf("failed to initialize NATS publisher: %v", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	}

	imageStore, err := s3.NewImageStorage(
		cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey,
		cfg.MinIO.Bucket, cfg.MinIO.UseSSL, logg,
	)
	if err != nil {
		logg.Fatalf("failed to initialize image storage: %v", err)
	}

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		logg.Fatalf("failed to create Discord session: %v", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers

	messenger := discord.NewMessenger(session, discord.Config{
		GuildID:         cfg.Discord.GuildID,
		ChannelID:       cfg.Discord.ChannelID,
		EventsChannelID: cfg.Discord.EventsChannelID,
	})

	recorder := usecase.NewRecorder(eventRepo)
	service := usecase.NewService(listingRepo, recorder, messenger, imageStore, listingCache, publisher, logg)
	sweep := usecase.NewReminderSweep(listingRepo, messenger, messenger, cfg.Reminder.Interval, logg)

	discord.NewAttachmentListener(listingRepo, service, logg).Register(session)

	if err := session.Open(); err != nil {
		logg.Fatalf("failed to open Discord gateway connection: %v", err)
	}
	defer session.Close()

	go sweep.Run(ctx)

	handler := httpapi.NewHandler(service, logg)
	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      otelhttp.NewHandler(httpapi.NewRouter(handler, cfg.JWTSecret, logg), "http.server"),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logg.Infof("listening on :%s", cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Warnf("http shutdown: %v", err)
	}
}
