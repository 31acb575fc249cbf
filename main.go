package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodgram/internal/config"
	"foodgram/internal/database"
	"foodgram/internal/handlers"
	"foodgram/internal/logger"
	"foodgram/internal/models"
	"foodgram/internal/repositories"
	"foodgram/internal/services"
	"foodgram/internal/storage"
	"foodgram/internal/tokenstore"
	"foodgram/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// maxBodySize leaves room for base64 encoded recipe images.
const maxBodySize = 16 * 1024 * 1024

// App is the wired HTTP application together with the resources it owns.
type App struct {
	Fiber         *fiber.App
	Auth          *services.AuthService
	Notifications *services.NotificationService

	db    *gorm.DB
	mq    *rabbitmq.Client
	redis *redis.Client
}

// NewApp connects every backing service named in cfg and registers the routes.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	a := &App{db: db}
	if err := database.Migrate(db); err != nil {
		a.Close()
		return nil, err
	}

	images, err := newStorage(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	var revoked tokenstore.Store = tokenstore.NewMemoryStore()
	if cfg.RedisURL != "" {
		if a.redis, err = tokenstore.NewRedisClient(ctx, cfg.RedisURL); err != nil {
			a.Close()
			return nil, err
		}
		revoked = tokenstore.NewRedisStore(a.redis)
	} else {
		log.Warn().Msg("REDIS_URL not set, revoked tokens are kept in memory")
	}

	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		if a.mq, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}); err != nil {
			a.Close()
			return nil, err
		}
		events = a.mq
	} else {
		log.Warn().Msg("RABBITMQ_URL not set, recipe events are not published")
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	followRepo := repositories.NewGORMFollowRepository(db)
	tagRepo := repositories.NewGORMTagRepository(db)
	ingredientRepo := repositories.NewGORMIngredientRepository(db)
	recipeRepo := repositories.NewGORMRecipeRepository(db)

	// --- Services ---
	a.Auth = services.NewAuthService(userRepo, revoked, cfg.JWTSecret, cfg.TokenTTL)
	a.Notifications = services.NewNotificationService(followRepo)
	userService := services.NewUserService(userRepo, followRepo, images)
	followService := services.NewFollowService(userRepo, followRepo, recipeRepo, images)
	tagService := services.NewTagService(tagRepo)
	ingredientService := services.NewIngredientService(ingredientRepo)
	recipeService := services.NewRecipeService(services.RecipeDeps{
		Recipes:     recipeRepo,
		Tags:        tagRepo,
		Ingredients: ingredientRepo,
		Favorites:   repositories.NewGORMFavoriteRepository(db),
		Cart:        repositories.NewGORMShoppingCartRepository(db),
		Follows:     followRepo,
		Images:      images,
		Events:      events,
	})

	// --- Fiber ---
	app := fiber.New(fiber.Config{
		AppName:   "foodgram",
		BodyLimit: maxBodySize,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	if local, ok := images.(*storage.LocalStorage); ok {
		app.Static(cfg.MediaURL, local.BasePath())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
	}))
	handlers.NewAuthHandler(a.Auth).RegisterRoutes(api)
	handlers.NewUserHandler(userService, followService, a.Auth).RegisterRoutes(api)
	handlers.NewCatalogHandler(tagService, ingredientService, a.Auth, cfg.IngredientsCSV).RegisterRoutes(api)
	handlers.NewRecipeHandler(recipeService, a.Auth).RegisterRoutes(api)

	a.Fiber = app
	return a, nil
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.StorageDriver == "s3" {
		s3, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			PublicURL: cfg.S3.PublicURL,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	}

	local, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath: cfg.MediaRoot,
		BaseURL:  cfg.MediaURL,
	})
	if err != nil {
		return nil, err
	}
	return local, nil
}

// StartConsumer feeds recipe events to the notification service until ctx is
// done. It does nothing when no broker is configured.
func (a *App) StartConsumer(ctx context.Context) error {
	if a.mq == nil {
		return nil
	}
	return a.mq.ConsumeRecipeEvents(ctx, func(ctx context.Context, event models.RecipeEvent) error {
		_, err := a.Notifications.HandleRecipeEvent(ctx, event)
		return err
	})
}

// Close releases the broker, redis and database connections.
func (a *App) Close() {
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close RabbitMQ client")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis client")
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer app.Close()

	if err := app.StartConsumer(ctx); err != nil {
		log.Error().Err(err).Msg("failed to start recipe event consumer")
	}

	go func() {
		log.Info().Str("port", cfg.AppPort).Msg("starting server")
		if err := app.Fiber.Listen(cfg.AppPort); err != nil {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	if err := app.Fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("error during fiber shutdown")
	}
	log.Info().Msg("server gracefully stopped")
}
