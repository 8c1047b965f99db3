package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/plateful/server/cmd/server/docs" // swagger docs

	"github.com/plateful/server/internal/module/ai"
	"github.com/plateful/server/internal/module/billing"
	billingprovider "github.com/plateful/server/internal/module/billing/provider"
	"github.com/plateful/server/internal/module/mealplan"
	"github.com/plateful/server/internal/module/profile"
	"github.com/plateful/server/internal/shared/cache"
	"github.com/plateful/server/internal/shared/config"
	"github.com/plateful/server/internal/shared/database"
	"github.com/plateful/server/internal/shared/logger"
	"github.com/plateful/server/internal/shared/metrics"
	"github.com/plateful/server/internal/shared/middleware"
)

// App wires configuration, storage and modules into a runnable server.
type App struct {
	config *config.Config
	logger *zap.Logger
	db     *gorm.DB
	redis  redis.UniversalClient
	router *gin.Engine
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrate(&profile.Profile{}, &mealplan.SavedMealPlan{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	app := &App{
		config: cfg,
		logger: log,
		db:     db,
	}

	// Redis is optional; without it the generate endpoint runs unthrottled.
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Warn("redis connection failed, rate limiting disabled", zap.Error(err))
		} else {
			app.redis = redisClient
		}
	}

	app.router = app.setupRouter()
	return app, nil
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Stop releases held resources.
func (a *App) Stop() {
	if a.redis != nil {
		if err := cache.Close(a.redis); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if err := database.Close(a.db); err != nil {
		a.logger.Warn("close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	m := metrics.New("plateful")

	r := gin.New()
	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.CORS(a.config.Server.CORSOrigins))
	r.Use(middleware.Metrics(m))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	// Repositories and clients
	profileRepo := profile.NewRepository(a.db)
	planRepo := mealplan.NewRepository(a.db)

	stripeProvider := billingprovider.NewStripeProvider(&billingprovider.StripeConfig{
		APIKey:        a.config.Stripe.SecretKey,
		WebhookSecret: a.config.Stripe.WebhookSecret,
	})

	var aiClient ai.Client = ai.NewHTTPClient(a.config.AI)
	aiClient = ai.NewBreakerClient(aiClient, a.config.AI, a.logger)

	// Services
	profileService := profile.NewService(profileRepo, a.logger)
	catalog := billing.NewCatalog(a.config.Stripe.Prices)
	billingService := billing.NewService(profileRepo, stripeProvider, catalog, a.config.App.BaseURL, a.logger)
	mealplanService := mealplan.NewService(profileRepo, planRepo, aiClient, m, a.logger)

	// Webhook endpoint stays outside the authenticated group; deliveries
	// are authenticated by signature instead.
	webhookHandler := billing.NewWebhookHandler(billingService, stripeProvider, m, a.logger)
	webhookHandler.RegisterRoutes(&r.RouterGroup)

	validator := middleware.NewTokenValidator(a.config.Auth.JWTSecret)
	authed := r.Group("/", middleware.RequireAuth(validator))

	profile.NewHandler(profileService).RegisterRoutes(authed)
	billing.NewHandler(billingService).RegisterRoutes(authed)

	mealplanHandler := mealplan.NewHandler(mealplanService)
	if a.redis != nil {
		limiter := cache.NewRateLimiter(a.redis)
		authed.POST("/generate-plan",
			middleware.RateLimit(limiter, a.config.RateLimit.GenerateLimit, a.config.RateLimit.GenerateWindow, a.logger),
			mealplanHandler.Generate)
		mealplanHandler.RegisterSavedPlanRoutes(authed)
	} else {
		mealplanHandler.RegisterRoutes(authed)
	}

	return r
}
