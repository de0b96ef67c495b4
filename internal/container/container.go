package container

import (
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/malakmiqdad/storefront/internal/config"
	"github.com/malakmiqdad/storefront/internal/events"
	"github.com/malakmiqdad/storefront/internal/helpers"
	"github.com/malakmiqdad/storefront/internal/models"
	"github.com/malakmiqdad/storefront/internal/notify"
	"github.com/malakmiqdad/storefront/internal/payments"
	"github.com/malakmiqdad/storefront/internal/redisx"
	"github.com/malakmiqdad/storefront/internal/services"
	"github.com/malakmiqdad/storefront/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// Clients are the connections opened by main. Redis and Cloudinary may be nil.
type Clients struct {
	Supabase   *supabase.Client
	MongoDB    *mongo.Client
	Redis      *redis.Client
	Cloudinary *cloudinary.Cloudinary
	Gateway    payments.Gateway
	Notifier   notify.Notifier
	Verifier   *helpers.TokenVerifier
	Metrics    *telemetry.Metrics
}

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Logger   *slog.Logger
	Verifier *helpers.TokenVerifier
	Producer *events.Producer

	UserService      *services.UserService
	CatalogService   *services.CatalogService
	CheckoutService  *services.CheckoutService
	BookingService   *services.BookingService
	OrderService     *services.OrderService
	WebhookService   *services.WebhookService
	ContactService   *services.ContactService
	AnalyticsService *services.AnalyticsService
	AdminService     *services.AdminService
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, logger *slog.Logger, cl Clients) *Container {
	supa := models.SupabaseNewRepo(cl.Supabase, cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.StorageBucket)
	mongo := models.MongodbNewRepo(cl.MongoDB, cfg.MongoDBName)
	links := services.Links{AppURL: cfg.AppURL}

	// Optional collaborators stay nil interfaces when not configured.
	var (
		cache    services.Cache
		dedup    services.Deduper
		uploader services.ImageUploader
	)
	if cl.Redis != nil {
		cache = redisx.NewCache(cl.Redis, redisx.CatalogTTL)
		dedup = redisx.NewDedup(cl.Redis, redisx.WebhookDedupTTL)
	}
	if cl.Cloudinary != nil {
		uploader = helpers.NewCloudinaryUploader(cl.Cloudinary, logger)
	}

	var (
		producer  *events.Producer
		publisher events.Publisher = events.LogPublisher{Logger: logger}
	)
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, 0, logger)
		publisher = producer
	}

	userService := services.NewUserService(supa)
	checkoutService := services.NewCheckoutService(supa, supa, supa, supa, cl.Gateway, links, cl.Metrics, logger)
	bookingService := services.NewBookingService(supa, supa, mongo, supa, checkoutService, cl.Notifier, publisher, links, cl.Metrics, logger)

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Verifier: cl.Verifier,
		Producer: producer,

		UserService:     userService,
		CatalogService:  services.NewCatalogService(supa, cache, uploader, logger),
		CheckoutService: checkoutService,
		BookingService:  bookingService,
		OrderService:    services.NewOrderService(supa, supa, supa, logger),
		WebhookService: services.NewWebhookService(services.WebhookDeps{
			Gateway:   cl.Gateway,
			Orders:    supa,
			Catalog:   supa,
			Files:     supa,
			Analytics: mongo,
			Profiles:  supa,
			Bookings:  bookingService,
			Notifier:  cl.Notifier,
			Publisher: publisher,
			Dedup:     dedup,
			Links:     links,
			Metrics:   cl.Metrics,
			Logger:    logger,
		}),
		ContactService:   services.NewContactService(supa, logger),
		AnalyticsService: services.NewAnalyticsService(mongo, logger),
		AdminService:     services.NewAdminService(supa, supa, supa, mongo, logger),
	}
}
