package connect

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/malakmiqdad/storefront/internal/config"
	"github.com/malakmiqdad/storefront/internal/notify"
	"github.com/malakmiqdad/storefront/internal/payments"
	"github.com/malakmiqdad/storefront/internal/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InitSupabase connects with the service role key. The API enforces
// ownership itself, so it needs to read every row.
func InitSupabase(cfg *config.Config) (*supabase.Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Supabase: %w", err)
	}
	return client, nil
}

func MongoDBConnect(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	fullURI := strings.Replace(cfg.MongoDBURI, "<password>", cfg.MongoDBPassword, 1)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(fullURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

func MongoDBDisconnect(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	return nil
}

// CloudinaryCredentials returns nil without error when uploads are not
// configured; admin product covers then need a URL instead of an image.
func CloudinaryCredentials(cfg *config.Config) (*cloudinary.Cloudinary, error) {
	if !cfg.CloudinaryConfigured() {
		return nil, nil
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return cld, nil
}

// RedisConnect returns nil when REDIS_ADDR is unset or unreachable. Redis
// only backs the dedup keys and the catalog cache, both optional.
func RedisConnect(ctx context.Context, cfg *config.Config, logger *slog.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		logger.Info("Redis not configured, webhook dedup and catalog cache disabled")
		return nil
	}
	rdb := redisx.New(cfg.RedisAddr)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := redisx.Ping(ctx, rdb); err != nil {
		logger.Warn("Redis unreachable, continuing without it", "addr", cfg.RedisAddr, "error", err)
		_ = rdb.Close()
		return nil
	}
	logger.Info("Redis connected", "addr", cfg.RedisAddr)
	return rdb
}

func Stripe(cfg *config.Config, logger *slog.Logger) *payments.StripeGateway {
	if cfg.AllowUnsignedWebhooks() {
		logger.Warn("STRIPE_WEBHOOK_SECRET not set, accepting unsigned webhooks in development")
	}
	return payments.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.AllowUnsignedWebhooks())
}

// Mailer sends through Resend, or only logs the messages when no API key
// is configured.
func Mailer(cfg *config.Config, logger *slog.Logger) notify.Notifier {
	if cfg.ResendAPIKey == "" {
		logger.Info("RESEND_API_KEY not set, e-mails will be logged only")
		return notify.NewLogNotifier(cfg.MailFrom, cfg.AdminEmail, logger)
	}
	return notify.NewMailer(notify.NewResendSender(cfg.ResendAPIKey), cfg.MailFrom, cfg.AdminEmail, cfg.UpstreamTimeout, logger)
}
