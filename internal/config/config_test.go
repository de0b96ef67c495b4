package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-key")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	for _, key := range []string{"PORT", "ENVIRONMENT", "STORAGE_BUCKET", "UPSTREAM_TIMEOUT", "KAFKA_BROKERS",
		"STRIPE_WEBHOOK_SECRET", "CLOUDINARY_CLOUD_NAME", "CLOUDINARY_API_KEY", "CLOUDINARY_API_SECRET"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CORS_ORIGINS", "https://shop.example.com, https://admin.example.com,")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "product-files", cfg.StorageBucket)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.True(t, cfg.AllowUnsignedWebhooks())
	assert.False(t, cfg.CloudinaryConfigured())
}

func TestLoadConfigRequiresCoreSettings(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPABASE_SERVICE_ROLE_KEY")
}

func TestProductionRequiresWebhookSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ENVIRONMENT", "production")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRIPE_WEBHOOK_SECRET")

	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_live")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.AllowUnsignedWebhooks())
}

func TestMongoPasswordPlaceholder(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("MONGODB_URI", "mongodb+srv://app:<password>@cluster.example.net")
	t.Setenv("MONGODB_PASSWORD", "")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "MONGODB_PASSWORD")
}

func TestInvalidUpstreamTimeout(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("UPSTREAM_TIMEOUT", "soon")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "UPSTREAM_TIMEOUT")
}
