// Package bootstrap wires process-level dependencies for the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"orma/internal/cache"
	"orma/internal/config"
	"orma/internal/database"
	"orma/internal/middleware"
	"orma/internal/payments"
	"orma/internal/queue"
	"orma/internal/seed"
	"orma/internal/server"
	"orma/internal/sms"
	"orma/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedCatalog upserts categories and pricing tiers after the schema is applied.
	SeedCatalog bool
}

// InitRuntime connects to the database, applies the schema and connects to
// Redis. A nil Redis client means the service runs without a cache.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return nil, nil, fmt.Errorf("apply schema: %w", err)
	}

	if opts.SeedCatalog {
		if err := seed.Catalog(db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed catalog: %w", err)
		}
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	return db, cache.GetClient(), nil
}

// Integrations builds the storage, queue, SMS and payment clients. Outside
// production, an unconfigured queue, SMS or payment provider falls back to a
// logging stand-in.
func Integrations(cfg *config.Config) (server.Integrations, error) {
	var ext server.Integrations

	store, err := storage.New(storage.Options{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Timeout:   cfg.StorageTimeout(),
	})
	if err != nil {
		return ext, err
	}
	ext.Storage = store

	switch {
	case cfg.QueueURL != "":
		jobs, err := queue.NewSQSPublisher(queue.Options{
			QueueURL:  cfg.QueueURL,
			Region:    cfg.QueueRegion,
			AccessKey: cfg.QueueAccessKey,
			SecretKey: cfg.QueueSecretKey,
			Timeout:   cfg.QueueTimeout(),
		})
		if err != nil {
			return ext, err
		}
		ext.Jobs = jobs
	case cfg.IsProduction():
		return ext, fmt.Errorf("QUEUE_URL is required in production")
	default:
		middleware.Logger.Warn("QUEUE_URL not set, processing jobs are only logged")
		ext.Jobs = queue.LogPublisher{}
	}

	switch {
	case cfg.TwilioAccountSID != "":
		sender, err := sms.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, cfg.SMSTimeout())
		if err != nil {
			return ext, err
		}
		ext.SMS = sender
	case cfg.IsProduction():
		return ext, fmt.Errorf("TWILIO_ACCOUNT_SID is required in production")
	default:
		middleware.Logger.Warn("Twilio not configured, login codes are only logged",
			slog.String("env", cfg.Env))
		ext.SMS = sms.LogSender{}
	}

	switch {
	case cfg.StripeSecretKey != "":
		provider, err := payments.NewStripeProvider(cfg.StripeSecretKey, nil, cfg.PaymentTimeout())
		if err != nil {
			return ext, err
		}
		ext.Payments = provider
	case cfg.IsProduction():
		return ext, fmt.Errorf("STRIPE_SECRET_KEY is required in production")
	default:
		middleware.Logger.Warn("Stripe not configured, tier upgrades are accepted without charging",
			slog.String("env", cfg.Env))
		ext.Payments = payments.LogProvider{}
	}

	return ext, nil
}
