package bootstrap

import (
	"testing"

	"orma/internal/config"
	"orma/internal/payments"
	"orma/internal/queue"
	"orma/internal/sms"
	"orma/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrations_DevelopmentFallbacks(t *testing.T) {
	cfg := &config.Config{Env: "development", S3Bucket: "orma", S3Region: "us-east-1"}

	ext, err := Integrations(cfg)
	require.NoError(t, err)
	assert.IsType(t, &storage.Client{}, ext.Storage)
	assert.IsType(t, queue.LogPublisher{}, ext.Jobs)
	assert.IsType(t, sms.LogSender{}, ext.SMS)
	assert.IsType(t, payments.LogProvider{}, ext.Payments)
}

func TestIntegrations_ConfiguredClients(t *testing.T) {
	cfg := &config.Config{
		Env:               "development",
		S3Bucket:          "orma",
		S3Region:          "us-east-1",
		QueueURL:          "https://sqs.us-east-1.amazonaws.com/123/orma",
		QueueRegion:       "us-east-1",
		TwilioAccountSID:  "AC123",
		TwilioAuthToken:   "token",
		TwilioPhoneNumber: "+15550000",
		StripeSecretKey:   "sk_test_123",
	}

	ext, err := Integrations(cfg)
	require.NoError(t, err)
	assert.IsType(t, &queue.SQSPublisher{}, ext.Jobs)
	assert.IsType(t, &sms.TwilioSender{}, ext.SMS)
	assert.IsType(t, &payments.StripeProvider{}, ext.Payments)
}

func TestIntegrations_ProductionRequiresProviders(t *testing.T) {
	cfg := &config.Config{Env: "production", S3Bucket: "orma", S3Region: "us-east-1"}
	_, err := Integrations(cfg)
	assert.Error(t, err)

	cfg.QueueURL = "https://sqs.us-east-1.amazonaws.com/123/orma"
	_, err = Integrations(cfg)
	assert.Error(t, err)

	cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber = "AC123", "token", "+15550000"
	_, err = Integrations(cfg)
	assert.ErrorContains(t, err, "STRIPE_SECRET_KEY")

	_, err = Integrations(&config.Config{Env: "development"})
	assert.Error(t, err, "bucket is required")
}
