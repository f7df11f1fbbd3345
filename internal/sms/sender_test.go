package sms

import (
	"context"
	"errors"
	"testing"
	"time"

	"orma/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type stubMessageAPI struct {
	delay time.Duration
	err   error
	got   *openapi.CreateMessageParams
}

func (s *stubMessageAPI) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.got = params
	return &openapi.ApiV2010Message{}, s.err
}

func TestTwilioSender_Send(t *testing.T) {
	api := &stubMessageAPI{}
	s := newTwilioSender(api, "+15550000000", time.Second)

	require.NoError(t, s.Send(context.Background(), "15551234567", OTPMessage("1234")))
	require.NotNil(t, api.got)
	assert.Equal(t, "+15551234567", *api.got.To)
	assert.Equal(t, "+15550000000", *api.got.From)
	assert.Equal(t, "Your OTP for Orma is 1234", *api.got.Body)
}

func TestTwilioSender_ProviderError(t *testing.T) {
	s := newTwilioSender(&stubMessageAPI{err: errors.New("invalid number")}, "+1", time.Second)

	err := s.Send(context.Background(), "1", "x")
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeInternal))
	assert.False(t, models.IsRetryable(err))
}

func TestTwilioSender_Timeout(t *testing.T) {
	s := newTwilioSender(&stubMessageAPI{delay: 200 * time.Millisecond}, "+1", 20*time.Millisecond)

	err := s.Send(context.Background(), "1", "x")
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeDependencyTimeout))
}

func TestNewTwilioSender_RequiresCredentials(t *testing.T) {
	_, err := NewTwilioSender("", "token", "+1", time.Second)
	assert.Error(t, err)
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, LogSender{}.Send(context.Background(), "15551234567", "hi"))
}
