// Package sms delivers one-time passcodes by text message.
package sms

import (
	"context"
	"fmt"
	"time"

	"orma/internal/middleware"
	"orma/internal/models"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Sender delivers a text message to a phone number given as digits only.
type Sender interface {
	Send(ctx context.Context, phone, body string) error
}

// messageAPI is the slice of the Twilio REST API we use.
type messageAPI interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioSender sends messages through Twilio's Messages API.
type TwilioSender struct {
	api     messageAPI
	from    string
	timeout time.Duration
}

// NewTwilioSender builds a sender from account credentials.
func NewTwilioSender(accountSID, authToken, from string, timeout time.Duration) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("sms: twilio account sid, auth token and phone number are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return newTwilioSender(client.Api, from, timeout), nil
}

func newTwilioSender(api messageAPI, from string, timeout time.Duration) *TwilioSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TwilioSender{api: api, from: from, timeout: timeout}
}

// Send delivers body to phone. The Twilio client has no context support, so
// the call is abandoned (not cancelled) once the timeout elapses.
func (s *TwilioSender) Send(ctx context.Context, phone, body string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(E164(phone))
	params.SetFrom(s.from)
	params.SetBody(body)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := s.api.CreateMessage(params)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return models.WrapDependency("sms", fmt.Errorf("twilio create message: %w", err))
		}
		return nil
	case <-ctx.Done():
		return models.WrapDependency("sms", ctx.Err())
	}
}

// LogSender replaces Twilio outside production when no credentials are set.
type LogSender struct{}

// Send logs the recipient and drops the message.
func (LogSender) Send(ctx context.Context, phone, _ string) error {
	middleware.Logger.InfoContext(ctx, "sms suppressed (no provider configured)", "phone_suffix", suffix(phone))
	return nil
}

// E164 formats a digits-only phone number for the provider.
func E164(phone string) string {
	return "+" + phone
}

// OTPMessage is the text sent with a passcode.
func OTPMessage(code string) string {
	return "Your OTP for Orma is " + code
}

func suffix(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return phone[len(phone)-4:]
}
