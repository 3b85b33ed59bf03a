// Package subscription registers email and SMS alert channels with the
// notification service. Each call returns its own outcome; there is no
// shared status between channels.
package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/btraven00/phishguard/internal/gateway"
	"github.com/btraven00/phishguard/internal/logx"
	"github.com/btraven00/phishguard/internal/metrics"
)

// Channel is an alert delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// DefaultMessage is reported when the service does not send one.
const DefaultMessage = "Operation successful"

// Input validation failures, raised before any network call.
var (
	ErrEmailRequired = errors.New("email is required for subscription")
	ErrPhoneRequired = errors.New("phone number is required for SMS subscription")
)

// Paths are the subscription endpoints.
type Paths struct {
	Email string
	SMS   string
}

// Manager submits subscription requests through a gateway.
type Manager struct {
	gateway gateway.Caller
	metrics *metrics.Metrics
	paths   Paths
}

// New creates a Manager using the standard endpoints.
func New(gw gateway.Caller, m *metrics.Metrics) *Manager {
	return &Manager{
		gateway: gw,
		metrics: m,
		paths:   Paths{Email: "/subscribe/email", SMS: "/subscribe/sms"},
	}
}

// SubscribeEmail registers address for email alerts and returns the
// service's confirmation message.
func (m *Manager) SubscribeEmail(ctx context.Context, address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		m.observe(ChannelEmail, metrics.OutcomeInvalidInput)
		return "", ErrEmailRequired
	}

	return m.subscribe(ctx, ChannelEmail, m.paths.Email, struct {
		Email string `json:"email"`
	}{Email: address})
}

// SubscribeSMS registers number for SMS alerts and returns the service's
// confirmation message.
func (m *Manager) SubscribeSMS(ctx context.Context, number string) (string, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		m.observe(ChannelSMS, metrics.OutcomeInvalidInput)
		return "", ErrPhoneRequired
	}

	return m.subscribe(ctx, ChannelSMS, m.paths.SMS, struct {
		PhoneNumber string `json:"phoneNumber"`
	}{PhoneNumber: number})
}

func (m *Manager) subscribe(ctx context.Context, ch Channel, path string, payload any) (string, error) {
	ctx = logx.With(ctx, "channel", string(ch))

	data, err := m.gateway.Call(ctx, path, payload)
	if err != nil {
		m.observe(ch, gateway.Outcome(err))
		return "", err
	}

	m.observe(ch, metrics.OutcomeSuccess)
	logx.FromContext(ctx).Info("subscription registered")

	return messageFrom(data), nil
}

func messageFrom(data json.RawMessage) string {
	var body struct {
		Message string `json:"message"`
	}

	if err := json.Unmarshal(data, &body); err == nil && strings.TrimSpace(body.Message) != "" {
		return body.Message
	}

	return DefaultMessage
}

func (m *Manager) observe(ch Channel, outcome string) {
	if m.metrics == nil {
		return
	}

	m.metrics.Subscriptions.WithLabelValues(string(ch), outcome).Inc()
}
