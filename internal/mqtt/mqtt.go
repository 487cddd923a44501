// Package mqtt provides an abstraction for MQTT client functionality.
package mqtt

import (
	"context"
	"time"

	"github.com/tphakala/tonebarrier/internal/logger"
)

// Handler receives messages for a subscribed topic. Handlers run on the MQTT
// client's goroutine and must not block.
type Handler func(topic string, payload []byte)

// Client defines the interface for MQTT client operations.
type Client interface {
	// Connect connects to the broker and restores every subscription.
	Connect(ctx context.Context) error

	// Publish sends payload to topic. Retained messages replace the broker's
	// last known value for the topic.
	Publish(ctx context.Context, topic string, payload []byte, retain bool) error

	// Subscribe registers handler for topic. Subscriptions made before Connect
	// are sent to the broker on connect and after every reconnect.
	Subscribe(topic string, handler func(topic string, payload []byte)) error

	// Unsubscribe removes the handlers for topics.
	Unsubscribe(topics ...string) error

	// IsConnected returns true if the client is connected to the broker.
	IsConnected() bool

	// Disconnect closes the connection to the broker.
	Disconnect()
}

// Config holds the configuration for the MQTT client.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string

	// Last will, published by the broker if the connection drops.
	WillTopic   string
	WillPayload string

	// Connection timeouts
	ConnectTimeout     time.Duration
	PublishTimeout     time.Duration
	DisconnectTimeout  time.Duration
	MaxReconnectPeriod time.Duration
}

// DefaultConfig returns a Config with reasonable default values
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:     30 * time.Second,
		PublishTimeout:     10 * time.Second,
		DisconnectTimeout:  250 * time.Millisecond,
		MaxReconnectPeriod: 5 * time.Minute,
	}
}

// GetLogger returns the mqtt module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("mqtt")
}
