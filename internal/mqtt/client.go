package mqtt

import (
	"context"
	"net"
	"net/url"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/tphakala/tonebarrier/internal/conf"
	"github.com/tphakala/tonebarrier/internal/errors"
	"github.com/tphakala/tonebarrier/internal/logger"
	"github.com/tphakala/tonebarrier/internal/observability/metrics"
	"github.com/tphakala/tonebarrier/internal/privacy"
)

// client implements the Client interface on top of paho.
type client struct {
	config  Config
	metrics *metrics.MQTTMetrics
	log     logger.Logger

	mu             sync.Mutex
	internalClient paho.Client
	handlers       map[string]Handler
}

// ConfigFromSettings returns the default configuration for the MQTT settings.
// The client id gets a random suffix so several players can share one broker.
func ConfigFromSettings(settings *conf.MQTTSettings) Config {
	cfg := DefaultConfig()
	cfg.Broker = settings.Broker
	cfg.Username = settings.Username
	cfg.Password = settings.Password
	cfg.ClientID = clientID(settings.ClientID)
	return cfg
}

// NewClient creates a new MQTT client with the provided configuration.
func NewClient(cfg Config, m *metrics.MQTTMetrics) Client {
	return &client{
		config:   cfg,
		metrics:  m,
		log:      GetLogger(),
		handlers: make(map[string]Handler),
	}
}

func clientID(base string) string {
	if base == "" {
		base = "tonebarrier"
	}
	return base + "-" + uuid.NewString()[:8]
}

// Connect attempts to establish a connection to the MQTT broker.
// It first resolves the broker's hostname and then attempts to connect.
func (c *client) Connect(ctx context.Context) error {
	u, err := url.Parse(c.config.Broker)
	if err != nil || u.Host == "" {
		return connectionError(errors.NewStd("invalid broker URL"), c.config.Broker)
	}

	host := u.Hostname()
	if net.ParseIP(host) == nil {
		if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
			return connectionError(err, c.config.Broker)
		}
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetUsername(c.config.Username)
	opts.SetPassword(c.config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(c.config.MaxReconnectPeriod)
	opts.SetConnectTimeout(c.config.ConnectTimeout)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	opts.SetReconnectingHandler(c.onReconnecting)
	if c.config.WillTopic != "" {
		opts.SetWill(c.config.WillTopic, c.config.WillPayload, 1, true)
	}

	c.mu.Lock()
	if c.internalClient != nil && c.internalClient.IsConnected() {
		c.mu.Unlock()
		return nil
	}
	c.internalClient = paho.NewClient(opts)
	internal := c.internalClient
	c.mu.Unlock()

	token := internal.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return connectionError(ctx.Err(), c.config.Broker)
	case <-time.After(c.config.ConnectTimeout):
		return connectionError(errors.NewStd("connection timeout"), c.config.Broker)
	}
	if err := token.Error(); err != nil {
		c.metrics.IncrementErrors()
		return connectionError(err, c.config.Broker)
	}
	return nil
}

// Publish sends payload to topic with QoS 1.
func (c *client) Publish(ctx context.Context, topic string, payload []byte, retain bool) error {
	c.mu.Lock()
	internal := c.internalClient
	c.mu.Unlock()

	if internal == nil || !internal.IsConnected() {
		return publishError(errors.NewStd("not connected to MQTT broker"), topic)
	}

	timer := c.metrics.StartPublishTimer()
	defer timer.ObserveDuration()

	token := internal.Publish(topic, 1, retain, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return publishError(ctx.Err(), topic)
	case <-time.After(c.config.PublishTimeout):
		c.metrics.IncrementErrors()
		return publishError(errors.NewStd("publish timeout"), topic)
	}
	if err := token.Error(); err != nil {
		c.metrics.IncrementErrors()
		return publishError(err, topic)
	}

	c.metrics.IncrementMessagesDelivered()
	c.metrics.ObserveMessageSize(float64(len(payload)))
	c.log.Trace("published message", logger.String("topic", topic), logger.Bool("retain", retain))
	return nil
}

// Subscribe registers handler for topic and subscribes at once when connected.
func (c *client) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	c.mu.Lock()
	c.handlers[topic] = handler
	internal := c.internalClient
	c.mu.Unlock()

	if internal == nil || !internal.IsConnected() {
		return nil
	}
	return c.subscribe(internal, topic, handler)
}

func (c *client) subscribe(internal paho.Client, topic string, handler Handler) error {
	token := internal.Subscribe(topic, 1, func(_ paho.Client, msg paho.Message) {
		c.metrics.IncrementMessagesReceived()
		handler(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(c.config.PublishTimeout) {
		return subscribeError(errors.NewStd("subscribe timeout"), topic)
	}
	if err := token.Error(); err != nil {
		return subscribeError(err, topic)
	}
	c.log.Debug("subscribed", logger.String("topic", topic))
	return nil
}

// Unsubscribe removes the handlers for topics.
func (c *client) Unsubscribe(topics ...string) error {
	c.mu.Lock()
	for _, topic := range topics {
		delete(c.handlers, topic)
	}
	internal := c.internalClient
	c.mu.Unlock()

	if internal == nil || !internal.IsConnected() || len(topics) == 0 {
		return nil
	}
	token := internal.Unsubscribe(topics...)
	if !token.WaitTimeout(c.config.PublishTimeout) {
		return subscribeError(errors.NewStd("unsubscribe timeout"), topics[0])
	}
	return token.Error()
}

// IsConnected returns true if the client is currently connected to the MQTT broker.
func (c *client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.internalClient != nil && c.internalClient.IsConnected()
}

// Disconnect closes the connection to the MQTT broker.
func (c *client) Disconnect() {
	c.mu.Lock()
	internal := c.internalClient
	c.internalClient = nil
	c.mu.Unlock()

	if internal != nil && internal.IsConnected() {
		internal.Disconnect(uint(c.config.DisconnectTimeout.Milliseconds()))
		c.metrics.UpdateConnectionStatus(false)
		c.log.Info("disconnected from MQTT broker", logger.String("broker", privacy.SanitizeURL(c.config.Broker)))
	}
}

// onConnect restores subscriptions; the session is clean on every connect.
func (c *client) onConnect(internal paho.Client) {
	c.log.Info("connected to MQTT broker",
		logger.String("broker", privacy.SanitizeURL(c.config.Broker)),
		logger.String("client_id", c.config.ClientID))
	c.metrics.UpdateConnectionStatus(true)

	c.mu.Lock()
	handlers := make(map[string]Handler, len(c.handlers))
	for topic, h := range c.handlers {
		handlers[topic] = h
	}
	c.mu.Unlock()

	// paho runs this handler on its own goroutine; waiting on tokens here is allowed
	for topic, h := range handlers {
		if err := c.subscribe(internal, topic, h); err != nil {
			c.log.Error("failed to restore subscription", logger.String("topic", topic), logger.Error(err))
		}
	}
}

func (c *client) onConnectionLost(_ paho.Client, err error) {
	c.log.Warn("connection to MQTT broker lost",
		logger.String("broker", privacy.SanitizeURL(c.config.Broker)),
		logger.Error(err))
	c.metrics.UpdateConnectionStatus(false)
	c.metrics.IncrementErrors()
}

func (c *client) onReconnecting(_ paho.Client, _ *paho.ClientOptions) {
	c.metrics.IncrementReconnectAttempts()
	c.log.Debug("reconnecting to MQTT broker", logger.String("broker", privacy.SanitizeURL(c.config.Broker)))
}

func connectionError(err error, broker string) error {
	return errors.New(err).
		Component("mqtt").
		Category(errors.CategoryMQTTConnection).
		Context("broker", privacy.SanitizeURL(broker)).
		Build()
}

func publishError(err error, topic string) error {
	return errors.New(err).
		Component("mqtt").
		Category(errors.CategoryMQTTPublish).
		Context("topic", topic).
		Build()
}

func subscribeError(err error, topic string) error {
	return errors.New(err).
		Component("mqtt").
		Category(errors.CategoryMQTTConnection).
		Context("operation", "subscribe").
		Context("topic", topic).
		Build()
}
