package remote

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/tphakala/tonebarrier/internal/dispatch"
	"github.com/tphakala/tonebarrier/internal/errors"
	"github.com/tphakala/tonebarrier/internal/logger"
)

// Topic suffixes below the configured prefix.
const (
	TopicNowPlaying    = "nowplaying"
	TopicPlaybackState = "nowplaying/state"
	TopicCommand       = "command"
	TopicCommandResult = "command/result"
)

// Transport is the MQTT client as seen by the center; mqtt.Client satisfies it.
type Transport interface {
	Publish(ctx context.Context, topic string, payload []byte, retain bool) error
	Subscribe(topic string, handler func(topic string, payload []byte)) error
	Unsubscribe(topics ...string) error
}

// PlaybackStatePayload is the retained playback state message.
type PlaybackStatePayload struct {
	Playing bool      `json:"playing"`
	Rate    float64   `json:"rate"`
	Updated time.Time `json:"updated"`
}

// CommandResultPayload is published after every command.
type CommandResultPayload struct {
	Command   Command       `json:"command"`
	Status    CommandStatus `json:"status"`
	RequestID string        `json:"request_id,omitempty"`
	Handled   time.Time     `json:"handled"`
}

type commandRequest struct {
	RequestID string `json:"request_id"`
}

// MQTTCenter publishes now-playing data as retained JSON messages and receives
// commands on <prefix>/command/<name>. Commands are handled on queue, never on
// the MQTT client goroutine.
type MQTTCenter struct {
	transport Transport
	queue     *dispatch.Queue
	prefix    string
	timeout   time.Duration
	log       logger.Logger

	// Retain marks now-playing messages as retained. It defaults to true.
	Retain bool

	mu      sync.Mutex
	handler CommandHandler
	topics  []string
}

// NewMQTTCenter returns a center publishing below prefix.
func NewMQTTCenter(transport Transport, queue *dispatch.Queue, prefix string) *MQTTCenter {
	return &MQTTCenter{
		transport: transport,
		queue:     queue,
		prefix:    strings.TrimSuffix(prefix, "/"),
		timeout:   10 * time.Second,
		log:       GetLogger().Module("mqtt"),
		Retain:    true,
	}
}

// Topic returns prefix/suffix.
func (c *MQTTCenter) Topic(suffix string) string {
	return c.prefix + "/" + suffix
}

// SetNowPlaying publishes md on <prefix>/nowplaying.
func (c *MQTTCenter) SetNowPlaying(md Metadata) error {
	return c.publishJSON(TopicNowPlaying, md, c.Retain)
}

// SetPlaybackState publishes the state on <prefix>/nowplaying/state.
func (c *MQTTCenter) SetPlaybackState(playing bool) error {
	rate := 0.0
	if playing {
		rate = 1.0
	}
	return c.publishJSON(TopicPlaybackState, PlaybackStatePayload{Playing: playing, Rate: rate, Updated: time.Now()}, c.Retain)
}

func (c *MQTTCenter) publishJSON(suffix string, v any, retain bool) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.New(err).
			Component("remote").
			Category(errors.CategoryMQTTPublish).
			Context("topic", c.Topic(suffix)).
			Build()
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return c.transport.Publish(ctx, c.Topic(suffix), payload, retain)
}

// Enable subscribes to every command topic.
func (c *MQTTCenter) Enable(handler CommandHandler) error {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()

	var subscribed []string
	for _, cmd := range Commands {
		topic := c.Topic(TopicCommand + "/" + string(cmd))
		if err := c.transport.Subscribe(topic, c.onMessage); err != nil {
			if len(subscribed) > 0 {
				_ = c.transport.Unsubscribe(subscribed...)
			}
			return err
		}
		subscribed = append(subscribed, topic)
	}

	c.mu.Lock()
	c.topics = subscribed
	c.mu.Unlock()
	return nil
}

// Disable unsubscribes from the command topics.
func (c *MQTTCenter) Disable() error {
	c.mu.Lock()
	topics := c.topics
	c.topics = nil
	c.handler = nil
	c.mu.Unlock()

	if len(topics) == 0 {
		return nil
	}
	return c.transport.Unsubscribe(topics...)
}

func (c *MQTTCenter) onMessage(topic string, payload []byte) {
	name := topic[strings.LastIndex(topic, "/")+1:]
	cmd, ok := ParseCommand(name)
	if !ok {
		c.log.Warn("ignoring unknown command", logger.String("topic", topic))
		return
	}

	var req commandRequest
	if len(payload) > 0 {
		// payloads are optional; anything that is not JSON carries no request id
		_ = json.Unmarshal(payload, &req)
	}

	if !c.queue.Async(func() { c.handle(cmd, req.RequestID) }) {
		c.log.Warn("dropping command, main queue closed", logger.String("command", string(cmd)))
	}
}

func (c *MQTTCenter) handle(cmd Command, requestID string) {
	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()
	if handler == nil {
		return
	}

	result := CommandResultPayload{
		Command:   cmd,
		Status:    handler(cmd),
		RequestID: requestID,
		Handled:   time.Now(),
	}
	if err := c.publishJSON(TopicCommandResult, result, false); err != nil {
		c.log.Warn("failed to publish command result",
			logger.String("command", string(cmd)),
			logger.Error(err))
	}
}
