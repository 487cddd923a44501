package session

import (
	"strings"

	"github.com/antonholmquist/jason"

	"github.com/tphakala/tonebarrier/internal/errors"
	"github.com/tphakala/tonebarrier/internal/logger"
)

// InterruptionTopicSuffix is appended to the MQTT topic prefix for external
// interruption notifications. Payloads are "began" or "ended", or a JSON
// object such as {"type":"began","source":"doorbell"}.
const InterruptionTopicSuffix = "session/interruption"

const defaultMessageSource = "mqtt"

// MessageSubscriber subscribes to a message topic; the MQTT client satisfies it.
type MessageSubscriber interface {
	Subscribe(topic string, handler func(topic string, payload []byte)) error
	Unsubscribe(topics ...string) error
}

// ParseInterruption decodes a plain-word interruption payload.
func ParseInterruption(payload []byte) (InterruptionType, error) {
	switch strings.ToLower(strings.TrimSpace(string(payload))) {
	case "began", "begin", "start":
		return InterruptionBegan, nil
	case "ended", "end", "stop":
		return InterruptionEnded, nil
	default:
		return 0, errors.Newf("unknown interruption payload %q", payload).
			Component("session").
			Category(errors.CategoryValidation).
			Build()
	}
}

// ParseInterruptionMessage decodes a plain-word or JSON interruption payload.
// A JSON payload without a source is attributed to mqtt.
func ParseInterruptionMessage(payload []byte) (Interruption, error) {
	trimmed := strings.TrimSpace(string(payload))
	if !strings.HasPrefix(trimmed, "{") {
		typ, err := ParseInterruption(payload)
		return Interruption{Type: typ, Source: defaultMessageSource}, err
	}

	obj, err := jason.NewObjectFromBytes([]byte(trimmed))
	if err != nil {
		return Interruption{}, errors.New(err).
			Component("session").
			Category(errors.CategoryValidation).
			Context("operation", "parse_interruption").
			Build()
	}
	word, err := obj.GetString("type")
	if err != nil {
		return Interruption{}, errors.Newf("interruption message has no type: %w", err).
			Component("session").
			Category(errors.CategoryValidation).
			Build()
	}
	typ, err := ParseInterruption([]byte(word))
	if err != nil {
		return Interruption{}, err
	}

	source, err := obj.GetString("source")
	if err != nil || source == "" {
		source = defaultMessageSource
	}
	return Interruption{Type: typ, Source: source}, nil
}

// InterruptionSource posts interruptions received on a message topic.
type InterruptionSource struct {
	subscriber MessageSubscriber
	center     *NotificationCenter
	topic      string
	log        logger.Logger
}

// NewInterruptionSource returns a source listening on <prefix>/session/interruption.
func NewInterruptionSource(subscriber MessageSubscriber, center *NotificationCenter, prefix string) *InterruptionSource {
	return &InterruptionSource{
		subscriber: subscriber,
		center:     center,
		topic:      strings.TrimSuffix(prefix, "/") + "/" + InterruptionTopicSuffix,
		log:        GetLogger().Module("interruption"),
	}
}

// Topic returns the subscribed topic.
func (s *InterruptionSource) Topic() string {
	return s.topic
}

// Start subscribes to the interruption topic.
func (s *InterruptionSource) Start() error {
	return s.subscriber.Subscribe(s.topic, s.handle)
}

// Stop unsubscribes from the interruption topic.
func (s *InterruptionSource) Stop() error {
	return s.subscriber.Unsubscribe(s.topic)
}

func (s *InterruptionSource) handle(_ string, payload []byte) {
	n, err := ParseInterruptionMessage(payload)
	if err != nil {
		s.log.Warn("ignoring interruption message", logger.Error(err))
		return
	}
	s.center.PostInterruption(n)
}
