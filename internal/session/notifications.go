package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/tphakala/tonebarrier/internal/dispatch"
)

// InterruptionType tells whether an interruption began or ended.
type InterruptionType int

const (
	InterruptionBegan InterruptionType = iota
	InterruptionEnded
)

func (t InterruptionType) String() string {
	if t == InterruptionEnded {
		return "ended"
	}
	return "began"
}

// Interruption is posted when another party takes or returns the audio device.
type Interruption struct {
	Type   InterruptionType
	Source string // device, mqtt, ...
}

// Token identifies a registered observer.
type Token string

// NotificationCenter delivers session notifications to observers on the main
// queue, never on the posting goroutine.
type NotificationCenter struct {
	queue *dispatch.Queue

	mu            sync.RWMutex
	interruptions map[Token]func(Interruption)
	routeChanges  map[Token]func(RouteChange)
}

// NewNotificationCenter returns a center delivering on queue.
func NewNotificationCenter(queue *dispatch.Queue) *NotificationCenter {
	return &NotificationCenter{
		queue:         queue,
		interruptions: make(map[Token]func(Interruption)),
		routeChanges:  make(map[Token]func(RouteChange)),
	}
}

// AddInterruptionObserver registers fn for interruption notifications.
func (c *NotificationCenter) AddInterruptionObserver(fn func(Interruption)) Token {
	token := Token(uuid.NewString())
	c.mu.Lock()
	c.interruptions[token] = fn
	c.mu.Unlock()
	return token
}

// AddRouteChangeObserver registers fn for route-change notifications.
func (c *NotificationCenter) AddRouteChangeObserver(fn func(RouteChange)) Token {
	token := Token(uuid.NewString())
	c.mu.Lock()
	c.routeChanges[token] = fn
	c.mu.Unlock()
	return token
}

// RemoveObserver unregisters the observer for token. Unknown tokens are ignored.
func (c *NotificationCenter) RemoveObserver(token Token) {
	c.mu.Lock()
	delete(c.interruptions, token)
	delete(c.routeChanges, token)
	c.mu.Unlock()
}

// ObserverCount returns the number of registered observers.
func (c *NotificationCenter) ObserverCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.interruptions) + len(c.routeChanges)
}

// PostInterruption queues delivery of n. It returns false if the queue is closed.
func (c *NotificationCenter) PostInterruption(n Interruption) bool {
	return c.queue.Async(func() {
		c.mu.RLock()
		observers := make([]func(Interruption), 0, len(c.interruptions))
		for _, fn := range c.interruptions {
			observers = append(observers, fn)
		}
		c.mu.RUnlock()

		for _, fn := range observers {
			fn(n)
		}
	})
}

// PostRouteChange queues delivery of n. It returns false if the queue is closed.
func (c *NotificationCenter) PostRouteChange(n RouteChange) bool {
	return c.queue.Async(func() {
		c.mu.RLock()
		observers := make([]func(RouteChange), 0, len(c.routeChanges))
		for _, fn := range c.routeChanges {
			observers = append(observers, fn)
		}
		c.mu.RUnlock()

		for _, fn := range observers {
			fn(n)
		}
	})
}

// Subscription holds the interruption and route-change observers registered
// by Subscribe.
type Subscription struct {
	center *NotificationCenter
	tokens []Token
	once   sync.Once
	onDone func()
}

// Release unregisters both observers. Only the first call has an effect.
func (s *Subscription) Release() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		for _, token := range s.tokens {
			s.center.RemoveObserver(token)
		}
		if s.onDone != nil {
			s.onDone()
		}
	})
}
