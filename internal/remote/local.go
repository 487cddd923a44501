package remote

import (
	"sync"

	"github.com/tphakala/tonebarrier/internal/errors"
)

// ErrCommandsDisabled is returned by LocalCenter.Send when no handler is enabled.
var ErrCommandsDisabled = errors.NewStd("remote commands are not enabled")

// LocalCenter is an in-process now-playing and command center.
type LocalCenter struct {
	mu       sync.RWMutex
	metadata Metadata
	playing  bool
	handler  CommandHandler
	updates  int
}

// NewLocalCenter returns an empty center.
func NewLocalCenter() *LocalCenter {
	return &LocalCenter{}
}

// SetNowPlaying stores md.
func (c *LocalCenter) SetNowPlaying(md Metadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metadata = md
	c.updates++
	return nil
}

// SetPlaybackState stores the playback state.
func (c *LocalCenter) SetPlaybackState(playing bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = playing
	return nil
}

// NowPlaying returns the shown metadata and playback state.
func (c *LocalCenter) NowPlaying() (Metadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metadata, c.playing
}

// Updates returns how many times metadata was set.
func (c *LocalCenter) Updates() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updates
}

// Enable installs handler.
func (c *LocalCenter) Enable(handler CommandHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
	return nil
}

// Disable removes the handler.
func (c *LocalCenter) Disable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = nil
	return nil
}

// Send delivers cmd to the handler on the calling goroutine.
func (c *LocalCenter) Send(cmd Command) (CommandStatus, error) {
	c.mu.RLock()
	handler := c.handler
	c.mu.RUnlock()

	if handler == nil {
		return StatusCommandFailed, ErrCommandsDisabled
	}
	return handler(cmd), nil
}
