// Package remote publishes now-playing metadata and receives transport
// commands from a remote-control surface.
package remote

import (
	"sync"

	"github.com/tphakala/tonebarrier/internal/errors"
	"github.com/tphakala/tonebarrier/internal/logger"
	"github.com/tphakala/tonebarrier/internal/observability/metrics"
)

// BridgeConfig holds the collaborators of a Bridge.
type BridgeConfig struct {
	NowPlaying NowPlayingCenter
	Commands   CommandCenter

	// IsPlaying reports the playback state used to skip redundant commands.
	// When nil the last state passed to UpdatePlaybackState is used.
	IsPlaying func() bool

	Metrics *metrics.PlayerMetrics
}

// PlaybackControls decide and apply a transition in one step, so a command
// never acts on a state read before another trigger changed it.
type PlaybackControls interface {
	Play() (bool, error)
	Pause() (bool, error)
	Toggle() (bool, error)
}

// Bridge connects the player to the now-playing and remote-command centers.
type Bridge struct {
	cfg BridgeConfig
	log logger.Logger

	mu        sync.Mutex
	published *Metadata
	playing   bool
	controls  PlaybackControls
	enabled   bool
}

// NewBridge returns a bridge for cfg.
func NewBridge(cfg BridgeConfig) *Bridge {
	return &Bridge{cfg: cfg, log: GetLogger()}
}

// Publish pushes md to the now-playing center. Publishing the metadata that
// is already shown does nothing.
func (b *Bridge) Publish(md Metadata) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.published != nil && *b.published == md {
		return nil
	}
	if err := b.cfg.NowPlaying.SetNowPlaying(md); err != nil {
		return err
	}
	b.published = &md
	b.log.Info("now playing metadata published",
		logger.String("title", md.Title),
		logger.String("artist", md.Artist),
		logger.String("album", md.Album))
	return nil
}

// UpdatePlaybackState sets the now-playing playback state.
func (b *Bridge) UpdatePlaybackState(playing bool) error {
	b.mu.Lock()
	b.playing = playing
	b.mu.Unlock()
	return b.cfg.NowPlaying.SetPlaybackState(playing)
}

// RegisterCommands installs handlers for play, pause, stop and toggle that
// drive toggle, then starts receiving commands. Play while playing and pause
// or stop while stopped succeed without toggling; the check and the toggle run
// under one bridge lock.
func (b *Bridge) RegisterCommands(toggle func() (bool, error)) error {
	return b.RegisterControls(&toggleControls{toggle: toggle, isPlaying: b.isPlaying})
}

// RegisterControls installs handlers that map play to controls.Play, pause and
// stop to controls.Pause and toggle to controls.Toggle, then starts receiving
// commands.
func (b *Bridge) RegisterControls(controls PlaybackControls) error {
	b.mu.Lock()
	b.controls = controls
	b.enabled = true
	b.mu.Unlock()

	if err := b.cfg.Commands.Enable(b.Handle); err != nil {
		b.mu.Lock()
		b.enabled = false
		b.mu.Unlock()
		return err
	}
	b.log.Info("remote commands enabled")
	return nil
}

// Handle runs cmd.
func (b *Bridge) Handle(cmd Command) CommandStatus {
	b.mu.Lock()
	controls, enabled := b.controls, b.enabled
	b.mu.Unlock()

	if !enabled || controls == nil {
		return b.record(cmd, StatusCommandFailed)
	}

	var run func() (bool, error)
	switch cmd {
	case CommandPlay:
		run = controls.Play
	case CommandPause, CommandStop:
		run = controls.Pause
	case CommandToggle:
		run = controls.Toggle
	default:
		return b.record(cmd, StatusCommandFailed)
	}

	if _, err := run(); err != nil {
		failure := errors.New(err).
			Component("remote").
			Category(errors.CategoryCommandFailure).
			Context("command", string(cmd)).
			Build()
		b.log.Error("remote command failed", logger.String("command", string(cmd)), logger.Error(failure))
		return b.record(cmd, StatusCommandFailed)
	}
	return b.record(cmd, StatusSuccess)
}

// isPlaying reports the configured playback state, falling back to the last
// published one.
func (b *Bridge) isPlaying() bool {
	if b.cfg.IsPlaying != nil {
		return b.cfg.IsPlaying()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playing
}

// toggleControls adapts a bare toggle to PlaybackControls.
type toggleControls struct {
	mu        sync.Mutex
	toggle    func() (bool, error)
	isPlaying func() bool
}

func (c *toggleControls) Play() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isPlaying() {
		return true, nil
	}
	return c.toggle()
}

func (c *toggleControls) Pause() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isPlaying() {
		return false, nil
	}
	return c.toggle()
}

func (c *toggleControls) Toggle() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.toggle()
}

func (b *Bridge) record(cmd Command, status CommandStatus) CommandStatus {
	b.cfg.Metrics.RecordCommand(string(cmd), status == StatusSuccess)
	b.log.Debug("remote command handled",
		logger.String("command", string(cmd)),
		logger.String("status", status.String()))
	return status
}

// Close stops receiving commands.
func (b *Bridge) Close() error {
	b.mu.Lock()
	wasEnabled := b.enabled
	b.enabled = false
	b.mu.Unlock()

	if !wasEnabled {
		return nil
	}
	return b.cfg.Commands.Disable()
}
