package session

import (
	"fmt"
	"sync"

	"github.com/tphakala/tonebarrier/internal/conf"
)

// Error domain and codes reported by the session.
const (
	DomainSession = "tonebarrier.session"

	CodeBadParam             = -50
	CodeIncompatibleCategory = 0x21636174 // '!cat'
	CodeUnsupportedChannels  = 0x21636e74 // '!cnt'
	CodeNotConfigured        = 0x21637467 // '!ctg'
)

// PlatformError is a failure reported by a session preference call.
type PlatformError struct {
	Domain      string
	Code        int
	Description string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Domain, e.Code, e.Description)
}

// Platform is the device-session surface Configure and SetActive drive. Each
// call reports its own failure.
type Platform interface {
	SetCategory(category Category, options CategoryOptions) error
	SetMode(mode Mode) error
	SetSupportsMultichannelContent(enabled bool) error
	SetPreferredInputChannels(n int) error
	SetPreferredOutputChannels(n int) error
	SetPrefersNoInterruptionsFromSystemAlerts(enabled bool) error
	SetActive(active bool) error
	IsActive() bool
}

// Capabilities bound the channel preferences a session accepts.
type Capabilities struct {
	MaxInputChannels  int
	MaxOutputChannels int
}

// DefaultCapabilities accepts any channel count the configuration accepts.
func DefaultCapabilities() Capabilities {
	return Capabilities{MaxInputChannels: conf.MaxChannels, MaxOutputChannels: conf.MaxChannels}
}

// Session is the exclusive device-session lease of the process. It validates
// and holds the applied preferences and the active flag.
type Session struct {
	mu      sync.Mutex
	caps    Capabilities
	applied Preferences
	hasCat  bool
	active  bool
}

// NewSession returns an inactive session.
func NewSession(caps Capabilities) *Session {
	return &Session{caps: caps}
}

func badParam(format string, args ...any) error {
	return &PlatformError{Domain: DomainSession, Code: CodeBadParam, Description: fmt.Sprintf(format, args...)}
}

// SetCategory sets the category and its options. DefaultToSpeaker is only
// valid for the play-and-record category.
func (s *Session) SetCategory(category Category, options CategoryOptions) error {
	if category != CategoryPlayAndRecord && category != CategoryPlayback {
		return badParam("unknown category %q", category)
	}
	if options&OptionDefaultToSpeaker != 0 && category != CategoryPlayAndRecord {
		return &PlatformError{
			Domain:      DomainSession,
			Code:        CodeIncompatibleCategory,
			Description: fmt.Sprintf("option %s requires category %s", OptionDefaultToSpeaker, CategoryPlayAndRecord),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied.Category = category
	s.applied.Options = options
	s.hasCat = true
	return nil
}

// SetMode sets the session mode.
func (s *Session) SetMode(mode Mode) error {
	if mode != ModeDefault && mode != ModeMeasurement {
		return badParam("unknown mode %q", mode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied.Mode = mode
	return nil
}

// SetSupportsMultichannelContent enables multichannel content.
func (s *Session) SetSupportsMultichannelContent(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied.Multichannel = enabled
	return nil
}

// SetPreferredInputChannels requires a category that records.
func (s *Session) SetPreferredInputChannels(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case !s.hasCat:
		return &PlatformError{Domain: DomainSession, Code: CodeNotConfigured, Description: "category must be set before input channels"}
	case n > 0 && s.applied.Category != CategoryPlayAndRecord:
		return &PlatformError{
			Domain:      DomainSession,
			Code:        CodeIncompatibleCategory,
			Description: fmt.Sprintf("category %s has no input", s.applied.Category),
		}
	case n < 0 || n > s.caps.MaxInputChannels:
		return &PlatformError{
			Domain:      DomainSession,
			Code:        CodeUnsupportedChannels,
			Description: fmt.Sprintf("preferred input channels %d outside [0, %d]", n, s.caps.MaxInputChannels),
		}
	}
	s.applied.InputChannels = n
	return nil
}

// SetPreferredOutputChannels sets the preferred output channel count.
func (s *Session) SetPreferredOutputChannels(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 1 || n > s.caps.MaxOutputChannels {
		return &PlatformError{
			Domain:      DomainSession,
			Code:        CodeUnsupportedChannels,
			Description: fmt.Sprintf("preferred output channels %d outside [1, %d]", n, s.caps.MaxOutputChannels),
		}
	}
	s.applied.OutputChannels = n
	return nil
}

// SetPrefersNoInterruptionsFromSystemAlerts sets the system-alert preference.
func (s *Session) SetPrefersNoInterruptionsFromSystemAlerts(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied.NoSystemAlerts = enabled
	return nil
}

// SetActive acquires or releases the session. Activation requires a category.
func (s *Session) SetActive(active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if active && !s.hasCat {
		return &PlatformError{Domain: DomainSession, Code: CodeNotConfigured, Description: "session activated before configuration"}
	}
	s.active = active
	return nil
}

// IsActive reports whether the session is held.
func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Applied returns the preferences applied so far.
func (s *Session) Applied() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied
}
