package session

import (
	"strings"

	"github.com/tphakala/tonebarrier/internal/conf"
)

// Category is the device-session category.
type Category string

const (
	CategoryPlayAndRecord Category = "playandrecord"
	CategoryPlayback      Category = "playback"
)

// Mode is the device-session mode.
type Mode string

const (
	ModeDefault     Mode = "default"
	ModeMeasurement Mode = "measurement"
)

// CategoryOptions modify the behavior of a category.
type CategoryOptions uint

const (
	OptionDefaultToSpeaker CategoryOptions = 1 << iota
	OptionMixWithOthers
)

func (o CategoryOptions) String() string {
	var names []string
	if o&OptionDefaultToSpeaker != 0 {
		names = append(names, "DefaultToSpeaker")
	}
	if o&OptionMixWithOthers != 0 {
		names = append(names, "MixWithOthers")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Preferences are the session settings applied by Configure.
type Preferences struct {
	Category       Category
	Mode           Mode
	Options        CategoryOptions
	Multichannel   bool
	InputChannels  int
	OutputChannels int
	NoSystemAlerts bool
}

// DefaultPreferences returns the duplex, speaker-routed, stereo preferences.
func DefaultPreferences() Preferences {
	return Preferences{
		Category:       CategoryPlayAndRecord,
		Mode:           ModeDefault,
		Options:        OptionDefaultToSpeaker,
		Multichannel:   true,
		InputChannels:  2,
		OutputChannels: 2,
		NoSystemAlerts: true,
	}
}

// PreferencesFromSettings converts session settings into preferences.
func PreferencesFromSettings(s *conf.SessionSettings) Preferences {
	p := Preferences{
		Category:       Category(s.Category),
		Mode:           Mode(s.Mode),
		Multichannel:   s.Multichannel,
		InputChannels:  s.InputChannels,
		OutputChannels: s.OutputChannels,
		NoSystemAlerts: s.NoSystemAlerts,
	}
	if s.DefaultToSpeaker {
		p.Options |= OptionDefaultToSpeaker
	}
	return p
}
