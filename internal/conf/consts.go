package conf

// Audio backends accepted in audio.backend.
const (
	BackendAuto       = "auto"
	BackendALSA       = "alsa"
	BackendPulseAudio = "pulseaudio"
	BackendJACK       = "jack"
	BackendCoreAudio  = "coreaudio"
	BackendWASAPI     = "wasapi"
	BackendNone       = "none"

	// backendNullAlias is accepted for BackendNone. In YAML it must be quoted,
	// an unquoted null is the empty value and falls back to auto.
	backendNullAlias = "null"
)

// Session categories and modes.
const (
	CategoryPlayAndRecord = "playandrecord"
	CategoryPlayback      = "playback"

	ModeDefault     = "default"
	ModeMeasurement = "measurement"
)

// Limits used by validation.
const (
	MinSampleRate        = 8000
	MaxSampleRate        = 192000
	MaxChannels          = 32
	MinRoutePollInterval = 100 // milliseconds
)

const (
	osWindows = "windows"
	osDarwin  = "darwin"
)
