package playback

import "github.com/tphakala/tonebarrier/internal/logger"

// GetLogger returns the playback module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("playback")
}
