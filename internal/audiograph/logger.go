package audiograph

import "github.com/tphakala/tonebarrier/internal/logger"

// GetLogger returns the audio graph logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("audio")
}
