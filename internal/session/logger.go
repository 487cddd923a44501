package session

import "github.com/tphakala/tonebarrier/internal/logger"

// GetLogger returns the session logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("session")
}
