package httpcontroller

import "github.com/tphakala/tonebarrier/internal/logger"

// GetLogger returns the http module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("http")
}
