package remote

import "github.com/tphakala/tonebarrier/internal/logger"

// GetLogger returns the remote module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("remote")
}
