package observability

import "github.com/tphakala/tonebarrier/internal/logger"

// GetLogger returns the observability module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("metrics")
}
