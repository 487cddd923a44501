package audiograph

import "github.com/tphakala/tonebarrier/internal/errors"

// Sentinels for errors.Is; errors returned by the graph match them by category.
var (
	ErrGraphConfig = &errors.EnhancedError{Component: "audiograph", Category: errors.CategoryGraphConfig}
	ErrEngineStart = &errors.EnhancedError{Component: "audiograph", Category: errors.CategoryEngineStart}
)

func graphConfigError(err error, operation string) *errors.ErrorBuilder {
	return errors.New(err).
		Component("audiograph").
		Category(errors.CategoryGraphConfig).
		Priority(errors.PriorityCritical).
		Context("operation", operation)
}

func engineStartError(err error, operation string) *errors.ErrorBuilder {
	return errors.New(err).
		Component("audiograph").
		Category(errors.CategoryEngineStart).
		Priority(errors.PriorityHigh).
		Context("operation", operation)
}
