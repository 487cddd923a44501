package session

import (
	"fmt"
	"strings"

	"github.com/tphakala/tonebarrier/internal/errors"
)

// ErrSessionConfig matches configuration failures with errors.Is.
var ErrSessionConfig = &errors.EnhancedError{Component: "session", Category: errors.CategorySessionConfig}

// ConfigFailure is one failed preference call.
type ConfigFailure struct {
	Operation   string
	Domain      string
	Code        int
	Description string
}

// SessionConfigError aggregates every failed preference call of Configure.
type SessionConfigError struct {
	Failures []ConfigFailure
}

func (e *SessionConfigError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %s code %d: %s", f.Operation, f.Domain, f.Code, f.Description)
	}
	return "session configuration failed: " + strings.Join(parts, "; ")
}

// failureFrom extracts domain, code and description from err
func failureFrom(operation string, err error) ConfigFailure {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return ConfigFailure{Operation: operation, Domain: pe.Domain, Code: pe.Code, Description: pe.Description}
	}
	return ConfigFailure{Operation: operation, Domain: DomainSession, Code: -1, Description: err.Error()}
}
