// Package telemetry provides opt-in error reporting to Sentry.
package telemetry

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/tonebarrier/internal/conf"
	"github.com/tphakala/tonebarrier/internal/errors"
	"github.com/tphakala/tonebarrier/internal/logger"
	"github.com/tphakala/tonebarrier/internal/privacy"
	"github.com/tphakala/tonebarrier/internal/sysinfo"
)

var sentryInitialized atomic.Bool

// InitSentry initializes the Sentry SDK and installs the error reporter.
// It does nothing unless Sentry is explicitly enabled.
func InitSentry(settings *conf.Settings) error {
	log := GetLogger()
	if !settings.Sentry.Enabled {
		log.Debug("sentry telemetry is disabled (opt-in required)")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.Sentry.DSN,
		SampleRate:       1.0,
		Debug:            settings.Sentry.Debug,
		AttachStacktrace: false,
		Environment:      "production",
		ServerName:       "",
		Release:          fmt.Sprintf("tonebarrier@%s", settings.Version),
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	})
	if err != nil {
		return errors.New(err).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Context("operation", "sentry_init").
			Build()
	}

	host, _ := sysinfo.Collect()
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)
		scope.SetTag("audio_backend", settings.Audio.Backend)
		scope.SetTag("cpu", host.CPU)
		if host.Platform != "" {
			scope.SetTag("platform", host.Platform+" "+host.PlatformVersion)
		}
	})

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	sentryInitialized.Store(true)

	log.Info("sentry telemetry initialized",
		logger.String("release", settings.Version),
		logger.Bool("debug", settings.Sentry.Debug))
	return nil
}

// IsInitialized reports whether InitSentry enabled reporting.
func IsInitialized() bool {
	return sentryInitialized.Load()
}

// Flush waits up to timeout for buffered events to be sent.
func Flush(timeout time.Duration) {
	if !sentryInitialized.Load() {
		return
	}
	if !sentry.Flush(timeout) {
		GetLogger().Warn("sentry flush timed out", logger.Duration("timeout", timeout))
	}
}

// applyPrivacyFilters strips host and user identifying data from an event
// and scrubs URLs from its messages.
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""
	event.Message = privacy.ScrubMessage(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = privacy.ScrubMessage(event.Exception[i].Value)
	}

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
		for _, ctx := range event.Contexts {
			for k, v := range ctx {
				if str, ok := v.(string); ok {
					ctx[k] = privacy.ScrubMessage(str)
				}
			}
		}
	}
	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}
	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}
	return event
}

// GetLogger returns the telemetry module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("telemetry")
}
