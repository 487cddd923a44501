package logger_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/tonebarrier/internal/logger"
)

func TestModuleLoggerWritesFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelDebug, time.UTC).Module("session")

	log.Info("route changed",
		logger.String("reason", "OldDeviceUnavailable"),
		logger.Int("devices", 2),
		logger.Bool("playing", true),
		logger.Error(fmt.Errorf("boom")))

	out := buf.String()
	assert.Contains(t, out, "route changed")
	assert.Contains(t, out, "module=session")
	assert.Contains(t, out, "reason=OldDeviceUnavailable")
	assert.Contains(t, out, "devices=2")
	assert.Contains(t, out, "playing=true")
	assert.Contains(t, out, "error=boom")
}

func TestSubModuleNaming(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelInfo, time.UTC).Module("audio").Module("render")

	log.Info("diagnostic")
	assert.Contains(t, buf.String(), "module=audio.render")
}

func TestLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelWarn, time.UTC)

	log.Debug("hidden debug")
	log.Info("hidden info")
	log.Warn("visible warn")
	log.Log(logger.LogLevelInfo, "hidden explicit")
	log.Log(logger.LogLevelError, "visible explicit")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible warn")
	assert.Contains(t, out, "visible explicit")
}

func TestWithAccumulatesFieldsWithoutMutatingParent(t *testing.T) {
	buf := &bytes.Buffer{}
	parent := logger.NewSlogLogger(buf, logger.LogLevelInfo, time.UTC)
	child := parent.With(logger.String("command", "toggle"))

	parent.Info("parent line")
	child.Info("child line")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], "command=toggle")
	assert.Contains(t, lines[1], "command=toggle")
}

func TestWithContextAddsTraceID(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelInfo, time.UTC)

	ctx := logger.WithTraceID(context.Background(), "req-42")
	log.WithContext(ctx).Info("handled")

	assert.Contains(t, buf.String(), "trace_id=req-42")
}

func TestCentralLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	cl, err := logger.NewCentralLogger(&logger.LoggingConfig{
		DefaultLevel: "debug",
		Timezone:     "UTC",
		Console:      &logger.ConsoleOutput{Enabled: false},
		FileOutput:   &logger.FileOutput{Enabled: true, Path: path, Level: "debug"},
		ModuleLevels: map[string]string{"remote": "error"},
	})
	require.NoError(t, err)

	cl.Module("audio").Debug("engine prepared", logger.Int("channels", 2))
	cl.Module("remote").Info("suppressed by module level")
	require.NoError(t, cl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"engine prepared"`)
	assert.Contains(t, string(data), `"module":"audio"`)
	assert.NotContains(t, string(data), "suppressed")
}

func TestCentralLoggerRejectsBadTimezone(t *testing.T) {
	_, err := logger.NewCentralLogger(&logger.LoggingConfig{Timezone: "Not/AZone"})
	require.Error(t, err)
}
