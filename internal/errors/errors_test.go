package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	reported []*EnhancedError
}

func (r *recordingReporter) ReportError(ee *EnhancedError) {
	r.reported = append(r.reported, ee)
	ee.MarkReported()
}

func (r *recordingReporter) IsEnabled() bool { return true }

func TestBuildDefaults(t *testing.T) {
	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.Component)
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.False(t, ee.Timestamp.IsZero())
}

func TestBuildWithoutUnderlyingErrorUsesContextMessage(t *testing.T) {
	ee := New(nil).
		Component("audiograph").
		Category(CategoryState).
		Context("error", "device not prepared").
		Build()

	require.Error(t, ee)
	assert.Equal(t, "device not prepared", ee.Error())
}

func TestIsCategory(t *testing.T) {
	ee := New(fmt.Errorf("boom")).Category(CategoryEngineStart).Build()
	wrapped := fmt.Errorf("toggle: %w", ee)

	assert.True(t, IsCategory(wrapped, CategoryEngineStart))
	assert.False(t, IsCategory(wrapped, CategoryGraphConfig))
	assert.False(t, IsCategory(fmt.Errorf("plain"), CategoryEngineStart))
}

func TestIsMatchesSentinelByCategory(t *testing.T) {
	sentinel := New(nil).Category(CategoryCommandFailure).Build()
	ee := New(fmt.Errorf("remote toggle failed")).Category(CategoryCommandFailure).Build()

	assert.ErrorIs(t, ee, sentinel)
}

func TestPriorityFallsBackToMedium(t *testing.T) {
	ee := New(fmt.Errorf("x")).Priority("urgent").Build()
	assert.Equal(t, PriorityMedium, ee.Priority)

	ee = New(fmt.Errorf("x")).Priority(PriorityCritical).Build()
	assert.Equal(t, PriorityCritical, ee.Priority)
}

func TestTelemetryReporting(t *testing.T) {
	rec := &recordingReporter{}
	SetTelemetryReporter(rec)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	ee := New(fmt.Errorf("configure failed")).
		Component("session").
		Category(CategorySessionConfig).
		Build()

	require.Len(t, rec.reported, 1)
	assert.Same(t, ee, rec.reported[0])
	assert.True(t, ee.IsReported())
}

func TestGenerateErrorTitle(t *testing.T) {
	ee := New(fmt.Errorf("x")).
		Component("audiograph").
		Category(CategoryGraphConfig).
		Context("operation", "connect_mixer").
		Build()

	assert.Equal(t, "Audiograph Audio Graph Error Connect Mixer", generateErrorTitle(ee))
}

func TestFormatContextIsSorted(t *testing.T) {
	ee := New(fmt.Errorf("x")).Context("code", -50).Context("domain", "session").Build()
	assert.Equal(t, "code=-50 domain=session", FormatContext(ee))
}
