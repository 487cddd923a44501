package tone

import (
	"context"
	"fmt"

	"github.com/tphakala/tonebarrier/internal/logger"
)

// DrainDiagnostics logs render diagnostics until ctx is cancelled. It runs on
// its own goroutine, never on the render thread.
func (r *Renderer) DrainDiagnostics(ctx context.Context, log logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-r.diagnostics:
			fields := []logger.Field{
				logger.String("kind", d.Kind.String()),
				logger.Int("frame_count", int(d.FrameCount)),
				logger.String("format", d.Format.String()),
			}
			if d.Value != nil {
				fields = append(fields, logger.String("panic", fmt.Sprint(d.Value)))
			}
			if d.Kind == DiagnosticPanic {
				log.Error("render callback recovered from panic", fields...)
			} else {
				log.Warn("render callback produced silence", fields...)
			}
		}
	}
}
