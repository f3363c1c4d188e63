// internal/recovery/recovery.go
package recovery

import (
	"fmt"
	"os"
	"runtime/debug"

	"go.uber.org/zap"
)

// HandlePanic should be deferred at the top of main().
// It logs panic details and exits with code 1.
func HandlePanic() {
	if r := recover(); r != nil {
		_, _ = fmt.Fprintf(os.Stderr, "FATAL: %v\n\nStack trace:\n%s\n", r, debug.Stack())
		os.Exit(1)
	}
}

// HandlePanicFunc logs panic details and calls the provided cleanup function
// (restoring the terminal, closing the audio device) before exiting.
func HandlePanicFunc(cleanup func()) {
	if r := recover(); r != nil {
		_, _ = fmt.Fprintf(os.Stderr, "FATAL: %v\n\nStack trace:\n%s\n", r, debug.Stack())
		if cleanup != nil {
			cleanup()
		}
		os.Exit(1)
	}
}

// Guard recovers a panic in a timer callback or the audio thread and logs
// it instead of taking the process down. It must be deferred directly:
//
//	defer recovery.Guard(log, "completion")
func Guard(log *zap.Logger, name string) {
	if r := recover(); r != nil {
		if log == nil {
			_, _ = fmt.Fprintf(os.Stderr, "recovered panic in %s: %v\n", name, r)
			return
		}
		log.Error("recovered panic",
			zap.String("where", name),
			zap.Any("panic", r),
			zap.ByteString("stack", debug.Stack()))
	}
}
