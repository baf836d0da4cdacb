package errors

import (
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

const maxStackDepth = 32

type handlerSlot struct {
	h ErrorHandler
}

var current atomic.Pointer[handlerSlot]

func init() {
	current.Store(&handlerSlot{h: &LogHandler{}})
}

// SetHandler installs h as the process-wide handler.
// Pass nil to restore a LogHandler writing to slog.Default().
func SetHandler(h ErrorHandler) {
	if h == nil {
		h = &LogHandler{}
	}
	current.Store(&handlerSlot{h: h})
}

// Handler returns the process-wide handler.
func Handler() ErrorHandler {
	return current.Load().h
}

// Report stamps err with the current time, unless already set, and hands it
// to the handler.
func Report(err *ViewError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	Handler().HandleError(err)
}

// ReportPanic is Report for recovered panics.
func ReportPanic(err *PanicError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	Handler().HandlePanic(err)
}

// Recover reports a panic in progress as a PanicError for op. It must be
// deferred directly:
//
//	defer errors.Recover("renderer.observer")
func Recover(op string) {
	if r := recover(); r != nil {
		reportRecovered(op, r)
	}
}

// RecoverWith is Recover followed by onPanic(r).
func RecoverWith(op string, onPanic func(r any)) {
	if r := recover(); r != nil {
		reportRecovered(op, r)
		if onPanic != nil {
			onPanic(r)
		}
	}
}

func reportRecovered(op string, r any) {
	ReportPanic(&PanicError{Op: op, Value: r, StackTrace: CaptureStack(2)})
}

// CaptureStack formats the calling goroutine's stack, starting skip frames
// above the caller of CaptureStack.
func CaptureStack(skip int) string {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}

	var sb strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		fmt.Fprintf(&sb, "%s\n\t%s:%d\n", f.Function, f.File, f.Line)
		if !more {
			break
		}
	}
	return sb.String()
}
