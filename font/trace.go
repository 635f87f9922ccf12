package font

// Trace is the engine's only process-wide state: an optional sink for
// trace-level diagnostics emitted at the same points the C sources guard
// with FT_TRACE macros. It is nil by default, in which case tracef is a
// no-op; callers that want visibility into recovered errors (a failed
// hint program, after which the unhinted outline is used) set it once
// at startup.
var Trace func(format string, args ...any)

func tracef(format string, args ...any) {
	if Trace != nil {
		Trace(format, args...)
	}
}
