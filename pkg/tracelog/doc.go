// Package tracelog records the runtime's machine-readable event
// stream: session state transitions, the frame loop, input edges after
// sync, and binding suggestion and attachment. It complements the
// operational slog output rather than replacing it; the trace is meant
// for replay and analysis, slog is for humans watching a run.
//
// The runtime takes any Logger. Typical wiring:
//
//	// console only, through the ambient slog handler
//	cfg.Trace = tracelog.NewSlogAdapter(slog.Default())
//
//	// binary trace file, readable with the strata-trace tool
//	file, err := tracelog.NewFileLogger("run.strace")
//	if err != nil { ... }
//	cfg.Trace = file
//
//	// or both at once
//	cfg.Trace = tracelog.NewMultiLogger(tracelog.NewSlogAdapter(slog.Default()), file)
//
// Trace files hold a flat sequence of CBOR-encoded events with integer
// map keys; the .strace extension is conventional. Reader streams them
// back, optionally through a Filter, and the strata-trace command
// builds viewing, filtering, export and statistics on top of it.
package tracelog
