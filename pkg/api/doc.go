// Package api defines the public atom types and the closed result-code set
// shared by every layer of the Strata runtime.
//
// # Result Codes
//
// Every runtime operation reports a Result. Codes are grouped as:
//   - Caller-contract violations (invalid handle, wrong structure type,
//     null required argument): detected before any mutation, never retried.
//   - Ordering violations (call-order-invalid, session-not-running):
//     reported with no mutation.
//   - Collaborator failures (device or compositor call failed): wrapped and
//     surfaced, possibly marking the session lost.
//   - Session loss: sticky; once set, nearly all calls on that session
//     short-circuit to SessionLossPending or ErrSessionLost.
//
// Negative codes are errors and implement the error interface; non-negative
// codes are (possibly qualified) successes such as FrameDiscarded.
//
// # Atoms
//
// Path is an interned semantic path (see the runtime path table); Time is a
// runtime timestamp in nanoseconds. Both are plain integers so they can
// cross package boundaries without allocation.
package api
