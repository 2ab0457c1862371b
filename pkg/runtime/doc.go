// Package runtime implements the Strata state tracker. It owns the
// instance, session, action and space objects an application creates,
// validates every call against object lifecycle and session state, and
// drives the device layer underneath through the driver interfaces.
//
// # Object Tree
//
// An Instance is the root of a handle tree. Sessions, action sets and
// their children hang off it; destroying any handle tears down its whole
// subtree. All creation and destruction goes through pkg/handle so no
// child can outlive its parent.
//
// # The Frame Loop
//
// Each session paces its frame loop with a single in-flight permit:
// WaitFrame blocks until the previous frame is begun, BeginFrame releases
// the next waiter, EndFrame verifies layers and hands them to the
// compositor. Sessions without a compositor run the same loop against
// synthesized timing.
//
// # Input
//
// Applications declare actions, suggest bindings per interaction profile
// and attach the sets to a session. SyncActions walks the bound sources,
// folds multiple bindings into one value per subaction and latches edge
// state for the state queries.
package runtime
