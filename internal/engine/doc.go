// Package engine runs the gadget-facing control loop.
//
// The engine owns every mutable piece of the sound module: the
// persisted parameters, the menu pages and cursor, the playback
// supervisor and the async build manager. It consumes the five-command
// input stream and emits the line-oriented event protocol.
//
// ARCHITECTURE:
//
// Single-Writer Control Loop:
// All state changes happen on one goroutine inside Tick. This ensures:
// - Commands apply in arrival order
// - Events reach the wire in cause order
// - No locks around parameters, pages or the supervisor
//
// Tick Processing Flow (one pass per 20 ms tick):
// 1. Drain pending input commands and apply each to the focused page
// 2. Advance the playback supervisor (crash detection, retries, one
//    streaming block)
// 3. Poll the build manager for progress and finished artifacts
// 4. Flush the throttled toast and emit the heartbeat state
//
// Renders that would stall the loop (Shepard cycles, motifs) run on the
// build manager's worker; everything else renders inline.
//
// CRITICAL PATTERNS:
//
// CP-1: Single Writer
// Start, Tick and Close are called from one goroutine only. The
// supervisor, the build handles and the parameters are touched from
// nowhere else.
//
// CP-2: Injected Clock
// Every time decision (heartbeat, toast throttle, retry pacing) uses
// the time passed into Tick. NEVER call time.Now inside the loop; the
// test harness drives it with a manual clock.
//
// CP-3: The Loop Outlives Errors
// A failed render, save or sink start becomes a toast or the fatal
// page. The loop itself exits only on back, input EOF, context cancel
// or a dead output pipe.
package engine
