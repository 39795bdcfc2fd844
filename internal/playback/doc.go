// Package playback owns the external audio sink process.
//
// The supervisor runs exactly one sink session at a time, in one of two
// topologies:
//
//   - Streaming: a long-lived sink reads raw s16le PCM on stdin; the
//     control loop asks the supervisor to generate and write one small
//     block per tick, paced to real time.
//   - File loop: the sink plays a rendered WAV artifact to completion
//     and is relaunched by the supervisor, forever, until stopped.
//
// # Critical Patterns
//
// CP-1: Bounded Crash Recovery
//   - An unexpected sink exit while intended to play moves the session
//     to Retrying, waits a short backoff, and restarts
//   - The retry counter persists across successful restarts within a
//     session; once the budget is spent the session is Fatal and stays
//     Fatal until an explicit Reset
//
// CP-2: Bounded Termination
//   - Stop signals the sink's whole process group with SIGTERM, waits
//     up to the grace period, then SIGKILLs
//   - Stop is idempotent and safe in every state
//
// CP-3: No Hidden Threads
//   - All supervision decisions happen inside Advance, driven by the
//     caller's clock; the only goroutine is the per-process Wait
//   - Deterministic to test: feed Advance a manual clock and a fake sink
//
// Sink stderr goes to a diagnostics file, never to stdout; stdout
// belongs to the control protocol.
package playback
