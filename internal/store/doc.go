// Package store provides SQLite-backed durable storage for the render
// ledger: the map from synthesis parameters to cached WAV artifacts.
//
// Expensive patterns (Shepard cycles, motif mixdowns) take seconds to
// render on gadget hardware. The ledger remembers finished renders
// across restarts so a build only ever happens once per parameter set.
//
// # Critical Patterns
//
// CP-1: Content Addressing
//   - Rows are keyed by params hash (SHA-256 over canonical JSON)
//   - Same parameters always resolve to the same artifact
//   - Record uses ON CONFLICT DO UPDATE: re-renders replace the row
//
// CP-2: Artifact-First Ordering
//   - The WAV is renamed into place BEFORE its row is written
//   - A ledger row therefore always points at a complete file,
//     never a partial write
//
// CP-3: Advisory Hits
//   - Lookup hits are re-verified with os.Stat before playback
//   - PruneMissing reconciles the ledger after manual deletion
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Params hashes are computed in internal/synth using SHA-256 with
// domain separation over canonical JSON.
package store
