// Package harness runs scripted end-to-end scenarios against the
// control loop: a scenario feeds commands and synthetic time into a
// real engine wired to a recording sink, and the emitted protocol
// transcript is compared against expectations or golden files.
//
// Everything nondeterministic is pinned: the clock is manual, IDs are
// sequential, the sink is an in-memory recorder, and config writes go
// to a scratch directory. The same scenario therefore produces a
// byte-identical transcript on every run, except for async build
// progress, which scenarios avoid depending on.
//
// # Scenario Format
//
// Scenarios are YAML documents:
//
//	name: cycle-mode
//	description: "Selector walks the ring backward"
//	params:
//	  mode: white
//	  volume: 50
//	backend: stream        # stream | file-only | none
//	steps:
//	  - command: select_hold
//	    repeat: 8
//	  - advance_ms: 300
//	  - crash_sink: "device lost"
//	  - command: back
//
// Absent params fall back to the factory defaults. Each command step
// runs one loop tick; advance_ms runs idle ticks on the 20 ms grid.
package harness
