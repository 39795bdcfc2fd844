package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/GhostGeeks/UAP-Generator/internal/proto"
)

// stateKeys pins the optional-field print order. JSON objects decode
// into maps, so without a fixed order transcripts would churn on map
// iteration.
var stateKeys = []string{
	"backend", "wave", "freq_hz", "start_hz", "end_hz", "direction",
	"pulse_ms", "duty", "on_ms", "off_ms", "motif", "duration_s", "loop",
}

// Trace renders a decoded transcript one event per line, in a compact
// diff-friendly form. Volatile fields (build elapsed_s) are dropped so
// goldens stay stable across machines.
func Trace(evs []proto.RawEvent) []byte {
	var b bytes.Buffer
	for _, ev := range evs {
		switch ev.Type {
		case "hello":
			fmt.Fprintf(&b, "hello module=%v version=%v\n",
				ev.Fields["module"], ev.Fields["version"])
		case "page":
			fmt.Fprintf(&b, "page %v\n", ev.Fields["name"])
		case "state":
			fmt.Fprintf(&b, "state ready=%v playing=%v mode=%v volume=%v page=%v cursor=%v",
				ev.Fields["ready"], ev.Fields["playing"], ev.Fields["mode"],
				ev.Fields["volume"], ev.Fields["page"], ev.Fields["cursor"])
			for _, k := range stateKeys {
				if v, ok := ev.Fields[k]; ok {
					fmt.Fprintf(&b, " %s=%v", k, v)
				}
			}
			b.WriteByte('\n')
		case "toast":
			fmt.Fprintf(&b, "toast %v\n", ev.Fields["message"])
		case "build":
			fmt.Fprintf(&b, "build pct=%.2f step=%v\n",
				ev.Fields["pct"], ev.Fields["step"])
		case "fatal":
			fmt.Fprintf(&b, "fatal %v\n", ev.Fields["message"])
		case "exit":
			b.WriteString("exit\n")
		default:
			fmt.Fprintf(&b, "%s ?\n", ev.Type)
		}
	}
	return b.Bytes()
}

// RunWithGolden runs a scenario and compares its rendered transcript
// against the golden file named after the scenario.
func RunWithGolden(t *testing.T, sc *Scenario) *Result {
	t.Helper()
	res := Run(t, sc)
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, Trace(res.Events))
	return res
}
