package cli

import (
	"github.com/spf13/cobra"

	"github.com/GhostGeeks/UAP-Generator/internal/playback"
)

// ProbeReport is the JSON document probe prints.
type ProbeReport struct {
	Backend   string `json:"backend"`
	Path      string `json:"path"`
	CanStream bool   `json:"can_stream"`
}

// NewProbeCommand creates the probe command.
func NewProbeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Report the audio sink the engine would use",
		Long: `Probe the sink executables in preference order (pw-cat, paplay,
pw-play, aplay) and print the winner as JSON. Exits 1 when none is
installed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := playback.Probe()
			if err != nil {
				return WrapExitError(ExitFailure, "no audio backend", err)
			}
			return writeJSON(cmd.OutOrStdout(), ProbeReport{
				Backend:   b.Name,
				Path:      b.Path,
				CanStream: b.CanStream,
			})
		},
	}
}
