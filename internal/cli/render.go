package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/GhostGeeks/UAP-Generator/internal/config"
	"github.com/GhostGeeks/UAP-Generator/internal/motif"
	"github.com/GhostGeeks/UAP-Generator/internal/synth"
	"github.com/GhostGeeks/UAP-Generator/internal/wavio"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Out     string
	Seconds int
	Params  config.Params
}

// RenderSummary is the JSON document render prints on success.
type RenderSummary struct {
	Path      string  `json:"path"`
	Mode      string  `json:"mode"`
	Rate      int     `json:"sample_rate"`
	Channels  int     `json:"channels"`
	DurationS float64 `json:"duration_s"`
	Frames    int     `json:"frames"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts, Params: *config.Defaults()}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a pattern to a WAV file offline",
		Long: `Render any mode to a WAV artifact without a sink, printing a JSON
summary. Out-of-range values are clamped the same way the engine clamps
them.

Example:
  uapgen render --mode sweep --start 300 --end 3000 --out scan.wav
  uapgen render --mode motif --motif uap3 --volume 60`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, cmd)
		},
	}

	p := &opts.Params
	cmd.Flags().StringVar(&opts.Out, "out", "", "output path (default: <mode>.wav)")
	cmd.Flags().IntVar(&opts.Seconds, "seconds", 0, "loop length for noise-family modes (default 10)")
	cmd.Flags().StringVar(&p.Mode, "mode", p.Mode, "white, pink, brown, tone, sweep, shepard, pulse or motif")
	cmd.Flags().IntVar(&p.Volume, "volume", p.Volume, "volume 0-100")
	cmd.Flags().StringVar(&p.Wave, "wave", p.Wave, "tone waveform (sine, square, saw, triangle)")
	cmd.Flags().Float64Var(&p.FreqHz, "freq", p.FreqHz, "tone frequency in Hz")
	cmd.Flags().Float64Var(&p.StartHz, "start", p.StartHz, "sweep band start in Hz")
	cmd.Flags().Float64Var(&p.EndHz, "end", p.EndHz, "sweep band end in Hz")
	cmd.Flags().StringVar(&p.Dir, "dir", p.Dir, "sweep/shepard direction (up, down, bell)")
	cmd.Flags().IntVar(&p.PulseMs, "pulse-ms", p.PulseMs, "sweep tick interval in ms")
	cmd.Flags().IntVar(&p.OnMs, "on-ms", p.OnMs, "pulse window on time in ms")
	cmd.Flags().IntVar(&p.OffMs, "off-ms", p.OffMs, "pulse window off time in ms")
	cmd.Flags().StringVar(&p.Motif, "motif", p.Motif, "motif name")

	return cmd
}

func runRender(opts *RenderOptions, cmd *cobra.Command) error {
	cleanup, err := setupLogging(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "logging setup failed", err)
	}
	defer cleanup()
	log := slog.Default()

	// A mode typo must fail loudly here, unlike the engine's
	// boot-with-whatever repair of a stored config.
	params := opts.Params.Clone()
	if _, err := synth.ParseModeKind(params.Mode); err != nil {
		return WrapExitError(ExitCommandError, "bad mode", err)
	}
	params.Normalize(log)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pat, err := renderPattern(ctx, params, opts.Seconds, log)
	if err != nil {
		return WrapExitError(ExitFailure, "render failed", err)
	}

	out := opts.Out
	if out == "" {
		out = params.Mode + ".wav"
	}
	if err := wavio.Write(out, pat); err != nil {
		return WrapExitError(ExitFailure, "write artifact", err)
	}
	log.Info("artifact written", "path", out, "frames", pat.Frames())

	return writeJSON(cmd.OutOrStdout(), RenderSummary{
		Path:      out,
		Mode:      params.Mode,
		Rate:      pat.Rate,
		Channels:  pat.Channels,
		DurationS: pat.Duration().Seconds(),
		Frames:    pat.Frames(),
	})
}

// renderPattern dispatches on the mode topology the way the engine
// does: scan patterns and build-grade renders by their own paths,
// everything else as a noise loop.
func renderPattern(ctx context.Context, p *config.Params, seconds int, log *slog.Logger) (*synth.Pattern, error) {
	mode := p.ToMode()
	switch mode.Kind {
	case synth.ModeSweep:
		return synth.RenderStaticScan(ctx, synth.ScanParams{
			StartHz: mode.StartHz,
			EndHz:   mode.EndHz,
			Dir:     mode.Dir,
			PulseMs: p.PulseMs,
			Volume:  p.Volume,
		})
	case synth.ModeShepard:
		return synth.RenderShepardLoop(ctx, mode.Dir, p.Volume, func(pct int) {
			log.Debug("render progress", "pct", pct)
		})
	case synth.ModeMotif:
		lib, err := motif.LoadLibrary()
		if err != nil {
			return nil, err
		}
		def, ok := lib.Get(p.Motif)
		if !ok {
			return nil, fmt.Errorf("unknown motif %q", p.Motif)
		}
		pat, err := motif.Render(ctx, def, func(pct int, step string) {
			log.Info("render progress", "pct", pct, "step", step)
		})
		if err != nil {
			return nil, err
		}
		gain := synth.Gain(p.Volume)
		for i := range pat.Samples {
			pat.Samples[i] *= gain
		}
		return &pat, nil
	default:
		if seconds > 0 {
			return synth.RenderNoiseLoopSeconds(mode, p.Volume, seconds)
		}
		return synth.RenderNoiseLoop(mode, p.Volume)
	}
}
