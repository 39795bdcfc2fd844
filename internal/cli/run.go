package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GhostGeeks/UAP-Generator/internal/build"
	"github.com/GhostGeeks/UAP-Generator/internal/config"
	"github.com/GhostGeeks/UAP-Generator/internal/engine"
	"github.com/GhostGeeks/UAP-Generator/internal/motif"
	"github.com/GhostGeeks/UAP-Generator/internal/playback"
	"github.com/GhostGeeks/UAP-Generator/internal/proto"
	"github.com/GhostGeeks/UAP-Generator/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath string
	CacheDir   string
	Backend    string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sound engine on stdin/stdout",
		Long: `Run the control loop: commands arrive one per line on stdin, JSON
events leave one per line on stdout. The engine exits on back from the
main page, on EOF, and on SIGINT/SIGTERM.

Example:
  uapgen run --config ./uapgen.json --cache ./cache
  uapgen run --backend aplay --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "parameter file (default: per-user config dir)")
	cmd.Flags().StringVar(&opts.CacheDir, "cache", "", "render ledger and artifact dir (default: per-user cache dir)")
	cmd.Flags().StringVar(&opts.Backend, "backend", "", "force a specific sink (pw-cat, paplay, pw-play, aplay)")

	return cmd
}

func runEngine(opts *RunOptions, cmd *cobra.Command) error {
	cleanup, err := setupLogging(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "logging setup failed", err)
	}
	defer cleanup()
	log := slog.Default()

	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath, err = config.DefaultPath()
		if err != nil {
			return WrapExitError(ExitCommandError, "no config location", err)
		}
	}
	cfgFile := config.NewFile(cfgPath, log)
	params := cfgFile.Load()
	log.Info("config loaded", "path", cfgPath, "mode", params.Mode)

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return WrapExitError(ExitCommandError, "no cache location", err)
		}
		cacheDir = filepath.Join(base, "ghostgeeks", "uapgen")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return WrapExitError(ExitCommandError, "create cache dir", err)
	}

	st, err := store.Open(filepath.Join(cacheDir, "ledger.db"))
	if err != nil {
		return WrapExitError(ExitCommandError, "open render ledger", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error("ledger close failed", "error", closeErr)
		}
	}()

	lib, err := motif.LoadLibrary()
	if err != nil {
		return WrapExitError(ExitCommandError, "load motif library", err)
	}

	builder, err := build.NewManager(st, lib, filepath.Join(cacheDir, "artifacts"),
		build.WithLogger(log))
	if err != nil {
		return WrapExitError(ExitCommandError, "start build manager", err)
	}

	scratch, err := os.MkdirTemp("", "uapgen-")
	if err != nil {
		return WrapExitError(ExitCommandError, "create scratch dir", err)
	}

	// A missing backend is not a startup failure: the gadget boots its
	// menus regardless and reports the problem on the first play
	// attempt. An explicit --backend that cannot serve is a usage error.
	var (
		backend playback.Backend
		sink    playback.Sink
	)
	sinkErrPath := filepath.Join(scratch, "sink.err")
	if opts.Backend != "" {
		backend, err = playback.ProbeName(opts.Backend)
		if err != nil {
			os.RemoveAll(scratch)
			return WrapExitError(ExitCommandError, "backend override", err)
		}
		sink = playback.NewExecSink(backend, sinkErrPath, log)
	} else if backend, err = playback.Probe(); err != nil {
		log.Warn("no usable audio backend", "error", err)
		backend = playback.Backend{}
		sink = playback.NoSink{Reason: err}
	} else {
		sink = playback.NewExecSink(backend, sinkErrPath, log)
	}
	if backend.Name != "" {
		log.Info("audio backend probed",
			"backend", backend.Name, "path", backend.Path, "stream", backend.CanStream)
	}

	reader := proto.NewReader(cmd.InOrStdin(), log)
	go reader.Run()

	eng := engine.New(engine.Deps{
		Params:     params,
		Save:       cfgFile.Save,
		Library:    lib,
		Sup:        playback.New(sink, playback.WithLogger(log)),
		Builder:    builder,
		Emitter:    proto.NewEmitter(cmd.OutOrStdout()),
		Commands:   reader.Commands(),
		Backend:    backend,
		ScratchDir: scratch,
		Log:        log,
	})
	defer eng.Close()

	// SIGINT/SIGTERM behave like back on the main page: stop audio,
	// emit exit, leave.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Info("engine starting", "backend", backend.Name, "config", cfgPath, "cache", cacheDir)
	if err := eng.Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "engine error", err)
	}
	log.Info("engine stopped")
	return nil
}
