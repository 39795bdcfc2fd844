// Package build runs expensive pattern renders off the control loop.
//
// One job is in flight at a time. The control loop requests a build and
// then polls each tick: progress rows and the final result cross from
// the render worker on buffered channels, so Poll never blocks. A
// request that lands while a job runs supersedes it: the running render
// finishes (renders are torn down only at shutdown), its result is
// withheld, and the newest parameters begin right after. Completed
// artifacts are recorded in the render ledger either way, so flipping a
// parameter back and forth replays from cache instead of rebuilding.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GhostGeeks/UAP-Generator/internal/motif"
	"github.com/GhostGeeks/UAP-Generator/internal/store"
	"github.com/GhostGeeks/UAP-Generator/internal/synth"
	"github.com/GhostGeeks/UAP-Generator/internal/wavio"
)

// shepardStep is the single progress label for glide renders. Motif
// renders carry their own step sequences.
const shepardStep = "Rendering glide"

// Request names one pattern to build: a buildable mode plus the volume
// baked into the artifact.
type Request struct {
	Mode   synth.Mode
	Volume int
}

// Progress is one render progress report, drained by Poll.
type Progress struct {
	JobID    string
	Pct      int // whole percent, 0-100
	Step     string
	ElapsedS int
}

// Result is the outcome of one build job. Err is set on failure; on
// success Path names the playable artifact.
type Result struct {
	JobID    string
	Req      Request
	Hash     string
	Path     string
	Rate     int
	Channels int
	Duration time.Duration
	CacheHit bool
	Err      error
}

// MotifLibrary resolves motif names. Satisfied by *motif.Library.
type MotifLibrary interface {
	Get(name string) (motif.Definition, bool)
}

// Manager owns the build worker. Like the playback supervisor it is
// passive and control-loop-owned: Request and Poll must come from one
// goroutine; only the render itself runs concurrently.
type Manager struct {
	ledger *store.Store
	lib    MotifLibrary
	dir    string
	log    *slog.Logger
	now    func() time.Time
	newID  func() string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	busy       bool
	jobID      string
	jobHash    string
	superseded bool
	next       *Request

	progress chan Progress
	results  chan Result
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger routes build logs.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithClock overrides the elapsed-time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator overrides job ID generation.
func WithIDGenerator(f func() string) Option {
	return func(m *Manager) { m.newID = f }
}

// NewManager wires the worker to the render ledger and the motif
// library. dir receives the WAV artifacts and is created if missing.
// Construction sweeps the ledger: rows from other render versions and
// rows whose artifacts vanished are dropped, so a stale entry can never
// satisfy a lookup.
func NewManager(ledger *store.Store, lib MotifLibrary, dir string, opts ...Option) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		ledger:   ledger,
		lib:      lib,
		dir:      dir,
		log:      slog.Default(),
		now:      time.Now,
		newID:    func() string { return uuid.Must(uuid.NewV7()).String() },
		ctx:      ctx,
		cancel:   cancel,
		progress: make(chan Progress, 64),
		results:  make(chan Result, 1),
	}
	for _, opt := range opts {
		opt(m)
	}

	// Hygiene is best effort: a failed sweep costs cache hits, not
	// correctness, because lookups re-check version and file anyway.
	if n, err := ledger.PruneVersions(ctx, synth.RenderVersion); err != nil {
		m.log.Warn("version prune failed", "error", err)
	} else if n > 0 {
		m.log.Info("pruned stale-version renders", "rows", n, "keep", synth.RenderVersion)
	}
	if n, err := ledger.PruneMissing(ctx); err != nil {
		m.log.Warn("missing-artifact prune failed", "error", err)
	} else if n > 0 {
		m.log.Info("pruned vanished renders", "rows", n)
	}
	return m, nil
}

// Busy reports whether a job is running or its result has not been
// polled yet.
func (m *Manager) Busy() bool { return m.busy }

// identity computes the render identity of a request: its params hash
// and the artifact path that hash occupies.
func (m *Manager) identity(req Request) (hash, path string, err error) {
	var rate int
	switch req.Mode.Kind {
	case synth.ModeShepard:
		rate = synth.LoopRate
	case synth.ModeMotif:
		def, ok := m.lib.Get(req.Mode.Motif)
		if !ok {
			return "", "", &Error{Message: fmt.Sprintf("unknown motif %q", req.Mode.Motif)}
		}
		rate = def.SampleRate
	default:
		return "", "", &Error{Message: fmt.Sprintf("mode %s does not build", req.Mode.Kind)}
	}
	hash = synth.ParamsHash(req.Mode, req.Volume, 0, rate, 1)
	return hash, filepath.Join(m.dir, hash[:16]+".wav"), nil
}

// Request asks for req's pattern and returns the job token. When idle
// the ledger is consulted first: a hit whose artifact is still on disk
// resolves on the next Poll without rendering. While a job runs the
// newest request wins: the running job is marked superseded and req
// starts once it finishes. Re-requesting the parameters already being
// built cancels the supersession.
func (m *Manager) Request(req Request) (string, error) {
	hash, path, err := m.identity(req)
	if err != nil {
		return "", err
	}

	if m.busy {
		if hash == m.jobHash {
			m.superseded = false
			m.next = nil
			return m.jobID, nil
		}
		m.superseded = true
		m.next = &req
		m.log.Info("build superseded", "job", m.jobID, "mode", req.Mode.Kind.String())
		return m.jobID, nil
	}

	return m.begin(req, hash, path), nil
}

func (m *Manager) begin(req Request, hash, path string) string {
	id := m.newID()
	m.busy = true
	m.jobID = id
	m.jobHash = hash
	m.superseded = false
	m.next = nil

	row, ok, err := m.ledger.Lookup(m.ctx, hash)
	if err != nil {
		m.log.Warn("ledger lookup failed", "error", err)
	}
	if err == nil && ok && row.EngineVersion == synth.RenderVersion {
		// advisory hit: trust it only if the artifact survived
		if _, statErr := os.Stat(row.Path); statErr == nil {
			m.results <- Result{
				JobID:    id,
				Req:      req,
				Hash:     hash,
				Path:     row.Path,
				Rate:     row.SampleRate,
				Channels: row.Channels,
				Duration: time.Duration(row.DurationMs) * time.Millisecond,
				CacheHit: true,
			}
			m.log.Info("build satisfied from ledger", "job", id, "hash", hash[:16])
			return id
		}
	}

	start := m.now()
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.results <- m.render(id, req, hash, path, start)
	}()
	m.log.Info("build started", "job", id, "mode", req.Mode.Kind.String(), "hash", hash[:16])
	return id
}

// render runs on the worker goroutine.
func (m *Manager) render(id string, req Request, hash, path string, start time.Time) Result {
	res := Result{JobID: id, Req: req, Hash: hash, Path: path}

	var (
		pat *synth.Pattern
		err error
	)
	switch req.Mode.Kind {
	case synth.ModeShepard:
		pat, err = synth.RenderShepardLoop(m.ctx, req.Mode.Dir, req.Volume, func(pct int) {
			m.report(id, pct, shepardStep, start)
		})
	case synth.ModeMotif:
		def, _ := m.lib.Get(req.Mode.Motif) // identity already resolved it
		var p synth.Pattern
		p, err = motif.Render(m.ctx, def, func(pct int, step string) {
			m.report(id, pct, step, start)
		})
		if err == nil {
			// motifs render at reference level; volume lands here
			scale(p.Samples, synth.Gain(req.Volume))
			pat = &p
		}
	}
	if err != nil {
		res.Err = &Error{JobID: id, Message: "render " + req.Mode.Kind.String(), Err: err}
		return res
	}

	if err := wavio.Write(path, pat); err != nil {
		res.Err = &Error{JobID: id, Message: "write artifact", Err: err}
		return res
	}

	rec := store.Render{
		ParamsHash:    hash,
		Path:          path,
		SampleRate:    pat.Rate,
		Channels:      pat.Channels,
		DurationMs:    pat.Duration().Milliseconds(),
		EngineVersion: synth.RenderVersion,
		CreatedAt:     m.now(),
	}
	if err := m.ledger.Record(m.ctx, rec); err != nil {
		// the artifact is fine, the cache just will not remember it
		m.log.Warn("ledger record failed", "job", id, "error", err)
	}

	res.Rate = pat.Rate
	res.Channels = pat.Channels
	res.Duration = pat.Duration()
	return res
}

// report queues one progress row without blocking the render; when the
// queue is full the row is dropped, progress is advisory.
func (m *Manager) report(id string, pct int, step string, start time.Time) {
	p := Progress{
		JobID:    id,
		Pct:      pct,
		Step:     step,
		ElapsedS: int(m.now().Sub(start) / time.Second),
	}
	select {
	case m.progress <- p:
	default:
	}
}

// Poll drains pending progress and, once the job has finished, its
// result. A superseded result is withheld (its artifact stays cached in
// the ledger) and the stashed parameters begin immediately.
func (m *Manager) Poll() (*Result, []Progress) {
	var prog []Progress
drain:
	for {
		select {
		case p := <-m.progress:
			prog = append(prog, p)
		default:
			break drain
		}
	}

	select {
	case res := <-m.results:
		m.busy = false
		if m.superseded {
			m.superseded = false
			next := m.next
			m.next = nil
			m.log.Info("superseded build discarded", "job", res.JobID, "failed", res.Err != nil)
			if next != nil {
				if hash, path, err := m.identity(*next); err == nil {
					m.begin(*next, hash, path)
				}
			}
			return nil, prog
		}
		return &res, prog
	default:
		return nil, prog
	}
}

// Close cancels any in-flight render and discards the undelivered
// result, removing an artifact it freshly produced. Ledger hits are
// left alone: their artifacts predate this run.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
	m.busy = false
	m.superseded = false
	m.next = nil

	select {
	case res := <-m.results:
		if res.Err == nil && !res.CacheHit {
			if err := os.Remove(res.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
				m.log.Warn("discard artifact failed", "path", res.Path, "error", err)
			}
			if err := m.ledger.Delete(context.Background(), res.Hash); err != nil {
				m.log.Warn("discard ledger row failed", "hash", res.Hash, "error", err)
			}
		}
	default:
	}
}

func scale(buf []float64, k float64) {
	for i := range buf {
		buf[i] *= k
	}
}
