package ecs

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/charcoal-engine/charcoal/pkg/statsd"
)

// SystemFailure records one failed system execution: which system, and why.
type SystemFailure struct {
	System string
	Cause  error
}

// FrameReport summarizes one completed frame. It is returned to the application loop and
// is the only channel through which per-system failures surface; a degraded frame does
// not interrupt sibling systems and is never retried automatically.
type FrameReport struct {
	Frame         uint64
	SystemsRun    int
	SystemsFailed []SystemFailure
	WallTime      time.Duration
}

// Degraded reports whether any system failed during the frame.
func (r *FrameReport) Degraded() bool {
	return len(r.SystemsFailed) > 0
}

// frameCollector accumulates per-system outcomes across the workers of a frame.
type frameCollector struct {
	mu       sync.Mutex
	run      int
	failures []SystemFailure
}

func (c *frameCollector) recordSuccess() {
	c.mu.Lock()
	c.run++
	c.mu.Unlock()
}

func (c *frameCollector) recordFailure(system string, cause error) {
	c.mu.Lock()
	c.failures = append(c.failures, SystemFailure{System: system, Cause: cause})
	c.mu.Unlock()
}

// Tick runs exactly one full pass through all scheduling waves and returns the frame
// report. The calling goroutine blocks until the last wave's structural commit finishes;
// wave execution itself is parallel. Tick is not re-entrant: a call made while a previous
// call's waves are still executing fails with ErrFrameInProgress. There is no built-in
// timeout; a slow system delays the whole wave.
func (w *World) Tick() (*FrameReport, error) {
	if !w.inFrame.CompareAndSwap(false, true) {
		return nil, eris.Wrap(ErrFrameInProgress, "tick re-entered")
	}
	defer w.inFrame.Store(false)

	startTime := time.Now()
	frame := w.frame.Load()
	logger := w.logger.With().Uint64("frame", frame).Logger()

	w.scheduler.buildWaves(&w.logger)

	if !w.initDone {
		logWorld(&w.logger, w, zerolog.InfoLevel)
		if err := w.runInitSystems(); err != nil {
			return nil, err
		}
		w.initDone = true
	}

	collector := &frameCollector{}
	for waveNum, wave := range w.scheduler.waves {
		waveStart := time.Now()

		tasks := w.makeWaveTasks(wave, collector, &logger)
		w.inWave.Store(true)
		w.pool.dispatch(tasks)
		w.inWave.Store(false)

		// Wave boundary: apply the structural commands this wave queued, in issue
		// order, before any task of the next wave starts.
		w.commitPending()

		statsd.EmitWaveStat(waveStart, waveNum)
	}

	w.frame.Add(1)
	statsd.EmitFrameStat(startTime, "full_frame")

	report := &FrameReport{
		Frame:         frame,
		SystemsRun:    collector.run,
		SystemsFailed: collector.failures,
		WallTime:      time.Since(startTime),
	}
	if report.Degraded() {
		logger.Warn().Int("failed", len(report.SystemsFailed)).Msg("frame degraded")
	}
	return report, nil
}

// runInitSystems runs the registered init systems sequentially, in registration order.
// An init system failure aborts the tick; unlike per-frame systems there is no sibling
// work to protect, and a world that failed to initialize shouldn't start ticking.
func (w *World) runInitSystems() error {
	for _, system := range w.initSystems {
		ctx := &Context{
			world: w,
			// Init systems run before the wave machinery, so they get an unrestricted
			// access set: every registered component, both modes.
			system: w.unrestrictedMetadata(system.name),
			logger: w.logger.With().Str("system", system.name).Logger(),
		}
		if err := system.fn(ctx); err != nil {
			return eris.Wrapf(err, "init system %s failed", system.name)
		}
	}
	return nil
}

// unrestrictedMetadata builds a synthetic descriptor declaring access to every
// registered component. Used for init systems only.
func (w *World) unrestrictedMetadata(name string) *systemMetadata {
	var set accessSet
	for _, cid := range w.registry.catalog {
		set.writes.Set(cid)
	}
	return &systemMetadata{name: name, access: set}
}

// makeWaveTasks wraps each system of a wave into a pool task. A system that panics or
// returns an error is recorded with its identity and cause; the failure is isolated to
// its task and does not halt siblings in the same wave.
func (w *World) makeWaveTasks(wave []int, collector *frameCollector, logger *zerolog.Logger) []*task {
	tasks := make([]*task, 0, len(wave))
	for _, idx := range wave {
		system := &w.scheduler.systems[idx]
		ctx := &Context{
			world:  w,
			system: system,
			logger: logger.With().Str("system", system.name).Logger(),
		}

		tasks = append(tasks, &task{run: func() {
			defer func() {
				if r := recover(); r != nil {
					collector.recordFailure(system.name, eris.Errorf("system panicked: %v", r))
				}
			}()

			if err := system.fn(ctx); err != nil {
				collector.recordFailure(system.name, err)
				return
			}
			collector.recordSuccess()
		}})
	}
	return tasks
}
