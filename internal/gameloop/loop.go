// Package gameloop runs the fixed-timestep simulation loop: a lag
// accumulator drives a bounded burst of fixed-dt ticks per wall-clock
// iteration, while snapshot broadcast and inactive-client eviction run on
// their own independent cadences. Grounded on the teacher's dual-ticker
// main-loop pattern, generalized from two fixed ticker rates into an
// accumulator loop per this domain's tick-rate/snapshot-cadence decoupling.
package gameloop

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Config governs loop timing. Durations come from internal/config.SimConfig
// and NetworkConfig at the call site.
type Config struct {
	TickRate         time.Duration
	MaxTicksPerLoop  int
	EvictionInterval time.Duration
}

// Loop drives Tick at a fixed rate and EvictInactive on a separate cadence.
type Loop struct {
	cfg  Config
	log  *zap.Logger
	Tick func(dt time.Duration)
	EvictInactive func()
}

func New(cfg Config, log *zap.Logger, tick func(dt time.Duration), evictInactive func()) *Loop {
	return &Loop{cfg: cfg, log: log, Tick: tick, EvictInactive: evictInactive}
}

// Run blocks until ctx is cancelled, advancing the simulation in fixed
// dt-sized steps regardless of how irregularly the wall clock wakes us up.
func (l *Loop) Run(ctx context.Context) {
	var (
		lag           time.Duration
		lastFrame     = time.Now()
		sinceEviction time.Duration
	)

	ticker := time.NewTicker(l.cfg.TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			elapsed := now.Sub(lastFrame)
			lastFrame = now
			lag += elapsed
			sinceEviction += elapsed

			ticks := 0
			for lag >= l.cfg.TickRate && ticks < l.cfg.MaxTicksPerLoop {
				l.Tick(l.cfg.TickRate)
				lag -= l.cfg.TickRate
				ticks++
			}
			if ticks == l.cfg.MaxTicksPerLoop && lag >= l.cfg.TickRate {
				l.log.Warn("simulation falling behind wall clock, dropping lag", zap.Duration("lag", lag))
				lag = 0
			}

			if sinceEviction >= l.cfg.EvictionInterval {
				sinceEviction -= l.cfg.EvictionInterval
				l.EvictInactive()
			}
		}
	}
}
