// Package heartbeat detects silently-dead connections. Explicit close
// events arrive through the transport; this catches the peers that just
// stop answering (idle NAT timeouts, pulled cables) without ever closing.
package heartbeat

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"chatrelay/internal/router"
)

// Supervisor sweeps every tracked connection on a fixed interval. A
// connection whose liveness flag is still down from the previous sweep is
// forcibly terminated; normal disconnect cleanup runs off the transport's
// read path. Otherwise the flag is lowered and a probe sent, to be raised
// again by the pong callback before the next sweep.
type Supervisor struct {
	registry *router.Registry
	interval time.Duration
	log      *zap.Logger

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewSupervisor creates a supervisor over the registry. It does not
// start sweeping until Start is called.
func NewSupervisor(registry *router.Registry, interval time.Duration, log *zap.Logger) *Supervisor {
	return &Supervisor{
		registry: registry,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep goroutine.
func (sv *Supervisor) Start() {
	if sv.started.CompareAndSwap(false, true) {
		go sv.run()
	}
}

// Stop cancels sweeping and waits for the current sweep to finish. Safe
// to call more than once, or without a prior Start.
func (sv *Supervisor) Stop() {
	sv.stopOnce.Do(func() {
		close(sv.stop)
	})
	if sv.started.Load() {
		<-sv.done
	}
}

func (sv *Supervisor) run() {
	defer close(sv.done)

	ticker := time.NewTicker(sv.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sv.Sweep()
		case <-sv.stop:
			return
		}
	}
}

// Sweep runs one liveness pass over every tracked connection, joined or
// not. Exported so tests can drive sweeps without waiting on the ticker.
func (sv *Supervisor) Sweep() {
	for _, s := range sv.registry.All() {
		if !s.Alive() {
			// Only the atomic liveness flag and the channel are touched
			// here; everything else on the session belongs to the hub loop.
			sv.log.Warn("terminating unresponsive connection",
				zap.String("session", s.ID()))
			s.Channel().Terminate()
			continue
		}

		s.Expire()
		if err := s.Channel().Ping(); err != nil {
			// The probe could not even be written; the read path will
			// surface the failure, next sweep catches stragglers.
			sv.log.Debug("liveness probe failed",
				zap.String("session", s.ID()),
				zap.Error(err))
		}
	}
}
