package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Pinger is the part of the database a monitor checks.
type Pinger interface {
	Ping(ctx context.Context) error
	Available() bool
	SetAvailable(ok bool)
}

// Monitor pings the database on an interval and keeps its availability
// flag current. Handlers consult the flag before touching the database.
type Monitor struct {
	target   Pinger
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	// timeouts counts consecutive pings that ran out of time
	timeouts int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// maxPingTimeouts is how many consecutive timed-out pings mark an
// available database as lost. A single-connection pool queues the ping
// behind a long transaction, so one slow ping says nothing about the server.
const maxPingTimeouts = 3

// NewMonitor creates a monitor for target.
func NewMonitor(target Pinger, interval time.Duration, logger *slog.Logger) *Monitor {
	timeout := interval / 2
	if timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	return &Monitor{
		target:   target,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start begins the health check loop. It runs until the context is
// cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("db: monitor is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.run(ctx)
	return nil
}

// Stop stops the health check loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.cancel()
	<-m.done
	m.running = false
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check pings once and records the result, logging transitions. It is
// called from one goroutine at a time.
func (m *Monitor) Check(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.target.Ping(pingCtx)
	was := m.target.Available()

	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		m.timeouts++
		if was && m.timeouts < maxPingTimeouts {
			m.logger.Warn("database ping timed out", "timeouts", m.timeouts, "timeout", m.timeout)
			return true
		}
	} else {
		m.timeouts = 0
	}

	ok := err == nil
	m.target.SetAvailable(ok)

	switch {
	case was && !ok:
		m.logger.Error("database connection lost", "error", err)
	case !was && ok:
		m.logger.Info("database connection restored")
	}
	return ok
}
