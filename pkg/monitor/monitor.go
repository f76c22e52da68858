/*
 * Copyright 2025 QuickBars.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package monitor decides whether the companion app is reachable by
// periodically exercising the bridge's ping path.
package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quickbars/bridge/pkg/bridge"
	"github.com/quickbars/bridge/pkg/logger"
	"github.com/quickbars/bridge/pkg/models"
)

const (
	defaultInterval    = 10 * time.Second
	defaultPingTimeout = 5 * time.Second
	failureBuffer      = 4
)

var errIdentityRequired = errors.New("monitor requires a non-empty identity")

// Config configures one connectivity monitor.
type Config struct {
	Identity         string          `json:"identity"`
	Interval         models.Duration `json:"interval"`
	PingTimeout      models.Duration `json:"ping_timeout"`
	FailureThreshold int             `json:"failure_threshold"`
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if c.Identity == "" {
		return errIdentityRequired
	}

	if time.Duration(c.Interval) == 0 {
		c.Interval = models.Duration(defaultInterval)
	}

	if time.Duration(c.PingTimeout) == 0 {
		c.PingTimeout = models.Duration(defaultPingTimeout)
	}

	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 1
	}

	return nil
}

// Monitor runs the periodic ping cycle. Failed pings are routine, not
// exceptional: each cycle stands alone and is simply retried on the
// next tick. Only unexpected errors surface on Failures.
type Monitor struct {
	config Config
	pinger Pinger
	clock  Clock
	logger logger.Logger

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	checkCh   chan struct{}
	failureCh chan error

	onStatus func(available bool)

	consecutiveFailures int
	available           atomic.Bool
}

// New creates a monitor. A nil clock defaults to the wall clock.
func New(config *Config, pinger Pinger, clock Clock, log logger.Logger) (*Monitor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if clock == nil {
		clock = realClock{}
	}

	return &Monitor{
		config:    *config,
		pinger:    pinger,
		clock:     clock,
		logger:    log,
		done:      make(chan struct{}),
		checkCh:   make(chan struct{}, 1),
		failureCh: make(chan error, failureBuffer),
	}, nil
}

// OnStatus registers the availability callback. Must be set before
// Start; it is invoked from the monitor goroutine after every cycle.
func (m *Monitor) OnStatus(fn func(available bool)) {
	m.onStatus = fn
}

// Failures delivers unexpected monitor-level errors so the operator UI
// can surface a persistent-unavailable state.
func (m *Monitor) Failures() <-chan error {
	return m.failureCh
}

// RequestCheck schedules an immediate out-of-cycle probe, used after a
// presence update changed the connection parameters. Coalesces when a
// probe is already queued.
func (m *Monitor) RequestCheck() {
	select {
	case m.checkCh <- struct{}{}:
	default:
	}
}

// Start runs the poll loop until the context is canceled or Stop is
// called. Stopping halts scheduling immediately; no timer outlives it.
func (m *Monitor) Start(ctx context.Context) error {
	interval := time.Duration(m.config.Interval)
	ticker := m.clock.Ticker(interval)

	defer ticker.Stop()

	m.logger.Info().Str("id", m.config.Identity).Dur("interval", interval).Msg("Starting connectivity monitor")

	m.wg.Add(1)
	defer m.wg.Done()

	m.probe(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return nil
		case <-ticker.Chan():
			m.probe(ctx)
		case <-m.checkCh:
			m.probe(ctx)
		}
	}
}

// Stop halts the monitor and waits for the loop to exit.
func (m *Monitor) Stop() {
	m.closeOnce.Do(func() { close(m.done) })
	m.wg.Wait()
}

// Available reports the last decided state.
func (m *Monitor) Available() bool {
	return m.available.Load()
}

func (m *Monitor) probe(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(m.config.PingTimeout))
	defer cancel()

	ok, err := m.pinger.Ping(pingCtx, m.config.Identity)

	switch {
	case err == nil && ok:
		m.consecutiveFailures = 0
		m.available.Store(true)
	case err == nil, bridge.IsRoutineFailure(err), errors.Is(err, context.DeadlineExceeded):
		m.consecutiveFailures++

		if m.consecutiveFailures >= m.config.FailureThreshold {
			m.available.Store(false)
		}

		m.logger.Debug().Str("id", m.config.Identity).Err(err).
			Int("consecutive_failures", m.consecutiveFailures).Msg("Ping cycle failed")
	case errors.Is(err, context.Canceled):
		return
	default:
		m.logger.Error().Str("id", m.config.Identity).Err(err).Msg("Unexpected monitor failure")

		select {
		case m.failureCh <- err:
		default:
		}

		return
	}

	if m.onStatus != nil {
		m.onStatus(m.available.Load())
	}
}
