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

// Package session owns the per-identity runtime state of a pairing: its
// connection parameters, presence tracker, connectivity monitor, and
// bus subscriptions, with explicit construction and teardown.
package session

import (
	"context"
	"sync"

	"github.com/quickbars/bridge/pkg/bridge"
	"github.com/quickbars/bridge/pkg/bus"
	"github.com/quickbars/bridge/pkg/logger"
	"github.com/quickbars/bridge/pkg/models"
	"github.com/quickbars/bridge/pkg/monitor"
	"github.com/quickbars/bridge/pkg/presence"
)

// Deps are the shared collaborators a session is built around.
type Deps struct {
	Bridge  *bridge.Bridge
	Bus     bus.Bus
	Browser presence.Browser
	Store   presence.Store
	Clock   monitor.Clock
	Logger  logger.Logger
}

// Session is the runtime record for one paired companion app. Identity
// is fixed at pairing completion; only the connection parameters move.
type Session struct {
	Identity string
	Name     string

	deps Deps

	mu     sync.RWMutex
	params models.ConnectionParams

	tracker     *presence.Tracker
	monitor     *monitor.Monitor
	actionUnsub bus.Unsubscribe

	wg      sync.WaitGroup
	started bool
}

// NewSession builds a stopped session. Call Start to bring up its
// tracker, monitor, and action subscription.
func NewSession(identity, name string, params models.ConnectionParams, deps Deps) (*Session, error) {
	if identity == "" {
		return nil, bridge.ErrMissingIdentity
	}

	s := &Session{
		Identity: identity,
		Name:     name,
		deps:     deps,
		params:   params,
	}

	mon, err := monitor.New(&monitor.Config{Identity: identity}, deps.Bridge, deps.Clock, deps.Logger)
	if err != nil {
		return nil, err
	}

	s.monitor = mon

	tracker, err := presence.NewTracker(identity, deps.Store, deps.Browser, mon.RequestCheck, deps.Logger)
	if err != nil {
		return nil, err
	}

	s.tracker = tracker

	return s, nil
}

// Params returns the current connection parameters.
func (s *Session) Params() models.ConnectionParams {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.params
}

// SetParams stores refreshed connection parameters.
func (s *Session) SetParams(params models.ConnectionParams) {
	s.mu.Lock()
	s.params = params
	s.mu.Unlock()
}

// Available reports the connectivity monitor's last decision.
func (s *Session) Available() bool {
	return s.monitor.Available()
}

// Bridge exposes the correlation bridge for operations addressed to this
// session's identity.
func (s *Session) Bridge() *bridge.Bridge {
	return s.deps.Bridge
}

// MonitorFailures surfaces unexpected monitor errors.
func (s *Session) MonitorFailures() <-chan error {
	return s.monitor.Failures()
}

// Start brings up presence tracking, the connectivity monitor, and the
// companion action subscription.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if err := s.tracker.Start(ctx); err != nil {
		return err
	}

	unsub, err := s.deps.Bridge.ListenActions(s.Identity, nil)
	if err != nil {
		s.tracker.Stop()
		return err
	}

	s.actionUnsub = unsub

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		if err := s.monitor.Start(ctx); err != nil && ctx.Err() == nil {
			s.deps.Logger.Error().Err(err).Str("id", s.Identity).Msg("Connectivity monitor exited")
		}
	}()

	s.started = true

	s.deps.Logger.Info().Str("id", s.Identity).Str("name", s.Name).Msg("Session started")

	return nil
}

// Stop tears the session down, releasing every owned subscription.
func (s *Session) Stop() {
	s.mu.Lock()

	if !s.started {
		s.mu.Unlock()
		return
	}

	s.started = false
	unsub := s.actionUnsub
	s.actionUnsub = nil
	s.mu.Unlock()

	if unsub != nil {
		if err := unsub(); err != nil {
			s.deps.Logger.Warn().Err(err).Str("id", s.Identity).Msg("Error releasing action subscription")
		}
	}

	s.tracker.Stop()
	s.monitor.Stop()
	s.wg.Wait()

	s.deps.Logger.Info().Str("id", s.Identity).Msg("Session stopped")
}
