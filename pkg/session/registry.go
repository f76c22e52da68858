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

package session

import (
	"errors"
	"sync"

	"github.com/quickbars/bridge/pkg/logger"
	"github.com/quickbars/bridge/pkg/models"
)

var (
	// ErrUnknownIdentity indicates no session exists for the identity.
	ErrUnknownIdentity = errors.New("no session for identity")

	// ErrAmbiguousIdentity indicates an empty identity could not be
	// resolved because more than one session exists. Callers must name
	// the target explicitly; there is no silent fallback.
	ErrAmbiguousIdentity = errors.New("multiple sessions present, identity required")

	// ErrDuplicateIdentity indicates a session for the identity already
	// exists.
	ErrDuplicateIdentity = errors.New("session already registered for identity")
)

// Registry is the process-wide session table, keyed by identity. It
// doubles as the presence store: trackers persist refreshed connection
// parameters through it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		logger:   log,
	}
}

// Add registers a session under its identity.
func (r *Registry) Add(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.Identity]; exists {
		return ErrDuplicateIdentity
	}

	r.sessions[s.Identity] = s

	return nil
}

// Remove stops and drops the session for an identity.
func (r *Registry) Remove(identity string) error {
	r.mu.Lock()
	s, exists := r.sessions[identity]

	if exists {
		delete(r.sessions, identity)
	}
	r.mu.Unlock()

	if !exists {
		return ErrUnknownIdentity
	}

	s.Stop()

	return nil
}

// Get looks up a session by identity.
func (r *Registry) Get(identity string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[identity]

	return s, ok
}

// Resolve returns the session for an identity. An empty identity
// resolves only when exactly one session exists; with several present
// the caller must name one.
func (r *Registry) Resolve(identity string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if identity != "" {
		s, ok := r.sessions[identity]
		if !ok {
			return nil, ErrUnknownIdentity
		}

		return s, nil
	}

	switch len(r.sessions) {
	case 1:
		for _, s := range r.sessions {
			return s, nil
		}

		return nil, ErrUnknownIdentity
	case 0:
		return nil, ErrUnknownIdentity
	default:
		return nil, ErrAmbiguousIdentity
	}
}

// List snapshots the registered sessions.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))

	for _, s := range r.sessions {
		out = append(out, s)
	}

	return out
}

// StopAll tears down every session, for process shutdown.
func (r *Registry) StopAll() {
	for _, s := range r.List() {
		s.Stop()
	}

	r.mu.Lock()
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
}

// Params implements presence.Store.
func (r *Registry) Params(identity string) (models.ConnectionParams, bool) {
	s, ok := r.Get(identity)
	if !ok {
		return models.ConnectionParams{}, false
	}

	return s.Params(), true
}

// SetParams implements presence.Store.
func (r *Registry) SetParams(identity string, params models.ConnectionParams) error {
	s, ok := r.Get(identity)
	if !ok {
		return ErrUnknownIdentity
	}

	s.SetParams(params)

	return nil
}
