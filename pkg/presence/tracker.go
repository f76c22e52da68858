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

// Package presence keeps one paired companion app's host/port fresh by
// watching its mDNS advertisement, so DHCP reassignment does not force a
// re-pair. Presence does not imply liveness: only the connectivity
// monitor's ping decides reachability, so removal events are ignored.
package presence

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/quickbars/bridge/pkg/logger"
	"github.com/quickbars/bridge/pkg/models"
)

// Service advertisement of the companion app.
const (
	ServiceName   = "_quickbars._tcp"
	ServiceDomain = "local."
)

const (
	resolveTimeout = 3 * time.Second
	entryBuffer    = 8
)

var (
	errIdentityRequired = errors.New("tracker requires a non-empty identity")
	errAlreadyWatching  = errors.New("tracker is already watching")
)

type trackerState int

const (
	stateStopped trackerState = iota
	stateWatching
)

// Tracker watches the advertisements of exactly one identity.
type Tracker struct {
	identity string
	wantedID string

	store    Store
	browser  Browser
	onChange func()
	logger   logger.Logger

	mu     sync.Mutex
	state  trackerState
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTracker creates a tracker for one identity. onChange is invoked
// after connection parameters were updated, to schedule a connectivity
// re-check; it may be nil.
func NewTracker(identity string, store Store, browser Browser, onChange func(), log logger.Logger) (*Tracker, error) {
	if strings.TrimSpace(identity) == "" {
		return nil, errIdentityRequired
	}

	return &Tracker{
		identity: identity,
		wantedID: strings.ToLower(strings.TrimSpace(identity)),
		store:    store,
		browser:  browser,
		onChange: onChange,
		logger:   log,
	}, nil
}

// Start transitions the tracker from stopped to watching.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == stateWatching {
		return errAlreadyWatching
	}

	browseCtx, cancel := context.WithCancel(ctx)
	entries := make(chan *zeroconf.ServiceEntry, entryBuffer)

	if err := t.browser.Browse(browseCtx, ServiceName, ServiceDomain, entries); err != nil {
		cancel()
		return err
	}

	t.cancel = cancel
	t.state = stateWatching

	t.wg.Add(1)

	go t.watch(browseCtx, entries)

	t.logger.Debug().Str("id", t.identity).Msg("Presence tracker watching")

	return nil
}

// Stop cancels the underlying browse and transitions back to stopped.
func (t *Tracker) Stop() {
	t.mu.Lock()

	if t.state != stateWatching {
		t.mu.Unlock()
		return
	}

	t.cancel()
	t.state = stateStopped
	t.mu.Unlock()

	t.wg.Wait()

	t.logger.Debug().Str("id", t.identity).Msg("Presence tracker stopped")
}

func (t *Tracker) watch(ctx context.Context, entries <-chan *zeroconf.ServiceEntry) {
	defer t.wg.Done()

	for entry := range entries {
		if entry == nil {
			continue
		}

		t.handleEntry(ctx, entry)
	}
}

// handleEntry filters one discovery notification down to "the app I am
// watching moved" and persists the new address. Everything else is
// dropped without comment: advertisements are broadcast to every
// listener, so wrong-identity traffic here is normal, not an error.
func (t *Tracker) handleEntry(ctx context.Context, entry *zeroconf.ServiceEntry) {
	// TTL 0 is a goodbye packet. Presence loss does not imply
	// unreachability, so removals are ignored outright.
	if entry.TTL == 0 {
		return
	}

	if entry.Service != ServiceName {
		return
	}

	props := decodeTXT(entry.Text)

	foundID := strings.ToLower(strings.TrimSpace(props["id"]))
	if foundID == "" || foundID != t.wantedID {
		return
	}

	host := entryHost(entry)

	if host == "" {
		resolved := t.resolve(ctx, entry.Instance)
		if resolved == nil {
			return
		}

		host = entryHost(resolved)
		if host == "" {
			return
		}

		entry = resolved
	}

	if entry.Port == 0 {
		return
	}

	next := models.ConnectionParams{Host: host, Port: entry.Port}

	current, known := t.store.Params(t.identity)
	if known && current.Equal(next) {
		return
	}

	if err := t.store.SetParams(t.identity, next); err != nil {
		t.logger.Error().Err(err).Str("id", t.identity).Msg("Failed to persist connection parameters")
		return
	}

	t.logger.Info().
		Str("id", t.identity).
		Str("previous", current.String()).
		Str("current", next.String()).
		Msg("Connection parameters updated from presence")

	if t.onChange != nil {
		t.onChange()
	}
}

// resolve re-queries a browse result that arrived without addresses,
// bounded so a discovery race cannot stall the watch loop.
func (t *Tracker) resolve(ctx context.Context, instance string) *zeroconf.ServiceEntry {
	lookupCtx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, entryBuffer)

	if err := t.browser.Lookup(lookupCtx, instance, ServiceName, ServiceDomain, entries); err != nil {
		return nil
	}

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return nil
			}

			if entry != nil && entryHost(entry) != "" {
				return entry
			}
		case <-lookupCtx.Done():
			return nil
		}
	}
}

func entryHost(entry *zeroconf.ServiceEntry) string {
	if len(entry.AddrIPv4) > 0 {
		return entry.AddrIPv4[0].String()
	}

	if len(entry.AddrIPv6) > 0 {
		return entry.AddrIPv6[0].String()
	}

	return ""
}

func decodeTXT(txt []string) map[string]string {
	props := make(map[string]string, len(txt))

	for _, kv := range txt {
		key, value, found := strings.Cut(kv, "=")
		if !found || key == "" {
			continue
		}

		props[key] = value
	}

	return props
}
