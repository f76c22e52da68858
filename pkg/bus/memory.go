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

package bus

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Bus for tests and single-binary embeddings.
// Handlers run on the publisher's goroutine in subscription order.
type MemoryBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler
}

// NewMemoryBus creates an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[int]Handler)}
}

// Publish implements Bus.
func (b *MemoryBus) Publish(_ context.Context, subject string, data []byte) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[subject]))

	for _, h := range b.subs[subject] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(subject, data)
	}

	return nil
}

// Subscribe implements Bus.
func (b *MemoryBus) Subscribe(subject string, h Handler) (Unsubscribe, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	if b.subs[subject] == nil {
		b.subs[subject] = make(map[int]Handler)
	}

	b.subs[subject][id] = h

	return func() error {
		b.mu.Lock()
		defer b.mu.Unlock()

		delete(b.subs[subject], id)

		return nil
	}, nil
}

// SubscriberCount reports active subscriptions on a subject. Tests use it
// to verify listeners are released.
func (b *MemoryBus) SubscriberCount(subject string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs[subject])
}
