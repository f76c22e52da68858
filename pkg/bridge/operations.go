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

package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quickbars/bridge/pkg/models"
)

// Action vocabulary of the bus protocol.
const (
	ActionPing            = "ping"
	ActionGetSnapshot     = "get_snapshot"
	ActionPutSnapshot     = "put_snapshot"
	ActionEntitiesReplace = "entities_replace"
	ActionEntitiesUpdate  = "entities_update"
	ActionNotify          = "notify"
)

const (
	pingTimeout            = 5 * time.Second
	getSnapshotTimeout     = 15 * time.Second
	putSnapshotTimeout     = 20 * time.Second
	entitiesReplaceTimeout = 25 * time.Second
	entitiesUpdateTimeout  = 15 * time.Second
	notifyTimeout          = 15 * time.Second
)

// Ping asks the companion app to answer at all. A false return or a
// routine failure means unreachable for this attempt, nothing more.
func (b *Bridge) Ping(ctx context.Context, identity string) (bool, error) {
	result, err := b.SendAndAwait(ctx, identity, ActionPing, nil, pingTimeout)
	if err != nil {
		return false, err
	}

	// An empty payload on an OK response counts as a positive ping.
	if len(result) == 0 {
		return true, nil
	}

	var ok bool
	if err := json.Unmarshal(result, &ok); err != nil {
		return true, nil
	}

	return ok, nil
}

// GetSnapshot fetches the companion app's full configuration document.
func (b *Bridge) GetSnapshot(ctx context.Context, identity string) (*models.Snapshot, error) {
	result, err := b.SendAndAwait(ctx, identity, ActionGetSnapshot, nil, getSnapshotTimeout)
	if err != nil {
		return nil, err
	}

	var snap models.Snapshot
	if err := json.Unmarshal(result, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return &snap, nil
}

// PutSnapshot pushes back one subtree of the snapshot (entities or
// quick_bars), never the whole document, so sibling state the caller
// didn't load is left alone.
func (b *Bridge) PutSnapshot(ctx context.Context, identity string, subtree any) error {
	_, err := b.SendAndAwait(ctx, identity, ActionPutSnapshot, subtree, putSnapshotTimeout)
	return err
}

type entitiesReplacePayload struct {
	EntityIDs []string          `json:"entity_ids"`
	Names     map[string]string `json:"names,omitempty"`
}

// EntitiesReplace replaces the companion app's saved-entity list with
// the given ids, carrying the hub's display names along. The remote
// answers with the updated snapshot fragment.
func (b *Bridge) EntitiesReplace(
	ctx context.Context, identity string, entityIDs []string, names map[string]string,
) (*models.Snapshot, error) {
	payload := entitiesReplacePayload{EntityIDs: entityIDs, Names: names}

	result, err := b.SendAndAwait(ctx, identity, ActionEntitiesReplace, &payload, entitiesReplaceTimeout)
	if err != nil {
		return nil, err
	}

	return decodeSnapshotFragment(result)
}

type entitiesUpdatePayload struct {
	Updates []models.EntityPatch `json:"updates"`
}

// EntitiesUpdate applies partial patches to individual entity records.
func (b *Bridge) EntitiesUpdate(
	ctx context.Context, identity string, patches []models.EntityPatch,
) (*models.Snapshot, error) {
	payload := entitiesUpdatePayload{Updates: patches}

	result, err := b.SendAndAwait(ctx, identity, ActionEntitiesUpdate, &payload, entitiesUpdateTimeout)
	if err != nil {
		return nil, err
	}

	return decodeSnapshotFragment(result)
}

func decodeSnapshotFragment(result json.RawMessage) (*models.Snapshot, error) {
	var snap models.Snapshot

	if len(result) > 0 {
		if err := json.Unmarshal(result, &snap); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot fragment: %w", err)
		}
	}

	return &snap, nil
}

// Notify shows a notification overlay on the companion app and waits for
// its ack. On success a notification_sent event is published for the
// operator's automation layer.
func (b *Bridge) Notify(ctx context.Context, identity string, note map[string]any) (bool, error) {
	_, cid, err := b.sendAndAwait(ctx, identity, ActionNotify, note, notifyTimeout)
	if err != nil {
		return false, err
	}

	b.announceNotificationSent(ctx, identity, cid, note)

	return true, nil
}

// NotifyAsync is the fire-and-forget variant of Notify: it publishes the
// request and returns the correlation token without waiting for an ack.
func (b *Bridge) NotifyAsync(ctx context.Context, identity string, note map[string]any) (string, error) {
	cid, err := b.publishRequest(ctx, identity, ActionNotify, note)
	if err != nil {
		return "", err
	}

	b.announceNotificationSent(ctx, identity, cid, note)

	return cid, nil
}
