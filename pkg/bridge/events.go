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

	"github.com/quickbars/bridge/pkg/bus"
	"github.com/quickbars/bridge/pkg/models"
)

// OpenQuickBar asks the companion app to toggle the named quick bar.
// Open events are fire-and-forget: the overlay either shows or it
// doesn't, there is nothing to correlate.
func (b *Bridge) OpenQuickBar(ctx context.Context, identity, alias string) error {
	return b.publishOpen(ctx, identity, map[string]any{"alias": alias})
}

// OpenCameraOverlay asks the companion app to show a camera overlay.
// The overlay map comes from payload.CameraOverlay.Build.
func (b *Bridge) OpenCameraOverlay(ctx context.Context, identity string, overlay map[string]any) error {
	return b.publishOpen(ctx, identity, overlay)
}

func (b *Bridge) publishOpen(ctx context.Context, identity string, data map[string]any) error {
	if identity == "" {
		return ErrMissingIdentity
	}

	event := make(map[string]any, len(data)+1)

	for k, v := range data {
		event[k] = v
	}

	event["id"] = identity

	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal open event: %w", err)
	}

	if err := b.bus.Publish(ctx, bus.SubjectOpen, raw); err != nil {
		return fmt.Errorf("failed to publish open event: %w", err)
	}

	return nil
}

// announceNotificationSent publishes the observational notification_sent
// event. Failures are logged, not propagated: the notification itself
// already succeeded.
func (b *Bridge) announceNotificationSent(ctx context.Context, identity, cid string, note map[string]any) {
	event := models.NotificationSentEvent{ID: identity, CID: cid}

	if title, ok := note["title"].(string); ok {
		event.Title = title
	}

	data, err := json.Marshal(&event)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Failed to marshal notification_sent event")
		return
	}

	if err := b.bus.Publish(ctx, bus.SubjectNotificationSent, data); err != nil {
		b.logger.Warn().Err(err).Msg("Failed to publish notification_sent event")
	}
}

// ListenActions subscribes to companion-reported user actions for one
// identity and republishes them as notification_action events. Action
// events that declare a different identity are dropped; events without
// an identity are accepted for compatibility with older app builds.
func (b *Bridge) ListenActions(identity string, h func(models.ActionEvent)) (bus.Unsubscribe, error) {
	return b.bus.Subscribe(bus.SubjectAction, func(_ string, data []byte) {
		var evt models.ActionEvent

		if err := json.Unmarshal(data, &evt); err != nil {
			return
		}

		if evt.ID != "" && evt.ID != identity {
			return
		}

		out := models.NotificationActionEvent{
			ID:       identity,
			CID:      evt.CID,
			ActionID: evt.ActionID,
			Label:    evt.Label,
		}

		outData, err := json.Marshal(&out)
		if err != nil {
			b.logger.Warn().Err(err).Msg("Failed to marshal notification_action event")
			return
		}

		if err := b.bus.Publish(context.Background(), bus.SubjectNotificationAction, outData); err != nil {
			b.logger.Warn().Err(err).Msg("Failed to publish notification_action event")
		}

		if h != nil {
			h(evt)
		}
	})
}
