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

// Package bridge implements the correlation-based request/response
// protocol the hub speaks with the QuickBars companion app over the
// event bus.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/quickbars/bridge/pkg/bus"
	"github.com/quickbars/bridge/pkg/logger"
	"github.com/quickbars/bridge/pkg/models"
)

// Bridge turns the bus's fire-and-forget publish/subscribe into an
// addressed request/response primitive. It holds no per-identity state:
// every operation takes the target identity explicitly.
type Bridge struct {
	bus     bus.Bus
	logger  logger.Logger
	pending atomic.Int64
}

// New creates a Bridge on the given bus.
func New(b bus.Bus, log logger.Logger) *Bridge {
	return &Bridge{bus: b, logger: log}
}

// PendingCount reports in-flight requests that still hold a response
// listener. It must return to its prior value after every call completes,
// whatever the outcome.
func (b *Bridge) PendingCount() int {
	return int(b.pending.Load())
}

// SendAndAwait publishes one tagged request event and waits for the
// single response event carrying the same identity and correlation
// token. The response listener is registered before the request is
// published, so a reply cannot race the listener into existence, and it
// is unregistered on every exit path: match, remote failure, timeout, or
// caller cancellation. Responses that match neither are dropped.
//
// Concurrent calls to the same identity are independent; completion
// order follows the remote, not FIFO.
func (b *Bridge) SendAndAwait(
	ctx context.Context, identity, action string, payload any, timeout time.Duration,
) (json.RawMessage, error) {
	result, _, err := b.sendAndAwait(ctx, identity, action, payload, timeout)
	return result, err
}

// sendAndAwait is SendAndAwait plus the correlation token it used, for
// callers that announce the token to the automation layer.
func (b *Bridge) sendAndAwait(
	ctx context.Context, identity, action string, payload any, timeout time.Duration,
) (json.RawMessage, string, error) {
	if identity == "" {
		return nil, "", ErrMissingIdentity
	}

	rawPayload, err := marshalPayload(action, payload)
	if err != nil {
		return nil, "", err
	}

	cid := uuid.NewString()

	// Buffered so a matching response never blocks the bus handler even
	// if the waiter has already given up.
	respCh := make(chan *models.BusResponse, 1)

	unsubscribe, err := b.bus.Subscribe(bus.SubjectResponse, func(_ string, data []byte) {
		var resp models.BusResponse

		if err := json.Unmarshal(data, &resp); err != nil {
			return
		}

		if resp.ID != identity || resp.CID != cid {
			return
		}

		select {
		case respCh <- &resp:
		default:
		}
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to register response listener: %w", err)
	}

	b.pending.Add(1)

	defer func() {
		if err := unsubscribe(); err != nil {
			b.logger.Warn().Err(err).Str("action", action).Msg("Failed to unregister response listener")
		}

		b.pending.Add(-1)
	}()

	req := models.BusRequest{
		ID:      identity,
		Action:  action,
		CID:     cid,
		Payload: rawPayload,
	}

	reqData, err := json.Marshal(&req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal %s request: %w", action, err)
	}

	if err := b.bus.Publish(ctx, bus.SubjectRequest, reqData); err != nil {
		return nil, "", fmt.Errorf("failed to publish %s request: %w", action, err)
	}

	b.logger.Debug().Str("id", identity).Str("action", action).Str("cid", cid).Msg("Request published")

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-respCh:
		if !resp.OK {
			return nil, cid, &RemoteOperationError{Action: action, Reason: resp.Error}
		}

		return resp.Payload, cid, nil
	case <-timer.C:
		return nil, cid, fmt.Errorf("%w: %s after %s", ErrTimeout, action, timeout)
	case <-ctx.Done():
		return nil, cid, ctx.Err()
	}
}

// publishRequest emits a request event without waiting for a response.
// Used by the fire-and-forget notify path; the generated correlation
// token is returned so automations can match a later action event.
func (b *Bridge) publishRequest(ctx context.Context, identity, action string, payload any) (string, error) {
	if identity == "" {
		return "", ErrMissingIdentity
	}

	rawPayload, err := marshalPayload(action, payload)
	if err != nil {
		return "", err
	}

	cid := uuid.NewString()

	req := models.BusRequest{
		ID:      identity,
		Action:  action,
		CID:     cid,
		Payload: rawPayload,
	}

	reqData, err := json.Marshal(&req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s request: %w", action, err)
	}

	if err := b.bus.Publish(ctx, bus.SubjectRequest, reqData); err != nil {
		return "", fmt.Errorf("failed to publish %s request: %w", action, err)
	}

	return cid, nil
}

func marshalPayload(action string, payload any) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", action, err)
	}

	return data, nil
}
