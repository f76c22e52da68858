package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickbars/bridge/pkg/bus"
	"github.com/quickbars/bridge/pkg/logger"
	"github.com/quickbars/bridge/pkg/models"
)

const testIdentity = "dev-42"

func newTestBridge(t *testing.T) (*Bridge, *bus.MemoryBus) {
	t.Helper()

	memBus := bus.NewMemoryBus()

	return New(memBus, logger.NewTestLogger()), memBus
}

// respondWith wires a fake companion app onto the request subject. Every
// request is answered through fn; a nil reply is swallowed.
func respondWith(t *testing.T, memBus *bus.MemoryBus, fn func(req models.BusRequest) *models.BusResponse) {
	t.Helper()

	unsub, err := memBus.Subscribe(bus.SubjectRequest, func(_ string, data []byte) {
		var req models.BusRequest
		require.NoError(t, json.Unmarshal(data, &req))

		resp := fn(req)
		if resp == nil {
			return
		}

		respData, err := json.Marshal(resp)
		require.NoError(t, err)

		require.NoError(t, memBus.Publish(context.Background(), bus.SubjectResponse, respData))
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = unsub() })
}

func TestSendAndAwaitDeliversMatchingResponse(t *testing.T) {
	b, memBus := newTestBridge(t)

	respondWith(t, memBus, func(req models.BusRequest) *models.BusResponse {
		assert.Equal(t, testIdentity, req.ID)
		assert.Equal(t, "echo", req.Action)
		assert.NotEmpty(t, req.CID)

		return &models.BusResponse{
			ID:      req.ID,
			CID:     req.CID,
			OK:      true,
			Payload: req.Payload,
		}
	})

	result, err := b.SendAndAwait(context.Background(), testIdentity, "echo", map[string]string{"k": "v"}, time.Second)
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":"v"}`, string(result))

	assert.Equal(t, 0, b.PendingCount())
	assert.Equal(t, 0, memBus.SubscriberCount(bus.SubjectResponse))
}

func TestSendAndAwaitTimeoutReleasesListener(t *testing.T) {
	b, memBus := newTestBridge(t)

	// No responder at all: the request must time out and leave nothing
	// behind.
	_, err := b.SendAndAwait(context.Background(), testIdentity, ActionPing, nil, 20*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)

	assert.Equal(t, 0, b.PendingCount())
	assert.Equal(t, 0, memBus.SubscriberCount(bus.SubjectResponse))
}

func TestSendAndAwaitIgnoresMismatchedToken(t *testing.T) {
	b, memBus := newTestBridge(t)

	respondWith(t, memBus, func(req models.BusRequest) *models.BusResponse {
		// Right identity, wrong correlation token.
		return &models.BusResponse{ID: req.ID, CID: "not-the-token", OK: true}
	})

	_, err := b.SendAndAwait(context.Background(), testIdentity, ActionPing, nil, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 0, memBus.SubscriberCount(bus.SubjectResponse))
}

func TestSendAndAwaitIgnoresMismatchedIdentity(t *testing.T) {
	b, memBus := newTestBridge(t)

	respondWith(t, memBus, func(req models.BusRequest) *models.BusResponse {
		// Right token, wrong identity.
		return &models.BusResponse{ID: "dev-99", CID: req.CID, OK: true}
	})

	_, err := b.SendAndAwait(context.Background(), testIdentity, ActionPing, nil, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestSendAndAwaitConcurrentRequestsStayIsolated(t *testing.T) {
	b, memBus := newTestBridge(t)

	respondWith(t, memBus, func(req models.BusRequest) *models.BusResponse {
		return &models.BusResponse{ID: req.ID, CID: req.CID, OK: true, Payload: req.Payload}
	})

	const workers = 16

	var wg sync.WaitGroup

	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()

			want := map[string]int{"n": n}

			result, err := b.SendAndAwait(context.Background(), testIdentity, "echo", want, time.Second)
			if err != nil {
				errCh <- err
				return
			}

			var got map[string]int
			if err := json.Unmarshal(result, &got); err != nil {
				errCh <- err
				return
			}

			if got["n"] != n {
				errCh <- errors.New("response crossed between concurrent requests")
			}
		}(i)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	assert.Equal(t, 0, b.PendingCount())
	assert.Equal(t, 0, memBus.SubscriberCount(bus.SubjectResponse))
}

func TestSendAndAwaitRemoteFailure(t *testing.T) {
	b, memBus := newTestBridge(t)

	respondWith(t, memBus, func(req models.BusRequest) *models.BusResponse {
		return &models.BusResponse{ID: req.ID, CID: req.CID, OK: false, Error: "screen is busy"}
	})

	_, err := b.SendAndAwait(context.Background(), testIdentity, ActionNotify, nil, time.Second)
	require.Error(t, err)

	var remoteErr *RemoteOperationError

	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, ActionNotify, remoteErr.Action)
	assert.Equal(t, "screen is busy", remoteErr.Reason)

	assert.Equal(t, 0, memBus.SubscriberCount(bus.SubjectResponse))
}

func TestSendAndAwaitMissingIdentity(t *testing.T) {
	b, _ := newTestBridge(t)

	_, err := b.SendAndAwait(context.Background(), "", ActionPing, nil, time.Second)
	assert.ErrorIs(t, err, ErrMissingIdentity)
}

func TestSendAndAwaitContextCancellation(t *testing.T) {
	b, memBus := newTestBridge(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.SendAndAwait(ctx, testIdentity, ActionPing, nil, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, memBus.SubscriberCount(bus.SubjectResponse))
}

func TestPing(t *testing.T) {
	tests := []struct {
		name    string
		payload json.RawMessage
		want    bool
	}{
		{name: "empty payload counts as alive", payload: nil, want: true},
		{name: "explicit true", payload: json.RawMessage(`true`), want: true},
		{name: "explicit false", payload: json.RawMessage(`false`), want: false},
		{name: "non-bool payload counts as alive", payload: json.RawMessage(`{"up":1}`), want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, memBus := newTestBridge(t)

			respondWith(t, memBus, func(req models.BusRequest) *models.BusResponse {
				return &models.BusResponse{ID: req.ID, CID: req.CID, OK: true, Payload: tc.payload}
			})

			ok, err := b.Ping(context.Background(), testIdentity)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestGetSnapshot(t *testing.T) {
	b, memBus := newTestBridge(t)

	respondWith(t, memBus, func(req models.BusRequest) *models.BusResponse {
		require.Equal(t, ActionGetSnapshot, req.Action)

		payload := json.RawMessage(`{
			"entities": [
				{"id": "light.kitchen", "friendlyName": "Kitchen Light", "isSaved": true}
			],
			"quick_bars": [{"name": "Evening", "entities": ["light.kitchen"]}]
		}`)

		return &models.BusResponse{ID: req.ID, CID: req.CID, OK: true, Payload: payload}
	})

	snap, err := b.GetSnapshot(context.Background(), testIdentity)
	require.NoError(t, err)

	require.Len(t, snap.Entities, 1)
	assert.Equal(t, "light.kitchen", snap.Entities[0].ID)
	assert.Equal(t, "Kitchen Light", snap.Entities[0].FriendlyName)
	assert.True(t, snap.Entities[0].Saved)

	require.Len(t, snap.QuickBars, 1)
	assert.Equal(t, "Evening", snap.QuickBars[0].Name)
	assert.Equal(t, []string{"light.kitchen"}, snap.QuickBars[0].EntityIDs)
}

func TestEntitiesReplacePayloadShape(t *testing.T) {
	b, memBus := newTestBridge(t)

	var captured json.RawMessage

	respondWith(t, memBus, func(req models.BusRequest) *models.BusResponse {
		captured = req.Payload
		return &models.BusResponse{ID: req.ID, CID: req.CID, OK: true}
	})

	_, err := b.EntitiesReplace(context.Background(), testIdentity,
		[]string{"light.kitchen", "switch.fan"},
		map[string]string{"light.kitchen": "Kitchen Light"})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"entity_ids": ["light.kitchen", "switch.fan"],
		"names": {"light.kitchen": "Kitchen Light"}
	}`, string(captured))
}

func TestEntitiesUpdatePayloadShape(t *testing.T) {
	b, memBus := newTestBridge(t)

	var captured json.RawMessage

	respondWith(t, memBus, func(req models.BusRequest) *models.BusResponse {
		captured = req.Payload
		return &models.BusResponse{ID: req.ID, CID: req.CID, OK: true}
	})

	name := "Fan"
	saved := true

	_, err := b.EntitiesUpdate(context.Background(), testIdentity, []models.EntityPatch{
		{ID: "switch.fan", CustomName: &name, Saved: &saved},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"updates": [{"id": "switch.fan", "customName": "Fan", "isSaved": true}]
	}`, string(captured))
}

func collectEvents(t *testing.T, memBus *bus.MemoryBus, subject string) func() [][]byte {
	t.Helper()

	var mu sync.Mutex

	var events [][]byte

	unsub, err := memBus.Subscribe(subject, func(_ string, data []byte) {
		mu.Lock()
		defer mu.Unlock()

		events = append(events, data)
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = unsub() })

	return func() [][]byte {
		mu.Lock()
		defer mu.Unlock()

		return append([][]byte(nil), events...)
	}
}

func TestNotifyAnnouncesSentEvent(t *testing.T) {
	b, memBus := newTestBridge(t)

	var requestCID string

	respondWith(t, memBus, func(req models.BusRequest) *models.BusResponse {
		requestCID = req.CID
		return &models.BusResponse{ID: req.ID, CID: req.CID, OK: true}
	})

	sent := collectEvents(t, memBus, bus.SubjectNotificationSent)

	ok, err := b.Notify(context.Background(), testIdentity, map[string]any{"title": "Doorbell"})
	require.NoError(t, err)
	assert.True(t, ok)

	events := sent()
	require.Len(t, events, 1)

	var evt models.NotificationSentEvent
	require.NoError(t, json.Unmarshal(events[0], &evt))
	assert.Equal(t, testIdentity, evt.ID)
	assert.Equal(t, requestCID, evt.CID)
	assert.Equal(t, "Doorbell", evt.Title)
}

func TestNotifyFailureSkipsSentEvent(t *testing.T) {
	b, memBus := newTestBridge(t)

	respondWith(t, memBus, func(req models.BusRequest) *models.BusResponse {
		return &models.BusResponse{ID: req.ID, CID: req.CID, OK: false, Error: "rejected"}
	})

	sent := collectEvents(t, memBus, bus.SubjectNotificationSent)

	ok, err := b.Notify(context.Background(), testIdentity, map[string]any{"title": "Doorbell"})
	require.Error(t, err)
	assert.False(t, ok)
	assert.Empty(t, sent())
}

func TestNotifyAsync(t *testing.T) {
	b, memBus := newTestBridge(t)

	requests := collectEvents(t, memBus, bus.SubjectRequest)
	sent := collectEvents(t, memBus, bus.SubjectNotificationSent)

	cid, err := b.NotifyAsync(context.Background(), testIdentity, map[string]any{"title": "Motion"})
	require.NoError(t, err)
	require.NotEmpty(t, cid)

	reqs := requests()
	require.Len(t, reqs, 1)

	var req models.BusRequest
	require.NoError(t, json.Unmarshal(reqs[0], &req))
	assert.Equal(t, ActionNotify, req.Action)
	assert.Equal(t, cid, req.CID)

	events := sent()
	require.Len(t, events, 1)

	var evt models.NotificationSentEvent
	require.NoError(t, json.Unmarshal(events[0], &evt))
	assert.Equal(t, cid, evt.CID)

	// Fire and forget: nothing waits for a response.
	assert.Equal(t, 0, b.PendingCount())
	assert.Equal(t, 0, memBus.SubscriberCount(bus.SubjectResponse))
}

func TestListenActions(t *testing.T) {
	b, memBus := newTestBridge(t)

	var mu sync.Mutex

	var handled []models.ActionEvent

	unsub, err := b.ListenActions(testIdentity, func(evt models.ActionEvent) {
		mu.Lock()
		defer mu.Unlock()

		handled = append(handled, evt)
	})
	require.NoError(t, err)

	defer func() { _ = unsub() }()

	republished := collectEvents(t, memBus, bus.SubjectNotificationAction)

	publish := func(evt models.ActionEvent) {
		data, err := json.Marshal(&evt)
		require.NoError(t, err)
		require.NoError(t, memBus.Publish(context.Background(), bus.SubjectAction, data))
	}

	publish(models.ActionEvent{ID: testIdentity, CID: "c-1", ActionID: "open_door", Label: "Open"})
	publish(models.ActionEvent{ID: "dev-99", CID: "c-2", ActionID: "ignored"})
	publish(models.ActionEvent{CID: "c-3", ActionID: "dismiss"}) // no identity, accepted

	mu.Lock()
	require.Len(t, handled, 2)
	assert.Equal(t, "open_door", handled[0].ActionID)
	assert.Equal(t, "dismiss", handled[1].ActionID)
	mu.Unlock()

	events := republished()
	require.Len(t, events, 2)

	var out models.NotificationActionEvent
	require.NoError(t, json.Unmarshal(events[0], &out))
	assert.Equal(t, testIdentity, out.ID)
	assert.Equal(t, "c-1", out.CID)
	assert.Equal(t, "open_door", out.ActionID)
	assert.Equal(t, "Open", out.Label)
}

func TestOpenQuickBar(t *testing.T) {
	b, memBus := newTestBridge(t)

	opens := collectEvents(t, memBus, bus.SubjectOpen)

	require.NoError(t, b.OpenQuickBar(context.Background(), testIdentity, "Evening"))

	events := opens()
	require.Len(t, events, 1)
	assert.JSONEq(t, `{"id": "dev-42", "alias": "Evening"}`, string(events[0]))
}

func TestOpenCameraOverlay(t *testing.T) {
	b, memBus := newTestBridge(t)

	opens := collectEvents(t, memBus, bus.SubjectOpen)

	overlay := map[string]any{"camera_alias": "Front Door", "position": "top_right"}
	require.NoError(t, b.OpenCameraOverlay(context.Background(), testIdentity, overlay))

	events := opens()
	require.Len(t, events, 1)
	assert.JSONEq(t, `{"id": "dev-42", "camera_alias": "Front Door", "position": "top_right"}`, string(events[0]))

	assert.ErrorIs(t, b.OpenCameraOverlay(context.Background(), "", overlay), ErrMissingIdentity)
}

func TestIsRoutineFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "timeout", err: ErrTimeout, want: true},
		{name: "wrapped timeout", err: errors.Join(errors.New("outer"), ErrTimeout), want: true},
		{name: "remote rejection", err: &RemoteOperationError{Action: ActionPing}, want: true},
		{name: "missing identity", err: ErrMissingIdentity, want: false},
		{name: "arbitrary error", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRoutineFailure(tc.err))
		})
	}
}
