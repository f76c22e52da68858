package pairing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeApp mimics the companion app's pairing surface for flow tests.
type fakeApp struct {
	sid      string
	code     string
	identity string
	name     string
	hasToken bool

	credentialsURL   string
	credentialsToken string
}

func (a *fakeApp) handler(t *testing.T) http.Handler {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/api/pair/code", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"code": a.code, "sid": a.sid, "ttl": 120})
	})

	mux.HandleFunc("/api/pair/confirm", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if body["sid"] != a.sid || body["code"] != a.code {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": a.identity, "name": a.name, "has_token": a.hasToken,
		})
	})

	mux.HandleFunc("/api/ha/credentials", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		a.credentialsURL = body["url"]
		a.credentialsToken = body["token"]

		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	return mux
}

func TestFlowPairsAppWithoutToken(t *testing.T) {
	app := &fakeApp{sid: "S1", code: "1234", identity: "dev-42", name: "Living Room TV"}

	ts := httptest.NewServer(app.handler(t))
	defer ts.Close()

	host, port := serverAddr(t, ts)

	flow := NewFlow(newTestClient(t), LocalMetadata{Name: "Home"})
	require.Equal(t, StateCollectingAddress, flow.State())

	require.Equal(t, StateAwaitingUserCode, flow.SubmitAddress(context.Background(), host, port))
	require.NoError(t, flow.Err())

	// The app has no credentials yet, so pairing pauses for them.
	require.Equal(t, StateAwaitingCredentials, flow.SubmitCode(context.Background(), "1234"))
	require.NoError(t, flow.Err())

	result := flow.Result()
	require.NotNil(t, result)
	assert.Equal(t, "dev-42", result.Identity)
	assert.Equal(t, "Living Room TV", result.Name)
	assert.Equal(t, host, result.Host)
	assert.Equal(t, port, result.Port)

	require.Equal(t, StatePaired, flow.SubmitCredentials(context.Background(), "http://hub.local:8123", "tok"))
	require.NoError(t, flow.Err())

	assert.Equal(t, "http://hub.local:8123", app.credentialsURL)
	assert.Equal(t, "tok", app.credentialsToken)
}

func TestFlowPairsAppWithToken(t *testing.T) {
	app := &fakeApp{sid: "S1", code: "1234", identity: "dev-42", name: "TV", hasToken: true}

	ts := httptest.NewServer(app.handler(t))
	defer ts.Close()

	host, port := serverAddr(t, ts)

	flow := NewFlow(newTestClient(t), LocalMetadata{})
	flow.SubmitAddress(context.Background(), host, port)

	assert.Equal(t, StatePaired, flow.SubmitCode(context.Background(), "1234"))
	assert.NotNil(t, flow.Result())
}

func TestFlowWrongCodeAllowsRetry(t *testing.T) {
	app := &fakeApp{sid: "S1", code: "1234", identity: "dev-42", name: "TV"}

	ts := httptest.NewServer(app.handler(t))
	defer ts.Close()

	host, port := serverAddr(t, ts)

	flow := NewFlow(newTestClient(t), LocalMetadata{})
	flow.SubmitAddress(context.Background(), host, port)

	assert.Equal(t, StateAwaitingUserCode, flow.SubmitCode(context.Background(), "0000"))
	assert.ErrorIs(t, flow.Err(), ErrInvalidCode)

	assert.Equal(t, StateAwaitingCredentials, flow.SubmitCode(context.Background(), "1234"))
	assert.NoError(t, flow.Err())
}

func TestFlowMissingIdentityIsTerminal(t *testing.T) {
	app := &fakeApp{sid: "S1", code: "1234", identity: "", name: "TV"}

	ts := httptest.NewServer(app.handler(t))
	defer ts.Close()

	host, port := serverAddr(t, ts)

	flow := NewFlow(newTestClient(t), LocalMetadata{})
	flow.SubmitAddress(context.Background(), host, port)

	require.Equal(t, StateFailed, flow.SubmitCode(context.Background(), "1234"))
	assert.ErrorIs(t, flow.Err(), ErrNoStableIdentity)
	assert.Nil(t, flow.Result())

	// Terminal: no step can be replayed.
	assert.Equal(t, StateFailed, flow.SubmitCode(context.Background(), "1234"))
	assert.Equal(t, StateFailed, flow.SubmitAddress(context.Background(), host, port))
}

func TestFlowUnreachableAddressAllowsRetry(t *testing.T) {
	app := &fakeApp{sid: "S1", code: "1234", identity: "dev-42", name: "TV"}

	dead := httptest.NewServer(http.NotFoundHandler())
	deadHost, deadPort := serverAddr(t, dead)
	dead.Close()

	flow := NewFlow(newTestClient(t), LocalMetadata{})

	assert.Equal(t, StateCollectingAddress, flow.SubmitAddress(context.Background(), deadHost, deadPort))
	assert.ErrorIs(t, flow.Err(), ErrUnreachable)

	ts := httptest.NewServer(app.handler(t))
	defer ts.Close()

	host, port := serverAddr(t, ts)

	assert.Equal(t, StateAwaitingUserCode, flow.SubmitAddress(context.Background(), host, port))
	assert.NoError(t, flow.Err())
}
