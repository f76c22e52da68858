package bus

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickbars/bridge/pkg/logger"
)

func runNATSServer(t *testing.T) *server.Server {
	t.Helper()

	srv, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: -1})
	require.NoError(t, err)

	go srv.Start()

	require.True(t, srv.ReadyForConnections(5*time.Second), "embedded NATS server did not start")

	t.Cleanup(srv.Shutdown)

	return srv
}

func TestNATSBusRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	srv := runNATSServer(t)

	b, err := Connect(srv.ClientURL(), logger.NewTestLogger())
	require.NoError(t, err)

	defer b.Close()

	received := make(chan []byte, 1)

	unsub, err := b.Subscribe(SubjectRequest, func(subject string, data []byte) {
		assert.Equal(t, SubjectRequest, subject)
		received <- data
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(context.Background(), SubjectRequest, []byte(`{"action":"ping"}`)))

	select {
	case data := <-received:
		assert.JSONEq(t, `{"action":"ping"}`, string(data))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the published message")
	}

	require.NoError(t, unsub())

	require.NoError(t, b.Publish(context.Background(), SubjectRequest, []byte(`{"action":"ping"}`)))

	select {
	case <-received:
		t.Fatal("received a message after unsubscribe")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestNATSBusConnectFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	_, err := Connect("nats://127.0.0.1:1", logger.NewTestLogger())
	assert.Error(t, err)
}
