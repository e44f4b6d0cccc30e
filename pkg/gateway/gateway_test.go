package gateway

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/solana-zh/pulsefeed/pkg/model"
	"github.com/solana-zh/pulsefeed/pkg/store"
)

type fakePulseStore struct {
	rows []model.PulseDataResponse
	err  error
}

func (f *fakePulseStore) Pulse(ctx context.Context, q store.PulseQuery) ([]model.PulseDataResponse, error) {
	return f.rows, f.err
}

func newTestServer(t *testing.T, ps PulseStore) (*Gateway, string) {
	t.Helper()
	gw := New(ps, nil)
	srv := httptest.NewServer(gw)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	return gw, url
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPingReturnsPong(t *testing.T) {
	_, url := newTestServer(t, &fakePulseStore{})
	c := dial(t, url)

	require.NoError(t, c.WriteJSON(inboundEnvelope{Method: "ping"}))

	var got frame
	require.NoError(t, c.ReadJSON(&got))
	require.Equal(t, "pong", got.Channel)
}

func TestSubscribeRepliesThenSendsSnapshot(t *testing.T) {
	rows := []model.PulseDataResponse{{PairAddress: "p1"}}
	_, url := newTestServer(t, &fakePulseStore{rows: rows})
	c := dial(t, url)

	require.NoError(t, c.WriteJSON(inboundEnvelope{
		Method:       "subscribe",
		Subscription: &subscriptionDescriptor{Type: "update_pulse_v2"},
	}))

	var resp frame
	require.NoError(t, c.ReadJSON(&resp))
	require.Equal(t, "subscriptionResponse", resp.Channel)

	var snapshot frame
	require.NoError(t, c.ReadJSON(&snapshot))
	require.Equal(t, "update_pulse_v2", snapshot.Channel)
}

func TestDoubleSubscribeEmitsError(t *testing.T) {
	_, url := newTestServer(t, &fakePulseStore{})
	c := dial(t, url)

	sub := inboundEnvelope{Method: "subscribe", Subscription: &subscriptionDescriptor{Type: "update_pulse_v2"}}
	require.NoError(t, c.WriteJSON(sub))

	var first, second frame
	require.NoError(t, c.ReadJSON(&first))  // subscriptionResponse
	require.NoError(t, c.ReadJSON(&second)) // snapshot

	require.NoError(t, c.WriteJSON(sub))
	var errFrame frame
	require.NoError(t, c.ReadJSON(&errFrame))
	require.Equal(t, "error", errFrame.Channel)
}

func TestSnapshotFailureEmitsErrorButKeepsSubscription(t *testing.T) {
	_, url := newTestServer(t, &fakePulseStore{err: assertErr{}})
	c := dial(t, url)

	sub := inboundEnvelope{Method: "subscribe", Subscription: &subscriptionDescriptor{Type: "update_pulse_v2"}}
	require.NoError(t, c.WriteJSON(sub))

	var resp, errFrame frame
	require.NoError(t, c.ReadJSON(&resp))
	require.Equal(t, "subscriptionResponse", resp.Channel)
	require.NoError(t, c.ReadJSON(&errFrame))
	require.Equal(t, "error", errFrame.Channel)
}

func TestEmitNewPairReachesJoinedConnection(t *testing.T) {
	gw, url := newTestServer(t, &fakePulseStore{})
	c := dial(t, url)

	require.NoError(t, c.WriteJSON(inboundEnvelope{Method: "join", Room: RoomNewPair}))
	// Give the server goroutine a moment to register the join before
	// broadcasting, since join has no reply frame to synchronize on.
	time.Sleep(20 * time.Millisecond)

	gw.EmitNewPair(model.PulseDataResponse{PairAddress: "abc"})

	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got frame
	require.NoError(t, c.ReadJSON(&got))
	require.Equal(t, "new-pair", got.Channel)
}

func TestDisconnectRemovesRoomMembership(t *testing.T) {
	gw, url := newTestServer(t, &fakePulseStore{})
	c := dial(t, url)
	require.NoError(t, c.WriteJSON(inboundEnvelope{Method: "join", Room: RoomNewPair}))
	time.Sleep(20 * time.Millisecond)
	c.Close()
	time.Sleep(20 * time.Millisecond)

	gw.mu.RLock()
	set := gw.rooms[RoomNewPair]
	gw.mu.RUnlock()
	require.Empty(t, set)
}

type assertErr struct{}

func (assertErr) Error() string { return "store unavailable" }
