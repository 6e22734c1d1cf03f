package broadcast

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(zap.NewNop(), nil)
	go hub.Run(ctx)
	return hub
}

func newDisplayServer(t *testing.T, hub *Hub) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, Hello(5*time.Second))
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestDisplayReceivesHelloThenEvents(t *testing.T) {
	hub := startHub(t)
	url := newDisplayServer(t, hub)
	b := NewBroadcaster(hub, nil, "inout:sync", zap.NewNop(), nil)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	hello := readEvent(t, conn)
	assert.Equal(t, EventHello, hello.Type)
	assert.Equal(t, 5, hello.PollIntervalSeconds)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	b.Notify(context.Background(), Event{Type: EventPresenceChanged, StudentID: "CS001", Status: "in", Action: "in"})
	b.Notify(context.Background(), Event{Type: EventFeedCleared, Deleted: 4})

	first := readEvent(t, conn)
	assert.Equal(t, EventPresenceChanged, first.Type)
	assert.Equal(t, "CS001", first.StudentID)
	assert.Equal(t, uint64(1), first.Seq)
	assert.False(t, first.Timestamp.IsZero())

	second := readEvent(t, conn)
	assert.Equal(t, EventFeedCleared, second.Type)
	assert.Equal(t, int64(4), second.Deleted)
	assert.Equal(t, uint64(2), second.Seq)
}

func TestEveryDisplayGetsTheEvent(t *testing.T) {
	hub := startHub(t)
	url := newDisplayServer(t, hub)
	b := NewBroadcaster(hub, nil, "inout:sync", zap.NewNop(), nil)

	var conns []*websocket.Conn
	for i := 0; i < 3; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()
		readEvent(t, conn)
		conns = append(conns, conn)
	}
	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, time.Second, 10*time.Millisecond)

	b.Notify(context.Background(), Event{Type: EventActivityAdded, StudentID: "EE001", Action: "out"})

	for _, conn := range conns {
		ev := readEvent(t, conn)
		assert.Equal(t, EventActivityAdded, ev.Type)
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	hub := startHub(t)
	url := newDisplayServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	readEvent(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := startHub(t)

	// no pumps: nothing drains the send buffer
	slow := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.register <- slow
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast([]byte(`{"type":"PRESENCE_CHANGED"}`))
	hub.Broadcast([]byte(`{"type":"PRESENCE_CHANGED"}`))

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)

	<-slow.send
	_, open := <-slow.send
	assert.False(t, open, "send channel is closed once the client is dropped")
}

func TestRunWithoutRedisReturns(t *testing.T) {
	b := NewBroadcaster(NewHub(zap.NewNop(), nil), nil, "inout:sync", zap.NewNop(), nil)
	assert.NoError(t, b.Run(context.Background()))
}

func TestNopNotifier(t *testing.T) {
	var n Notifier = NopNotifier{}
	assert.NotPanics(t, func() { n.Notify(context.Background(), Event{Type: EventFeedCleared}) })
}
