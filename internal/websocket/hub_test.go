package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcade-profiles/internal/domain"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func newTestClient(hub *Hub, id string) *Client {
	return &Client{id: id, hub: hub, send: make(chan []byte, 8), logger: hub.logger}
}

func receive(t *testing.T, client *Client) Message {
	t.Helper()
	select {
	case data := <-client.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHub_BroadcastReachesSubscribersOnly(t *testing.T) {
	hub := newTestHub(t)
	tetris := newTestClient(hub, "a")
	snake := newTestClient(hub, "b")
	hub.Register(tetris)
	hub.Register(snake)
	hub.Subscribe(tetris, "tetris")
	hub.Subscribe(snake, "snake")
	require.Eventually(t, func() bool {
		return hub.GetSubscriberCount("tetris") == 1 && hub.GetSubscriberCount("snake") == 1
	}, time.Second, 5*time.Millisecond)

	hub.BroadcastHighscores("tetris", []domain.RankEntry{{Rank: 1, PlayerID: "p1", Score: 900}})

	msg := receive(t, tetris)
	assert.Equal(t, MessageTypeHighscoreUpdate, msg.Type)
	assert.Equal(t, "tetris", msg.GameName)
	assert.Empty(t, snake.send)
}

func TestHub_PlayerUpdate(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient(hub, "a")
	hub.Register(client)
	hub.Subscribe(client, "platform")
	require.Eventually(t, func() bool { return hub.GetSubscriberCount("platform") == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastPlayerUpdate("platform", nil)
	hub.BroadcastPlayerUpdate("platform", &domain.RankEntry{Rank: 2, PlayerID: "p1", Score: 40, Level: 3})

	msg := receive(t, client)
	assert.Equal(t, MessageTypePlayerUpdate, msg.Type)
	data, ok := msg.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "p1", data["player_id"])
	assert.EqualValues(t, 3, data["level"])
}

func TestHub_UnregisterClearsSubscriptions(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient(hub, "a")
	hub.Register(client)
	hub.Subscribe(client, "tetris")
	require.Eventually(t, func() bool { return hub.GetSubscriberCount("tetris") == 1 }, time.Second, 5*time.Millisecond)

	hub.Unregister(client)

	require.Eventually(t, func() bool { return hub.GetTotalConnections() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, hub.GetSubscriberCount("tetris"))
	_, open := <-client.send
	assert.False(t, open)
}

func TestServeWs_SubscribeAndReceive(t *testing.T) {
	hub := newTestHub(t)
	upgrader := Upgrader(nil)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, upgrader, hub.logger, w, r)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageTypeSubscribe, GameName: "snake"}))

	var ack Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, MessageTypeSubscribed, ack.Type)
	assert.Equal(t, "snake", ack.GameName)

	require.Eventually(t, func() bool { return hub.GetSubscriberCount("snake") == 1 }, time.Second, 5*time.Millisecond)
	hub.BroadcastHighscores("snake", nil)

	var update Message
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, MessageTypeHighscoreUpdate, update.Type)
}

func TestUpgrader_CheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "no origin header", allowed: []string{"http://localhost:3000"}, origin: "", want: true},
		{name: "listed origin", allowed: []string{"http://localhost:3000"}, origin: "http://localhost:3000", want: true},
		{name: "unlisted origin", allowed: []string{"http://localhost:3000"}, origin: "http://evil.example", want: false},
		{name: "wildcard", allowed: []string{"*"}, origin: "http://anything.example", want: true},
		{name: "empty list", allowed: nil, origin: "http://anything.example", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, Upgrader(tt.allowed).CheckOrigin(r))
		})
	}
}
