package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/api"
	"github.com/Tom21-xd/Uceva-sub002/internal/models"
)

func record(t *testing.T, v any) []byte {
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return append(raw, recordSeparator)
}

// fakeHub serves negotiate plus a websocket endpoint driven by script.
func fakeHub(t *testing.T, script func(conn *websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{}
	r := chi.NewRouter()
	r.Post("/hubs/cases/negotiate", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("negotiateVersion"))
		assert.Equal(t, "Bearer jwt", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"negotiateVersion":    1,
			"connectionId":        "c1",
			"connectionToken":     "tok-1",
			"availableTransports": []map[string]any{{"transport": "WebSockets"}},
		})
	})
	r.Get("/hubs/cases", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok-1", r.URL.Query().Get("id"))
		assert.Equal(t, "jwt", r.URL.Query().Get("access_token"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()

		_, hs, err := conn.ReadMessage()
		if !assert.NoError(t, err) {
			return
		}
		assert.JSONEq(t, `{"protocol":"json","version":1}`, string(hs[:len(hs)-1]))
		assert.Equal(t, byte(recordSeparator), hs[len(hs)-1])
		script(conn)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

type memorySink struct{ got []models.CaseEvent }

func (m *memorySink) Publish(_ context.Context, ev models.CaseEvent) error {
	m.got = append(m.got, ev)
	return nil
}

func TestHubClient_ReceivesEventsAndAnswersPing(t *testing.T) {
	pong := make(chan []byte, 1)
	srv := fakeHub(t, func(conn *websocket.Conn) {
		// handshake reply shares the message with the first invocation
		msg := append([]byte("{}\x1e"), record(t, map[string]any{
			"type": 1, "target": "NewCase",
			"arguments": []any{map[string]any{"caseId": 5, "message": "Nuevo caso en Tuluá"}},
		})...)
		_ = conn.WriteMessage(websocket.TextMessage, msg)
		_ = conn.WriteMessage(websocket.TextMessage, record(t, map[string]any{
			"type": 1, "target": "CaseDeleted", "arguments": []any{"7", "Caso eliminado"},
		}))
		_ = conn.WriteMessage(websocket.TextMessage, record(t, map[string]any{"type": 6}))
		_, p, err := conn.ReadMessage()
		if err == nil {
			pong <- p
		}
		_ = conn.WriteMessage(websocket.TextMessage, record(t, map[string]any{"type": 7, "error": "shutdown"}))
	})

	sink := &memorySink{}
	hub := NewHubClient(Options{
		URL:            srv.URL + "/hubs/cases",
		ReconnectDelay: 10 * time.Millisecond,
		Tokens:         api.TokenFunc(func() string { return "jwt" }),
		Sink:           sink,
	}, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- hub.Run(context.Background()) }()

	var got []models.CaseEvent
	for ev := range hub.Events() {
		got = append(got, ev)
	}
	err := <-done
	require.ErrorIs(t, err, ErrClosedByServer)
	assert.Contains(t, err.Error(), "shutdown")

	assert.Equal(t, []models.CaseEvent{
		{Kind: models.EventNewCase, CaseID: 5, Message: "Nuevo caso en Tuluá"},
		{Kind: models.EventCaseDeleted, CaseID: 7, Message: "Caso eliminado"},
	}, got)
	assert.Equal(t, got, sink.got)

	select {
	case p := <-pong:
		assert.Equal(t, "{\"type\":6}\x1e", string(p))
	case <-time.After(time.Second):
		t.Fatal("ping was not answered")
	}
}

func TestHubClient_ReconnectsUntilCancelled(t *testing.T) {
	connects := make(chan struct{}, 10)
	srv := fakeHub(t, func(conn *websocket.Conn) {
		select {
		case connects <- struct{}{}:
		default:
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte("{}\x1e"))
		// drop the connection
	})

	hub := NewHubClient(Options{
		URL:            srv.URL + "/hubs/cases",
		ReconnectDelay: 5 * time.Millisecond,
		Tokens:         api.TokenFunc(func() string { return "jwt" }),
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case <-connects:
		case <-time.After(2 * time.Second):
			t.Fatal("hub client did not reconnect")
		}
	}
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	_, open := <-hub.Events()
	assert.False(t, open)
}

func TestDecodeCaseEvent(t *testing.T) {
	args := func(vs ...string) []json.RawMessage {
		out := make([]json.RawMessage, len(vs))
		for i, v := range vs {
			out[i] = json.RawMessage(v)
		}
		return out
	}

	ev, err := decodeCaseEvent(frame{Target: TargetCaseUpdated, Arguments: args(`{"idCaso":3,"mensaje":"Estado actualizado"}`)})
	require.NoError(t, err)
	assert.Equal(t, models.CaseEvent{Kind: models.EventCaseUpdated, CaseID: 3, Message: "Estado actualizado"}, ev)

	ev, err = decodeCaseEvent(frame{Target: TargetNewCase, Arguments: args(`12`)})
	require.NoError(t, err)
	assert.Equal(t, 12, ev.CaseID)
	assert.Empty(t, ev.Message)

	_, err = decodeCaseEvent(frame{Target: "Other", Arguments: args(`1`)})
	assert.Error(t, err)
	_, err = decodeCaseEvent(frame{Target: TargetNewCase, Arguments: args(`{"message":"x"}`)})
	assert.Error(t, err)
	_, err = decodeCaseEvent(frame{Target: TargetNewCase})
	assert.Error(t, err)
}

func TestWebsocketURL(t *testing.T) {
	u, err := websocketURL("https://api.example.org/hubs/cases", "abc", "jwt")
	require.NoError(t, err)
	assert.Equal(t, "wss://api.example.org/hubs/cases?access_token=jwt&id=abc", u)

	_, err = websocketURL("ftp://x", "", "")
	assert.Error(t, err)
}

func TestSplitRecords(t *testing.T) {
	recs := splitRecords([]byte("{}\x1e{\"type\":6}\x1e\x1e"))
	require.Len(t, recs, 2)
	assert.Equal(t, "{}", string(recs[0]))
}
