package agent

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"finchat/internal/domain"
	"finchat/internal/usecase"
)

// startAgentStub runs a WebSocket server speaking the agent protocol:
// on the first message frame it replies with the scripted event
// sequence, then keeps the connection open.
func startAgentStub(t *testing.T, script []map[string]any) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ws/agent", r.URL.Path)
		assert.Equal(t, "u1", r.URL.Query().Get("user_id"))

		ws, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close(websocket.StatusNormalClosure, "")

		ctx := r.Context()
		for {
			var frame map[string]any
			if err := wsjson.Read(ctx, ws, &frame); err != nil {
				return
			}
			if frame["type"] != "message" {
				continue // ignore pings
			}
			for _, ev := range script {
				if err := wsjson.Write(ctx, ws, ev); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientEndToEnd(t *testing.T) {
	endpoint := startAgentStub(t, []map[string]any{
		{"type": "thinking_delta", "content": "analyzing "},
		{"type": "thinking_delta", "content": "cashflow"},
		{"type": "text_delta", "content": "Your runway ", "source": "assistant"},
		{"type": "text_delta", "content": "is 14 months.", "source": "assistant"},
		{"type": "message_complete", "usage": map[string]any{
			"prompt_tokens": 30, "completion_tokens": 12, "total_tokens": 42,
			"session_total_tokens": 42, "model": "fin-1",
		}},
	})

	logger := slog.Default()
	msgLog := usecase.NewMessageLog(nil, "u1", usecase.NewULIDGenerator(), logger)
	status := usecase.NewStatusTracker(nil, logger)
	usage := usecase.NewAccountant()
	asm := usecase.NewAssembler(usecase.AssemblerDeps{
		Log:    msgLog,
		Usage:  usage,
		Status: status,
		Logger: logger,
	})

	client := New(Deps{
		Endpoint: endpoint,
		UserID:   "u1",
		Theme:    "dark",
		Model:    "fin-1",
		Sink:     asm,
		Log:      msgLog,
		Status:   status,
		Logger:   logger,
	})
	defer client.Disconnect()

	client.Connect()
	require.True(t, client.Connected())

	client.SendMessage("how long is my runway?")

	require.Eventually(t, func() bool {
		return usage.Last().TotalTokens == 42
	}, 2*time.Second, 10*time.Millisecond)

	entries := msgLog.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, domain.RoleUser, entries[0].Role)
	assert.Equal(t, "how long is my runway?", entries[0].Content)
	assert.Equal(t, domain.RoleThinking, entries[1].Role)
	assert.Equal(t, "analyzing cashflow", entries[1].Content)
	assert.True(t, entries[1].ThinkingDone)
	assert.Equal(t, domain.RoleAssistant, entries[2].Role)
	assert.Equal(t, "Your runway is 14 months.", entries[2].Content)
	assert.Equal(t, domain.ConnConnected, status.Current())
}

func TestClientReconnectsAfterServerDrop(t *testing.T) {
	var drops atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		if drops.Add(1) == 1 {
			ws.Close(websocket.StatusInternalError, "simulated drop")
			return
		}
		// Second connection stays up.
		<-r.Context().Done()
	}))
	defer srv.Close()

	logger := slog.Default()
	msgLog := usecase.NewMessageLog(nil, "u1", usecase.NewULIDGenerator(), logger)
	status := usecase.NewStatusTracker(nil, logger)

	client := New(Deps{
		Endpoint:        "ws" + strings.TrimPrefix(srv.URL, "http"),
		UserID:          "u1",
		Sink:            &recordSink{},
		Log:             msgLog,
		Status:          status,
		ShouldReconnect: func() bool { return true },
		ReconnectBase:   10 * time.Millisecond,
		Logger:          logger,
	})
	defer client.Disconnect()

	client.Connect()

	require.Eventually(t, func() bool {
		return drops.Load() >= 2 && client.Connected()
	}, 2*time.Second, 10*time.Millisecond)
}
