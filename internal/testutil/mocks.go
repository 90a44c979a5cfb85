package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

// MockMarketFeed is a WebSocket server that simulates the exchange's
// market stream: it accepts one connection at a time, captures
// subscribe messages, and plays back canned payloads.
type MockMarketFeed struct {
	*httptest.Server

	// Subscriptions receives every JSON message a client writes,
	// buffered so the server never blocks.
	Subscriptions chan map[string]any
}

// NewMockMarketFeed starts a mock feed that sends each payload in order
// after the first client message (or immediately when captureFirst is
// false), then holds the connection open until the client closes it.
func NewMockMarketFeed(t *testing.T, payloads []string, captureFirst bool) *MockMarketFeed {
	t.Helper()

	mock := &MockMarketFeed{
		Subscriptions: make(chan map[string]any, 16),
	}

	upgrader := websocket.Upgrader{}
	mock.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() {
			_ = conn.Close()
		}()

		if captureFirst {
			var msg map[string]any
			if conn.ReadJSON(&msg) == nil {
				mock.Subscriptions <- msg
			}
		}

		for _, payload := range payloads {
			err = conn.WriteMessage(websocket.TextMessage, []byte(payload))
			if err != nil {
				return
			}
		}

		// Hold the connection open until the client closes it.
		for {
			_, _, err = conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}))

	t.Cleanup(mock.Server.Close)

	return mock
}

// WSURL returns the ws:// address of the mock feed.
func (m *MockMarketFeed) WSURL() string {
	return "ws" + strings.TrimPrefix(m.Server.URL, "http")
}
