package feed_test

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mselser95/polymarket-trader/internal/feed"
	"github.com/mselser95/polymarket-trader/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, url string) *feed.Client {
	t.Helper()

	client, err := feed.NewClient(feed.Config{
		URL:                   url,
		DialTimeout:           time.Second,
		PingInterval:          time.Second,
		ReconnectInitialDelay: 10 * time.Millisecond,
		ReconnectMaxDelay:     100 * time.Millisecond,
		ReconnectBackoffMult:  2.0,
		TickBufferSize:        16,
		Logger:                zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()

	_, err := feed.NewClient(feed.Config{Logger: zaptest.NewLogger(t)})
	assert.ErrorContains(t, err, "url cannot be empty")

	_, err = feed.NewClient(feed.Config{URL: "ws://localhost"})
	assert.ErrorContains(t, err, "logger cannot be nil")
}

func TestClient_StreamsNormalizedTicks(t *testing.T) {
	t.Parallel()

	payload := `[{"event_type":"price_change","asset_id":"asset-1","market":"mkt-1","price":"0.42","timestamp":"1771070400000"}]`
	server := testutil.NewMockMarketFeed(t, []string{payload}, false)

	client := newTestClient(t, server.WSURL())
	require.NoError(t, client.Start())
	defer func() {
		_ = client.Close()
	}()

	select {
	case tick := <-client.TickChan():
		assert.Equal(t, "asset-1", tick.AssetID)
		assert.Equal(t, 0.42, tick.Price)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")
	}
}

func TestClient_SubscribeSendsInitialMessage(t *testing.T) {
	t.Parallel()

	server := testutil.NewMockMarketFeed(t, nil, true)

	client := newTestClient(t, server.WSURL())
	require.NoError(t, client.Start())
	defer func() {
		_ = client.Close()
	}()

	require.NoError(t, client.Subscribe([]string{"asset-1", "asset-2"}))

	select {
	case msg := <-server.Subscriptions:
		assert.Equal(t, "market", msg["type"])

		raw, err := json.Marshal(msg["assets_ids"])
		require.NoError(t, err)
		var ids []string
		require.NoError(t, json.Unmarshal(raw, &ids))
		assert.ElementsMatch(t, []string{"asset-1", "asset-2"}, ids)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscribe message")
	}

	// Already subscribed assets are not re-sent.
	require.NoError(t, client.Subscribe([]string{"asset-1"}))
}

func TestClient_CloseIsGraceful(t *testing.T) {
	t.Parallel()

	server := testutil.NewMockMarketFeed(t, nil, false)

	client := newTestClient(t, server.WSURL())
	require.NoError(t, client.Start())
	require.NoError(t, client.Close())

	// Channel is closed after shutdown.
	_, open := <-client.TickChan()
	assert.False(t, open)
}
