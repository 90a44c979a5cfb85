// Package feed maintains the market data WebSocket connection and
// turns raw exchange events into the tick stream the engine consumes.
package feed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mselser95/polymarket-trader/pkg/types"
	"go.uber.org/zap"
)

// Client manages a single WebSocket connection to the market data
// endpoint, with automatic reconnect and resubscribe.
type Client struct {
	url         string
	config      Config
	logger      *zap.Logger
	normalizer  *Normalizer
	reconnector *Reconnector
	tickChan    chan types.Tick

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.RWMutex
	conn       *websocket.Conn
	subscribed map[string]bool
	connected  atomic.Bool
}

// Config holds WebSocket client configuration.
type Config struct {
	URL                   string
	DialTimeout           time.Duration
	PingInterval          time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	TickBufferSize        int
	Logger                *zap.Logger
}

// NewClient creates a new feed client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("url cannot be empty")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.TickBufferSize <= 0 {
		cfg.TickBufferSize = 1000
	}

	ctx, cancel := context.WithCancel(context.Background())

	backoff := BackoffConfig{
		InitialDelay:  cfg.ReconnectInitialDelay,
		MaxDelay:      cfg.ReconnectMaxDelay,
		Multiplier:    cfg.ReconnectBackoffMult,
		JitterPercent: 0.2,
	}

	return &Client{
		url:         cfg.URL,
		config:      cfg,
		logger:      cfg.Logger,
		normalizer:  NewNormalizer(cfg.Logger),
		reconnector: NewReconnector(backoff, cfg.Logger),
		tickChan:    make(chan types.Tick, cfg.TickBufferSize),
		ctx:         ctx,
		cancel:      cancel,
		subscribed:  make(map[string]bool),
	}, nil
}

// Start connects and begins streaming ticks.
func (c *Client) Start() error {
	c.logger.Info("feed-client-starting", zap.String("url", c.url))

	err := c.connect(c.ctx)
	if err != nil {
		return fmt.Errorf("initial connection: %w", err)
	}

	c.wg.Add(3)
	go c.readLoop()
	go c.pingLoop()
	go c.reconnectLoop()

	return nil
}

func (c *Client) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.DialTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.connected.Store(true)
	ActiveConnections.Set(1)

	c.logger.Info("feed-connected")
	return nil
}

// Subscribe subscribes to a list of asset IDs.
func (c *Client) Subscribe(assetIDs []string) error {
	if len(assetIDs) == 0 {
		return nil
	}

	c.mu.Lock()
	newAssets := make([]string, 0, len(assetIDs))
	for _, assetID := range assetIDs {
		if !c.subscribed[assetID] {
			newAssets = append(newAssets, assetID)
			c.subscribed[assetID] = true
		}
	}
	if len(newAssets) == 0 {
		c.mu.Unlock()
		return nil
	}

	initial := len(c.subscribed) == len(newAssets)
	total := len(c.subscribed)
	conn := c.conn
	c.mu.Unlock()

	var msg map[string]any
	if initial {
		msg = map[string]any{"assets_ids": newAssets, "type": "market"}
	} else {
		msg = map[string]any{"assets_ids": newAssets, "operation": "subscribe"}
	}

	err := conn.WriteJSON(msg)
	if err != nil {
		c.mu.Lock()
		for _, assetID := range newAssets {
			delete(c.subscribed, assetID)
		}
		total = len(c.subscribed)
		c.mu.Unlock()

		SubscriptionCount.Set(float64(total))
		return fmt.Errorf("write subscribe message: %w", err)
	}

	SubscriptionCount.Set(float64(total))
	c.logger.Info("subscribed-to-assets",
		zap.Int("new-count", len(newAssets)),
		zap.Int("total-count", total))

	return nil
}

func (c *Client) readLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		if conn == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
			default:
				c.logger.Warn("feed-read-error", zap.Error(err))
			}
			c.connected.Store(false)
			ActiveConnections.Set(0)
			return
		}

		for _, tick := range c.normalizer.Normalize(message) {
			select {
			case c.tickChan <- tick:
			default:
				c.logger.Warn("tick-channel-full", zap.String("asset-id", tick.AssetID))
				TicksDroppedTotal.Inc()
			}
		}
	}
}

func (c *Client) pingLoop() {
	defer c.wg.Done()

	interval := c.config.PingInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if !c.connected.Load() {
				continue
			}

			c.mu.RLock()
			conn := c.conn
			c.mu.RUnlock()
			if conn == nil {
				continue
			}

			err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second))
			if err != nil {
				c.logger.Warn("feed-ping-error", zap.Error(err))
			}
		}
	}
}

func (c *Client) reconnectLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		if c.connected.Load() {
			time.Sleep(time.Second)
			continue
		}

		c.logger.Warn("feed-connection-lost")

		err := c.reconnector.Reconnect(c.ctx, c.connect)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.logger.Error("feed-reconnection-failed", zap.Error(err))
			continue
		}

		err = c.resubscribeAll()
		if err != nil {
			c.logger.Error("feed-resubscribe-failed", zap.Error(err))
			c.connected.Store(false)
			continue
		}

		c.wg.Add(1)
		go c.readLoop()
	}
}

func (c *Client) resubscribeAll() error {
	c.mu.RLock()
	assetIDs := make([]string, 0, len(c.subscribed))
	for assetID := range c.subscribed {
		assetIDs = append(assetIDs, assetID)
	}
	conn := c.conn
	c.mu.RUnlock()

	if len(assetIDs) == 0 {
		return nil
	}

	err := conn.WriteJSON(map[string]any{"assets_ids": assetIDs, "type": "market"})
	if err != nil {
		return fmt.Errorf("write resubscribe message: %w", err)
	}

	c.logger.Info("resubscribed-to-all-assets", zap.Int("count", len(assetIDs)))
	return nil
}

// TickChan returns the channel carrying normalized ticks.
func (c *Client) TickChan() <-chan types.Tick {
	return c.tickChan
}

// Close gracefully shuts the client down.
func (c *Client) Close() error {
	c.logger.Info("closing-feed-client")

	c.cancel()

	c.mu.RLock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.RUnlock()

	c.wg.Wait()
	close(c.tickChan)
	ActiveConnections.Set(0)

	c.logger.Info("feed-client-closed")
	return nil
}
