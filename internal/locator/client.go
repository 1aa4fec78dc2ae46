package locator

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds bridge link connection settings.
type Config struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// ConnectionState represents the client's connection lifecycle.
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Client reads framed locator messages from a TCP bridge that relays the
// locator's radio link.
type Client struct {
	config Config
	conn   net.Conn
	state  atomic.Int32
	mu     sync.Mutex
}

// NewClient creates a new bridge client.
func NewClient(cfg Config) *Client {
	c := &Client{config: cfg}
	c.state.Store(int32(StateDisconnected))
	return c
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// Addr returns the bridge address the client dials.
func (c *Client) Addr() string {
	return net.JoinHostPort(c.config.Host, fmt.Sprint(c.config.Port))
}

// Connect dials the bridge.
func (c *Client) Connect(ctx context.Context) error {
	c.state.Store(int32(StateConnecting))
	dialer := net.Dialer{Timeout: c.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.Addr())
	if err != nil {
		c.state.Store(int32(StateDisconnected))
		return fmt.Errorf("bridge dial: %w", err)
	}
	return c.connectWithConn(ctx, conn)
}

// connectWithConn adopts an existing net.Conn.
// This is separated from Connect to allow testing with net.Pipe().
func (c *Client) connectWithConn(ctx context.Context, conn net.Conn) error {
	if err := ctx.Err(); err != nil {
		c.state.Store(int32(StateDisconnected))
		return fmt.Errorf("bridge connect: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
	c.state.Store(int32(StateConnected))
	return nil
}

// Close shuts down the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.state.Store(int32(StateDisconnected))
	return err
}

// ReadFrame reads the next complete locator message from the bridge.
func (c *Client) ReadFrame() ([]byte, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil, ErrNotConnected
	}

	head := make([]byte, FrameHeaderSize)
	if _, err := io.ReadFull(conn, head); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}
	size, err := DecodeFrameHeader(head)
	if err != nil {
		return nil, err
	}

	msg := make([]byte, size)
	if _, err := io.ReadFull(conn, msg); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}
	return msg, nil
}
