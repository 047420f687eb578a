package feed

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// Client publishes messages to a feed server.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	writer *FrameWriter
}

// Dial connects to a feed server.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial feed: %w", err)
	}
	return &Client{conn: conn, writer: NewFrameWriter(conn)}, nil
}

// DialWithRetry dials until it succeeds, attempts are exhausted, or ctx
// ends. maxAttempts of zero retries forever.
func DialWithRetry(ctx context.Context, addr string, backoff *Backoff, maxAttempts int) (*Client, error) {
	if backoff == nil {
		backoff = NewBackoff()
	}

	for {
		c, err := Dial(ctx, addr)
		if err == nil {
			backoff.Reset()
			return c, nil
		}
		if maxAttempts > 0 && backoff.Attempts()+1 >= maxAttempts {
			return nil, err
		}

		timer := time.NewTimer(backoff.Next())
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Send encodes and writes one message.
func (c *Client) Send(m Message) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	return c.writer.WriteFrame(data)
}

// Close closes the connection. Safe to call twice.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
