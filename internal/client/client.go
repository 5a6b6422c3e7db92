package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gihan9a/draftsync/internal/logger"
	"gihan9a/draftsync/pkg/chunk"
	"gihan9a/draftsync/pkg/syncproto"

	"github.com/gorilla/websocket"
)

const (
	logModule   = "SyncClient"
	readTimeout = 30 * time.Second
	writeWait   = 10 * time.Second
)

// ErrRejected wraps a syncError reply. The server baseline is unknown
// afterwards, so the connection should be dialed again.
var ErrRejected = errors.New("sync rejected by server")

// Client pushes local text to a sync endpoint as chunk entries against
// the baseline the server announced.
type Client struct {
	conn     *websocket.Conn
	codec    chunk.Codec
	log      logger.Logger
	baseline string
}

// Dial connects to the sync endpoint and waits for the init message
func Dial(ctx context.Context, dialer *websocket.Dialer, url string, chunkSize int, log logger.Logger) (*Client, error) {
	codec, err := chunk.NewCodec(chunkSize)
	if err != nil {
		return nil, err
	}
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}

	c := &Client{conn: conn, codec: codec, log: log}
	msg, err := c.await(ctx, syncproto.EventInit)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := msg.Decode(&c.baseline); err != nil {
		conn.Close()
		return nil, err
	}

	log.Info(logModule, "Connected", map[string]interface{}{
		"url":          url,
		"baseline_len": len(c.baseline),
	})
	return c, nil
}

// Baseline is the text the server holds for this connection
func (c *Client) Baseline() string {
	return c.baseline
}

// Push sends text as a diff against the baseline and waits for the
// acknowledgment. Unchanged text is not sent.
func (c *Client) Push(ctx context.Context, text string) error {
	if text == c.baseline {
		return nil
	}

	entries := c.codec.Diff(c.baseline, text)
	msg, err := syncproto.SyncText(entries)
	if err != nil {
		return err
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to send syncText: %w", err)
	}

	if _, err := c.await(ctx, syncproto.EventSyncEnd); err != nil {
		return err
	}
	c.baseline = text

	c.log.Debug(logModule, "Pushed", map[string]interface{}{
		"entries": len(entries),
		"length":  len(text),
	})
	return nil
}

// Close sends a normal close frame and closes the connection
func (c *Client) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	return c.conn.Close()
}

// await reads frames until the wanted event or a syncError arrives
func (c *Client) await(ctx context.Context, event string) (syncproto.Message, error) {
	deadline := time.Now().Add(readTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetReadDeadline(deadline)

	for {
		var msg syncproto.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			return syncproto.Message{}, fmt.Errorf("failed waiting for %s: %w", event, err)
		}

		switch msg.Event {
		case event:
			return msg, nil
		case syncproto.EventSyncError:
			var reason string
			if err := msg.Decode(&reason); err != nil {
				reason = err.Error()
			}
			return syncproto.Message{}, fmt.Errorf("%w: %s", ErrRejected, reason)
		default:
			c.log.Debug(logModule, "Ignoring unexpected event", map[string]interface{}{"event": msg.Event})
		}
	}
}
