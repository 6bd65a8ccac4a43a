package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/ehrlich-b/csrv/internal/auth"
	"github.com/ehrlich-b/csrv/internal/console"
	"github.com/ehrlich-b/csrv/internal/logger"
)

// ErrAuthRejected is returned when the panel refuses the websocket handshake.
var ErrAuthRejected = errors.New("panel rejected console session")

const (
	writeTimeout = 10 * time.Second
	readLimit    = 1 << 20 // replayed history arrives in one frame
)

// Dialer opens console websockets using the cookies of a logged-in session.
type Dialer struct{}

// ConsoleURL maps the panel base URL to the console websocket endpoint.
func ConsoleURL(baseURL, serverID string) string {
	wsURL := strings.Replace(baseURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	return strings.TrimRight(wsURL, "/") + "/websocket/server?sid=" + url.QueryEscape(serverID)
}

func (d *Dialer) Dial(ctx context.Context, sess *auth.Session, serverID string) (console.Transport, error) {
	u := ConsoleURL(sess.BaseURL, serverID)
	conn, resp, err := websocket.Dial(ctx, u, &websocket.DialOptions{HTTPClient: sess.HTTP})
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %s", ErrAuthRejected, resp.Status)
		}
		return nil, err
	}
	conn.SetReadLimit(readLimit)
	logger.Debug("console websocket open", "url", u)
	return &Conn{conn: conn}, nil
}

// Conn adapts a websocket to console.Transport.
type Conn struct {
	conn *websocket.Conn
}

func (c *Conn) Send(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, data)
}

// Receive maps a close frame or EOF to console.ErrClosed. A cancelled ctx
// closes the websocket.
func (c *Conn) Receive(ctx context.Context) (console.Frame, error) {
	typ, data, err := c.conn.Read(ctx)
	if err != nil {
		if websocket.CloseStatus(err) != -1 || errors.Is(err, io.EOF) {
			return console.Frame{}, console.ErrClosed
		}
		return console.Frame{}, err
	}
	f := console.Frame{Type: console.FrameText, Data: data}
	if typ != websocket.MessageText {
		f.Type = console.FrameBinary
	}
	logger.Debug("frame", "type", f.Type.String(), "bytes", len(data))
	return f, nil
}

func (c *Conn) Close() error {
	return c.conn.CloseNow()
}
