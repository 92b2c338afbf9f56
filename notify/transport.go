package notify

import (
	"context"

	"github.com/coder/websocket"
)

// Transport is the minimal surface the manager needs from one websocket
// connection. The production implementation wraps coder/websocket; tests
// drive fakes through the same interface.
type Transport interface {
	// Read blocks until the next text frame or a connection error. The
	// error's close status (websocket.CloseStatus) decides whether the
	// manager reconnects.
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, payload []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// Dialer opens a transport to the given endpoint.
type Dialer func(ctx context.Context, url string) (Transport, error)

type wsTransport struct {
	conn *websocket.Conn
}

func dialWebsocket(ctx context.Context, url string) (Transport, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsTransport{conn: conn}, nil
}

func (t *wsTransport) Read(ctx context.Context) ([]byte, error) {
	_, data, err := t.conn.Read(ctx)
	return data, err
}

func (t *wsTransport) Write(ctx context.Context, payload []byte) error {
	return t.conn.Write(ctx, websocket.MessageText, payload)
}

func (t *wsTransport) Close(code websocket.StatusCode, reason string) error {
	return t.conn.Close(code, reason)
}
