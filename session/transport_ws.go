package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

const closeGracePeriod = time.Second

type WebSocketDialer struct {
	URL string
}

func (d WebSocketDialer) Dial(ctx context.Context) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, d.URL, nil)
	if err != nil {
		return nil, err
	}
	return NewWebSocketConn(conn), nil
}

// WebSocketConn maps one frame to one binary message.
type WebSocketConn struct {
	conn *websocket.Conn
}

func NewWebSocketConn(conn *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{conn: conn}
}

func (w *WebSocketConn) WriteFrame(payload []byte) error {
	return w.conn.WriteMessage(websocket.BinaryMessage, payload)
}

func (w *WebSocketConn) ReadFrame(limit int) ([]byte, error) {
	w.conn.SetReadLimit(int64(limit))

	_, message, err := w.conn.ReadMessage()
	if errors.Is(err, websocket.ErrReadLimit) {
		return nil, fmt.Errorf("%w: %v", ErrFrameTooLarge, err)
	}
	return message, err
}

func (w *WebSocketConn) SetDeadline(t time.Time) error {
	if err := w.conn.SetReadDeadline(t); err != nil {
		return err
	}
	return w.conn.SetWriteDeadline(t)
}

func (w *WebSocketConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
	return w.conn.Close()
}
