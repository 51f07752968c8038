package session

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"
)

const frameHeaderSize = 4

// Conn carries whole frames. Reads larger than limit fail with
// ErrFrameTooLarge.
type Conn interface {
	WriteFrame(payload []byte) error
	ReadFrame(limit int) ([]byte, error)
	SetDeadline(t time.Time) error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

func NewDialer(transport, addr, wsPath string) (Dialer, error) {
	switch transport {
	case "tcp", "":
		return TCPDialer{Addr: addr}, nil
	case "ws":
		return WebSocketDialer{URL: "ws://" + addr + wsPath}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownTransport, transport)
}

type TCPDialer struct {
	Addr string
}

func (d TCPDialer) Dial(ctx context.Context) (Conn, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", d.Addr)
	if err != nil {
		return nil, err
	}
	return NewFrameConn(conn), nil
}

// FrameConn prefixes every payload with its length as a big-endian uint32.
type FrameConn struct {
	conn net.Conn
}

func NewFrameConn(conn net.Conn) *FrameConn {
	return &FrameConn{conn: conn}
}

func (f *FrameConn) WriteFrame(payload []byte) error {
	buf := make([]byte, frameHeaderSize, frameHeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	buf = append(buf, payload...)

	_, err := f.conn.Write(buf)
	return err
}

func (f *FrameConn) ReadFrame(limit int) ([]byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(f.conn, header[:]); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint32(header[:])
	if uint64(size) > uint64(limit) {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrFrameTooLarge, size, limit)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(f.conn, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (f *FrameConn) SetDeadline(t time.Time) error {
	return f.conn.SetDeadline(t)
}

func (f *FrameConn) Close() error {
	return f.conn.Close()
}
