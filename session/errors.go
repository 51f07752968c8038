package session

import (
	"errors"
	"fmt"
	"net"
)

var (
	ErrNotConnected     = errors.New("session is not connected")
	ErrAlreadyStarted   = errors.New("session was already started")
	ErrFrameTooLarge    = errors.New("frame exceeds size limit")
	ErrUnknownTransport = errors.New("unknown transport")
)

// ConnectError is returned by Connect for a refused or unreachable authority
// and for a malformed handshake.
type ConnectError struct {
	Op  string
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect: %s: %v", e.Op, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// TransportError is a failed send or receive on an established session.
type TransportError struct {
	Op        string
	Timeout   bool
	Truncated bool
	Err       error
}

func (e *TransportError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("transport: %s timed out: %v", e.Op, e.Err)
	case e.Truncated:
		return fmt.Sprintf("transport: %s truncated: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func newTransportError(op string, err error) *TransportError {
	var netErr net.Error
	return &TransportError{
		Op:        op,
		Timeout:   errors.As(err, &netErr) && netErr.Timeout(),
		Truncated: errors.Is(err, ErrFrameTooLarge),
		Err:       err,
	}
}
