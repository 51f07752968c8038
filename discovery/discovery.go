package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/ipv4"
	"golang.org/x/text/encoding/traditionalchinese"
)

const (
	maxDatagramSize = 1024
	defaultTimeout  = 2 * time.Second
)

// Listener is a member of the announcement multicast group.
type Listener struct {
	group *net.UDPAddr
	conn  net.PacketConn
	pconn *ipv4.PacketConn

	closeOnce sync.Once
	closeErr  error
}

// Listen joins group on port. The port is bound with address reuse so
// several clients on one host can share the announcement channel.
func Listen(group string, port int) (*Listener, error) {
	ip := net.ParseIP(group)
	if ip == nil || ip.To4() == nil || !ip.IsMulticast() {
		return nil, fmt.Errorf("%q is not an IPv4 multicast group", group)
	}

	lc := net.ListenConfig{Control: reuseAddr}
	conn, err := lc.ListenPacket(context.Background(), "udp4", net.JoinHostPort("0.0.0.0", strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}

	groupAddr := &net.UDPAddr{IP: ip, Port: port}
	pconn := ipv4.NewPacketConn(conn)
	if err := pconn.JoinGroup(nil, groupAddr); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join %s: %w", group, err)
	}
	if err := pconn.SetControlMessage(ipv4.FlagDst, true); err != nil {
		log.WithError(err).Debug("Destination filtering unavailable for discovery channel")
	}

	return &Listener{group: groupAddr, conn: conn, pconn: pconn}, nil
}

// Receive waits for one announcement addressed to the group.
func (l *Listener) Receive(ctx context.Context) (string, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultTimeout)
	}
	if err := l.pconn.SetReadDeadline(deadline); err != nil {
		return "", err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = l.pconn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	buf := make([]byte, maxDatagramSize)
	for {
		n, cm, src, err := l.pconn.ReadFrom(buf)
		if err != nil {
			return "", err
		}
		if cm != nil && cm.Dst != nil && !cm.Dst.Equal(l.group.IP) {
			continue
		}

		msg, err := Decode(buf[:n])
		if err != nil {
			return "", err
		}
		log.WithField("from", src).Debug("Announcement received")
		return msg, nil
	}
}

func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		if err := l.pconn.LeaveGroup(nil, l.group); err != nil {
			log.WithError(err).Debug("Failed to leave discovery group")
		}
		l.closeErr = l.conn.Close()
	})
	return l.closeErr
}

// Decode turns a Big5 announcement into UTF-8.
func Decode(payload []byte) (string, error) {
	out, err := traditionalchinese.Big5.NewDecoder().Bytes(payload)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
