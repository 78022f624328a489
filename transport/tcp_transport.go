package transport

import (
	"errors"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"syscall"

	httperrors "github.com/nczempin/httpd-go-uring/errors"
)

// TcpListener implements Listener on top of the net package
type TcpListener struct {
	listener net.Listener
	closed   atomic.Bool
}

// NewTcpListener binds a TCP listening socket at address, e.g. "127.0.0.1:8080"
func NewTcpListener(address string) (*TcpListener, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, httperrors.NewTransportError(
			httperrors.TransportErrorSocketBindFailure,
			"failed to listen on "+address,
			err,
		)
	}
	return &TcpListener{listener: listener}, nil
}

// Accept waits for the next TCP connection
func (l *TcpListener) Accept() (Transport, error) {
	return acceptNet(l.listener, &l.closed)
}

// Addr returns the bound host:port
func (l *TcpListener) Addr() string {
	return l.listener.Addr().String()
}

// Close closes the listening socket
func (l *TcpListener) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil // Idempotent close
	}
	if err := l.listener.Close(); err != nil {
		return httperrors.NewTransportError(httperrors.TransportErrorSocketCloseFailure, "failed to close listener", err)
	}
	return nil
}

func acceptNet(listener net.Listener, closed *atomic.Bool) (Transport, error) {
	conn, err := listener.Accept()
	if err != nil {
		if closed.Load() || errors.Is(err, net.ErrClosed) {
			return nil, httperrors.NewTransportError(httperrors.TransportErrorListenerClosed, "", err)
		}
		return nil, httperrors.NewTransportError(httperrors.TransportErrorSocketAcceptFailure, "accept failed", err)
	}

	// Set TCP_NODELAY to disable Nagle's algorithm for lower latency
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			conn.Close()
			return nil, httperrors.NewTransportError(httperrors.TransportErrorSocketAcceptFailure, "failed to set TCP_NODELAY", err)
		}
	}

	return &netConn{conn: conn}, nil
}

// netConn implements Transport for any net.Conn
type netConn struct {
	conn net.Conn
}

// Write sends data over the connection
func (c *netConn) Write(buf []byte) (int, error) {
	if c.conn == nil {
		return 0, httperrors.NewTransportError(httperrors.TransportErrorSocketWriteFailure, "not connected", nil)
	}

	n, err := c.conn.Write(buf)
	if err != nil {
		// Check for broken pipe or connection reset
		if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
			return n, httperrors.NewTransportError(httperrors.TransportErrorConnectionClosed, "peer went away during write", err)
		}
		return n, httperrors.NewTransportError(httperrors.TransportErrorSocketWriteFailure, "write failed", err)
	}

	return n, nil
}

// Read receives data from the connection
func (c *netConn) Read(buf []byte) (int, error) {
	if c.conn == nil {
		return 0, httperrors.NewTransportError(httperrors.TransportErrorSocketReadFailure, "not connected", nil)
	}

	n, err := c.conn.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) || (n == 0 && len(buf) > 0) {
			return n, httperrors.NewTransportError(httperrors.TransportErrorConnectionClosed, "connection closed by peer", err)
		}
		return n, httperrors.NewTransportError(httperrors.TransportErrorSocketReadFailure, "read failed", err)
	}

	return n, nil
}

// Close closes the connection
func (c *netConn) Close() error {
	if c.conn == nil {
		return nil // Idempotent close
	}

	err := c.conn.Close()
	c.conn = nil

	if err != nil {
		return httperrors.NewTransportError(httperrors.TransportErrorSocketCloseFailure, "close failed", err)
	}

	return nil
}

// Dial connects to address over network ("tcp" or "unix")
func Dial(network, address string) (Transport, error) {
	conn, err := net.Dial(network, address)
	if err != nil {
		// Classify network errors using type assertions
		if opErr, ok := err.(*net.OpError); ok && opErr.Op == "dial" {
			// Check for DNS resolution failures
			if dnsErr, ok := opErr.Err.(*net.DNSError); ok && (dnsErr.IsNotFound || dnsErr.IsTemporary) {
				return nil, httperrors.NewTransportError(httperrors.TransportErrorDnsFailure, "failed to resolve "+address, err)
			}
		}
		return nil, httperrors.NewTransportError(httperrors.TransportErrorSocketConnectFailure, "failed to connect to "+address, err)
	}

	return &netConn{conn: conn}, nil
}

// DialAddress dials a listener address: "unix:/path" or "host:port"
func DialAddress(address string) (Transport, error) {
	if strings.HasPrefix(address, unixPrefix) {
		return Dial("unix", strings.TrimPrefix(address, unixPrefix))
	}
	return Dial("tcp", address)
}
