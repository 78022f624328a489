package transport

import (
	"net"
	"os"
	"sync/atomic"

	"github.com/nczempin/httpd-go-uring/errors"
)

// UnixListener implements Listener using Unix domain sockets
type UnixListener struct {
	listener net.Listener
	path     string
	closed   atomic.Bool
}

// NewUnixListener binds a Unix domain socket at path.
// A stale socket file left by an earlier run is removed first.
func NewUnixListener(path string) (*UnixListener, error) {
	if err := removeStaleSocket(path); err != nil {
		return nil, err
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketBindFailure,
			"failed to listen on unix socket "+path,
			err,
		)
	}

	return &UnixListener{listener: listener, path: path}, nil
}

// Accept waits for the next Unix domain socket connection
func (l *UnixListener) Accept() (Transport, error) {
	return acceptNet(l.listener, &l.closed)
}

// Addr returns the socket path prefixed with "unix:"
func (l *UnixListener) Addr() string {
	return unixPrefix + l.path
}

// Close closes the listener and removes the socket file
func (l *UnixListener) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := l.listener.Close()
	os.Remove(l.path)
	if err != nil {
		return errors.NewTransportError(errors.TransportErrorSocketCloseFailure, "failed to close listener", err)
	}
	return nil
}

// removeStaleSocket deletes path only if it is a socket
func removeStaleSocket(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return nil
	}
	if info.Mode()&os.ModeSocket == 0 {
		return errors.NewTransportError(
			errors.TransportErrorSocketBindFailure,
			path+" exists and is not a socket",
			nil,
		)
	}
	if err := os.Remove(path); err != nil {
		return errors.NewTransportError(errors.TransportErrorSocketBindFailure, "failed to remove stale socket", err)
	}
	return nil
}
