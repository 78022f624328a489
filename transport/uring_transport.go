package transport

import (
	"sync"
	"syscall"

	"github.com/iceber/iouring-go"

	"github.com/nczempin/httpd-go-uring/errors"
)

// UringListener implements Listener using io_uring for accept and all
// connection I/O. Accepted connections share the listener's ring, so they
// must be closed before the listener is.
type UringListener struct {
	iour   *iouring.IOURing
	socket *rawSocket

	mu       sync.Mutex
	inFlight bool
	closed   bool
}

// NewUringListener binds address ("host:port" or "unix:/path") and
// creates an io_uring instance to serve it
func NewUringListener(address string) (*UringListener, error) {
	// Create io_uring instance with queue depth of 32
	iour, err := iouring.New(32)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	socket, err := listenRaw(address)
	if err != nil {
		iour.Close()
		return nil, err
	}

	return &UringListener{iour: iour, socket: socket}, nil
}

// Accept submits an accept request and waits for its completion
func (l *UringListener) Accept() (Transport, error) {
	if !l.begin() {
		return nil, listenerClosed()
	}

	ch := make(chan iouring.Result, 1)
	if _, err := l.iour.SubmitRequest(iouring.Accept(l.socket.fd), ch); err != nil {
		if l.end() {
			return nil, listenerClosed()
		}
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit accept request",
			err,
		)
	}

	result := <-ch
	fd, err := result.ReturnInt()
	if l.end() {
		if err == nil {
			syscall.Close(fd)
		}
		return nil, listenerClosed()
	}
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketAcceptFailure,
			"accept failed",
			err,
		)
	}

	if err := l.socket.prepareConn(fd); err != nil {
		syscall.Close(fd)
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketAcceptFailure,
			"failed to configure accepted socket",
			err,
		)
	}

	return &uringConn{iour: l.iour, fd: fd}, nil
}

// begin marks an accept as in flight; false once the listener is closed
func (l *UringListener) begin() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.inFlight = true
	return true
}

// end clears the in-flight mark and reports whether Close ran meanwhile,
// in which case the deferred release happens here
func (l *UringListener) end() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inFlight = false
	if l.closed {
		l.release()
		return true
	}
	return false
}

// Addr returns the bound address
func (l *UringListener) Addr() string {
	return l.socket.addr()
}

// Close stops the listener. A pending Accept is woken and releases the
// ring itself.
func (l *UringListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.socket.shutdown()
	if l.inFlight {
		return nil
	}
	return l.release()
}

func (l *UringListener) release() error {
	err := l.socket.close()
	if l.iour != nil {
		l.iour.Close()
		l.iour = nil
	}
	if err != nil {
		return errors.NewTransportError(errors.TransportErrorSocketCloseFailure, "failed to close listener", err)
	}
	return nil
}

func listenerClosed() error {
	return errors.NewTransportError(errors.TransportErrorListenerClosed, "", nil)
}

// uringConn is an accepted connection driven through io_uring
type uringConn struct {
	iour *iouring.IOURing
	fd   int
}

// Write sends data over the connection using io_uring
func (c *uringConn) Write(buf []byte) (int, error) {
	if c.fd < 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed",
			nil,
		)
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		ch := make(chan iouring.Result, 1)
		// Send and Recv set no result resolver, so ReturnInt would fail on them
		prepReq := iouring.Write(c.fd, buf[totalWritten:])
		if _, err := c.iour.SubmitRequest(prepReq, ch); err != nil {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorIoUringSubmit,
				"failed to submit write request",
				err,
			)
		}

		result := <-ch
		n, err := result.ReturnInt()
		if err != nil {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorSocketWriteFailure,
				"write failed",
				err,
			)
		}

		if n <= 0 {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorConnectionClosed,
				"connection closed during write",
				nil,
			)
		}

		totalWritten += n
	}

	return totalWritten, nil
}

// Read receives data from the connection using io_uring
func (c *uringConn) Read(buf []byte) (int, error) {
	if c.fd < 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed",
			nil,
		)
	}

	ch := make(chan iouring.Result, 1)
	prepReq := iouring.Read(c.fd, buf)
	if _, err := c.iour.SubmitRequest(prepReq, ch); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit read request",
			err,
		)
	}

	result := <-ch
	n, err := result.ReturnInt()
	if err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"read failed",
			err,
		)
	}

	if n == 0 && len(buf) > 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed by peer",
			nil,
		)
	}

	return n, nil
}

// Close closes the connection
func (c *uringConn) Close() error {
	if c.fd < 0 {
		return nil // Already closed
	}

	err := syscall.Close(c.fd)
	c.fd = -1
	if err != nil {
		return errors.NewTransportError(
			errors.TransportErrorSocketCloseFailure,
			"failed to close socket",
			err,
		)
	}

	return nil
}
