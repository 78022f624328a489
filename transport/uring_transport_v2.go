package transport

import (
	"sync"
	"syscall"

	"github.com/godzie44/go-uring/uring"
	"golang.org/x/sys/unix"

	"github.com/nczempin/httpd-go-uring/errors"
)

// UringListenerV2 implements Listener using godzie44/go-uring. Every
// operation is queued, submitted and reaped synchronously on one ring.
type UringListenerV2 struct {
	ring   *uring.Ring
	socket *rawSocket

	mu       sync.Mutex
	inFlight bool
	closed   bool
}

// NewUringListenerV2 binds address ("host:port" or "unix:/path")
func NewUringListenerV2(address string) (*UringListenerV2, error) {
	// Create io_uring instance with queue depth of 32
	ring, err := uring.New(32)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	socket, err := listenRaw(address)
	if err != nil {
		ring.Close()
		return nil, err
	}

	return &UringListenerV2{ring: ring, socket: socket}, nil
}

// Accept queues an accept operation and waits for it to complete
func (l *UringListenerV2) Accept() (Transport, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, listenerClosed()
	}
	l.inFlight = true
	l.mu.Unlock()

	fd, err := complete(l.ring, uring.Accept(uintptr(l.socket.fd), unix.SOCK_CLOEXEC), errors.TransportErrorSocketAcceptFailure)

	l.mu.Lock()
	l.inFlight = false
	if l.closed {
		l.release()
		l.mu.Unlock()
		if err == nil {
			syscall.Close(fd)
		}
		return nil, listenerClosed()
	}
	l.mu.Unlock()

	if err != nil {
		return nil, err
	}

	if err := l.socket.prepareConn(fd); err != nil {
		syscall.Close(fd)
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketAcceptFailure,
			"failed to configure accepted socket",
			err,
		)
	}

	return &uringConnV2{ring: l.ring, fd: fd}, nil
}

// Addr returns the bound address
func (l *UringListenerV2) Addr() string {
	return l.socket.addr()
}

// Close stops the listener; see UringListener.Close
func (l *UringListenerV2) Close() error {
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

func (l *UringListenerV2) release() error {
	err := l.socket.close()
	if l.ring != nil {
		l.ring.Close()
		l.ring = nil
	}
	if err != nil {
		return errors.NewTransportError(errors.TransportErrorSocketCloseFailure, "failed to close listener", err)
	}
	return nil
}

// complete queues op, submits it and waits for the matching completion.
// Returns the completion result; failures are reported as kind.
func complete(ring *uring.Ring, op uring.Operation, kind errors.TransportError) (int, error) {
	if err := ring.QueueSQE(op, 0, 0); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to queue request",
			err,
		)
	}

	// Submit and wait
	if _, err := ring.Submit(); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit request",
			err,
		)
	}

	// Wait for completion
	cqe, err := ring.WaitCQEvents(1)
	if err != nil {
		return 0, errors.NewTransportError(
			kind,
			"failed to wait for completion",
			err,
		)
	}

	res := int(cqe.Res)
	opErr := cqe.Error()
	ring.SeenCQE(cqe)

	if opErr != nil {
		return 0, errors.NewTransportError(
			kind,
			"operation failed",
			opErr,
		)
	}

	return res, nil
}

// uringConnV2 is an accepted connection driven through a go-uring ring
type uringConnV2 struct {
	ring *uring.Ring
	fd   int
}

// Write sends data over the connection using io_uring
func (c *uringConnV2) Write(buf []byte) (int, error) {
	if c.fd < 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed",
			nil,
		)
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		n, err := complete(c.ring, uring.Write(uintptr(c.fd), buf[totalWritten:], 0), errors.TransportErrorSocketWriteFailure)
		if err != nil {
			return totalWritten, err
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
func (c *uringConnV2) Read(buf []byte) (int, error) {
	if c.fd < 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed",
			nil,
		)
	}

	n, err := complete(c.ring, uring.Read(uintptr(c.fd), buf, 0), errors.TransportErrorSocketReadFailure)
	if err != nil {
		return 0, err
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
func (c *uringConnV2) Close() error {
	if c.fd < 0 {
		return nil
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
