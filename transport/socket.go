package transport

import (
	"net"
	"strings"

	sockaddrnet "github.com/libp2p/go-sockaddr/net"
	"golang.org/x/sys/unix"

	"github.com/nczempin/httpd-go-uring/errors"
)

const unixPrefix = "unix:"

// rawSocket is a bound and listening socket descriptor, used by listeners
// that drive accept through io_uring instead of the Go netpoller
type rawSocket struct {
	fd   int
	af   int
	path string // set for AF_UNIX
}

// listenRaw opens a listening socket for "host:port" or "unix:/path"
func listenRaw(address string) (*rawSocket, error) {
	var addr net.Addr
	var path string

	if strings.HasPrefix(address, unixPrefix) {
		path = strings.TrimPrefix(address, unixPrefix)
		if err := removeStaleSocket(path); err != nil {
			return nil, err
		}
		addr = &net.UnixAddr{Name: path, Net: "unix"}
	} else {
		tcpAddr, err := net.ResolveTCPAddr("tcp", address)
		if err != nil {
			return nil, errors.NewTransportError(
				errors.TransportErrorDnsFailure,
				"failed to resolve "+address,
				err,
			)
		}
		if tcpAddr.IP == nil {
			tcpAddr.IP = net.IPv4zero
		}
		addr = tcpAddr
	}

	af := sockaddrnet.NetAddrAF(addr)
	sa := sockaddrnet.NetAddrToSockaddr(addr)
	if sa == nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"unsupported address "+address,
			nil,
		)
	}

	fd, err := unix.Socket(af, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"failed to create socket",
			err,
		)
	}

	if path == "" {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			unix.Close(fd)
			return nil, errors.NewTransportError(
				errors.TransportErrorSocketCreateFailure,
				"failed to set SO_REUSEADDR",
				err,
			)
		}
	}

	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketBindFailure,
			"failed to bind "+address,
			err,
		)
	}

	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketListenFailure,
			"failed to listen on "+address,
			err,
		)
	}

	return &rawSocket{fd: fd, af: af, path: path}, nil
}

// addr reports the bound address, resolving an ephemeral port if one was requested
func (s *rawSocket) addr() string {
	if s.path != "" {
		return unixPrefix + s.path
	}
	sa, err := unix.Getsockname(s.fd)
	if err != nil {
		return ""
	}
	if tcpAddr := sockaddrnet.SockaddrToTCPAddr(sa); tcpAddr != nil {
		return tcpAddr.String()
	}
	return ""
}

// prepareConn configures a freshly accepted descriptor
func (s *rawSocket) prepareConn(fd int) error {
	unix.CloseOnExec(fd)
	if s.path != "" {
		return nil
	}
	// Set TCP_NODELAY
	return unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
}

// shutdown wakes any accept blocked on the socket
func (s *rawSocket) shutdown() {
	unix.Shutdown(s.fd, unix.SHUT_RDWR)
}

// close releases the descriptor and any socket file
func (s *rawSocket) close() error {
	err := unix.Close(s.fd)
	if s.path != "" {
		unix.Unlink(s.path)
	}
	return err
}
