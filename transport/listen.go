package transport

import (
	"github.com/nczempin/httpd-go-uring/errors"
)

// Listener kinds accepted by Listen
const (
	KindTcp    = "tcp"
	KindUnix   = "unix"
	KindUring  = "uring"
	KindUring2 = "uring2"
)

// Listen opens a listener of the given kind.
// For unix the address is a socket path; uring and uring2 take
// "host:port" or "unix:/path".
func Listen(kind, address string) (Listener, error) {
	switch kind {
	case KindTcp:
		l, err := NewTcpListener(address)
		if err != nil {
			return nil, err
		}
		return l, nil
	case KindUnix:
		l, err := NewUnixListener(address)
		if err != nil {
			return nil, err
		}
		return l, nil
	case KindUring:
		l, err := NewUringListener(address)
		if err != nil {
			return nil, err
		}
		return l, nil
	case KindUring2:
		l, err := NewUringListenerV2(address)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, errors.NewInvalidArgumentError("unknown transport " + kind)
	}
}
