package transport

import (
	"net"
	"testing"
	"time"

	"github.com/nczempin/httpd-go-uring/errors"
)

// listenOrSkip opens a listener, skipping when the kernel refuses io_uring
func listenOrSkip(t *testing.T, kind, address string) Listener {
	t.Helper()

	listener, err := Listen(kind, address)
	if err != nil {
		if kindOf, ok := errors.TransportKind(err); ok && kindOf == errors.TransportErrorIoUringInit {
			t.Skipf("io_uring unavailable: %v", err)
		}
		t.Fatalf("Listen(%s) failed: %v", kind, err)
	}
	return listener
}

func testUringEcho(t *testing.T, kind string) {
	listener := listenOrSkip(t, kind, "127.0.0.1:0")
	defer listener.Close()

	if listener.Addr() == "" {
		t.Fatal("Addr should resolve the bound port")
	}

	reply := make(chan string, 1)
	wait := runTestPeer(t, "tcp", listener.Addr(), func(conn net.Conn) {
		conn.Write([]byte("ring in"))
		buf := make([]byte, 64)
		n, _ := conn.Read(buf)
		reply <- string(buf[:n])
	})
	defer wait()

	conn, err := listener.Accept()
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(buf[:n]) != "ring in" {
		t.Errorf("Expected %q, got %q", "ring in", string(buf[:n]))
	}

	if _, err := conn.Write([]byte("ring out")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	select {
	case msg := <-reply:
		if msg != "ring out" {
			t.Errorf("Expected %q, got %q", "ring out", msg)
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for reply")
	}

	if err := conn.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
}

func testUringCloseUnblocksAccept(t *testing.T, kind string) {
	listener := listenOrSkip(t, kind, "127.0.0.1:0")

	result := make(chan error, 1)
	go func() {
		_, err := listener.Accept()
		result <- err
	}()

	time.Sleep(50 * time.Millisecond)
	listener.Close()

	select {
	case err := <-result:
		if !errors.IsListenerClosed(err) {
			t.Errorf("Expected ListenerClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Accept did not return after Close")
	}

	if _, err := listener.Accept(); !errors.IsListenerClosed(err) {
		t.Errorf("Expected ListenerClosed after Close, got %v", err)
	}
}

func TestUringListener_Echo(t *testing.T) {
	testUringEcho(t, KindUring)
}

func TestUringListenerV2_Echo(t *testing.T) {
	testUringEcho(t, KindUring2)
}

func TestUringListener_Close(t *testing.T) {
	testUringCloseUnblocksAccept(t, KindUring)
}

func TestUringListenerV2_Close(t *testing.T) {
	testUringCloseUnblocksAccept(t, KindUring2)
}

func testUringPeerClose(t *testing.T, kind string) {
	listener := listenOrSkip(t, kind, "127.0.0.1:0")
	defer listener.Close()

	wait := runTestPeer(t, "tcp", listener.Addr(), func(conn net.Conn) {})
	defer wait()

	conn, err := listener.Accept()
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	defer conn.Close()

	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	if n != 0 {
		t.Errorf("Expected no bytes from a closed peer, got %d", n)
	}
	expectTransportKind(t, err, errors.TransportErrorConnectionClosed)
}

func TestUringListener_PeerClose(t *testing.T) {
	testUringPeerClose(t, KindUring)
}

func TestUringListenerV2_PeerClose(t *testing.T) {
	testUringPeerClose(t, KindUring2)
}

func TestUringListener_Unix(t *testing.T) {
	testUringUnix(t, KindUring)
}

func TestUringListenerV2_Unix(t *testing.T) {
	testUringUnix(t, KindUring2)
}

func testUringUnix(t *testing.T, kind string) {
	path := unixTestPath(t)
	listener := listenOrSkip(t, kind, "unix:"+path)
	defer listener.Close()

	if listener.Addr() != "unix:"+path {
		t.Errorf("Expected addr %q, got %q", "unix:"+path, listener.Addr())
	}

	wait := runTestPeer(t, "unix", path, func(conn net.Conn) {
		conn.Write([]byte("unix ring"))
	})
	defer wait()

	conn, err := listener.Accept()
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	defer conn.Close()

	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(buf[:n]) != "unix ring" {
		t.Errorf("Expected %q, got %q", "unix ring", string(buf[:n]))
	}
}
