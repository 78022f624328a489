package transport

// Transport is one connected byte stream. Server-side connections and
// client-side dials both satisfy it.
type Transport interface {
	// Read receives data from the peer.
	// Returns the number of bytes read; zero bytes is reported as ConnectionClosed.
	Read(buf []byte) (int, error)

	// Write sends the whole buffer to the peer or fails.
	// Returns the number of bytes written.
	Write(buf []byte) (int, error)

	// Close closes the connection.
	Close() error
}

// Listener accepts connections one at a time
type Listener interface {
	// Accept blocks until a peer connects.
	// After Close it fails with ListenerClosed.
	Accept() (Transport, error)

	// Addr returns the bound address in a form DialAddress understands.
	Addr() string

	// Close stops accepting and releases the listening socket.
	Close() error
}
