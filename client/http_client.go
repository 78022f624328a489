package client

import (
	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/transport"
)

// maxResponseSize bounds how much a single response may grow to
const maxResponseSize = 16 << 20

// Response is a response as seen on the wire
type Response struct {
	StatusCode int
	Reason     string
	Body       []byte
}

// HttpClient performs one request per connection. The server answers
// without a Content-Length and closes, so the response ends at EOF.
type HttpClient struct {
	transport transport.Transport
}

// New creates a client over an already connected transport
func New(t transport.Transport) *HttpClient {
	return &HttpClient{
		transport: t,
	}
}

// Dial connects to a listener address ("host:port" or "unix:/path")
func Dial(address string) (*HttpClient, error) {
	t, err := transport.DialAddress(address)
	if err != nil {
		return nil, err
	}
	return New(t), nil
}

// Get sends a bare GET request line for target
func (c *HttpClient) Get(target string) (*Response, error) {
	return c.Do(protocol.MethodGet, target)
}

// Do sends a bare request line with the given method
func (c *HttpClient) Do(method protocol.Method, target string) (*Response, error) {
	return c.SendRaw(protocol.BuildRequest(method, target))
}

// SendRaw writes raw as-is and reads the response until the peer closes
func (c *HttpClient) SendRaw(raw []byte) (*Response, error) {
	defer c.transport.Close()

	if _, err := c.transport.Write(raw); err != nil {
		return nil, err
	}

	data, err := c.readAll()
	if err != nil {
		return nil, err
	}

	status, body, err := protocol.ParseResponse(data)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: status.StatusCode,
		Reason:     status.Reason,
		Body:       body,
	}, nil
}

// readAll reads until the connection is closed by the peer
func (c *HttpClient) readAll() ([]byte, error) {
	data := make([]byte, 0, 1024)
	readBuf := make([]byte, 1024)

	for {
		n, err := c.transport.Read(readBuf)
		if err != nil {
			if errors.IsConnectionClosed(err) {
				return data, nil
			}
			return nil, err
		}

		data = append(data, readBuf[:n]...)
		if len(data) > maxResponseSize {
			return nil, errors.NewInvalidArgumentError("response too large")
		}
	}
}
