package server

import (
	"github.com/astaxie/beego/logs"
	"github.com/google/uuid"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/logger"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/transport"
)

// BufferSize is how much of a request is read. Anything past it is
// silently dropped.
const BufferSize = 1024

// Handler handles requests that were parsed successfully
type Handler interface {
	HandleRequest(req *protocol.Request) *protocol.Response
}

// BadRequestHandler may be implemented by a Handler to answer requests that
// failed to parse. Handlers without it get DefaultBadRequest.
type BadRequestHandler interface {
	HandleBadRequest(err errors.ParseError) *protocol.Response
}

// HandlerFunc adapts a plain function to Handler
type HandlerFunc func(req *protocol.Request) *protocol.Response

func (f HandlerFunc) HandleRequest(req *protocol.Request) *protocol.Response {
	return f(req)
}

// DefaultBadRequest answers any parse failure with 400 and no body
func DefaultBadRequest(err errors.ParseError) *protocol.Response {
	return protocol.NewResponse(protocol.StatusBadRequest, nil)
}

// Server owns a listener and serves one connection at a time on it
type Server struct {
	listener transport.Listener
	logger   *logs.BeeLogger
}

// New creates a server on an already bound listener. A nil logger uses
// logger.Default.
func New(listener transport.Listener, log *logs.BeeLogger) *Server {
	return &Server{
		listener: listener,
		logger:   logger.OrDefault(log),
	}
}

// ListenAndServe opens a listener of the given kind and runs handler on it
func ListenAndServe(kind, address string, handler Handler, log *logs.BeeLogger) error {
	listener, err := transport.Listen(kind, address)
	if err != nil {
		return err
	}
	return New(listener, log).Run(handler)
}

// Addr returns the address the server listens on
func (s *Server) Addr() string {
	return s.listener.Addr()
}

// Run accepts connections until the listener is closed. Each connection is
// read, parsed, dispatched and answered before the next accept. Failures of
// a single connection are logged and never end the loop.
func (s *Server) Run(handler Handler) error {
	s.logger.Informational("Listening on %s", s.listener.Addr())

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.IsListenerClosed(err) {
				s.logger.Informational("Listener on %s closed", s.listener.Addr())
				return nil
			}
			s.logger.Error("Failed to accept connection: %v", err)
			continue
		}

		s.serveConn(conn, handler)
	}
}

// Close closes the listener, which makes Run return
func (s *Server) Close() error {
	return s.listener.Close()
}

func (s *Server) serveConn(conn transport.Transport, handler Handler) {
	id := uuid.NewString()
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Error("[%s] Failed to close connection: %v", id, err)
		}
	}()

	buffer := make([]byte, BufferSize)
	n, err := conn.Read(buffer)
	if err != nil {
		s.logger.Error("[%s] Failed to read from stream: %v", id, err)
		return
	}

	// The request views buffer; both are dropped when this function returns.
	response := s.dispatch(id, buffer[:n], handler)

	if err := response.Send(conn); err != nil {
		s.logger.Error("[%s] Failed to send response: %v", id, err)
		return
	}
	s.logger.Debug("[%s] %d %s", id, response.StatusCode, response.StatusCode.ReasonPhrase())
}

// dispatch always yields a response, whatever the handler does
func (s *Server) dispatch(id string, buf []byte, handler Handler) (response *protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Critical("[%s] Handler panicked: %v", id, r)
			response = protocol.NewResponse(protocol.StatusNotFound, nil)
		}
	}()

	request, err := protocol.ParseRequestUnsafe(buf)
	if err != nil {
		parseErr, ok := err.(errors.ParseError)
		if !ok {
			parseErr = errors.InvalidRequest
		}
		s.logger.Warning("[%s] Failed to parse request: %v", id, parseErr)

		if bad, ok := handler.(BadRequestHandler); ok {
			response = bad.HandleBadRequest(parseErr)
		} else {
			response = DefaultBadRequest(parseErr)
		}
	} else {
		s.logger.Debug("[%s] %s", id, request)
		response = handler.HandleRequest(request)
	}

	if response == nil {
		response = protocol.NewResponse(protocol.StatusNotFound, nil)
	}
	return response
}
