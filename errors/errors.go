package errors

import "fmt"

// ErrorType represents the category of error
type ErrorType int

const (
	ErrorNone ErrorType = iota
	ErrorTransport
	ErrorParse
	ErrorInvalidArgument
)

// TransportError represents transport-layer specific errors
type TransportError int

const (
	TransportErrorNone TransportError = iota
	TransportErrorSocketCreateFailure
	TransportErrorSocketBindFailure
	TransportErrorSocketListenFailure
	TransportErrorSocketAcceptFailure
	TransportErrorSocketConnectFailure
	TransportErrorSocketReadFailure
	TransportErrorSocketWriteFailure
	TransportErrorSocketCloseFailure
	TransportErrorConnectionClosed
	TransportErrorListenerClosed
	TransportErrorDnsFailure
	TransportErrorIoUringInit
	TransportErrorIoUringSubmit
)

func (e TransportError) Error() string {
	switch e {
	case TransportErrorNone:
		return "No transport error"
	case TransportErrorSocketCreateFailure:
		return "Socket creation failed"
	case TransportErrorSocketBindFailure:
		return "Socket bind failed"
	case TransportErrorSocketListenFailure:
		return "Socket listen failed"
	case TransportErrorSocketAcceptFailure:
		return "Socket accept failed"
	case TransportErrorSocketConnectFailure:
		return "Socket connection failed"
	case TransportErrorSocketReadFailure:
		return "Socket read failed"
	case TransportErrorSocketWriteFailure:
		return "Socket write failed"
	case TransportErrorSocketCloseFailure:
		return "Socket close failed"
	case TransportErrorConnectionClosed:
		return "Connection closed"
	case TransportErrorListenerClosed:
		return "Listener closed"
	case TransportErrorDnsFailure:
		return "DNS lookup failed"
	case TransportErrorIoUringInit:
		return "io_uring initialization failed"
	case TransportErrorIoUringSubmit:
		return "io_uring submission failed"
	default:
		return fmt.Sprintf("Unknown transport error: %d", int(e))
	}
}

// ParseError represents failures to parse a request line.
// Each one is terminal for the request it came from, never for the server.
type ParseError int

const (
	InvalidRequest ParseError = iota + 1
	InvalidEncoding
	InvalidProtocol
	InvalidMethod
)

func (e ParseError) Error() string {
	switch e {
	case InvalidRequest:
		return "Invalid Request"
	case InvalidEncoding:
		return "Invalid Encoding"
	case InvalidProtocol:
		return "Invalid Protocol"
	case InvalidMethod:
		return "Invalid Method"
	default:
		return fmt.Sprintf("Unknown parse error: %d", int(e))
	}
}

// MethodError is returned for a request verb outside the supported set
type MethodError struct {
	Token string
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("unrecognized method %q", e.Token)
}

// ParseError maps the method failure onto the request parse taxonomy
func (e *MethodError) ParseError() ParseError {
	return InvalidMethod
}

// HttpError is the main error type for the server
type HttpError struct {
	Type          ErrorType
	TransportErr  TransportError
	ParseErr      ParseError
	Message       string
	UnderlyingErr error
}

// Error implements the error interface
func (e *HttpError) Error() string {
	if e == nil {
		return "no error"
	}

	var typeStr string
	switch e.Type {
	case ErrorTransport:
		typeStr = fmt.Sprintf("Transport error: %s", e.TransportErr.Error())
	case ErrorParse:
		typeStr = fmt.Sprintf("Parse error: %s", e.ParseErr.Error())
	case ErrorInvalidArgument:
		typeStr = "Invalid argument"
	default:
		typeStr = "Unknown error"
	}

	if e.Message != "" {
		typeStr = fmt.Sprintf("%s: %s", typeStr, e.Message)
	}

	if e.UnderlyingErr != nil {
		return fmt.Sprintf("%s (caused by: %v)", typeStr, e.UnderlyingErr)
	}

	return typeStr
}

// Unwrap returns the underlying error for error chain support
func (e *HttpError) Unwrap() error {
	return e.UnderlyingErr
}

// Is lets errors.Is match a bare TransportError or ParseError kind
func (e *HttpError) Is(target error) bool {
	switch t := target.(type) {
	case TransportError:
		return e.Type == ErrorTransport && e.TransportErr == t
	case ParseError:
		return e.Type == ErrorParse && e.ParseErr == t
	}
	return false
}

// NewTransportError creates a new transport error
func NewTransportError(err TransportError, message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorTransport,
		TransportErr:  err,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

// NewParseError creates a new parse error
func NewParseError(err ParseError, message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorParse,
		ParseErr:      err,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

// NewInvalidArgumentError creates a new invalid argument error
func NewInvalidArgumentError(message string) *HttpError {
	return &HttpError{
		Type:    ErrorInvalidArgument,
		Message: message,
	}
}

// TransportKind extracts the transport error kind from err, if any
func TransportKind(err error) (TransportError, bool) {
	httpErr, ok := err.(*HttpError)
	if !ok || httpErr.Type != ErrorTransport {
		return TransportErrorNone, false
	}
	return httpErr.TransportErr, true
}

// IsListenerClosed reports whether err means the listener was closed
func IsListenerClosed(err error) bool {
	kind, ok := TransportKind(err)
	return ok && kind == TransportErrorListenerClosed
}

// IsConnectionClosed reports whether err means the peer went away
func IsConnectionClosed(err error) bool {
	kind, ok := TransportKind(err)
	return ok && kind == TransportErrorConnectionClosed
}
