package protocol

import (
	"fmt"
	"strconv"

	"github.com/nczempin/httpd-go-uring/errors"
)

// Method represents the HTTP request methods the parser recognizes
type Method int

const (
	MethodGet Method = iota
	MethodDelete
	MethodPost
	MethodPut
	MethodHead
	MethodConnect
	MethodOptions
	MethodTrace
	MethodPatch
)

var methodNames = [...]string{
	MethodGet:     "GET",
	MethodDelete:  "DELETE",
	MethodPost:    "POST",
	MethodPut:     "PUT",
	MethodHead:    "HEAD",
	MethodConnect: "CONNECT",
	MethodOptions: "OPTIONS",
	MethodTrace:   "TRACE",
	MethodPatch:   "PATCH",
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// ParseMethod matches token case-sensitively against the supported verbs
func ParseMethod(token string) (Method, error) {
	for m, name := range methodNames {
		if name == token {
			return Method(m), nil
		}
	}
	return 0, &errors.MethodError{Token: token}
}

// StatusCode is the closed set of response codes the server emits
type StatusCode int

const (
	StatusOk         StatusCode = 200
	StatusBadRequest StatusCode = 400
	StatusNotFound   StatusCode = 404
)

// ReasonPhrase returns the text sent after the code on the status line
func (s StatusCode) ReasonPhrase() string {
	switch s {
	case StatusOk:
		return "Ok"
	case StatusBadRequest:
		return "Bad Request"
	case StatusNotFound:
		return "Not Found"
	default:
		return ""
	}
}

func (s StatusCode) String() string {
	return strconv.Itoa(int(s))
}

// Request represents a parsed request line. Path never includes the query
// fragment and is not URL-decoded.
//
// A Request returned by ParseRequestUnsafe shares memory with the buffer it
// was parsed from; that buffer must not be modified or reused while the
// Request is alive.
type Request struct {
	method Method
	path   string
	query  *QueryString
}

func (r *Request) Method() Method {
	return r.method
}

func (r *Request) Path() string {
	return r.path
}

// Query returns the parsed query parameters, or nil when the request
// target had no '?'
func (r *Request) Query() *QueryString {
	return r.query
}

func (r *Request) String() string {
	if r.query == nil {
		return fmt.Sprintf("%s %s", r.method, r.path)
	}
	return fmt.Sprintf("%s %s (%d query keys)", r.method, r.path, r.query.Len())
}

// Response represents a status code and an optional body.
// A nil Body means no body; Send writes nothing after the blank line.
type Response struct {
	StatusCode StatusCode
	Body       []byte
}

// NewResponse creates a new response
func NewResponse(status StatusCode, body []byte) *Response {
	return &Response{
		StatusCode: status,
		Body:       body,
	}
}

// HasBody reports whether the response carries a body
func (r *Response) HasBody() bool {
	return r.Body != nil
}
