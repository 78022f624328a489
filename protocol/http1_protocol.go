package protocol

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
	"unsafe"

	"github.com/nczempin/httpd-go-uring/errors"
)

const protocolVersion = "HTTP/1.1"

var headerSeparator = []byte("\r\n\r\n")

// ParseRequestUnsafe parses the request line in buf without copying.
// The returned Request references buf directly and is only valid while buf
// is left untouched.
func ParseRequestUnsafe(buf []byte) (*Request, error) {
	if !utf8.Valid(buf) {
		return nil, errors.InvalidEncoding
	}
	if len(buf) == 0 {
		return nil, errors.InvalidRequest
	}
	return parseRequestLine(unsafe.String(unsafe.SliceData(buf), len(buf)))
}

// ParseRequest parses the request line in buf into a Request that owns its
// memory
func ParseRequest(buf []byte) (*Request, error) {
	if !utf8.Valid(buf) {
		return nil, errors.InvalidEncoding
	}
	return parseRequestLine(string(buf))
}

// parseRequestLine consumes `<METHOD> <path>[?<query>] HTTP/1.1`, the
// text up to the first CR or LF. Words are separated by single spaces;
// anything after the third word and everything after the line is ignored.
func parseRequestLine(text string) (*Request, error) {
	end := strings.IndexAny(text, "\r\n")
	if end < 0 {
		// an unterminated line may have been cut off
		return nil, errors.InvalidRequest
	}
	line := text[:end]

	method, rest := nextWord(line)
	target, rest := nextWord(rest)
	proto, _ := nextWord(rest)
	if method == "" || target == "" || proto == "" {
		return nil, errors.InvalidRequest
	}

	if proto != protocolVersion {
		return nil, errors.InvalidProtocol
	}

	m, err := ParseMethod(method)
	if err != nil {
		return nil, err.(*errors.MethodError).ParseError()
	}

	req := &Request{method: m, path: target}
	if idx := strings.IndexByte(target, '?'); idx >= 0 {
		req.path = target[:idx]
		req.query = ParseQuery(target[idx+1:])
	}

	if !strings.HasPrefix(req.path, "/") {
		return nil, errors.InvalidRequest
	}

	return req, nil
}

// nextWord splits line at its first space. A missing word comes back empty.
func nextWord(line string) (string, string) {
	if i := strings.IndexByte(line, ' '); i >= 0 {
		return line[:i], line[i+1:]
	}
	return line, ""
}

// Send writes the response as `HTTP/1.1 <code> <reason>\r\n\r\n<body>`.
// No headers are emitted.
func (r *Response) Send(w io.Writer) error {
	reason := r.StatusCode.ReasonPhrase()
	buf := make([]byte, 0, len(protocolVersion)+len(reason)+len(r.Body)+10)

	buf = append(buf, protocolVersion...)
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, int64(r.StatusCode), 10)
	buf = append(buf, ' ')
	buf = append(buf, reason...)
	buf = append(buf, headerSeparator...)
	buf = append(buf, r.Body...)

	n, err := w.Write(buf)
	if err != nil {
		return err
	}
	if n < len(buf) {
		return io.ErrShortWrite
	}
	return nil
}

// BuildRequest formats a bare request line followed by the blank line
func BuildRequest(method Method, target string) []byte {
	buf := make([]byte, 0, len(target)+len(protocolVersion)+16)
	buf = append(buf, method.String()...)
	buf = append(buf, ' ')
	buf = append(buf, target...)
	buf = append(buf, ' ')
	buf = append(buf, protocolVersion...)
	buf = append(buf, headerSeparator...)
	return buf
}

// StatusLine is the parsed status line of a response
type StatusLine struct {
	StatusCode int
	Reason     string
}

// ParseResponse splits a raw response into its status line and body.
// The body is everything after the first blank line.
func ParseResponse(raw []byte) (*StatusLine, []byte, error) {
	pos := bytes.Index(raw, headerSeparator)
	if pos < 0 {
		return nil, nil, errors.NewInvalidArgumentError("no header separator in response")
	}

	head := raw[:pos]
	if nl := bytes.IndexByte(head, '\n'); nl >= 0 {
		head = bytes.TrimSuffix(head[:nl], []byte("\r"))
	}

	parts := bytes.SplitN(head, []byte(" "), 3)
	if len(parts) < 2 || string(parts[0]) != protocolVersion {
		return nil, nil, errors.NewInvalidArgumentError(fmt.Sprintf("invalid status line %q", head))
	}

	code, err := strconv.Atoi(string(parts[1]))
	if err != nil {
		return nil, nil, errors.NewInvalidArgumentError(fmt.Sprintf("invalid status code: %s", parts[1]))
	}

	status := &StatusLine{StatusCode: code}
	if len(parts) == 3 {
		status.Reason = string(parts[2])
	}

	return status, raw[pos+len(headerSeparator):], nil
}
