package errors

import (
	stderrors "errors"
	"io"
	"strings"
	"testing"
)

func TestParseError_Messages(t *testing.T) {
	cases := map[ParseError]string{
		InvalidRequest:  "Invalid Request",
		InvalidEncoding: "Invalid Encoding",
		InvalidProtocol: "Invalid Protocol",
		InvalidMethod:   "Invalid Method",
	}
	for kind, want := range cases {
		if got := kind.Error(); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
	if got := ParseError(99).Error(); !strings.Contains(got, "99") {
		t.Errorf("Expected unknown kind to mention its value, got %q", got)
	}
}

func TestParseError_ComparesDirectly(t *testing.T) {
	var err error = InvalidProtocol
	if !stderrors.Is(err, InvalidProtocol) {
		t.Error("Expected errors.Is to match a bare ParseError")
	}
	if stderrors.Is(err, InvalidMethod) {
		t.Error("Expected different kinds not to match")
	}
}

func TestMethodError(t *testing.T) {
	err := &MethodError{Token: "BREW"}
	if !strings.Contains(err.Error(), "BREW") {
		t.Errorf("Expected message to name the token, got %q", err.Error())
	}
	if err.ParseError() != InvalidMethod {
		t.Errorf("Expected InvalidMethod, got %v", err.ParseError())
	}
}

func TestHttpError_Error(t *testing.T) {
	err := NewTransportError(TransportErrorSocketBindFailure, "127.0.0.1:80", io.EOF)
	want := "Transport error: Socket bind failed: 127.0.0.1:80 (caused by: EOF)"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}

	parse := NewParseError(InvalidEncoding, "", nil)
	if parse.Error() != "Parse error: Invalid Encoding" {
		t.Errorf("Expected parse message, got %q", parse.Error())
	}

	arg := NewInvalidArgumentError("bad root")
	if arg.Error() != "Invalid argument: bad root" {
		t.Errorf("Expected invalid argument message, got %q", arg.Error())
	}

	var nilErr *HttpError
	if nilErr.Error() != "no error" {
		t.Errorf("Expected nil receiver to be safe, got %q", nilErr.Error())
	}
}

func TestHttpError_UnwrapAndIs(t *testing.T) {
	err := NewTransportError(TransportErrorSocketReadFailure, "", io.ErrUnexpectedEOF)

	if !stderrors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("Expected errors.Is to reach the underlying error")
	}
	if !stderrors.Is(err, TransportErrorSocketReadFailure) {
		t.Error("Expected errors.Is to match the transport kind")
	}
	if stderrors.Is(err, TransportErrorSocketWriteFailure) {
		t.Error("Expected other transport kinds not to match")
	}

	parse := NewParseError(InvalidRequest, "", nil)
	if !stderrors.Is(parse, InvalidRequest) {
		t.Error("Expected errors.Is to match the parse kind")
	}
	if stderrors.Is(parse, TransportErrorNone) {
		t.Error("Expected a parse error not to match a transport kind")
	}
}

func TestTransportKind(t *testing.T) {
	kind, ok := TransportKind(NewTransportError(TransportErrorConnectionClosed, "", nil))
	if !ok || kind != TransportErrorConnectionClosed {
		t.Errorf("Expected ConnectionClosed, got %v (ok=%v)", kind, ok)
	}

	if _, ok := TransportKind(io.EOF); ok {
		t.Error("Expected no transport kind for a foreign error")
	}
	if _, ok := TransportKind(NewParseError(InvalidRequest, "", nil)); ok {
		t.Error("Expected no transport kind for a parse error")
	}

	if !IsListenerClosed(NewTransportError(TransportErrorListenerClosed, "", nil)) {
		t.Error("Expected IsListenerClosed to match")
	}
	if IsListenerClosed(NewTransportError(TransportErrorSocketAcceptFailure, "", nil)) {
		t.Error("Expected accept failure not to be a closed listener")
	}
	if !IsConnectionClosed(NewTransportError(TransportErrorConnectionClosed, "", nil)) {
		t.Error("Expected IsConnectionClosed to match")
	}
}
