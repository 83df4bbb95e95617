package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// NativeError is a failure reported through a bridge's failure callback.
type NativeError struct {
	Message string

	// Code is the native error code. It is only meaningful when HasCode is set,
	// since native layers omit it for some failures.
	Code    int
	HasCode bool

	// Text and Response carry the billing library's own result description
	// when the native layer attached one.
	Text     string
	Response *int

	// Payload is the undecoded failure payload.
	Payload json.RawMessage
}

// Error returns the native message verbatim. The code is available through
// ErrorCode.
func (e *NativeError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.HasCode:
		return fmt.Sprintf("native error (code %d)", e.Code)
	case len(e.Payload) > 0:
		return fmt.Sprintf("native error: %s", e.Payload)
	default:
		return "native error"
	}
}

// ErrorCode returns the native code of e.
func (e *NativeError) ErrorCode() (int, bool) {
	return e.Code, e.HasCode
}

// ErrorCode returns the native error code carried by err, looking through
// wrapping. ok is false when err is not a native failure or the native layer
// did not supply a code.
func ErrorCode(err error) (code int, ok bool) {
	var nerr *NativeError
	if !errors.As(err, &nerr) {
		return 0, false
	}
	return nerr.ErrorCode()
}

type errorPayload struct {
	Code     *int   `json:"code"`
	Message  string `json:"message"`
	Text     string `json:"text"`
	Response *int   `json:"response"`
}

// newNativeError builds the typed error for a failure payload. The payload is
// either an error object, a bare string, or anything else (kept raw).
func newNativeError(payload []byte) *NativeError {
	nerr := &NativeError{}
	if len(payload) > 0 {
		nerr.Payload = append(json.RawMessage(nil), payload...)
	}

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nerr
	}

	switch trimmed[0] {
	case '{':
		var p errorPayload
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return nerr
		}
		nerr.Message = p.Message
		nerr.Text = p.Text
		nerr.Response = p.Response
		if p.Code != nil {
			nerr.Code = *p.Code
			nerr.HasCode = true
		}
	case '"':
		var msg string
		if err := json.Unmarshal(trimmed, &msg); err == nil {
			nerr.Message = msg
		}
	}

	return nerr
}
