package livestatus

import (
	"fmt"
	"io"
)

// ResponseCode is the status reported in a fixed16 response header.
type ResponseCode int

const (
	CodeOK                ResponseCode = 200
	CodeBadRequest        ResponseCode = 400
	CodeNotFound          ResponseCode = 404
	CodePayloadTooLarge   ResponseCode = 413
	CodeIncompleteRequest ResponseCode = 451
	CodeInvalidRequest    ResponseCode = 452
	CodeBadGateway        ResponseCode = 502
)

// ResponseHeader selects the response envelope.
type ResponseHeader int

const (
	ResponseHeaderOff ResponseHeader = iota
	ResponseHeaderFixed16
)

// OutputBuffer collects the body of one response together with its status.
// Only the last error set is reported.
type OutputBuffer struct {
	Header  ResponseHeader
	code    ResponseCode
	message string
}

// SetError records an error; a later call overwrites an earlier one.
func (o *OutputBuffer) SetError(code ResponseCode, format string, args ...any) {
	o.code = code
	o.message = fmt.Sprintf(format, args...)
}

func (o *OutputBuffer) Code() ResponseCode {
	if o.code == 0 {
		return CodeOK
	}
	return o.code
}

func (o *OutputBuffer) Message() string { return o.message }

func (o *OutputBuffer) HasError() bool { return o.Code() != CodeOK }

// Flush writes body in the response envelope. With fixed16 headers an error
// replaces the body; without, the error message is appended to what was
// rendered before the failure.
func (o *OutputBuffer) Flush(w io.Writer, body []byte) (int, error) {
	if o.HasError() {
		if o.Header == ResponseHeaderFixed16 {
			body = nil
		}
		body = append(body, o.message...)
		body = append(body, '\n')
	}
	if o.Header == ResponseHeaderFixed16 {
		header := fmt.Sprintf("%3d %11d\n", o.Code(), len(body))
		if _, err := io.WriteString(w, header); err != nil {
			return 0, err
		}
	}
	return w.Write(body)
}
