package lsp

import (
	"errors"
	"fmt"
)

// ErrInvalidURI indicates a document URI without a scheme or with invalid syntax.
var ErrInvalidURI = errors.New("invalid document uri")

// URIError reports a URI that could not be parsed.
type URIError struct {
	URI string
	Err error
}

// Error implements the error interface.
func (e *URIError) Error() string {
	return fmt.Sprintf("uri %q: %v", e.URI, e.Err)
}

// Unwrap returns the underlying error.
func (e *URIError) Unwrap() error {
	return e.Err
}

// ResponseError is an LSP response error. Providers return it as a value when
// a request is understood but cannot be satisfied at the given location
// (for example "this symbol cannot be renamed").
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`

	// Name and Stack describe where the error was raised. They are not sent
	// over the wire but survive Clone.
	Name  string `json:"-"`
	Stack string `json:"-"`
}

// NewResponseError creates a response error with the given code and message.
func NewResponseError(code int, message string) *ResponseError {
	return &ResponseError{Code: code, Message: message, Name: "ResponseError"}
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("rpc error %d: %s (data: %v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Clone rebuilds the error as a fresh value carrying the same code, message,
// data, name and stack.
func (e *ResponseError) Clone() *ResponseError {
	if e == nil {
		return nil
	}
	c := NewResponseError(e.Code, e.Message)
	c.Data = e.Data
	c.Name = e.Name
	c.Stack = e.Stack
	return c
}

// Standard JSON-RPC error codes.
const (
	// JSON-RPC standard errors
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// LSP-specific errors
	CodeServerNotInitialized = -32002
	CodeUnknownErrorCode     = -32001
	CodeRequestCancelled     = -32800
	CodeContentModified      = -32801
	CodeServerCancelled      = -32802
	CodeRequestFailed        = -32803
)
