package dhi

import (
	"io"

	"github.com/msto63/bes/internal/beserr"
)

// ResponseHandler builds and sends one kind of response. A new instance is
// created per request and exclusively owns the response it builds.
type ResponseHandler interface {
	// Name is the action the handler answers
	Name() string
	// Execute builds the response or changes server state
	Execute(d *ExecutionContext) error
	// Transmit sends what Execute built
	Transmit(t Transmitter, d *ExecutionContext) error
	// Response returns the response object, nil before Execute
	Response() any
}

// Response is a payload that can render itself
type Response interface {
	WriteTo(w io.Writer) (int64, error)
}

// Transmitter sends responses back to the client, one method per kind
type Transmitter interface {
	SendText(r Response, d *ExecutionContext) error
	SendHTML(r Response, d *ExecutionContext) error
	SendDAS(r Response, d *ExecutionContext) error
	SendDDS(r Response, d *ExecutionContext) error
	SendData(r Response, d *ExecutionContext) error
	SendDDX(r Response, d *ExecutionContext) error
	SendError(info *beserr.ErrorInfo, d *ExecutionContext) error
}

// Attr is a name/value attribute of an info tag
type Attr struct {
	Name  string
	Value string
}

// InfoBuilder is the structured text sink stores write their listings to
type InfoBuilder interface {
	BeginTag(name string, attrs ...Attr)
	AddTag(name, value string, attrs ...Attr)
	EndTag(name string)
	AddData(s string)
}
