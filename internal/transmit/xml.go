// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     transmit
// Description: XML transmitter
// License:     MIT
// ============================================================================

package transmit

import (
	"bytes"
	"encoding/xml"
	"io"

	mdwerror "github.com/msto63/bes/foundation/core/error"
	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/dhi"
	"github.com/msto63/bes/internal/response"
)

// XML sends every response inside a <response reqID="..."> document
type XML struct {
	admin string
}

// NewXML creates an XML transmitter. admin is shown with every error.
func NewXML(admin string) *XML {
	return &XML{admin: admin}
}

// SendText writes XML infos as is; any other text is wrapped
func (x *XML) SendText(r dhi.Response, d *dhi.ExecutionContext) error {
	if info, ok := r.(*response.Info); ok && info.IsXML() {
		out, err := output(d)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(out, xml.Header); err != nil {
			return err
		}
		_, err = info.WriteTo(out)
		return err
	}
	return x.wrap("text", r, d)
}

// SendHTML sends help as text; XML clients do not render HTML
func (x *XML) SendHTML(r dhi.Response, d *dhi.ExecutionContext) error {
	return x.SendText(r, d)
}

func (x *XML) SendDAS(r dhi.Response, d *dhi.ExecutionContext) error {
	return x.wrap("das", r, d)
}

func (x *XML) SendDDS(r dhi.Response, d *dhi.ExecutionContext) error {
	return x.wrap("dds", r, d)
}

func (x *XML) SendData(r dhi.Response, d *dhi.ExecutionContext) error {
	return x.wrap("dods", r, d)
}

func (x *XML) SendDDX(r dhi.Response, d *dhi.ExecutionContext) error {
	return x.wrap("ddx", r, d)
}

type xmlError struct {
	Type          int    `xml:"Type"`
	Message       string `xml:"Message"`
	Administrator string `xml:"Administrator,omitempty"`
}

type xmlResponse struct {
	XMLName xml.Name  `xml:"response"`
	NS      string    `xml:"xmlns,attr"`
	ReqID   string    `xml:"reqID,attr"`
	Error   *xmlError `xml:"BESError,omitempty"`
}

// SendError writes a BESError document carrying the status and message.
// File and line never leave the server.
func (x *XML) SendError(info *beserr.ErrorInfo, d *dhi.ExecutionContext) error {
	return x.encode(xmlResponse{
		NS:    response.Namespace,
		ReqID: d.Transport.RequestID,
		Error: &xmlError{Type: info.Status, Message: info.Message, Administrator: x.admin},
	}, d)
}

// Ack writes an empty response document for a request that produced no
// response.
func (x *XML) Ack(d *dhi.ExecutionContext) error {
	return x.encode(xmlResponse{NS: response.Namespace, ReqID: d.Transport.RequestID}, d)
}

func (x *XML) encode(v xmlResponse, d *dhi.ExecutionContext) error {
	out, err := output(d)
	if err != nil {
		return err
	}
	b, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return beserr.Wrap(err, mdwerror.CodeBESInternal, "encoding response document")
	}
	return writeDocument(out, b)
}

// wrap renders r and embeds it as the text of a <kind> element
func (x *XML) wrap(kind string, r dhi.Response, d *dhi.ExecutionContext) error {
	out, err := output(d)
	if err != nil {
		return err
	}
	var body bytes.Buffer
	if _, err := r.WriteTo(&body); err != nil {
		return beserr.Wrap(err, mdwerror.CodeBESInternal, "rendering response")
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	root := xml.StartElement{
		Name: xml.Name{Local: "response"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: response.Namespace},
			{Name: xml.Name{Local: "reqID"}, Value: d.Transport.RequestID},
		},
	}
	el := xml.StartElement{Name: xml.Name{Local: kind}}
	tokens := []xml.Token{root, el, xml.CharData(body.Bytes()), el.End(), root.End()}
	for _, t := range tokens {
		if err := enc.EncodeToken(t); err != nil {
			return beserr.Wrap(err, mdwerror.CodeBESInternal, "encoding response document")
		}
	}
	if err := enc.Flush(); err != nil {
		return beserr.Wrap(err, mdwerror.CodeBESInternal, "encoding response document")
	}
	return writeDocument(out, buf.Bytes())
}

func writeDocument(out io.Writer, b []byte) error {
	if _, err := io.WriteString(out, xml.Header); err != nil {
		return err
	}
	if _, err := out.Write(b); err != nil {
		return err
	}
	_, err := io.WriteString(out, "\n")
	return err
}
