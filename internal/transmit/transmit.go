// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     transmit
// Description: Text and XML transmitters
// License:     MIT
// ============================================================================

// Package transmit sends finished responses back to the client, as plain
// text or wrapped in a BES XML response document.
package transmit

import (
	"bytes"
	"fmt"
	"html"
	"io"

	mdwerror "github.com/msto63/bes/foundation/core/error"
	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/dhi"
)

// Basic writes responses as they render, for text clients
type Basic struct {
	admin string
}

// NewBasic creates a text transmitter. admin is shown with internal errors.
func NewBasic(admin string) *Basic {
	return &Basic{admin: admin}
}

func (b *Basic) SendText(r dhi.Response, d *dhi.ExecutionContext) error {
	return write(r, d)
}

// SendHTML wraps the text in a minimal HTML page
func (b *Basic) SendHTML(r dhi.Response, d *dhi.ExecutionContext) error {
	out, err := output(d)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := r.WriteTo(&buf); err != nil {
		return beserr.Wrap(err, mdwerror.CodeBESInternal, "rendering response")
	}
	_, err = fmt.Fprintf(out, "<html>\n<head><title>BES</title></head>\n<body>\n<pre>\n%s</pre>\n</body>\n</html>\n",
		html.EscapeString(buf.String()))
	return err
}

func (b *Basic) SendDAS(r dhi.Response, d *dhi.ExecutionContext) error {
	return write(r, d)
}

func (b *Basic) SendDDS(r dhi.Response, d *dhi.ExecutionContext) error {
	return write(r, d)
}

func (b *Basic) SendData(r dhi.Response, d *dhi.ExecutionContext) error {
	return write(r, d)
}

func (b *Basic) SendDDX(r dhi.Response, d *dhi.ExecutionContext) error {
	return write(r, d)
}

// SendError writes the error type and message. Internal errors also name
// the server administrator.
func (b *Basic) SendError(info *beserr.ErrorInfo, d *dhi.ExecutionContext) error {
	out, err := output(d)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "BES error: %s\n%s\n", info.Type, info.Message); err != nil {
		return err
	}
	if !info.Code.UserFacing() && b.admin != "" {
		_, err = fmt.Fprintf(out, "Please contact the server administrator at %s\n", b.admin)
	}
	return err
}

func write(r dhi.Response, d *dhi.ExecutionContext) error {
	out, err := output(d)
	if err != nil {
		return err
	}
	_, err = r.WriteTo(out)
	return err
}

func output(d *dhi.ExecutionContext) (io.Writer, error) {
	if d.Output == nil {
		return nil, beserr.Internal("No output stream for request %s", d.Transport.RequestID)
	}
	return d.Output, nil
}
