// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     dispatch
// Description: Staged execution of legacy and XML requests
// License:     MIT
// ============================================================================

package dispatch

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	mdwerror "github.com/msto63/bes/foundation/core/error"
	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/command"
	"github.com/msto63/bes/internal/dhi"
	"github.com/msto63/bes/internal/xmlcommand"
	"github.com/msto63/bes/pkg/core/logging"
)

// Request is one request as received by a transport
type Request struct {
	// Command is a single legacy command, or an XML request document when
	// XML is set
	Command   string
	XML       bool
	Origin    string
	RequestID string
	Output    io.Writer
	// Format selects the response encoding of a legacy command: "text"
	// (the default) or "xml". XML documents are always answered in XML.
	Format string
}

// Result is the outcome of a request
type Result struct {
	RequestID string
	Status    int
	Err       error
	Fatal     bool
	Duration  time.Duration
}

// Interface runs requests against an Environment. It is safe for
// concurrent use; each request gets its own execution context.
type Interface struct {
	env    *Environment
	logger *logging.Logger
}

// NewInterface creates a driver over env
func NewInterface(env *Environment) *Interface {
	return &Interface{env: env, logger: env.Logger.Component("dispatch")}
}

// Execute runs req through initialize, validate, build_plan,
// execute_plan, invoke_aggregation, transmit, log_status, report_request
// and clean. A failure in any stage becomes an error response and the
// remaining stages from transmit on still run.
func (i *Interface) Execute(ctx context.Context, req Request) *Result {
	d := i.initialize(ctx, req)
	if req.XML {
		return i.executeXML(d, req)
	}

	err := i.validate(req)
	if err == nil {
		err = i.buildPlan(d, req.Command)
	}
	if err == nil {
		err = i.executePlan(d)
	}
	if err == nil {
		err = i.invokeAggregation(d)
	}
	return i.finish(d, err)
}

// executeXML runs the commands of one document. Every command is executed
// in order before anything is sent; the first failure stops execution and
// is answered with an error document. Otherwise only the response of the
// command flagged as producing one is sent, or an acknowledgment when no
// command is. The stages from log_status on run for each executed command.
func (i *Interface) executeXML(d *dhi.ExecutionContext, req Request) *Result {
	err := i.validate(req)
	var cmds []xmlcommand.XMLCommand
	if err == nil {
		cmds, err = i.buildXMLPlan(d, req.Command)
	}
	if err != nil {
		return i.finish(d, err)
	}

	ran := make([]*dhi.ExecutionContext, 0, len(cmds))
	var sender *dhi.ExecutionContext
	for _, cmd := range cmds {
		cd := cmd.Context()
		ran = append(ran, cd)
		err = i.executePlan(cd)
		if err == nil {
			err = i.invokeAggregation(cd)
		}
		if err != nil {
			cd.Error = beserr.NewInfo(err)
			sender = cd
			break
		}
		if cmd.HasResponse() && sender == nil {
			sender = cd
		}
	}

	var ackErr error
	if sender != nil {
		err = i.send(sender, err)
	} else if ackErr = i.env.xml.Ack(d); ackErr != nil {
		i.logger.Error("acknowledgment failed", "request_id", d.Transport.RequestID, "error", ackErr.Error())
	}

	var res *Result
	for _, cd := range ran {
		var cerr error
		if cd == sender {
			cerr = err
		}
		r := i.complete(cd, cerr)
		if cd == sender || sender == nil {
			res = r
		}
	}
	if ackErr != nil {
		res.Err = ackErr
		res.Status = beserr.Status(ackErr)
	}
	return res
}

func (i *Interface) initialize(ctx context.Context, req Request) *dhi.ExecutionContext {
	id := req.RequestID
	if id == "" {
		id = uuid.NewString()
	}
	transport := dhi.Transport{Origin: req.Origin, RequestID: id, Protocol: dhi.ProtocolText}
	if req.XML || strings.EqualFold(req.Format, "xml") {
		transport.Protocol = dhi.ProtocolXML
	}
	d := dhi.NewExecutionContext(ctx, transport, req.Output)
	d.Settings = i.env.ContextsFor(req.Origin)
	return d
}

func (i *Interface) validate(req Request) error {
	if strings.TrimSpace(req.Command) == "" {
		return beserr.SyntaxUser("The request is empty")
	}
	if req.Output == nil {
		return beserr.Internal("No output stream for the request")
	}
	switch strings.ToLower(req.Format) {
	case "", "text", "xml":
		return nil
	default:
		return beserr.SyntaxUser("Unknown response format '%s'", req.Format)
	}
}

func (i *Interface) buildPlan(d *dhi.ExecutionContext, raw string) error {
	d.Set(dhi.LogInfo, raw)
	i.logger.ForRequest(d.Transport.RequestID, d.Transport.Origin).Info("request received", "command", raw)
	h, err := command.Parse(i.env.Commands, raw, d)
	if err != nil {
		return err
	}
	if h == nil {
		return beserr.Handler("The command did not produce a response handler")
	}
	return nil
}

func (i *Interface) buildXMLPlan(d *dhi.ExecutionContext, raw string) ([]xmlcommand.XMLCommand, error) {
	doc, err := xmlcommand.ParseDocument(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return xmlcommand.Plan(i.env.XMLCommands, i.env.XMLDeps(), doc, d)
}

func (i *Interface) executePlan(d *dhi.ExecutionContext) error {
	if d.ResponseHandler == nil {
		return beserr.Handler("No response handler was selected for '%s'", d.Action)
	}
	return d.ResponseHandler.Execute(d)
}

func (i *Interface) invokeAggregation(d *dhi.ExecutionContext) error {
	return i.env.Aggregations.Invoke(d)
}

// finish runs transmit, log_status, report_request and clean for d,
// converting err into the context's error info first.
func (i *Interface) finish(d *dhi.ExecutionContext, err error) *Result {
	if err != nil {
		d.Error = beserr.NewInfo(err)
	}
	return i.complete(d, i.send(d, err))
}

// send transmits d. A transmit failure is returned when err is nil.
func (i *Interface) send(d *dhi.ExecutionContext, err error) error {
	terr := i.transmit(d)
	if terr == nil {
		return err
	}
	i.logger.Error("transmit failed",
		"request_id", d.Transport.RequestID,
		"action", d.Action,
		"error", terr.Error())
	if err == nil {
		d.Error = beserr.NewInfo(terr)
		return terr
	}
	return err
}

// complete runs log_status, report_request and clean for d
func (i *Interface) complete(d *dhi.ExecutionContext, err error) *Result {
	i.logStatus(d)
	i.report(d)

	res := &Result{
		RequestID: d.Transport.RequestID,
		Err:       err,
		Duration:  d.Duration(),
	}
	if d.Error != nil {
		res.Status = d.Error.Status
		res.Fatal = d.Error.Fatal
	}
	i.clean(d)
	return res
}

func (i *Interface) transmit(d *dhi.ExecutionContext) error {
	var t dhi.Transmitter = i.env.basic
	if d.IsXML() {
		t = i.env.xml
	}
	if d.Error != nil {
		return t.SendError(d.Error, d)
	}
	return d.ResponseHandler.Transmit(t, d)
}

func (i *Interface) logStatus(d *dhi.ExecutionContext) {
	log := i.logger.ForRequest(d.Transport.RequestID, d.Transport.Origin)
	kv := []interface{}{
		"action", d.Action,
		"duration", d.Duration().String(),
	}
	if d.Error == nil {
		log.Info("request completed", append(kv, "status", "completed")...)
		return
	}
	kv = append(kv,
		"status", "failed",
		"error_type", d.Error.Type,
		"severity", mdwerror.GetSeverityFromCode(d.Error.Code).String(),
		"error", d.Error.Detail)
	switch {
	case d.Error.Fatal:
		log.Error("request failed", append(kv, "fatal", true, "file", d.Error.File, "line", d.Error.Line)...)
	case d.Error.Code.UserFacing():
		log.Warn("request failed", kv...)
	default:
		log.Error("request failed", append(kv, "file", d.Error.File, "line", d.Error.Line)...)
	}
}

func (i *Interface) report(d *dhi.ExecutionContext) {
	if err := i.env.Reporters.ReportAll(d); err != nil {
		i.logger.Warn("request report failed", "request_id", d.Transport.RequestID, "error", err.Error())
	}
}

func (i *Interface) clean(d *dhi.ExecutionContext) {
	d.ResponseHandler = nil
	d.Containers = nil
}
