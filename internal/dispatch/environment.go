// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     dispatch
// Description: Server environment and the request interface
// License:     MIT
// ============================================================================

// Package dispatch drives a BES request from its raw text (legacy commands
// or an XML document) to the transmitted response.
package dispatch

import (
	"errors"
	"time"

	"github.com/msto63/bes/internal/aggregation"
	"github.com/msto63/bes/internal/command"
	"github.com/msto63/bes/internal/container"
	"github.com/msto63/bes/internal/datahandler/csvhandler"
	"github.com/msto63/bes/internal/definition"
	"github.com/msto63/bes/internal/dhi"
	"github.com/msto63/bes/internal/keys"
	"github.com/msto63/bes/internal/reporter"
	"github.com/msto63/bes/internal/request"
	"github.com/msto63/bes/internal/response"
	"github.com/msto63/bes/internal/transmit"
	"github.com/msto63/bes/internal/xmlcommand"
	"github.com/msto63/bes/pkg/core/health"
	"github.com/msto63/bes/pkg/core/logging"
)

// statusCheckTimeout bounds the health checks of show status
const statusCheckTimeout = 5 * time.Second

// Options configures a new Environment
type Options struct {
	// Keys is the configuration; nil means no keys are set
	Keys   *keys.Keys
	Logger *logging.Logger
	// ReportDB is the SQLite file request records are written to. Empty
	// disables the SQLite reporter.
	ReportDB string
}

// Environment is the set of registries one server process shares between
// all of its requests. It is built once at startup and closed on shutdown.
type Environment struct {
	Keys         *keys.Keys
	Commands     *command.Registry
	XMLCommands  *xmlcommand.Registry
	Responses    *response.Registry
	Requests     *request.List
	Containers   *container.List
	Definitions  *definition.List
	Aggregations *aggregation.Registry
	Reporters    *reporter.List
	Contexts     *dhi.ContextManager
	Health       *health.Registry
	Logger       *logging.Logger
	Started      time.Time

	basic    *transmit.Basic
	xml      *transmit.XML
	sessions *sessions
}

// NewEnvironment builds the registries, registers every built-in command,
// response handler and aggregation, and opens the configured stores.
func NewEnvironment(opts Options) (*Environment, error) {
	if opts.Keys == nil {
		opts.Keys = keys.Empty()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	env := &Environment{
		Keys:         opts.Keys,
		Requests:     request.NewList(),
		Containers:   container.NewList(opts.Keys, opts.Logger),
		Definitions:  definition.NewList(opts.Keys, opts.Logger),
		Aggregations: aggregation.NewRegistry(),
		Reporters:    reporter.NewList(),
		Contexts:     dhi.NewContextManager(),
		Health:       health.NewRegistry(statusCheckTimeout),
		Logger:       opts.Logger,
		Started:      time.Now(),
		sessions:     newSessions(),
	}

	if err := env.Containers.AddConfigured(); err != nil {
		env.Close()
		return nil, err
	}
	if err := env.Definitions.AddConfigured(); err != nil {
		env.Close()
		return nil, err
	}

	env.Responses = response.NewRegistry(&response.Deps{
		Requests:    env.Requests,
		Containers:  env.Containers,
		Definitions: env.Definitions,
		Contexts:    env.Contexts,
		Keys:        env.Keys,
		Health:      env.Health,
		Logger:      env.Logger,
		Started:     env.Started,
	})
	response.RegisterBuiltins(env.Responses)

	env.Commands = command.NewRegistry(env.Responses, env.Containers, env.Logger)
	if err := command.RegisterBuiltins(env.Commands); err != nil {
		env.Close()
		return nil, err
	}
	env.XMLCommands = xmlcommand.NewRegistry()
	if err := xmlcommand.RegisterBuiltins(env.XMLCommands); err != nil {
		env.Close()
		return nil, err
	}

	env.Aggregations.Add("join", aggregation.Join)

	if env.Keys.GetBool(keys.CSVEnabled, true) {
		csvh := csvhandler.New(env.Keys)
		env.Requests.Add(csvh)
		env.Health.Register(csvh.CacheCheck())
	}

	env.Reporters.Add("log", reporter.NewLogReporter(env.Logger))
	if opts.ReportDB != "" {
		db, err := reporter.NewSQLiteReporter(opts.ReportDB)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.Reporters.Add("sqlite", db)
		env.Health.Register(health.PingCheck("request-database", db.Ping))
	}

	env.Health.Register(health.CountCheck("container-stores", env.Containers.Len, 1))
	env.Health.Register(health.CountCheck("definition-stores", env.Definitions.Len, 1))
	env.Health.Register(health.CountCheck("data-handlers", func() int {
		return len(env.Requests.Handlers())
	}, 0))

	admin, _ := env.Keys.GetValue(keys.ServerAdministrator)
	env.basic = transmit.NewBasic(admin)
	env.xml = transmit.NewXML(admin)

	env.Logger.Component("dispatch").Info("environment ready",
		"container_stores", env.Containers.Names(),
		"definition_stores", env.Definitions.Names(),
		"data_handlers", env.Requests.Names(),
		"reporters", env.Reporters.Names())
	return env, nil
}

// ContextsFor returns the "set context" settings of a client origin.
// Requests without an origin share Contexts.
func (e *Environment) ContextsFor(origin string) *dhi.ContextManager {
	if origin == "" {
		return e.Contexts
	}
	return e.sessions.get(origin)
}

// XMLDeps returns what XML commands need from the environment
func (e *Environment) XMLDeps() *xmlcommand.Deps {
	return &xmlcommand.Deps{
		Responses:  e.Responses,
		Containers: e.Containers,
		Logger:     e.Logger.Component("xml-interface"),
	}
}

// Close releases every store and reporter
func (e *Environment) Close() error {
	var errs []error
	if e.Reporters != nil {
		errs = append(errs, e.Reporters.Close())
	}
	if e.Definitions != nil {
		errs = append(errs, e.Definitions.Close())
	}
	if e.Containers != nil {
		errs = append(errs, e.Containers.Close())
	}
	return errors.Join(errs...)
}
