// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     dhi
// Description: Execution context, containers and handler interfaces
// License:     MIT
// ============================================================================

// Package dhi holds the execution plan threaded through parsing, execution
// and transmission of a BES request, along with the containers it selects.
package dhi

// Keys of ExecutionContext.Data
const (
	StoreName          = "store_name"
	SymbolicName       = "symbolic_name"
	RealName           = "real_name"
	ContainerType      = "container_type"
	DefName            = "def_name"
	AggregationHandler = "aggregation_handler"
	AggregationCommand = "aggregation_command"
	RealNameList       = "real_name_list"
	ReturnCommand      = "return_command"
	ContextName        = "context_name"
	ContextValue       = "context_value"
	ShowErrorType      = "show_error_type"
	Silent             = "silent"
	LogInfo            = "log_info"
	URL                = "url"
	ContentStartID     = "content_start_id"
	MimeBoundary       = "mime_boundary"
	RequestID          = "request_id"
	DefaultConstraint  = "default_constraint"
)

// Transport protocols
const (
	ProtocolText = "text"
	ProtocolXML  = "xml"
)

// DefaultStore is the store used when a command names none.
const DefaultStore = "default"
