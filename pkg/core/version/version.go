// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     version
// Description: Central version management for the server and its modules
// License:     MIT
// ============================================================================

package version

// Version constants
const (
	// Server version
	Server = "1.0.0"

	// Module versions
	Dispatch = "1.0.0"
	CSV      = "1.0.0"
	Client   = "1.0.0"
)

// DAPProtocols lists the DAP protocol versions the server answers for
var DAPProtocols = []string{"2.0", "3.2", "4.0"}

// ServiceVersion returns the version for a given module name
func ServiceVersion(name string) string {
	switch name {
	case "dispatch":
		return Dispatch
	case "csv":
		return CSV
	case "client":
		return Client
	default:
		return Server
	}
}
