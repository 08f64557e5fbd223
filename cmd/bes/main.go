// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     main
// Description: BES server and client command line
// License:     MIT
// ============================================================================

package main

import (
	"os"

	"github.com/msto63/bes/cmd/bes/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
