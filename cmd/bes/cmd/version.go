package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msto63/bes/pkg/core/version"
)

var (
	GitCommit = "development"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("BES v%s\n", version.Server)
		fmt.Printf("  Dispatch:   %s\n", version.Dispatch)
		fmt.Printf("  CSV:        %s\n", version.CSV)
		fmt.Printf("  Client:     %s\n", version.Client)
		fmt.Printf("  DAP:        %s\n", strings.Join(version.DAPProtocols, ", "))
		fmt.Printf("  Git Commit: %s\n", GitCommit)
		fmt.Printf("  Build Date: %s\n", BuildDate)
		fmt.Printf("  Go Version: %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
