package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msto63/bes/internal/dispatch"
	"github.com/msto63/bes/internal/tokenizer"
)

var (
	standaloneCommand string
	standaloneFile    string
	standaloneXML     bool
	standaloneFormat  string
)

var standaloneCmd = &cobra.Command{
	Use:   "standalone",
	Short: "Run requests in-process",
	Long: `Builds a server environment in this process, runs the requests and
writes the responses to stdout.

Examples:
  bes standalone -c "set container values c1,data.csv,csv; define d as c1; get dds for d;"
  bes standalone -i request.xml --xml`,
	RunE: runStandalone,
}

func init() {
	rootCmd.AddCommand(standaloneCmd)
	standaloneCmd.Flags().StringVarP(&standaloneCommand, "command", "c", "", "commands to run")
	standaloneCmd.Flags().StringVarP(&standaloneFile, "input", "i", "", "file holding the commands")
	standaloneCmd.Flags().BoolVar(&standaloneXML, "xml", false, "input is an XML request document")
	standaloneCmd.Flags().StringVar(&standaloneFormat, "format", "", "response format of legacy commands (text, xml)")
}

func runStandalone(cmd *cobra.Command, args []string) error {
	input, err := readInput(standaloneCommand, standaloneFile)
	if err != nil {
		return err
	}
	_, env, cleanup, err := newEnvironment("bes-standalone")
	if err != nil {
		return err
	}
	defer cleanup()

	di := dispatch.NewInterface(env)
	ctx := context.Background()

	if standaloneXML {
		res := di.Execute(ctx, dispatch.Request{Command: input, XML: true, Origin: "standalone", Output: os.Stdout})
		if res.Status != 0 {
			return fmt.Errorf("request failed with status %d", res.Status)
		}
		return nil
	}

	cmds, err := tokenizer.Split(input)
	if err != nil {
		return err
	}
	failed := 0
	for _, c := range cmds {
		res := di.Execute(ctx, dispatch.Request{Command: c, Origin: "standalone", Output: os.Stdout, Format: standaloneFormat})
		fmt.Fprintln(os.Stdout)
		if res.Status != 0 {
			failed++
		}
		if res.Fatal {
			return fmt.Errorf("fatal error, remaining commands skipped: %w", res.Err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(cmds))
	}
	return nil
}
