// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     cmd
// Description: bes client: commands against a server
// License:     MIT
// ============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msto63/bes/internal/client"
	"github.com/msto63/bes/internal/tui/besclient"
	"github.com/msto63/bes/pkg/core/logging"
)

var (
	clientCommand     string
	clientFile        string
	clientTarget      string
	clientInteractive bool
	clientTranslate   bool
	clientXML         bool
	clientFormat      string
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Send requests to a running server",
	Long: `Sends requests to a BES server over gRPC and prints the responses.

Examples:
  bes client -c "show version;"
  bes client -c "show status;" --xml-translate
  bes client -i request.xml --xml
  bes client --interactive`,
	RunE: runClient,
}

func init() {
	rootCmd.AddCommand(clientCmd)
	clientCmd.Flags().StringVarP(&clientCommand, "command", "c", "", "commands to send")
	clientCmd.Flags().StringVarP(&clientFile, "input", "i", "", "file holding the commands")
	clientCmd.Flags().StringVarP(&clientTarget, "target", "t", "", "server address (overrides the config file)")
	clientCmd.Flags().BoolVar(&clientInteractive, "interactive", false, "start the interactive client")
	clientCmd.Flags().BoolVar(&clientTranslate, "xml-translate", false, "send the commands as one translated XML document")
	clientCmd.Flags().BoolVar(&clientXML, "xml", false, "input is an XML request document")
	clientCmd.Flags().StringVar(&clientFormat, "format", "", "response format of legacy commands (text, xml)")
}

func runClient(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	target := cfg.Client.Target
	if clientTarget != "" {
		target = clientTarget
	}
	logger := logging.Discard()
	if verbose {
		logger = logging.NewWithWriter("bes-client", os.Stderr)
	}

	c, err := client.New(client.Config{
		Target:  target,
		Timeout: cfg.Client.Timeout.Duration,
		Format:  clientFormat,
	}, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if clientInteractive {
		return besclient.Run(c, besclient.Config{
			Target:    target,
			Translate: clientTranslate,
			Timeout:   cfg.Client.Timeout.Duration,
		})
	}

	input, err := readInput(clientCommand, clientFile)
	if err != nil {
		return err
	}
	ctx := context.Background()

	var responses []*client.Response
	switch {
	case clientXML:
		resp, err := c.ExecuteXML(ctx, input)
		if err != nil {
			return err
		}
		responses = append(responses, resp)
	case clientTranslate:
		doc, err := client.Translate(input)
		if err != nil {
			return err
		}
		resp, err := c.ExecuteXML(ctx, doc)
		if err != nil {
			return err
		}
		responses = append(responses, resp)
	default:
		if responses, err = c.ExecuteAll(ctx, input); err != nil {
			return err
		}
	}

	failed := 0
	for _, resp := range responses {
		os.Stdout.Write(resp.Body)
		fmt.Fprintln(os.Stdout)
		if resp.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(responses))
	}
	return nil
}
