package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msto63/bes/internal/client"
)

var (
	translateCommand string
	translateFile    string
)

var translateCmd = &cobra.Command{
	Use:   "translate [commands]",
	Short: "Translate legacy commands into an XML request document",
	Example: `  bes translate "set container values c1,data.csv,csv; define d as c1; get dds for d;"
  bes translate -i commands.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input := strings.Join(args, " ")
		if input == "" {
			var err error
			if input, err = readInput(translateCommand, translateFile); err != nil {
				return err
			}
		}
		doc, err := client.Translate(input)
		if err != nil {
			return err
		}
		fmt.Print(doc)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)
	translateCmd.Flags().StringVarP(&translateCommand, "command", "c", "", "commands to translate")
	translateCmd.Flags().StringVarP(&translateFile, "input", "i", "", "file holding the commands")
}
