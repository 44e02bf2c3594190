package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [file | source...]",
	Short: "Print the token stream of a program",
	Long: `Splits a program into tokens and prints one token per line with its
byte offset, tag and value.

Examples:
  descent tokenize 'x = 1.5 * y;'
  descent tokenize program.ds
  cat program.ds | descent tokenize`,
	RunE: runTokenize,
}

func init() {
	rootCmd.AddCommand(tokenizeCmd)
}

func runTokenize(cmd *cobra.Command, args []string) error {
	source, err := getInputText(args)
	if err != nil {
		return err
	}

	_, _, service, err := setup(true)
	if err != nil {
		return err
	}
	defer service.Close()

	r := newRenderer(false, false)
	tokens, err := service.Tokenize(context.Background(), source)
	if err != nil {
		return reportFailure(os.Stderr, r, source, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), r.Tokens(tokens))
	return nil
}
