package cmd

import (
	"github.com/spf13/cobra"

	"github.com/msto63/descent/internal/render"
	"github.com/msto63/descent/internal/tui/repl"
	"github.com/msto63/descent/pkg/core/version"
)

var (
	replFormat    string
	replPositions bool
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start the interactive REPL",
	Long: `Opens an interactive terminal session. Every line is tokenized and
parsed; the tree is shown in the selected format.

Commands inside the REPL start with a colon, for example :format json,
:tokens, :history or :help.`,
	Args: cobra.NoArgs,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().StringVarP(&replFormat, "format", "f", "tree", "initial output format (sexpr, tree, json, yaml)")
	replCmd.Flags().BoolVarP(&replPositions, "positions", "p", false, "show source offsets")
}

func runRepl(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(replFormat)
	if err != nil {
		return err
	}

	_, _, service, err := setup(true)
	if err != nil {
		return err
	}
	defer service.Close()

	return repl.Run(repl.Config{
		Service:   service,
		Format:    format,
		Plain:     plain,
		Positions: replPositions,
		Version:   version.Version,
	})
}
