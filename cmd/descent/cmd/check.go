package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	dsast "github.com/msto63/descent/foundation/lang/ast"
	"github.com/msto63/descent/internal/render"
)

var checkCmd = &cobra.Command{
	Use:   "check [file | source...]",
	Short: "Parse a program and validate its tree",
	Long: `Parses a program and runs the structural validator over the tree.
Exits with status 1 when parsing fails or the validator reports a problem.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
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
	result := service.Analyze(context.Background(), source)
	if !result.OK() {
		return reportFailure(os.Stderr, r, source, result.Err)
	}

	problems := dsast.ValidateAST(result.AST)
	for _, p := range problems {
		fmt.Fprintln(os.Stderr, styled(render.ErrorStyle, "invalid:")+" "+p.Error())
	}
	if len(problems) > 0 {
		return errReported
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %d statements, %d nodes, depth %d\n",
		styled(render.OKStyle, "ok"), statementCount(result.AST), dsast.Count(result.AST), dsast.Depth(result.AST))
	return nil
}

func statementCount(node dsast.Node) int {
	if block, ok := node.(*dsast.Block); ok {
		return len(block.Statements)
	}
	return 1
}
