package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	dslog "github.com/msto63/descent/foundation/core/log"
	dsast "github.com/msto63/descent/foundation/lang/ast"
	"github.com/msto63/descent/internal/render"
	dsgrpc "github.com/msto63/descent/pkg/core/grpc"
)

const remoteTimeout = 30 * time.Second

var (
	parseFormat    string
	parseLinked    bool
	parsePositions bool
	parseRemote    string
	parseStats     bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file | source...]",
	Short: "Parse a program and print its syntax tree",
	Long: `Parses a program and prints its abstract syntax tree.

Formats:
  sexpr  - one-line prefix notation (default)
  tree   - indented tree
  json   - JSON document
  yaml   - YAML document

With --remote the program is sent to a running 'descent serve' over gRPC.

Examples:
  descent parse 'if (x < 3) print(x) else { x = x - 1; }'
  descent parse --format tree --positions program.ds
  descent parse --format json --linked program.ds
  descent parse --remote 127.0.0.1:9090 program.ds`,
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "sexpr", "output format (sexpr, tree, json, yaml)")
	parseCmd.Flags().BoolVar(&parseLinked, "linked", false, "chain statement and argument lists through next links (json, yaml)")
	parseCmd.Flags().BoolVarP(&parsePositions, "positions", "p", false, "include source offsets")
	parseCmd.Flags().StringVar(&parseRemote, "remote", "", "gRPC address of a running server")
	parseCmd.Flags().BoolVar(&parseStats, "stats", false, "print node count and depth to stderr")
}

func runParse(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(parseFormat)
	if err != nil {
		return err
	}
	source, err := getInputText(args)
	if err != nil {
		return err
	}

	if parseRemote != "" {
		return runParseRemote(cmd, source, format)
	}

	_, _, service, err := setup(true)
	if err != nil {
		return err
	}
	defer service.Close()

	r := newRenderer(parsePositions, parseLinked)
	result := service.Analyze(context.Background(), source)
	if !result.OK() {
		return reportFailure(os.Stderr, r, source, result.Err)
	}

	out, err := r.Encode(result.AST, format)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)

	if parseStats {
		fmt.Fprintf(os.Stderr, "%d tokens, %d nodes, depth %d, %s\n",
			len(result.Tokens), dsast.Count(result.AST), dsast.Depth(result.AST), result.Duration)
	}
	return nil
}

func runParseRemote(cmd *cobra.Command, source string, format render.Format) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, true)

	conn, err := dsgrpc.Dial(dsgrpc.DefaultClientConfig(parseRemote), logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()

	r := newRenderer(parsePositions, parseLinked)
	resp, err := dsgrpc.NewParserClient(conn).ParseSource(ctx, source, parsePositions, parseLinked)
	if err != nil {
		var remote *dsgrpc.RemoteError
		if errors.As(err, &remote) && remote.Code != "" {
			position := -1
			if remote.Position != nil {
				position = *remote.Position
			}
			fmt.Fprintln(os.Stderr, r.Error(source, remote.Code, remote.Message, position))
			return errReported
		}
		return fmt.Errorf("parser at %s not reachable: %w", parseRemote, err)
	}
	logger.Debug("Remote parse finished", dslog.Fields{"id": resp["id"], "duration_ms": resp["duration_ms"]})

	out, err := encodeRemote(r, resp, format)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// encodeRemote writes a remote parse response. JSON and YAML reuse the
// document as received; the tree is rebuilt for the other formats.
func encodeRemote(r *render.Renderer, resp map[string]interface{}, format render.Format) (string, error) {
	doc, ok := resp["ast"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("response carries no tree")
	}

	switch format {
	case render.FormatSExpr:
		if sexpr, ok := resp["sexpr"].(string); ok {
			return sexpr, nil
		}
	case render.FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		return string(data), err
	case render.FormatYAML:
		data, err := yaml.Marshal(doc)
		return strings.TrimRight(string(data), "\n"), err
	}

	node, err := dsast.FromMap(doc)
	if err != nil {
		return "", err
	}
	return r.Encode(node, format)
}
