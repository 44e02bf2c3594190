package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	dsconfig "github.com/msto63/descent/foundation/core/config"
	dserror "github.com/msto63/descent/foundation/core/error"
	dslog "github.com/msto63/descent/foundation/core/log"
	"github.com/msto63/descent/internal/frontend"
	"github.com/msto63/descent/internal/render"
)

var (
	cfgFile string
	verbose bool
	plain   bool
)

// errReported marks a failure that has already been written to stderr
var errReported = errors.New("error already reported")

var rootCmd = &cobra.Command{
	Use:   "descent",
	Short: "descent - recursive-descent front end",
	Long: `descent tokenizes and parses programs of a small statement language
into abstract syntax trees.

Input is read from stdin when it is piped, otherwise from the file named by
the first argument, otherwise from the arguments themselves.

Commands:
  tokenize  - print the token stream
  parse     - print the syntax tree (sexpr, tree, json, yaml)
  check     - parse and validate the tree
  serve     - HTTP, WebSocket and gRPC server
  repl      - interactive terminal session
  history   - inspect recorded runs`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errReported) {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: discovered descent.toml / descent.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "disable colours and styling")
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// loadConfig resolves the configuration for this invocation
func loadConfig() (*dsconfig.Config, error) {
	cfg, err := dsconfig.Resolve(cfgFile)
	if err != nil {
		if cfgFile == "" && dserror.HasCode(err, dserror.CodeMissingConfig) {
			return dsconfig.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the command logger from cfg. Logs always go to stderr so
// stdout stays machine readable; quiet raises the level to warnings.
func newLogger(cfg *dsconfig.Config, quiet bool) *dslog.Logger {
	level, err := dslog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = dslog.LevelInfo
	}
	if verbose {
		level = dslog.LevelDebug
	} else if quiet && level < dslog.LevelWarn {
		level = dslog.LevelWarn
	}
	format, err := dslog.ParseFormat(cfg.Log.Format)
	if err != nil {
		format = dslog.FormatConsole
	}

	return dslog.NewWithConfig(dslog.Config{
		Level:  level,
		Format: format,
		Output: os.Stderr,
		Name:   "descent",
	})
}

// setup loads configuration and builds the front-end service
func setup(quiet bool) (*dsconfig.Config, *dslog.Logger, *frontend.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger(cfg, quiet)
	logger.Debug("Configuration loaded", dslog.Fields{"path": cfg.FilePath()})

	service, err := frontend.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, service, nil
}

func newRenderer(positions, linked bool) *render.Renderer {
	return render.New(render.Options{Plain: plain, Positions: positions, Linked: linked})
}

func styled(s lipgloss.Style, text string) string {
	if plain {
		return text
	}
	return s.Render(text)
}

// reportFailure renders a front-end error with its source location
func reportFailure(w io.Writer, r *render.Renderer, source string, err error) error {
	failure := frontend.Describe(err)
	position := -1
	if failure.Position != nil {
		position = *failure.Position
	}
	fmt.Fprintln(w, r.Error(source, failure.Code, failure.Message, position))
	return errReported
}

// getInputText reads the program source for a command
func getInputText(args []string) (string, error) {
	stat, _ := os.Stdin.Stat()
	if stat != nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	if len(args) > 0 {
		if info, err := os.Stat(args[0]); err == nil && !info.IsDir() {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return "", err
			}
			return string(data), nil
		}
		return strings.Join(args, " "), nil
	}

	return "", nil
}
