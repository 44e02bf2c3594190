package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	dslog "github.com/msto63/descent/foundation/core/log"
	"github.com/msto63/descent/internal/server"
	dsgrpc "github.com/msto63/descent/pkg/core/grpc"
	"github.com/msto63/descent/pkg/core/version"
)

var (
	serveHTTPAddr string
	serveGRPCAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the parser server",
	Long: `Starts the HTTP/WebSocket server and, when a gRPC address is configured,
the gRPC parser service.

HTTP endpoints:
  POST   /api/v1/tokenize
  POST   /api/v1/parse
  GET    /api/v1/history, /api/v1/history/{id}, /api/v1/stats
  DELETE /api/v1/history
  GET    /health
  GET    /ws

Examples:
  descent serve
  descent serve --http 0.0.0.0:8080 --grpc 0.0.0.0:9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http", "", "HTTP listen address (overrides server.http_addr)")
	serveCmd.Flags().StringVar(&serveGRPCAddr, "grpc", "", "gRPC listen address (overrides server.grpc_addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, service, err := setup(false)
	if err != nil {
		return err
	}
	defer service.Close()

	if serveHTTPAddr != "" {
		cfg.Server.HTTPAddr = serveHTTPAddr
	}
	if serveGRPCAddr != "" {
		cfg.Server.GRPCAddr = serveGRPCAddr
	}

	httpCfg := server.DefaultConfig()
	httpCfg.Addr = cfg.Server.HTTPAddr
	httpCfg.ReadTimeout = cfg.Server.ReadTimeout.Duration
	httpCfg.Version = version.Version
	httpServer := server.New(service, httpCfg, logger)

	errCh := make(chan error, 2)
	go func() {
		errCh <- httpServer.Start()
	}()

	var grpcServer *dsgrpc.Server
	if cfg.Server.GRPCAddr != "" {
		grpcCfg := dsgrpc.DefaultServerConfig()
		grpcCfg.Addr = cfg.Server.GRPCAddr
		grpcServer = dsgrpc.NewServer(grpcCfg, logger)
		server.NewGRPCService(service).Register(grpcServer)
		go func() {
			errCh <- grpcServer.Start()
		}()
	}

	fmt.Fprintf(os.Stderr, "descent %s listening on http://%s", version.Version, cfg.Server.HTTPAddr)
	if grpcServer != nil {
		fmt.Fprintf(os.Stderr, " and grpc://%s", cfg.Server.GRPCAddr)
	}
	fmt.Fprintln(os.Stderr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Info("Shutting down", dslog.Fields{"signal": sig.String()})
	case runErr = <-errCh:
		if runErr != nil {
			logger.ErrorWithErr("Server failed", runErr)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()

	if grpcServer != nil {
		grpcServer.StopWithTimeout(ctx)
	}
	if err := httpServer.Stop(ctx); err != nil {
		logger.WarnWithErr("HTTP shutdown incomplete", err)
	}
	return runErr
}
