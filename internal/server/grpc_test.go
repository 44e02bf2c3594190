package server

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	dsconfig "github.com/msto63/descent/foundation/core/config"
	dserror "github.com/msto63/descent/foundation/core/error"
	dslog "github.com/msto63/descent/foundation/core/log"
	dsast "github.com/msto63/descent/foundation/lang/ast"
	"github.com/msto63/descent/internal/frontend"
	dsgrpc "github.com/msto63/descent/pkg/core/grpc"
)

func newGRPCClient(t *testing.T) *dsgrpc.ParserClient {
	t.Helper()
	cfg := dsconfig.Default()
	cfg.Parser.MaxInputLength = 64
	cfg.Parser.MaxDepth = 16
	svc, err := frontend.NewFromConfig(cfg, dslog.Discard())
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}

	lis := bufconn.Listen(1024 * 1024)
	s := dsgrpc.NewServer(dsgrpc.DefaultServerConfig(), dslog.Discard())
	NewGRPCService(svc).Register(s)
	go s.Serve(lis)
	t.Cleanup(s.Stop)

	conn, err := dsgrpc.Dial(dsgrpc.DefaultClientConfig("passthrough:///bufnet"), dslog.Discard(),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return dsgrpc.NewParserClient(conn)
}

func TestGRPCService_Parse(t *testing.T) {
	client := newGRPCClient(t)

	resp, err := client.ParseSource(context.Background(), "if (a) print(1, 2.5) else b = -a", true, false)
	if err != nil {
		t.Fatalf("ParseSource failed: %v", err)
	}
	if resp["sexpr"] != "(if a (print 1 2.5) (= b (negate a)))" {
		t.Errorf("sexpr = %v", resp["sexpr"])
	}
	if resp["node_count"] != float64(9) {
		t.Errorf("node_count = %v, want 9", resp["node_count"])
	}

	ast, ok := resp["ast"].(map[string]interface{})
	if !ok {
		t.Fatalf("ast = %T", resp["ast"])
	}
	node, err := dsast.FromMap(ast)
	if err != nil {
		t.Fatalf("FromMap failed: %v", err)
	}
	if node.String() != resp["sexpr"] {
		t.Errorf("rebuilt tree = %s, want %v", node, resp["sexpr"])
	}
	if then := node.(*dsast.If).Then; then.Position() != 7 {
		t.Errorf("then position = %d, want 7", then.Position())
	}
}

func TestGRPCService_Tokenize(t *testing.T) {
	client := newGRPCClient(t)

	req, _ := structpb.NewStruct(map[string]interface{}{"source": "x != 3"})
	resp, err := client.Tokenize(context.Background(), req)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}

	data, err := protojson.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"tag":"!="`, `"tag":"end"`, `"value":3`} {
		if !strings.Contains(strings.ReplaceAll(string(data), " ", ""), want) {
			t.Errorf("response %s missing %s", data, want)
		}
	}
}

func TestGRPCService_Errors(t *testing.T) {
	client := newGRPCClient(t)

	tests := []struct {
		name     string
		source   string
		status   codes.Code
		code     dserror.Code
		position int
	}{
		{"syntax", "print(1", codes.InvalidArgument, dserror.CodeSyntax, 7},
		{"lexical", "x = $", codes.InvalidArgument, dserror.CodeLexical, 4},
		{"nesting", strings.Repeat("!", 60), codes.InvalidArgument, dserror.CodeNestingTooDeep, -1},
		{"too large", strings.Repeat("1", 65), codes.ResourceExhausted, dserror.CodeInputTooLarge, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.ParseSource(context.Background(), tt.source, false, false)
			var remote *dsgrpc.RemoteError
			if !errors.As(err, &remote) {
				t.Fatalf("error = %v, want *RemoteError", err)
			}
			if remote.Status != tt.status || remote.Code != string(tt.code) {
				t.Errorf("got %v/%s, want %v/%s", remote.Status, remote.Code, tt.status, tt.code)
			}
			if tt.position >= 0 && (remote.Position == nil || *remote.Position != tt.position) {
				t.Errorf("Position = %v, want %d", remote.Position, tt.position)
			}
		})
	}
}
