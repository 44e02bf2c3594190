package grpc

import (
	"context"
	"errors"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	dslog "github.com/msto63/descent/foundation/core/log"
)

// fakeParser echoes the source, fails on "fail" and panics on "panic"
type fakeParser struct{}

func (fakeParser) Parse(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	source := req.GetFields()["source"].GetStringValue()
	switch source {
	case "fail":
		pos := 3
		SetErrorTrailer(ctx, "SYNTAX_ERROR", &pos)
		return nil, status.Error(codes.InvalidArgument, "expected ')'")
	case "panic":
		panic("boom")
	}
	return structpb.NewStruct(map[string]interface{}{
		"source":     source,
		"request_id": GetRequestID(ctx),
	})
}

func (fakeParser) Tokenize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{"tokens": []interface{}{"end"}})
}

func startServer(t *testing.T) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)

	cfg := DefaultServerConfig()
	cfg.EnableReflection = false
	s := NewServer(cfg, dslog.Discard())
	RegisterParserServer(s.GRPCServer(), fakeParser{})
	s.SetServing(ParserServiceName, true)

	go s.Serve(lis)
	t.Cleanup(s.Stop)

	conn, err := Dial(DefaultClientConfig("passthrough:///bufnet"), dslog.Discard(),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestParserClient_Parse(t *testing.T) {
	conn := startServer(t)
	client := NewParserClient(conn)

	ctx := WithRequestID(context.Background(), "req-42")
	resp, err := client.ParseSource(ctx, "x = 1", true, false)
	if err != nil {
		t.Fatalf("ParseSource failed: %v", err)
	}
	if resp["source"] != "x = 1" {
		t.Errorf("source = %v, want x = 1", resp["source"])
	}
	if resp["request_id"] != "req-42" {
		t.Errorf("request_id = %v, want req-42", resp["request_id"])
	}
}

func TestParserClient_Tokenize(t *testing.T) {
	conn := startServer(t)

	req, _ := structpb.NewStruct(map[string]interface{}{"source": ""})
	resp, err := NewParserClient(conn).Tokenize(context.Background(), req)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if got := len(resp.GetFields()["tokens"].GetListValue().GetValues()); got != 1 {
		t.Errorf("got %d tokens, want 1", got)
	}
}

func TestParserClient_Errors(t *testing.T) {
	conn := startServer(t)
	client := NewParserClient(conn)

	tests := []struct {
		name     string
		source   string
		status   codes.Code
		code     string
		position int
	}{
		{"front-end error", "fail", codes.InvalidArgument, "SYNTAX_ERROR", 3},
		{"recovered panic", "panic", codes.Internal, "", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.ParseSource(context.Background(), tt.source, false, false)
			var remote *RemoteError
			if !errors.As(err, &remote) {
				t.Fatalf("error = %v, want *RemoteError", err)
			}
			if remote.Status != tt.status {
				t.Errorf("Status = %v, want %v", remote.Status, tt.status)
			}
			if remote.Code != tt.code {
				t.Errorf("Code = %q, want %q", remote.Code, tt.code)
			}
			switch {
			case tt.position < 0 && remote.Position != nil:
				t.Errorf("unexpected position %d", *remote.Position)
			case tt.position >= 0 && (remote.Position == nil || *remote.Position != tt.position):
				t.Errorf("Position = %v, want %d", remote.Position, tt.position)
			}
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	conn := startServer(t)

	var header metadata.MD
	req, _ := structpb.NewStruct(map[string]interface{}{"source": "1"})
	if _, err := NewParserClient(conn).Parse(context.Background(), req, grpc.Header(&header)); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if ids := header.Get(RequestIDHeader); len(ids) != 1 || ids[0] == "" {
		t.Errorf("request ID header = %v", ids)
	}
}

func TestCheckHealth(t *testing.T) {
	conn := startServer(t)

	for _, service := range []string{"", ParserServiceName} {
		serving, err := CheckHealth(context.Background(), conn, service)
		if err != nil {
			t.Fatalf("CheckHealth(%q) failed: %v", service, err)
		}
		if !serving {
			t.Errorf("CheckHealth(%q) = not serving", service)
		}
	}

	if _, err := CheckHealth(context.Background(), conn, "descent.v1.Unknown"); status.Code(err) != codes.NotFound {
		t.Errorf("unknown service error = %v, want NotFound", err)
	}
}
