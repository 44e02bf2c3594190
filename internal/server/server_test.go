package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	dsconfig "github.com/msto63/descent/foundation/core/config"
	dslog "github.com/msto63/descent/foundation/core/log"
	"github.com/msto63/descent/internal/frontend"
	"github.com/msto63/descent/pkg/core/health"
)

func newTestServer(t *testing.T, withStore bool) *httptest.Server {
	t.Helper()
	cfg := dsconfig.Default()
	cfg.Parser.MaxInputLength = 256
	if withStore {
		cfg.Store.Enabled = true
		cfg.Store.Path = filepath.Join(t.TempDir(), "history.db")
	}
	svc, err := frontend.NewFromConfig(cfg, dslog.Discard())
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	t.Cleanup(func() { svc.Close() })

	s := New(svc, DefaultConfig(), dslog.Discard())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response failed: %v", err)
	}
}

func TestHandler_Tokenize(t *testing.T) {
	ts := newTestServer(t, false)

	resp := postJSON(t, ts.URL+"/api/v1/tokenize", SourceRequest{Source: "x<=2.5"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body TokensResponse
	decodeBody(t, resp, &body)

	want := []struct {
		tag      string
		position int
	}{{"identifier", 0}, {"<=", 1}, {"number", 3}, {"end", 6}}
	if len(body.Tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(body.Tokens), len(want))
	}
	for i, w := range want {
		if body.Tokens[i].Tag != w.tag || body.Tokens[i].Position != w.position {
			t.Errorf("token %d = %+v, want %s@%d", i, body.Tokens[i], w.tag, w.position)
		}
	}
	if body.Tokens[2].Value != 2.5 {
		t.Errorf("number value = %v, want 2.5", body.Tokens[2].Value)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request ID header")
	}
}

func TestHandler_Parse(t *testing.T) {
	ts := newTestServer(t, false)

	tests := []struct {
		name  string
		req   SourceRequest
		check func(t *testing.T, ast map[string]interface{})
		nodes int
		depth int
	}{
		{
			name:  "list layout",
			req:   SourceRequest{Source: "print(1, 2)"},
			nodes: 3,
			depth: 2,
			check: func(t *testing.T, ast map[string]interface{}) {
				args, ok := ast["arguments"].([]interface{})
				if !ok || len(args) != 2 {
					t.Errorf("arguments = %v", ast["arguments"])
				}
			},
		},
		{
			name:  "linked layout with positions",
			req:   SourceRequest{Source: "print(1, 2)", Linked: true, Positions: true},
			nodes: 3,
			depth: 2,
			check: func(t *testing.T, ast map[string]interface{}) {
				first, ok := ast["arguments"].(map[string]interface{})
				if !ok {
					t.Fatalf("arguments = %v", ast["arguments"])
				}
				if first["position"] != float64(6) {
					t.Errorf("first argument position = %v, want 6", first["position"])
				}
				if _, ok := first["next"].(map[string]interface{}); !ok {
					t.Errorf("missing next link: %v", first)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/v1/parse", tt.req)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			var body ParseResponse
			decodeBody(t, resp, &body)
			if body.ID == "" {
				t.Error("missing run ID")
			}
			if body.AST["tag"] != "print" {
				t.Errorf("root tag = %v, want print", body.AST["tag"])
			}
			if body.NodeCount != tt.nodes || body.Depth != tt.depth {
				t.Errorf("nodes/depth = %d/%d, want %d/%d", body.NodeCount, body.Depth, tt.nodes, tt.depth)
			}
			tt.check(t, body.AST)
		})
	}
}

func TestHandler_Errors(t *testing.T) {
	ts := newTestServer(t, false)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		status   int
		code     string
		position *int
	}{
		{"syntax error", "POST", "/api/v1/parse", `{"source":"(1"}`, 400, "SYNTAX_ERROR", intPtr(2)},
		{"lexical error", "POST", "/api/v1/tokenize", `{"source":"1 @"}`, 400, "LEXICAL_ERROR", intPtr(2)},
		{"too large", "POST", "/api/v1/parse", `{"source":"` + strings.Repeat("1", 300) + `"}`, 413, "INPUT_TOO_LARGE", nil},
		{"bad body", "POST", "/api/v1/parse", `{"src":"1"}`, 400, "INVALID_INPUT", nil},
		{"wrong method", "GET", "/api/v1/parse", "", 405, "INVALID_INPUT", nil},
		{"history disabled", "GET", "/api/v1/history", "", 503, "SERVICE_UNAVAILABLE", nil},
		{"unknown route", "GET", "/api/v1/nope", "", 404, "NOT_FOUND", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var failure frontend.Failure
			decodeBody(t, resp, &failure)
			if failure.Code != tt.code {
				t.Errorf("code = %q, want %q (%s)", failure.Code, tt.code, failure.Message)
			}
			switch {
			case tt.position == nil && failure.Position != nil:
				t.Errorf("unexpected position %d", *failure.Position)
			case tt.position != nil && (failure.Position == nil || *failure.Position != *tt.position):
				t.Errorf("position = %v, want %d", failure.Position, *tt.position)
			}
		})
	}
}

func intPtr(i int) *int { return &i }

func TestHandler_History(t *testing.T) {
	ts := newTestServer(t, true)

	postJSON(t, ts.URL+"/api/v1/parse", SourceRequest{Source: "x = 1"})
	postJSON(t, ts.URL+"/api/v1/parse", SourceRequest{Source: "x ="})

	resp, err := http.Get(ts.URL + "/api/v1/history?limit=10")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var history HistoryResponse
	decodeBody(t, resp, &history)
	if history.Total != 2 {
		t.Fatalf("Total = %d, want 2", history.Total)
	}
	if history.Records[0].Source != "x =" || history.Records[0].Success {
		t.Errorf("newest record = %+v", history.Records[0])
	}

	resp, err = http.Get(ts.URL + "/api/v1/history/" + history.Records[1].ID)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("record lookup status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/v1/history/missing")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing record status = %d, want 404", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/v1/history?limit=0")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("limit=0 status = %d, want 400", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/v1/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var stats struct {
		Total  int            `json:"total"`
		ByCode map[string]int `json:"by_code"`
	}
	decodeBody(t, resp, &stats)
	if stats.Total != 2 || stats.ByCode["SYNTAX_ERROR"] != 1 {
		t.Errorf("stats = %+v", stats)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/history", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want 204", resp.StatusCode)
	}
}

func TestHandler_Health(t *testing.T) {
	ts := newTestServer(t, true)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var report health.Report
	decodeBody(t, resp, &report)
	if report.Status != health.StatusHealthy || len(report.Checks) != 2 {
		t.Errorf("report = %+v", report)
	}
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg interface{}) map[string]interface{} {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	var resp map[string]interface{}
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	return resp
}

func TestWebSocket(t *testing.T) {
	ts := newTestServer(t, false)
	conn := dialWS(t, ts)

	tests := []struct {
		name     string
		msg      string
		wantType string
		check    func(t *testing.T, payload map[string]interface{})
	}{
		{
			name:     "ping",
			msg:      `{"type":"ping","id":"p1"}`,
			wantType: "pong",
		},
		{
			name:     "tokenize",
			msg:      `{"type":"tokenize","id":"t1","payload":{"source":"if x"}}`,
			wantType: "tokens",
			check: func(t *testing.T, payload map[string]interface{}) {
				tokens, _ := payload["tokens"].([]interface{})
				if len(tokens) != 3 {
					t.Errorf("tokens = %v", payload["tokens"])
				}
			},
		},
		{
			name:     "parse",
			msg:      `{"type":"parse","id":"a1","payload":{"source":"while (x) x = x - 1"}}`,
			wantType: "ast",
			check: func(t *testing.T, payload map[string]interface{}) {
				ast, _ := payload["ast"].(map[string]interface{})
				if ast["tag"] != "while" {
					t.Errorf("ast = %v", payload["ast"])
				}
			},
		},
		{
			name:     "parse error",
			msg:      `{"type":"parse","id":"e1","payload":{"source":"while x"}}`,
			wantType: "error",
			check: func(t *testing.T, payload map[string]interface{}) {
				if payload["code"] != "SYNTAX_ERROR" || payload["position"] != float64(6) {
					t.Errorf("payload = %v", payload)
				}
			},
		},
		{
			name:     "unknown type",
			msg:      `{"type":"compile","id":"u1"}`,
			wantType: "error",
			check: func(t *testing.T, payload map[string]interface{}) {
				if payload["code"] != "INVALID_INPUT" {
					t.Errorf("payload = %v", payload)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := roundTrip(t, conn, json.RawMessage(tt.msg))
			if resp["type"] != tt.wantType {
				t.Fatalf("type = %v, want %s (%v)", resp["type"], tt.wantType, resp)
			}
			var req WSMessage
			json.Unmarshal([]byte(tt.msg), &req)
			if resp["id"] != req.ID {
				t.Errorf("id = %v, want %s", resp["id"], req.ID)
			}
			if tt.check != nil {
				payload, _ := resp["payload"].(map[string]interface{})
				tt.check(t, payload)
			}
		})
	}
}

func TestServer_ServeAndStop(t *testing.T) {
	svc, err := frontend.New(frontend.Config{Logger: dslog.Discard()})
	if err != nil {
		t.Fatal(err)
	}
	s := New(svc, DefaultConfig(), dslog.Discard())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	var resp *http.Response
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err = http.Get("http://" + ln.Addr().String() + "/health")
		if err == nil || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Serve returned %v after Stop", err)
	}
}
