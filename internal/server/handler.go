package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	dserror "github.com/msto63/descent/foundation/core/error"
	dslog "github.com/msto63/descent/foundation/core/log"
	dsast "github.com/msto63/descent/foundation/lang/ast"
	"github.com/msto63/descent/foundation/lang/parser"
	"github.com/msto63/descent/internal/frontend"
	"github.com/msto63/descent/internal/store"
	"github.com/msto63/descent/pkg/core/health"
)

// maxBodyBytes bounds request bodies independently of the parser's input limit
const maxBodyBytes = 8 << 20

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 1000
)

// SourceRequest is the body of tokenize and parse requests
type SourceRequest struct {
	Source    string `json:"source"`
	Linked    bool   `json:"linked,omitempty"`
	Positions bool   `json:"positions,omitempty"`
}

// TokenJSON is the wire form of a token
type TokenJSON struct {
	Tag      string      `json:"tag"`
	Value    interface{} `json:"value"`
	Position int         `json:"position"`
}

// TokensResponse is returned by tokenize
type TokensResponse struct {
	Tokens []TokenJSON `json:"tokens"`
}

// ParseResponse is returned by parse
type ParseResponse struct {
	ID         string                 `json:"id"`
	AST        map[string]interface{} `json:"ast"`
	TokenCount int                    `json:"token_count"`
	NodeCount  int                    `json:"node_count"`
	Depth      int                    `json:"depth"`
	DurationMS float64                `json:"duration_ms"`
	Cached     bool                   `json:"cached"`
}

// HistoryResponse is returned by history listings
type HistoryResponse struct {
	Records []*store.Record `json:"records"`
	Total   int             `json:"total"`
}

// Handler serves the JSON API
type Handler struct {
	service *frontend.Service
	health  *health.Registry
	logger  *dslog.Logger
}

// NewHandler creates a new API handler
func NewHandler(service *frontend.Service, registry *health.Registry, logger *dslog.Logger) *Handler {
	return &Handler{
		service: service,
		health:  registry,
		logger:  logger,
	}
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.URL.Path == "/health" {
		h.handleHealth(w, r)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	path = strings.Trim(path, "/")

	switch {
	case path == "tokenize":
		h.handleTokenize(w, r)
	case path == "parse":
		h.handleParse(w, r)
	case path == "history":
		h.handleHistory(w, r)
	case strings.HasPrefix(path, "history/"):
		h.handleRecord(w, r, strings.TrimPrefix(path, "history/"))
	case path == "stats":
		h.handleStats(w, r)
	default:
		h.writeError(w, http.StatusNotFound, &frontend.Failure{
			Code:    string(dserror.CodeNotFound),
			Message: "no route for " + r.URL.Path,
		})
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}

	report := h.health.Check(r.Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, report)
}

func (h *Handler) handleTokenize(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodPost) {
		return
	}
	req, ok := h.decodeSource(w, r)
	if !ok {
		return
	}

	tokens, err := h.service.Tokenize(r.Context(), req.Source)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, TokensResponse{Tokens: tokensJSON(tokens)})
}

func (h *Handler) handleParse(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodPost) {
		return
	}
	req, ok := h.decodeSource(w, r)
	if !ok {
		return
	}

	result := h.service.Analyze(r.Context(), req.Source)
	if !result.OK() {
		h.writeFailure(w, result.Err)
		return
	}
	h.writeJSON(w, http.StatusOK, parseResponse(result, req))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit, err := queryInt(r, "limit", defaultHistoryLimit)
		if err != nil || limit < 1 || limit > maxHistoryLimit {
			h.writeInvalid(w, "limit must be between 1 and "+strconv.Itoa(maxHistoryLimit))
			return
		}
		offset, err := queryInt(r, "offset", 0)
		if err != nil || offset < 0 {
			h.writeInvalid(w, "offset must be a non-negative integer")
			return
		}

		records, err := h.service.History(r.Context(), limit, offset)
		if err != nil {
			h.writeFailure(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, HistoryResponse{Records: records, Total: len(records)})

	case http.MethodDelete:
		if err := h.service.ClearHistory(r.Context()); err != nil {
			h.writeFailure(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		h.allow(w, r, http.MethodGet, http.MethodDelete)
	}
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request, id string) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}
	rec, err := h.service.Lookup(r.Context(), id)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// allow writes 405 unless the request uses one of methods
func (h *Handler) allow(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	h.writeError(w, http.StatusMethodNotAllowed, &frontend.Failure{
		Code:    string(dserror.CodeInvalidInput),
		Message: "use " + strings.Join(methods, " or "),
	})
	return false
}

func (h *Handler) decodeSource(w http.ResponseWriter, r *http.Request) (*SourceRequest, bool) {
	var req SourceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeInvalid(w, "invalid request body: "+err.Error())
		return nil, false
	}
	return &req, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WarnWithErr("Failed to write response", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, failure *frontend.Failure) {
	h.writeJSON(w, status, failure)
}

func (h *Handler) writeInvalid(w http.ResponseWriter, message string) {
	h.writeError(w, http.StatusBadRequest, &frontend.Failure{
		Code:    string(dserror.CodeInvalidInput),
		Message: message,
	})
}

func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	h.writeError(w, frontend.Status(err), frontend.Describe(err))
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func tokensJSON(tokens []parser.Token) []TokenJSON {
	out := make([]TokenJSON, len(tokens))
	for i, t := range tokens {
		out[i] = TokenJSON{Tag: string(t.Tag), Value: t.Value, Position: t.Position}
	}
	return out
}

func parseResponse(result *frontend.Result, req *SourceRequest) ParseResponse {
	return ParseResponse{
		ID:         result.ID,
		AST:        dsast.ToMap(result.AST, dsast.ExportOptions{Positions: req.Positions, Linked: req.Linked}),
		TokenCount: len(result.Tokens),
		NodeCount:  dsast.Count(result.AST),
		Depth:      dsast.Depth(result.AST),
		DurationMS: float64(result.Duration) / float64(time.Millisecond),
		Cached:     result.Cached,
	}
}
