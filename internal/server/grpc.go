package server

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	dserror "github.com/msto63/descent/foundation/core/error"
	"github.com/msto63/descent/internal/frontend"
	dsgrpc "github.com/msto63/descent/pkg/core/grpc"
)

// GRPCService serves the front end as descent.v1.Parser
type GRPCService struct {
	service *frontend.Service
}

// NewGRPCService creates the gRPC parser service
func NewGRPCService(service *frontend.Service) *GRPCService {
	return &GRPCService{service: service}
}

// Register registers the service on s and marks it serving
func (g *GRPCService) Register(s *dsgrpc.Server) {
	dsgrpc.RegisterParserServer(s.GRPCServer(), g)
	s.SetServing(dsgrpc.ParserServiceName, true)
}

// Parse answers {"source","linked","positions"} with the parse response
// document
func (g *GRPCService) Parse(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	src := sourceRequest(req)
	result := g.service.Analyze(ctx, src.Source)
	if !result.OK() {
		return nil, grpcError(ctx, result.Err)
	}

	resp := parseResponse(result, src)
	return structpb.NewStruct(map[string]interface{}{
		"id":          resp.ID,
		"ast":         resp.AST,
		"sexpr":       result.AST.String(),
		"token_count": resp.TokenCount,
		"node_count":  resp.NodeCount,
		"depth":       resp.Depth,
		"duration_ms": resp.DurationMS,
		"cached":      resp.Cached,
	})
}

// Tokenize answers {"source"} with {"tokens": [...]}
func (g *GRPCService) Tokenize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tokens, err := g.service.Tokenize(ctx, sourceRequest(req).Source)
	if err != nil {
		return nil, grpcError(ctx, err)
	}

	list := make([]interface{}, len(tokens))
	for i, t := range tokens {
		list[i] = map[string]interface{}{
			"tag":      string(t.Tag),
			"value":    t.Value,
			"position": t.Position,
		}
	}
	return structpb.NewStruct(map[string]interface{}{"tokens": list})
}

func sourceRequest(req *structpb.Struct) *SourceRequest {
	fields := req.GetFields()
	return &SourceRequest{
		Source:    fields["source"].GetStringValue(),
		Linked:    fields["linked"].GetBoolValue(),
		Positions: fields["positions"].GetBoolValue(),
	}
}

// grpcError converts a front-end error into a status and records the
// front-end code and position in the trailer
func grpcError(ctx context.Context, err error) error {
	failure := frontend.Describe(err)
	dsgrpc.SetErrorTrailer(ctx, failure.Code, failure.Position)
	return status.Error(grpcCode(dserror.Code(failure.Code)), failure.Message)
}

func grpcCode(code dserror.Code) codes.Code {
	switch code {
	case dserror.CodeLexical, dserror.CodeSyntax, dserror.CodeNestingTooDeep,
		dserror.CodeInvalidInput, dserror.CodeSemantic:
		return codes.InvalidArgument
	case dserror.CodeInputTooLarge:
		return codes.ResourceExhausted
	case dserror.CodeTimeout:
		return codes.DeadlineExceeded
	case dserror.CodeNotFound:
		return codes.NotFound
	case dserror.CodeServiceUnavailable, dserror.CodeDatabaseError:
		return codes.Unavailable
	}
	return codes.Internal
}
