package grpc

import (
	"context"
	"fmt"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Parser service identity. Requests and responses are google.protobuf.Struct
// documents, so no generated code is needed.
const (
	ParserServiceName = "descent.v1.Parser"
	ParseMethod       = "/descent.v1.Parser/Parse"
	TokenizeMethod    = "/descent.v1.Parser/Tokenize"
)

// Trailer keys carrying the front-end error of a failed call
const (
	ErrorCodeTrailer     = "descent-error-code"
	ErrorPositionTrailer = "descent-error-position"
)

// ParserServer is the server API for the parser service
type ParserServer interface {
	Parse(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Tokenize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterParserServer registers srv on s
func RegisterParserServer(s grpc.ServiceRegistrar, srv ParserServer) {
	s.RegisterService(&parserServiceDesc, srv)
}

var parserServiceDesc = grpc.ServiceDesc{
	ServiceName: ParserServiceName,
	HandlerType: (*ParserServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Parse",
			Handler: unaryHandler(ParseMethod, func(srv ParserServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
				return srv.Parse(ctx, req)
			}),
		},
		{
			MethodName: "Tokenize",
			Handler: unaryHandler(TokenizeMethod, func(srv ParserServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
				return srv.Tokenize(ctx, req)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "descent/v1/parser.proto",
}

type structCall func(srv ParserServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call structCall) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ParserServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ParserServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// SetErrorTrailer attaches a front-end error code and optional position to
// the call's trailer
func SetErrorTrailer(ctx context.Context, code string, position *int) {
	md := metadata.Pairs(ErrorCodeTrailer, code)
	if position != nil {
		md.Set(ErrorPositionTrailer, strconv.Itoa(*position))
	}
	grpc.SetTrailer(ctx, md)
}

// RemoteError is a failed parser call with the front-end error recovered
// from the trailer
type RemoteError struct {
	Status   codes.Code
	Code     string
	Message  string
	Position *int
}

func (e *RemoteError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("remote call failed (%s): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// ParserClient is the client API for the parser service
type ParserClient struct {
	cc grpc.ClientConnInterface
}

// NewParserClient creates a client on cc
func NewParserClient(cc grpc.ClientConnInterface) *ParserClient {
	return &ParserClient{cc: cc}
}

// Parse sends a parse request
func (c *ParserClient) Parse(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ParseMethod, req, opts...)
}

// Tokenize sends a tokenize request
func (c *ParserClient) Tokenize(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, TokenizeMethod, req, opts...)
}

// ParseSource builds the request document for source and sends it
func (c *ParserClient) ParseSource(ctx context.Context, source string, positions, linked bool) (map[string]interface{}, error) {
	req, err := structpb.NewStruct(map[string]interface{}{
		"source":    source,
		"positions": positions,
		"linked":    linked,
	})
	if err != nil {
		return nil, err
	}
	resp, err := c.Parse(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.AsMap(), nil
}

func (c *ParserClient) invoke(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	var trailer metadata.MD
	out := new(structpb.Struct)
	opts = append(opts, grpc.Trailer(&trailer))
	if err := c.cc.Invoke(ctx, method, req, out, opts...); err != nil {
		return nil, remoteError(err, trailer)
	}
	return out, nil
}

func remoteError(err error, trailer metadata.MD) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	remote := &RemoteError{Status: st.Code(), Message: st.Message()}
	if values := trailer.Get(ErrorCodeTrailer); len(values) > 0 {
		remote.Code = values[0]
	}
	if values := trailer.Get(ErrorPositionTrailer); len(values) > 0 {
		if pos, convErr := strconv.Atoi(values[0]); convErr == nil {
			remote.Position = &pos
		}
	}
	return remote
}
