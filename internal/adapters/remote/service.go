// Package remote implements a remote artifact cache tier over gRPC.
//
// The service is registered by hand instead of from generated stubs. Fetch takes the
// hex rule key in a StringValue and answers with the artifact bytes, or NotFound. Store
// carries the rule key in the request metadata and the artifact in a BytesValue.
package remote

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	serviceName = "kiln.cache.v1.ArtifactCache"
	fetchMethod = "/" + serviceName + "/Fetch"
	storeMethod = "/" + serviceName + "/Store"

	// keyHeader is the metadata key carrying the rule key of a Store call.
	keyHeader = "kiln-rule-key"

	// MaxArtifactSize bounds the size of one artifact message.
	MaxArtifactSize = 512 << 20
)

// cacheService is the server side of the artifact cache service.
type cacheService interface {
	Fetch(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Store(ctx context.Context, req *wrapperspb.BytesValue) (*emptypb.Empty, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*cacheService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Fetch", Handler: fetchHandler},
		{MethodName: "Store", Handler: storeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "kiln/cache/v1/cache.proto",
}

func fetchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(cacheService).Fetch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fetchMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(cacheService).Fetch(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func storeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(cacheService).Store(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: storeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(cacheService).Store(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}
