package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "beerstock.BeerStock"

// BeerStockServer is served over messages from the protobuf well-known types,
// so the service needs no generated code.
type BeerStockServer interface {
	Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	FindByName(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
	List(ctx context.Context, in *emptypb.Empty) (*structpb.ListValue, error)
	Delete(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error)
	Increment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Decrement(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BeerStockServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unary("Register", BeerStockServer.Register)},
		{MethodName: "FindByName", Handler: unary("FindByName", BeerStockServer.FindByName)},
		{MethodName: "List", Handler: unary("List", BeerStockServer.List)},
		{MethodName: "Delete", Handler: unary("Delete", BeerStockServer.Delete)},
		{MethodName: "Increment", Handler: unary("Increment", BeerStockServer.Increment)},
		{MethodName: "Decrement", Handler: unary("Decrement", BeerStockServer.Decrement)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "beerstock.proto",
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unary[Req, Resp any](
	method string,
	call func(BeerStockServer, context.Context, *Req) (*Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BeerStockServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BeerStockServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
