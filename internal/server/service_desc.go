package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "marketplace.v1.MarketplaceService"

// MarketplaceServer is the RPC surface. Messages are google.protobuf.Struct so clients need no generated stubs.
type MarketplaceServer interface {
	ResolvePermissions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRoles(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AssignRole(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RevokeRole(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AssignAgent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeactivateAgent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CurrentAgent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RequestAgent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListAgentRequests(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AcceptAgentRequest(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RejectAgentRequest(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompleteAgentRequest(context.Context, *structpb.Struct) (*structpb.Struct, error)
	OnboardingStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifyProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateSupport(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSupport(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// FullMethod returns "/marketplace.v1.MarketplaceService/<name>".
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

type call func(MarketplaceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, fn call) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(MarketplaceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return fn(srv.(MarketplaceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes MarketplaceService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MarketplaceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("ResolvePermissions", MarketplaceServer.ResolvePermissions),
		unaryMethod("ListRoles", MarketplaceServer.ListRoles),
		unaryMethod("AssignRole", MarketplaceServer.AssignRole),
		unaryMethod("RevokeRole", MarketplaceServer.RevokeRole),
		unaryMethod("AssignAgent", MarketplaceServer.AssignAgent),
		unaryMethod("DeactivateAgent", MarketplaceServer.DeactivateAgent),
		unaryMethod("CurrentAgent", MarketplaceServer.CurrentAgent),
		unaryMethod("RequestAgent", MarketplaceServer.RequestAgent),
		unaryMethod("ListAgentRequests", MarketplaceServer.ListAgentRequests),
		unaryMethod("AcceptAgentRequest", MarketplaceServer.AcceptAgentRequest),
		unaryMethod("RejectAgentRequest", MarketplaceServer.RejectAgentRequest),
		unaryMethod("CompleteAgentRequest", MarketplaceServer.CompleteAgentRequest),
		unaryMethod("OnboardingStatus", MarketplaceServer.OnboardingStatus),
		unaryMethod("VerifyProfile", MarketplaceServer.VerifyProfile),
		unaryMethod("CreateSupport", MarketplaceServer.CreateSupport),
		unaryMethod("GetSupport", MarketplaceServer.GetSupport),
		unaryMethod("CreateProduct", MarketplaceServer.CreateProduct),
		unaryMethod("DeleteProduct", MarketplaceServer.DeleteProduct),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "marketplace/v1/marketplace.proto",
}

// RegisterMarketplaceServer registers srv on s.
func RegisterMarketplaceServer(s grpc.ServiceRegistrar, srv MarketplaceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
