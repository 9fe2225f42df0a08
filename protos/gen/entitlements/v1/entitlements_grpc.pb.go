// Code generated by protoc-gen-go-grpc. DO NOT EDIT.
// versions:
// - protoc-gen-go-grpc v1.6.0
// - protoc             (unknown)
// source: entitlements/v1/entitlements.proto

package entitlementsv1

import (
	context "context"
	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
)

// This is a compile-time assertion to ensure that this generated file
// is compatible with the grpc package it is being compiled against.
// Requires gRPC-Go v1.64.0 or later.
const _ = grpc.SupportPackageIsVersion9

const (
	BookabilityService_CheckBookable_FullMethodName = "/entitlements.v1.BookabilityService/CheckBookable"
)

// BookabilityServiceClient is the client API for BookabilityService service.
//
// For semantics around ctx use and closing/ending streaming RPCs, please refer to https://pkg.go.dev/google.golang.org/grpc/?tab=doc#ClientConn.NewStream.
//
// BookabilityService lets the external search indexer double-check a
// doctor's current bookability before surfacing them in results.
type BookabilityServiceClient interface {
	CheckBookable(ctx context.Context, in *CheckBookableRequest, opts ...grpc.CallOption) (*CheckBookableResponse, error)
}

type bookabilityServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBookabilityServiceClient(cc grpc.ClientConnInterface) BookabilityServiceClient {
	return &bookabilityServiceClient{cc}
}

func (c *bookabilityServiceClient) CheckBookable(ctx context.Context, in *CheckBookableRequest, opts ...grpc.CallOption) (*CheckBookableResponse, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	out := new(CheckBookableResponse)
	err := c.cc.Invoke(ctx, BookabilityService_CheckBookable_FullMethodName, in, out, cOpts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BookabilityServiceServer is the server API for BookabilityService service.
// All implementations must embed UnimplementedBookabilityServiceServer
// for forward compatibility.
//
// BookabilityService lets the external search indexer double-check a
// doctor's current bookability before surfacing them in results.
type BookabilityServiceServer interface {
	CheckBookable(context.Context, *CheckBookableRequest) (*CheckBookableResponse, error)
	mustEmbedUnimplementedBookabilityServiceServer()
}

// UnimplementedBookabilityServiceServer must be embedded to have
// forward compatible implementations.
//
// NOTE: this should be embedded by value instead of pointer to avoid a nil
// pointer dereference when methods are called.
type UnimplementedBookabilityServiceServer struct{}

func (UnimplementedBookabilityServiceServer) CheckBookable(context.Context, *CheckBookableRequest) (*CheckBookableResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CheckBookable not implemented")
}
func (UnimplementedBookabilityServiceServer) mustEmbedUnimplementedBookabilityServiceServer() {}
func (UnimplementedBookabilityServiceServer) testEmbeddedByValue()                            {}

// UnsafeBookabilityServiceServer may be embedded to opt out of forward compatibility for this service.
// Use of this interface is not recommended, as added methods to BookabilityServiceServer will
// result in compilation errors.
type UnsafeBookabilityServiceServer interface {
	mustEmbedUnimplementedBookabilityServiceServer()
}

func RegisterBookabilityServiceServer(s grpc.ServiceRegistrar, srv BookabilityServiceServer) {
	// If the following call panics, it indicates UnimplementedBookabilityServiceServer was
	// embedded by pointer and is nil.  This will cause panics if an
	// unimplemented method is ever invoked, so we test this at initialization
	// time to prevent it from happening at runtime later due to I/O.
	if t, ok := srv.(interface{ testEmbeddedByValue() }); ok {
		t.testEmbeddedByValue()
	}
	s.RegisterService(&BookabilityService_ServiceDesc, srv)
}

func _BookabilityService_CheckBookable_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CheckBookableRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookabilityServiceServer).CheckBookable(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: BookabilityService_CheckBookable_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BookabilityServiceServer).CheckBookable(ctx, req.(*CheckBookableRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// BookabilityService_ServiceDesc is the grpc.ServiceDesc for BookabilityService service.
// It's only intended for direct use with grpc.RegisterService,
// and not to be introspected or modified (even as a copy)
var BookabilityService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "entitlements.v1.BookabilityService",
	HandlerType: (*BookabilityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CheckBookable",
			Handler:    _BookabilityService_CheckBookable_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "entitlements/v1/entitlements.proto",
}
