// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     server
// Description: Service descriptor of bes.Dispatcher
// License:     MIT
// ============================================================================

package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Method names of the dispatcher service
const (
	ServiceName      = "bes.Dispatcher"
	ExecuteMethod    = "/bes.Dispatcher/Execute"
	ExecuteXMLMethod = "/bes.Dispatcher/ExecuteXML"

	// StatusHeader carries the numeric status of the request
	StatusHeader = "x-bes-status"
	// FormatHeader selects the response format of a legacy command
	FormatHeader = "x-bes-format"
)

// DispatcherServer is the server API of the dispatcher service
type DispatcherServer interface {
	Execute(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	ExecuteXML(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
}

// RegisterDispatcherServer registers srv with s
func RegisterDispatcherServer(s grpc.ServiceRegistrar, srv DispatcherServer) {
	s.RegisterService(&dispatcherServiceDesc, srv)
}

var dispatcherServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DispatcherServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Execute", Handler: executeHandler},
		{MethodName: "ExecuteXML", Handler: executeXMLHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bes/dispatcher.proto",
}

func executeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispatcherServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ExecuteMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DispatcherServer).Execute(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func executeXMLHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispatcherServer).ExecuteXML(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ExecuteXMLMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DispatcherServer).ExecuteXML(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}
