package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/driftline/auth-service/internal/application"
)

// AuthInternalService is the token introspection surface offered to sibling
// services over gRPC. It uses structpb payloads so the contract needs no
// generated code.
type AuthInternalService interface {
	ValidateToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type AuthInternalServer struct {
	service *application.Service
}

func NewAuthInternalServer(service *application.Service) *AuthInternalServer {
	return &AuthInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc AuthInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: "driftline.auth.v1.AuthInternalService",
		HandlerType: (*AuthInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "ValidateToken",
				Handler:    validateTokenHandler(svc),
			},
		},
		Streams: []grpc.StreamDesc{},
	}, svc)
}

func (s *AuthInternalServer) ValidateToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tokenVal := req.GetFields()["token"]
	if tokenVal == nil {
		return nil, status.Error(codes.InvalidArgument, "missing token")
	}
	token := tokenVal.GetStringValue()
	if token == "" {
		return nil, status.Error(codes.InvalidArgument, "missing token")
	}

	claims, err := s.service.ValidateToken(ctx, token)
	if err != nil {
		// All verification failure kinds collapse to Unauthenticated here,
		// same as the HTTP boundary.
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	resp, err := structpb.NewStruct(map[string]any{
		"valid":      true,
		"user_id":    claims.UserID.String(),
		"email":      claims.Email,
		"expires_at": claims.ExpiresAt.Unix(),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func validateTokenHandler(svc AuthInternalService) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return svc.ValidateToken(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/driftline.auth.v1.AuthInternalService/ValidateToken",
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return svc.ValidateToken(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
