package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "authkeeper.AuthService"

// AuthServer is implemented by GRPCServer. It mirrors what protoc would
// generate for the service, with JSON-encoded messages.
type AuthServer interface {
	Join(context.Context, *JoinRequest) (*AuthorizedResponse, error)
	Login(context.Context, *LoginRequest) (*AuthorizedResponse, error)
	Refresh(context.Context, *RefreshRequest) (*AuthorizedResponse, error)
	Logout(context.Context, *LogoutRequest) (*Empty, error)
	LogoutAll(context.Context, *LogoutAllRequest) (*Empty, error)
	ChangePassword(context.Context, *ChangePasswordRequest) (*AuthorizedResponse, error)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unary builds the method descriptor for one unary call.
func unary[Req, Resp any](name string, call func(AuthServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AuthServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AuthServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Join", AuthServer.Join),
		unary("Login", AuthServer.Login),
		unary("Refresh", AuthServer.Refresh),
		unary("Logout", AuthServer.Logout),
		unary("LogoutAll", AuthServer.LogoutAll),
		unary("ChangePassword", AuthServer.ChangePassword),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterAuthServer registers srv on s.
func RegisterAuthServer(s grpc.ServiceRegistrar, srv AuthServer) {
	s.RegisterService(&serviceDesc, srv)
}

// Client calls the service over cc using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *Client, name string, in any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, fullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Join(ctx context.Context, in *JoinRequest, opts ...grpc.CallOption) (*AuthorizedResponse, error) {
	return invoke[AuthorizedResponse](ctx, c, "Join", in, opts...)
}

func (c *Client) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthorizedResponse, error) {
	return invoke[AuthorizedResponse](ctx, c, "Login", in, opts...)
}

func (c *Client) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*AuthorizedResponse, error) {
	return invoke[AuthorizedResponse](ctx, c, "Refresh", in, opts...)
}

func (c *Client) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "Logout", in, opts...)
}

func (c *Client) LogoutAll(ctx context.Context, in *LogoutAllRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "LogoutAll", in, opts...)
}

func (c *Client) ChangePassword(ctx context.Context, in *ChangePasswordRequest, opts ...grpc.CallOption) (*AuthorizedResponse, error) {
	return invoke[AuthorizedResponse](ctx, c, "ChangePassword", in, opts...)
}
