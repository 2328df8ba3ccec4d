// Package grpc exposes AuthService over gRPC with a JSON codec, so no
// generated protobuf code is needed.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"google.golang.org/grpc"
)

// AuthService is the subset of services.AuthService the gRPC handlers use.
type AuthService interface {
	Join(ctx context.Context, role, email, password, displayName string, meta models.ClientMeta) (*models.Authorized, error)
	Login(ctx context.Context, role, email, password string, meta models.ClientMeta) (*models.Authorized, error)
	Refresh(ctx context.Context, role, refreshToken string, meta models.ClientMeta) (*models.Authorized, error)
	Logout(ctx context.Context, role, refreshToken, accessToken string) error
	RevokeAll(ctx context.Context, principalID string) error
	ChangePassword(ctx context.Context, principalID, oldPassword, newPassword string, meta models.ClientMeta) (*models.Authorized, error)
	Authenticate(ctx context.Context, role, accessToken string) (*auth.Claims, error)
}

type GRPCServer struct {
	address string
	auth    AuthService
	logger  logging.Logger
}

var _ AuthServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, svc AuthService) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		auth:    svc,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	RegisterAuthServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
