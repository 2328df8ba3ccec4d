// Package http exposes AuthService over JSON/HTTP using gin. Every
// configured role gets its own /auth/{role} route group.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/gin-gonic/gin"
)

// AdminRole is the role allowed to change principal status.
const AdminRole = "admin"

const shutdownTimeout = 5 * time.Second

// AuthService is the subset of services.AuthService the handlers use.
type AuthService interface {
	Join(ctx context.Context, role, email, password, displayName string, meta models.ClientMeta) (*models.Authorized, error)
	Login(ctx context.Context, role, email, password string, meta models.ClientMeta) (*models.Authorized, error)
	Refresh(ctx context.Context, role, refreshToken string, meta models.ClientMeta) (*models.Authorized, error)
	Logout(ctx context.Context, role, refreshToken, accessToken string) error
	RevokeAll(ctx context.Context, principalID string) error
	ChangePassword(ctx context.Context, principalID, oldPassword, newPassword string, meta models.ClientMeta) (*models.Authorized, error)
	SetStatus(ctx context.Context, principalID string, status models.PrincipalStatus) error
	Principal(ctx context.Context, principalID string) (*models.Principal, error)
	Sessions(ctx context.Context, principalID string) ([]*models.Session, error)
	Authenticate(ctx context.Context, role, accessToken string) (*auth.Claims, error)
}

type HTTPServer struct {
	address string
	roles   []string
	auth    AuthService
	logger  logging.Logger
	engine  *gin.Engine
}

func NewHTTPServer(address string, roles []string, l logging.Logger, svc AuthService) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	registerValidation()

	s := &HTTPServer{
		address: address,
		roles:   roles,
		auth:    svc,
		logger:  l.With("module", "http_server"),
	}

	e := gin.New()
	e.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes(e)
	s.engine = e

	return s
}

// Handler returns the routed gin engine.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured address and serves until ctx is done.
func (s *HTTPServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis until ctx is done, then shuts down
// gracefully.
func (s *HTTPServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
