package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func clientMeta(ctx context.Context) models.ClientMeta {
	return models.ClientMeta{
		UserAgent: metadataValue(ctx, "user-agent"),
		IPAddress: peerAddr(ctx),
	}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrTokenRevoked):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrAccountNotActive), errors.Is(err, common.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, common.ErrDuplicateIdentifier):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func newAuthorizedResponse(a *models.Authorized) *AuthorizedResponse {
	p := a.Principal
	return &AuthorizedResponse{
		ID:          p.ID,
		Email:       p.Email,
		Role:        p.Role,
		Status:      string(p.Status),
		DisplayName: p.DisplayName,
		CreatedAt:   p.CreatedAt,
		Token: Token{
			Access:           a.Token.Access,
			Refresh:          a.Token.Refresh,
			ExpiredAt:        a.Token.ExpiredAt,
			RefreshableUntil: a.Token.RefreshableUntil,
		},
	}
}

func (s *GRPCServer) Join(ctx context.Context, req *JoinRequest) (*AuthorizedResponse, error) {
	res, err := s.auth.Join(ctx, req.Role, req.Email, req.Password, req.DisplayName, clientMeta(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return newAuthorizedResponse(res), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *LoginRequest) (*AuthorizedResponse, error) {
	res, err := s.auth.Login(ctx, req.Role, req.Email, req.Password, clientMeta(ctx))
	if err != nil {
		if errors.Is(err, common.ErrAccountNotActive) {
			err = common.ErrInvalidCredentials
		}
		return nil, toStatus(err)
	}
	return newAuthorizedResponse(res), nil
}

func (s *GRPCServer) Refresh(ctx context.Context, req *RefreshRequest) (*AuthorizedResponse, error) {
	res, err := s.auth.Refresh(ctx, req.Role, req.Refresh, clientMeta(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return newAuthorizedResponse(res), nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *LogoutRequest) (*Empty, error) {
	if err := s.auth.Logout(ctx, req.Role, req.Refresh, accessToken(ctx)); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) LogoutAll(ctx context.Context, _ *LogoutAllRequest) (*Empty, error) {
	claims, ok := claimsFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	if err := s.auth.RevokeAll(ctx, claims.Subject); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *ChangePasswordRequest) (*AuthorizedResponse, error) {
	claims, ok := claimsFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	res, err := s.auth.ChangePassword(ctx, claims.Subject, req.OldPassword, req.NewPassword, clientMeta(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return newAuthorizedResponse(res), nil
}
