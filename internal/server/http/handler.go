package http

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/gin-gonic/gin"
)

func clientMeta(c *gin.Context) models.ClientMeta {
	return models.ClientMeta{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	}
}

func (s *HTTPServer) join(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req joinRequest
		if !bind(c, &req) {
			return
		}

		res, err := s.auth.Join(c.Request.Context(), role, req.Email, req.Password, req.DisplayName, clientMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusCreated, newAuthorizedResponse(res))
	}
}

func (s *HTTPServer) login(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if !bind(c, &req) {
			return
		}

		res, err := s.auth.Login(c.Request.Context(), role, req.Email, req.Password, clientMeta(c))
		if err != nil {
			// account state is not disclosed on the login path
			if errors.Is(err, common.ErrAccountNotActive) {
				err = common.ErrInvalidCredentials
			}
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, newAuthorizedResponse(res))
	}
}

func (s *HTTPServer) refresh(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refreshRequest
		if !bind(c, &req) {
			return
		}

		res, err := s.auth.Refresh(c.Request.Context(), role, req.Refresh, clientMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, newAuthorizedResponse(res))
	}
}

func (s *HTTPServer) logout(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refreshRequest
		if !bind(c, &req) {
			return
		}

		access, _ := bearerToken(c.GetHeader("Authorization"))
		if err := s.auth.Logout(c.Request.Context(), role, req.Refresh, access); err != nil {
			writeError(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func (s *HTTPServer) logoutAll(c *gin.Context) {
	claims := claimsFrom(c)
	if err := s.auth.RevokeAll(c.Request.Context(), claims.Subject); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *HTTPServer) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bind(c, &req) {
		return
	}

	claims := claimsFrom(c)
	res, err := s.auth.ChangePassword(c.Request.Context(), claims.Subject, req.OldPassword, req.NewPassword, clientMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAuthorizedResponse(res))
}

func (s *HTTPServer) me(c *gin.Context) {
	p, err := s.auth.Principal(c.Request.Context(), claimsFrom(c).Subject)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPrincipalResponse(p))
}

func (s *HTTPServer) sessions(c *gin.Context) {
	claims := claimsFrom(c)
	list, err := s.auth.Sessions(c.Request.Context(), claims.Subject)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]sessionResponse, 0, len(list))
	for _, sess := range list {
		out = append(out, newSessionResponse(sess, claims.SessionID))
	}
	c.JSON(http.StatusOK, out)
}

func (s *HTTPServer) setStatus(c *gin.Context) {
	var req statusRequest
	if !bind(c, &req) {
		return
	}

	// admins cannot lock themselves out
	if c.Param("id") == claimsFrom(c).Subject {
		writeError(c, common.ErrForbidden)
		return
	}

	if err := s.auth.SetStatus(c.Request.Context(), c.Param("id"), models.PrincipalStatus(req.Status)); err != nil {
		writeError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "principal status set by admin",
		"admin_id", claimsFrom(c).Subject, "principal_id", c.Param("id"), "status", req.Status)
	c.Status(http.StatusNoContent)
}
