package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"lostfound/pkg/errors"
	"lostfound/pkg/logger"
	"lostfound/pkg/response"
)

const (
	msgMissingToken      = "Sesi tidak ditemukan, silakan login kembali"
	msgInvalidCredential = "Kredensial tidak valid"
)

// TokenVerifier checks a Firebase ID token and returns its uid and email.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (uid string, email string, err error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
	log      logger.Logger
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		log:      logger.New("auth"),
	}
}

// Authenticate requires "Authorization: Bearer <id token>".
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized(msgMissingToken, nil))
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return response.Error(c, errors.Unauthorized(msgInvalidCredential, nil))
		}

		return m.verify(c, next, parts[1])
	}
}

// AuthenticateQuery reads the token from ?token=, for WebSocket handshakes
// where browsers cannot set headers.
func (m *AuthMiddleware) AuthenticateQuery(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.QueryParam("token")
		if token == "" {
			return response.Error(c, errors.Unauthorized(msgMissingToken, nil))
		}
		return m.verify(c, next, token)
	}
}

func (m *AuthMiddleware) verify(c echo.Context, next echo.HandlerFunc, token string) error {
	uid, email, err := m.verifier.VerifyToken(c.Request().Context(), token)
	if err != nil {
		m.log.Debug("Token rejected", "ip", c.RealIP(), "error", err)
		return response.Error(c, errors.Unauthorized(msgInvalidCredential, err))
	}

	c.Set("uid", uid)
	c.Set("email", email)
	return next(c)
}
