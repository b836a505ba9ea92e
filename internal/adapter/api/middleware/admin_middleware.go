package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"lostfound/internal/domain/entity"
	"lostfound/internal/domain/repository"
	"lostfound/pkg/errors"
	"lostfound/pkg/logger"
	"lostfound/pkg/response"
)

const (
	msgAdminOnly        = "Akses hanya untuk admin"
	msgNewAccount       = "Akun baru dibuat, tetapi bukan admin"
	msgPermissionDenied = "Izin ditolak: Tidak dapat mengakses data pengguna"
)

// AdminOnly lets a request through when users/{uid} has role admin. A first
// visit creates the user document with role user and is rejected.
type AdminMiddleware struct {
	userRepo repository.UserRepository
	clock    func() time.Time
	log      logger.Logger
}

func NewAdminMiddleware(userRepo repository.UserRepository) *AdminMiddleware {
	return &AdminMiddleware{
		userRepo: userRepo,
		clock:    time.Now,
		log:      logger.New("admin_guard"),
	}
}

func (m *AdminMiddleware) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, ok := c.Get("uid").(string)
		if !ok || uid == "" {
			return response.Error(c, errors.Unauthorized(msgMissingToken, nil))
		}
		ctx := c.Request().Context()

		user, err := m.userRepo.GetByID(ctx, uid)
		if errors.Is(err, errors.CodeNotFound) {
			email, _ := c.Get("email").(string)
			newUser := &entity.User{ID: uid, Email: email, Role: entity.RoleUser, CreatedAt: m.clock()}
			if err := m.userRepo.Create(ctx, newUser); err != nil {
				m.log.Error("Failed to create user document", "uid", uid, "error", err)
				return response.Error(c, errors.Forbidden(msgPermissionDenied, err))
			}
			m.log.Info("Created user document", "uid", uid)
			return response.Error(c, errors.Forbidden(msgNewAccount, nil))
		}
		if err != nil {
			m.log.Error("Failed to read user document", "uid", uid, "error", err)
			return response.Error(c, errors.Forbidden(msgPermissionDenied, err))
		}

		if !user.IsAdmin() {
			return response.Error(c, errors.Forbidden(msgAdminOnly, nil))
		}

		c.Set("user", user)
		return next(c)
	}
}
