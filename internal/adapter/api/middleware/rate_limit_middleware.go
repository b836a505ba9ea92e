package middleware

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"lostfound/internal/infrastructure/ratelimit"
	"lostfound/pkg/errors"
	"lostfound/pkg/logger"
	"lostfound/pkg/response"
)

// RateLimit limits requests per client IP.
func RateLimit(rl *ratelimit.RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			ok, wait := rl.Allow(ip)
			if !ok {
				logger.Warn("RATE LIMIT: Blocked request from IP %s (retry in %v)", ip, wait)
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				return response.Error(c, errors.TooManyRequests("Terlalu banyak laporan, coba lagi nanti"))
			}

			return next(c)
		}
	}
}
