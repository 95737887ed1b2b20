package httpapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/ondrejsika/audioserve-go/pkg/config"
	"github.com/ondrejsika/audioserve-go/pkg/errcodes"
)

// corsMiddleware attaches permissive CORS headers when enabled, restricted
// to Origins matching cfg.CORSRegex when one is configured (§4.D "CORS").
func corsMiddleware(cfg *config.Config) echo.MiddlewareFunc {
	if !cfg.CORS {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if cfg.CORSRegex == nil {
		return middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: []string{"*"},
		})
	}
	re := cfg.CORSRegex
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) {
			return re.MatchString(origin), nil
		},
	})
}

// rateLimitMiddleware enforces a process-wide token bucket (§4.D "Rate
// limit"): not echo's per-key limiter store, since --limit-rate is a
// single global rate shared by every client.
func rateLimitMiddleware(r rate.Limit, burst int) echo.MiddlewareFunc {
	limiter := rate.NewLimiter(r, burst)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiter.Allow() {
				return errcodes.RateLimited()
			}
			return next(c)
		}
	}
}

// stripURLPathPrefix removes cfg's configured prefix from every incoming
// request path before routing (§4.D "URL-path-prefix"). An empty prefix
// is a no-op.
func stripURLPathPrefix(prefix string) echo.MiddlewareFunc {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if p := strings.TrimPrefix(req.URL.Path, prefix); p != req.URL.Path {
				if p == "" {
					p = "/"
				}
				req.URL.Path = p
			}
			return next(c)
		}
	}
}
