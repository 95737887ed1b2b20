// Package httpapi implements §4.D: the HTTP surface, token authentication,
// and the static asset server audioserve publishes its media collections
// over. Route wiring follows shishobooks-shisho's pkg/server/server.go
// shape: one echo.Echo, a shared Binder, the same ambient middleware
// stack, and one route group that carries the token-auth middleware.
package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	golibLogger "github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/robinjoseph08/golib/logger"
	"golang.org/x/time/rate"

	"github.com/ondrejsika/audioserve-go/pkg/binder"
	"github.com/ondrejsika/audioserve-go/pkg/collection"
	"github.com/ondrejsika/audioserve-go/pkg/config"
	"github.com/ondrejsika/audioserve-go/pkg/errcodes"
	"github.com/ondrejsika/audioserve-go/pkg/index"
	"github.com/ondrejsika/audioserve-go/pkg/position"
	"github.com/ondrejsika/audioserve-go/pkg/token"
	"github.com/ondrejsika/audioserve-go/pkg/transcode"
)

// Deps bundles everything a handler needs to reach into the rest of the
// process, threaded through echo.Context via Deps.Middleware.
type Deps struct {
	Config    *config.Config
	Registry  *collection.Registry
	Indexes   map[int]*index.Index
	Pipeline  *transcode.Pipeline
	PosManager *position.Manager
	Signer    *token.Signer
	Log       logger.Logger
}

// contextKeyDeps is the echo.Context key Deps is stored under.
const contextKeyDeps = "audioserve.deps"

// New builds the *http.Server for Deps, wired per §4.D.
func New(d *Deps) (*http.Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(golibLogger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(contextKeyDeps, d)
			return next(c)
		}
	})
	e.Use(stripURLPathPrefix(d.Config.URLPathPrefix))
	e.Use(corsMiddleware(d.Config))
	if d.Config.LimitRatePerSec > 0 {
		e.Use(rateLimitMiddleware(rate.Limit(d.Config.LimitRatePerSec), d.Config.LimitRatePerSec))
	}

	health.RegisterRoutes(e)

	auth := newAuthMiddleware(d.Signer, d.Config.NoAuthentication)

	e.POST("/authenticate", authenticateHandler)

	registerStaticRoutes(e)

	protected := e.Group("")
	protected.Use(auth.Authenticate)

	protected.GET("/collections", collectionsHandler)
	protected.GET("/transcodings", transcodingsHandler)
	protected.GET("/position", positionUpgradeHandler)

	registerCollectionRoutes(protected)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              d.Config.Listen,
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return srv, nil
}

// registerCollectionRoutes registers every "/col/..." endpoint twice: once
// under the bare path (default collection 0) and once under
// "/:collection/..." (§4.D "/col denotes an optional leading
// /{collection_id}/ segment, default 0").
func registerCollectionRoutes(g *echo.Group) {
	register := func(prefix string) {
		g.GET(prefix+"/folder/*", folderHandler)
		g.GET(prefix+"/audio/*", audioHandler)
		g.GET(prefix+"/cover/*", coverHandler)
		g.GET(prefix+"/desc/*", descHandler)
		g.GET(prefix+"/search", searchHandler)
		g.GET(prefix+"/recent", recentHandler)
		g.GET(prefix+"/download/*", downloadHandler)
		g.GET(prefix+"/positions/*", positionsQueryHandler)
		g.POST(prefix+"/positions/*", positionsUpdateHandler)
	}
	register("")
	register("/:collection")
}

func notFoundHandler(c echo.Context) error {
	return errcodes.NotFound("Page")
}

func deps(c echo.Context) *Deps {
	return c.Get(contextKeyDeps).(*Deps)
}

func collectionID(c echo.Context) int {
	raw := c.Param("collection")
	if raw == "" {
		return 0
	}
	var id int
	if _, err := fmt.Sscanf(raw, "%d", &id); err != nil {
		return 0
	}
	return id
}
