package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// staticDir is where the web client's built assets are expected to live.
// The client itself is out of scope (spec.md §1 "static asset files of the
// web client... served verbatim") — only the serving route is ours to
// build, the same http.FileServer(http.Dir(...)) shape Zzhihon-Bt1QFM's
// server.go uses for its own UI asset directory.
const staticDir = "client/dist"

// registerStaticRoutes implements §4.D "/<static>": no auth, registered
// ahead of the protected group.
func registerStaticRoutes(e *echo.Echo) {
	fileServer := http.FileServer(http.Dir(staticDir))
	handler := echo.WrapHandler(fileServer)
	e.GET("/*", handler)
}
