package httpapi

import (
	"github.com/labstack/echo/v4"

	"github.com/ondrejsika/audioserve-go/pkg/position"
)

// positionUpgradeHandler implements §4.D/§4.E "/position": the websocket
// upgrade endpoint carrying the position-sync text protocol. ?group= on
// the upgrade URL seeds the connection's default group for a bare generic
// query (see pkg/position/session.go and DESIGN.md's Open Question note).
func positionUpgradeHandler(c echo.Context) error {
	d := deps(c)
	return position.ServeConn(c.Response(), c.Request(), d.PosManager, c.QueryParam("group"), d.Log)
}
