package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ondrejsika/audioserve-go/pkg/errcodes"
	"github.com/ondrejsika/audioserve-go/pkg/position"
)

// positionsUpdateRequest backs the update half of the REST mirror of §4.E's
// websocket query/update grammar (the query half reads the "group" query
// parameter directly), for clients that would rather not hold a long-lived
// connection open (e.g. a one-shot resume-playback check). The token carries
// no group identity, so "group" must be supplied explicitly here.
type positionsUpdateRequest struct {
	Group        string  `json:"group" form:"group"`
	PositionSecs float64 `json:"position" form:"position"`
}

// positionsQueryHandler implements the REST mirror of §4.E "Query":
// GET /col/positions/{path}?group=....
func positionsQueryHandler(c echo.Context) error {
	d := deps(c)

	group := c.QueryParam("group")
	if group == "" {
		return errcodes.BadRequest("group is required")
	}

	resp, err := d.PosManager.Query(group, collectionID(c), folderPath(c))
	if err != nil {
		return positionError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// positionsUpdateHandler implements the REST mirror of §4.E "Update
// (long)": POST /col/positions/{path}.
func positionsUpdateHandler(c echo.Context) error {
	d := deps(c)

	req := new(positionsUpdateRequest)
	if err := c.Bind(req); err != nil {
		return errcodes.MalformedPayload()
	}
	if req.Group == "" {
		return errcodes.BadRequest("group is required")
	}

	rec, err := d.PosManager.Update(req.Group, collectionID(c), folderPath(c), req.PositionSecs, time.Now().UnixMilli())
	if err != nil {
		return positionError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func positionError(err error) error {
	switch err {
	case position.ErrUnknownCollection:
		return errcodes.NotFound("Collection")
	case position.ErrGroupsFull:
		return errcodes.Busy("position groups cache full", 5)
	case position.ErrOlderThanStored:
		return errcodes.Conflict("position update older than stored record")
	default:
		return errcodes.Upstream(err.Error())
	}
}
