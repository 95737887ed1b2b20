package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ondrejsika/audioserve-go/pkg/index"
)

// searchHandler implements §4.D "/col/search?q=...&ord=a|m".
func searchHandler(c echo.Context) error {
	d := deps(c)

	idx, err := collectionIndex(d, c)
	if err != nil {
		return err
	}

	order := index.Order(c.QueryParam("ord"))
	if order != index.OrderAlpha && order != index.OrderMTime {
		order = index.OrderAlpha
	}

	results := idx.SearchFolders(c.QueryParam("q"), order)
	return c.JSON(http.StatusOK, map[string]interface{}{"subfolders": results})
}

// recentHandler implements §4.D "/col/recent": the 64 most recently
// modified folders.
func recentHandler(c echo.Context) error {
	d := deps(c)

	idx, err := collectionIndex(d, c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"subfolders": idx.RecentFolders()})
}
