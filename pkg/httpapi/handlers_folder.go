package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ondrejsika/audioserve-go/pkg/errcodes"
	"github.com/ondrejsika/audioserve-go/pkg/index"
)

// folderHandler implements §4.D "/col/folder/{path}?ord=a|m": the
// FolderRecord rendered as JSON, 404 on missing.
func folderHandler(c echo.Context) error {
	d := deps(c)

	idx, err := collectionIndex(d, c)
	if err != nil {
		return err
	}

	rel := folderPath(c)

	record, err := idx.ListFolder(rel)
	if err != nil {
		return errcodes.NotFound("Folder")
	}

	return c.JSON(http.StatusOK, record)
}

func collectionIndex(d *Deps, c echo.Context) (*index.Index, error) {
	id := collectionID(c)
	idx, ok := d.Indexes[id]
	if !ok {
		return nil, errcodes.NotFound("Collection")
	}
	return idx, nil
}

// folderPath reads the echo wildcard path segment and trims the leading
// slash echo's "*" param always includes.
func folderPath(c echo.Context) string {
	return strings.TrimPrefix(c.Param("*"), "/")
}
