package httpapi

import (
	"os"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ondrejsika/audioserve-go/pkg/chapters"
	"github.com/ondrejsika/audioserve-go/pkg/errcodes"
	"github.com/ondrejsika/audioserve-go/pkg/transcode"
)

// audioHandler implements §4.D "/col/audio/{path}?trans=l|m|h|0&seek=secs":
// trans=0/absent serves the underlying byte range directly; otherwise the
// transcoded chunked stream (§4.B). Virtual chapter paths always force
// transcoding, since the byte range of a sub-section of a container file
// isn't a meaningful raw byte range.
func audioHandler(c echo.Context) error {
	d := deps(c)

	idx, err := collectionIndex(d, c)
	if err != nil {
		return err
	}
	col := idx.Collection

	rel := folderPath(c)
	trans := c.QueryParam("trans")
	seekSecs, hasSeek, err := parseSeek(c.QueryParam("seek"))
	if err != nil {
		return errcodes.BadRequest("invalid seek parameter")
	}

	var (
		sourceAbs string
		baseSeek  float64
	)

	if chapters.IsVirtual(rel) {
		vp, err := chapters.Parse(rel)
		if err != nil {
			return errcodes.BadRequest("malformed virtual chapter path")
		}
		sourceAbs = col.AbsPath(vp.Base)
		baseSeek = float64(vp.StartMS) / 1000
		if trans == "0" || trans == "" {
			trans = "m"
		}
	} else {
		sourceAbs = col.AbsPath(rel)
	}

	if hasSeek && (trans == "0" || trans == "") {
		return errcodes.BadRequest("seek requires trans to be set")
	}

	if trans == "0" || trans == "" {
		return serveRangedFile(c, sourceAbs, "")
	}

	profile, ok := selectProfiles(d.Config, c.Request().UserAgent())[trans]
	if !ok {
		return errcodes.BadRequest("unknown transcoding profile")
	}

	info, err := os.Stat(sourceAbs)
	if err != nil {
		return errcodes.NotFound("File")
	}

	seek := baseSeek
	if hasSeek {
		seek += seekSecs
	}

	w := c.Response()
	w.Header().Set("Content-Type", transcode.ContentType(profile))

	// StreamTranscoded fails fast on admission before writing anything to
	// w, so ErrBusy still reaches the client as a proper status code
	// rather than a truncated 200.
	_, err = d.Pipeline.StreamTranscoded(c.Request().Context(), sourceAbs, info.ModTime().Unix(), profile, seek, w)
	if err == transcode.ErrBusy {
		return errcodes.Busy("transcoding slots exhausted", 2)
	}
	if err != nil {
		return errcodes.Upstream(err.Error())
	}
	return nil
}

func parseSeek(raw string) (float64, bool, error) {
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}
