package httpapi

import (
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ondrejsika/audioserve-go/pkg/errcodes"
)

// serveRangedFile streams absPath with manual single-range support (§4.D
// "Range semantics": accept a single bytes=a-b or bytes=a-; ignore
// multi-ranges; clamp the end to file_size-1). This is deliberately not
// http.ServeContent/echo's c.File, both of which answer a multi-range
// request with a multipart/byteranges body — exactly what the spec says
// to ignore in favor of serving the full content instead.
func serveRangedFile(c echo.Context, absPath, mimeType string) error {
	f, err := os.Open(absPath)
	if err != nil {
		return errcodes.NotFound("File")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errcodes.NotFound("File")
	}
	size := info.Size()

	start, end, hasRange, err := parseRange(c.Request().Header.Get("Range"), size)
	if err != nil {
		return errcodes.RangeNotSatisfiable()
	}

	w := c.Response()
	w.Header().Set("Accept-Ranges", "bytes")
	if mimeType != "" {
		w.Header().Set("Content-Type", mimeType)
	}

	if !hasRange {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		_, err := io.Copy(w, f)
		return err
	}

	length := end - start + 1
	w.Header().Set("Content-Range", "bytes "+strconv.FormatInt(start, 10)+"-"+strconv.FormatInt(end, 10)+"/"+strconv.FormatInt(size, 10))
	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return err
	}
	_, err = io.CopyN(w, f, length)
	return err
}

// parseRange decodes a single "bytes=a-b" or "bytes=a-" Range header,
// ignoring anything with a comma (a multi-range request), per §4.D. end is
// clamped to size-1.
func parseRange(header string, size int64) (start, end int64, hasRange bool, err error) {
	if header == "" {
		return 0, 0, false, nil
	}
	if !strings.HasPrefix(header, "bytes=") || strings.Contains(header, ",") {
		return 0, 0, false, nil
	}

	spec := strings.TrimPrefix(header, "bytes=")
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false, errcodes.RangeNotSatisfiable()
	}

	startStr, endStr := parts[0], parts[1]
	if startStr == "" {
		return 0, 0, false, errcodes.RangeNotSatisfiable()
	}

	start, convErr := strconv.ParseInt(startStr, 10, 64)
	if convErr != nil || start < 0 || start >= size {
		return 0, 0, false, errcodes.RangeNotSatisfiable()
	}

	if endStr == "" {
		end = size - 1
	} else {
		end, convErr = strconv.ParseInt(endStr, 10, 64)
		if convErr != nil || end < start {
			return 0, 0, false, errcodes.RangeNotSatisfiable()
		}
		if end > size-1 {
			end = size - 1
		}
	}

	return start, end, true, nil
}
