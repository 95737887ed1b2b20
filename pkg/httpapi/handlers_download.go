package httpapi

import (
	"archive/tar"
	"archive/zip"
	"io"
	"os"
	"path"

	"github.com/labstack/echo/v4"

	"github.com/ondrejsika/audioserve-go/pkg/errcodes"
)

// downloadHandler implements §4.D "/col/download/{path}?fmt=zip|tar":
// streams every file of a folder (audio, cover, description) as an
// archive, the same container formats the teacher already reaches for
// with archive/zip in pkg/cbz.
func downloadHandler(c echo.Context) error {
	d := deps(c)

	if d.Config.DisableFolderDownload {
		return errcodes.Forbidden("folder download disabled")
	}

	idx, err := collectionIndex(d, c)
	if err != nil {
		return err
	}

	folder := folderPath(c)
	record, err := idx.ListFolder(folder)
	if err != nil {
		return errcodes.NotFound("Folder")
	}

	format := c.QueryParam("fmt")
	if format == "" {
		format = "zip"
	}

	var names []string
	for _, f := range record.Files {
		names = append(names, f.Path)
	}
	if record.Cover != "" {
		names = append(names, record.Cover)
	}
	if record.Description != "" {
		names = append(names, record.Description)
	}

	w := c.Response()
	switch format {
	case "zip":
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(folder)+`.zip"`)
		return writeZipArchive(w, idx.Collection.AbsPath, names)
	case "tar":
		w.Header().Set("Content-Type", "application/x-tar")
		w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(folder)+`.tar"`)
		return writeTarArchive(w, idx.Collection.AbsPath, names)
	default:
		return errcodes.BadRequest("unsupported download format")
	}
}

func writeZipArchive(w io.Writer, absPath func(string) string, names []string) error {
	zw := zip.NewWriter(w)
	defer zw.Close()

	for _, rel := range names {
		if err := addZipEntry(zw, absPath(rel), rel); err != nil {
			return err
		}
	}
	return nil
}

func addZipEntry(zw *zip.Writer, abs, rel string) error {
	f, err := os.Open(abs)
	if err != nil {
		return nil // skip files that vanished between listing and streaming
	}
	defer f.Close()

	entry, err := zw.Create(rel)
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, f)
	return err
}

func writeTarArchive(w io.Writer, absPath func(string) string, names []string) error {
	tw := tar.NewWriter(w)
	defer tw.Close()

	for _, rel := range names {
		if err := addTarEntry(tw, absPath(rel), rel); err != nil {
			return err
		}
	}
	return nil
}

func addTarEntry(tw *tar.Writer, abs, rel string) error {
	f, err := os.Open(abs)
	if err != nil {
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil
	}

	hdr := &tar.Header{
		Name: rel,
		Mode: 0o644,
		Size: info.Size(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}
