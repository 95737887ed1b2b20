package chapters

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Entry is one row of a resolved chapter table, independent of how it was
// acquired (sibling CSV, container metadata, or duration synthesis).
type Entry struct {
	Title   string
	StartMS uint64
	EndMS   uint64
}

// ParseCSV reads the `<name>.chapters` sibling file format: header line
// "title,start,end", one chapter per row, times either decimal seconds or
// HH:MM:SS.mmm (§4.C, §6 "Wire formats"). Rows with negative or
// non-monotonic (end <= start) times are dropped with a warning, not fatal
// (§8 "Boundary cases"); the returned warnings slice names each dropped row.
func ParseCSV(r io.Reader) ([]Entry, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("chapters: empty CSV")
		}
		return nil, nil, errors.WithStack(err)
	}
	if !isChapterHeader(header) {
		return nil, nil, errors.New("chapters: CSV missing title,start,end header")
	}

	var entries []Entry
	var warnings []string
	row := 1
	for {
		row++
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, errors.WithStack(err)
		}
		if len(rec) < 3 {
			warnings = append(warnings, rowWarning(row, "wrong column count"))
			continue
		}

		startMS, err := parseTimeField(rec[1])
		if err != nil {
			warnings = append(warnings, rowWarning(row, "bad start time"))
			continue
		}
		endMS, err := parseTimeField(rec[2])
		if err != nil {
			warnings = append(warnings, rowWarning(row, "bad end time"))
			continue
		}
		if endMS <= startMS {
			warnings = append(warnings, rowWarning(row, "non-monotonic range"))
			continue
		}

		entries = append(entries, Entry{Title: rec[0], StartMS: startMS, EndMS: endMS})
	}

	return entries, warnings, nil
}

func isChapterHeader(header []string) bool {
	if len(header) < 3 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(header[0]), "title") &&
		strings.EqualFold(strings.TrimSpace(header[1]), "start") &&
		strings.EqualFold(strings.TrimSpace(header[2]), "end")
}

func rowWarning(row int, reason string) string {
	return "chapters CSV row " + strconv.Itoa(row) + ": " + reason
}

// parseTimeField accepts either a decimal-seconds value ("125.5") or
// HH:MM:SS.mmm, returning milliseconds. Negative values are rejected.
func parseTimeField(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty time field")
	}

	if strings.Contains(s, ":") {
		return parseClockTime(s)
	}

	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	if secs < 0 {
		return 0, errors.New("negative time")
	}
	return uint64(secs * 1000), nil
}

func parseClockTime(s string) (uint64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, errors.New("expected HH:MM:SS.mmm")
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, errors.New("bad hours")
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m >= 60 {
		return 0, errors.New("bad minutes")
	}
	secs, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || secs < 0 {
		return 0, errors.New("bad seconds")
	}

	total := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(secs*float64(time.Second))
	return uint64(total.Milliseconds()), nil
}
