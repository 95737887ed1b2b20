package supervisor

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// schedule is a minimal field-set cron matcher for --positions-backup-schedule
// (§9 SUPPLEMENTED DETAIL): five space-separated fields, minute hour
// day-of-month month day-of-week, each either "*", a comma list of
// integers, or a "*/N" step.
type schedule struct {
	minute, hour, dom, month, dow field
}

type field struct {
	wildcard bool
	step     int // 0 when not a step field
	values   map[int]bool
}

// parseSchedule compiles expr into a schedule. An empty expr is accepted
// and never matches (the backup scheduler simply never fires).
func parseSchedule(expr string) (*schedule, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}

	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return nil, errors.Errorf("position backup schedule must have 5 fields, got %d", len(parts))
	}

	fs := make([]field, 5)
	for i, p := range parts {
		f, err := parseField(p)
		if err != nil {
			return nil, errors.Wrapf(err, "field %d (%q)", i, p)
		}
		fs[i] = f
	}
	return &schedule{minute: fs[0], hour: fs[1], dom: fs[2], month: fs[3], dow: fs[4]}, nil
}

func parseField(raw string) (field, error) {
	if raw == "*" {
		return field{wildcard: true}, nil
	}
	if strings.HasPrefix(raw, "*/") {
		n, err := strconv.Atoi(raw[2:])
		if err != nil || n <= 0 {
			return field{}, errors.Errorf("invalid step %q", raw)
		}
		return field{step: n}, nil
	}

	values := make(map[int]bool)
	for _, tok := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return field{}, errors.Errorf("invalid field value %q", tok)
		}
		values[n] = true
	}
	return field{values: values}, nil
}

func (f field) matches(v int) bool {
	if f.wildcard {
		return true
	}
	if f.step > 0 {
		return v%f.step == 0
	}
	return f.values[v]
}

// Matches reports whether t falls on one of the schedule's firing minutes.
func (s *schedule) Matches(t time.Time) bool {
	return s.minute.matches(t.Minute()) &&
		s.hour.matches(t.Hour()) &&
		s.dom.matches(t.Day()) &&
		s.month.matches(int(t.Month())) &&
		s.dow.matches(int(t.Weekday()))
}
