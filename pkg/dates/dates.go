// Package dates normalizes commit timestamps to the calendar-date form
// stored in the "Last Commit Date" column.
package dates

import (
	"strings"
	"time"

	"github.com/agentstation/utc"

	"github.com/pluginsync/pluginsync/pkg/errors"
)

// Layouts accepted for string input, tried in order.
const (
	LayoutTimestamp = "2006-01-02T15:04:05Z"
	LayoutDate      = "2006-01-02"
)

var layouts = []string{LayoutTimestamp, LayoutDate}

// Normalize converts v to a YYYY-MM-DD string in UTC. nil, the empty string
// and zero times yield "" with no error. Unparseable strings yield a
// *errors.FormatError. Normalize(Normalize(v)) == Normalize(v).
func Normalize(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return normalizeString(val)
	case *string:
		if val == nil {
			return "", nil
		}
		return normalizeString(*val)
	case time.Time:
		return format(val), nil
	case *time.Time:
		if val == nil {
			return "", nil
		}
		return format(*val), nil
	case utc.Time:
		return format(val.Time), nil
	case *utc.Time:
		if val == nil {
			return "", nil
		}
		return format(val.Time), nil
	default:
		return "", errors.NewValidationError("date", v, "unsupported date type")
	}
}

// Parse parses a stored or upstream timestamp string. The empty string
// yields nil.
func Parse(s string) (*utc.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			u := utc.New(t)
			return &u, nil
		}
		lastErr = err
	}
	return nil, errors.NewFormatError(s, layouts, lastErr)
}

// Equal reports whether two values normalize to the same date. Values that
// fail to normalize compare unequal.
func Equal(a, b any) bool {
	na, err := Normalize(a)
	if err != nil {
		return false
	}
	nb, err := Normalize(b)
	if err != nil {
		return false
	}
	return na == nb
}

func normalizeString(s string) (string, error) {
	t, err := Parse(s)
	if err != nil || t == nil {
		return "", err
	}
	return format(t.Time), nil
}

func format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(LayoutDate)
}
