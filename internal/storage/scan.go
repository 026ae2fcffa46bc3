package storage

import (
	"fmt"
	"time"

	"cashcast/internal/core"
)

// dateValue scans DATE columns stored as TEXT (sqlite) or DATE (postgres).
// NULL leaves the date empty.
type dateValue struct {
	core.Date
}

func (d *dateValue) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Date = core.Date{}
	case time.Time:
		y, m, day := v.Date()
		d.Date = core.NewDate(y, int(m), day)
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("unsupported date type %T", src)
	}
	return nil
}

func (d *dateValue) parse(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := core.ParseDate(s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	d.Date = parsed
	return nil
}

// timeValue scans timestamps stored as RFC 3339 TEXT or TIMESTAMPTZ.
type timeValue struct {
	time.Time
}

func (t *timeValue) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
	case time.Time:
		t.Time = v.UTC()
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
	return nil
}

func (t *timeValue) parse(s string) error {
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	t.Time = parsed.UTC()
	return nil
}

// nullableDate returns nil for an empty date so the column stores NULL.
func nullableDate(d core.Date) any {
	if d.IsEmpty() {
		return nil
	}
	return d.Format(dateLayout)
}
