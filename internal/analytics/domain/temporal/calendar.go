package temporal

import (
	"sort"
	"strings"
	"time"

	readings "renewable-monitor/internal/readings/domain"
)

// Field is a calendar component used for filtering and partitioning.
type Field string

const (
	FieldHour  Field = "hour"
	FieldDay   Field = "day"
	FieldWeek  Field = "week"
	FieldMonth Field = "month"
)

// ParseField resolves a case-insensitive field name.
func ParseField(value string) (Field, error) {
	field := Field(strings.ToLower(strings.TrimSpace(value)))
	switch field {
	case FieldHour, FieldDay, FieldWeek, FieldMonth:
		return field, nil
	default:
		return "", ErrUnknownField
	}
}

// Bounds returns the inclusive value domain of the field.
func (f Field) Bounds() (int, int) {
	switch f {
	case FieldHour:
		return 0, 23
	case FieldDay:
		return 1, 31
	case FieldWeek:
		return 1, 53
	case FieldMonth:
		return 1, 12
	default:
		return 0, -1
	}
}

// Calendar interprets timestamps in one location.
// Weeks are ISO weeks for every call site.
type Calendar struct {
	Location *time.Location
}

// Local is the calendar of the process time zone.
var Local = Calendar{Location: time.Local}

// NewCalendar loads a calendar for an IANA zone name. Empty means Local.
func NewCalendar(name string) (Calendar, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Calendar{}, err
	}
	return Calendar{Location: loc}, nil
}

func (c Calendar) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// Value extracts a field from a timestamp.
func (c Calendar) Value(t time.Time, field Field) int {
	local := t.In(c.location())
	switch field {
	case FieldHour:
		return local.Hour()
	case FieldDay:
		return local.Day()
	case FieldWeek:
		_, week := local.ISOWeek()
		return week
	case FieldMonth:
		return int(local.Month())
	default:
		return -1
	}
}

// Filter selects readings whose field equals value, preserving order.
func (c Calendar) Filter(rs []readings.Reading, field Field, value int) []readings.Reading {
	var out []readings.Reading
	for _, r := range rs {
		if c.Value(r.Timestamp, field) == value {
			out = append(out, r)
		}
	}
	return out
}

// ByHour selects readings taken in hour 0-23.
func (c Calendar) ByHour(rs []readings.Reading, hour int) []readings.Reading {
	return c.Filter(rs, FieldHour, hour)
}

// ByDay selects readings taken on day-of-month 1-31.
func (c Calendar) ByDay(rs []readings.Reading, day int) []readings.Reading {
	return c.Filter(rs, FieldDay, day)
}

// ByWeek selects readings taken in ISO week 1-53.
func (c Calendar) ByWeek(rs []readings.Reading, week int) []readings.Reading {
	return c.Filter(rs, FieldWeek, week)
}

// ByMonth selects readings taken in month 1-12.
func (c Calendar) ByMonth(rs []readings.Reading, month int) []readings.Reading {
	return c.Filter(rs, FieldMonth, month)
}

// Bucket is one partition of readings sharing a field value.
type Bucket struct {
	Key      int
	Readings []readings.Reading
}

// Partition groups readings by field value. Buckets are ordered by key and
// keep input order inside each bucket.
func (c Calendar) Partition(rs []readings.Reading, field Field) []Bucket {
	index := make(map[int]int)
	var buckets []Bucket
	for _, r := range rs {
		key := c.Value(r.Timestamp, field)
		pos, ok := index[key]
		if !ok {
			pos = len(buckets)
			index[key] = pos
			buckets = append(buckets, Bucket{Key: key})
		}
		buckets[pos].Readings = append(buckets[pos].Readings, r)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })
	return buckets
}

// FilterByHour filters in the Local calendar.
func FilterByHour(rs []readings.Reading, hour int) []readings.Reading {
	return Local.ByHour(rs, hour)
}

// FilterByDay filters in the Local calendar.
func FilterByDay(rs []readings.Reading, day int) []readings.Reading {
	return Local.ByDay(rs, day)
}

// FilterByWeek filters in the Local calendar.
func FilterByWeek(rs []readings.Reading, week int) []readings.Reading {
	return Local.ByWeek(rs, week)
}

// FilterByMonth filters in the Local calendar.
func FilterByMonth(rs []readings.Reading, month int) []readings.Reading {
	return Local.ByMonth(rs, month)
}

// ValidateRange rejects zero or inverted bounds.
func ValidateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return ErrInvalidRange
	}
	return nil
}

// Between selects readings in [start, end).
func Between(rs []readings.Reading, start, end time.Time) ([]readings.Reading, error) {
	if err := ValidateRange(start, end); err != nil {
		return nil, err
	}
	var out []readings.Reading
	for _, r := range rs {
		if r.Timestamp.Before(start) || !r.Timestamp.Before(end) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
