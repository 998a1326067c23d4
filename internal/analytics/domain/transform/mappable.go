package transform

import readings "renewable-monitor/internal/readings/domain"

// Mappable is a container of readings that supports a structure-preserving
// element-wise map. C is the concrete container type returned by Map.
type Mappable[C any] interface {
	Map(f func(readings.Reading) readings.Reading) C
	Each(f func(readings.Reading))
}

// Series is an ordered sequence of readings.
type Series []readings.Reading

// Map returns a new series of the same length and order.
func (s Series) Map(f func(readings.Reading) readings.Reading) Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	for i, r := range s {
		out[i] = f(r)
	}
	return out
}

// Each visits every reading in order.
func (s Series) Each(f func(readings.Reading)) {
	for _, r := range s {
		f(r)
	}
}

// Optional holds zero or one reading.
type Optional struct {
	reading readings.Reading
	ok      bool
}

// Some wraps a reading.
func Some(r readings.Reading) Optional {
	return Optional{reading: r, ok: true}
}

// None is the empty optional.
func None() Optional {
	return Optional{}
}

// Get returns the reading and whether it is present.
func (o Optional) Get() (readings.Reading, bool) {
	return o.reading, o.ok
}

// Map applies f when a reading is present.
func (o Optional) Map(f func(readings.Reading) readings.Reading) Optional {
	if !o.ok {
		return o
	}
	return Some(f(o.reading))
}

// Each visits the reading when present.
func (o Optional) Each(f func(readings.Reading)) {
	if o.ok {
		f(o.reading)
	}
}

// MapOutput applies f to the output of every reading; all other fields are kept.
func MapOutput[C Mappable[C]](c C, f func(float64) float64) C {
	return c.Map(func(r readings.Reading) readings.Reading {
		return r.WithOutput(f(r.Output))
	})
}
