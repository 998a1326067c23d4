package transform

import (
	"math"

	readings "renewable-monitor/internal/readings/domain"
)

// Scale multiplies every output by factor.
func Scale[C Mappable[C]](c C, factor float64) C {
	return MapOutput(c, func(v float64) float64 { return v * factor })
}

// ConvertUnits rescales outputs between units. Unsupported pairs are a no-op.
func ConvertUnits[C Mappable[C]](c C, from, to Unit) C {
	return Scale(c, ConversionFactor(from, to))
}

// Normalize rescales outputs linearly to [0, 100] using the container's own
// min and max. When every output is equal the container is returned as is.
func Normalize[C Mappable[C]](c C) C {
	lo, hi := math.Inf(1), math.Inf(-1)
	c.Each(func(r readings.Reading) {
		lo = math.Min(lo, r.Output)
		hi = math.Max(hi, r.Output)
	})
	span := hi - lo
	if !(span > 0) || math.IsInf(span, 0) {
		return c
	}
	return MapOutput(c, func(v float64) float64 { return (v - lo) / span * 100 })
}

// ApplyThreshold clamps outputs to [lower, upper]. A nil bound leaves that side open.
func ApplyThreshold[C Mappable[C]](c C, lower, upper *float64) C {
	return MapOutput(c, func(v float64) float64 {
		if lower != nil && v < *lower {
			v = *lower
		}
		if upper != nil && v > *upper {
			v = *upper
		}
		return v
	})
}

// Bound returns a pointer to v for use with ApplyThreshold.
func Bound(v float64) *float64 {
	return &v
}
