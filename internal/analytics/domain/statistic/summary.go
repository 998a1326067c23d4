package statistic

import (
	"fmt"

	readings "renewable-monitor/internal/readings/domain"
)

// Value is an optional statistic result.
type Value struct {
	Value float64
	OK    bool
}

// String renders the value with two decimals, or N/A when absent.
func (v Value) String() string {
	if !v.OK {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", v.Value)
}

func valueOf(fn func([]float64) (float64, error), xs []float64) Value {
	v, err := fn(xs)
	if err != nil {
		return Value{}
	}
	return Value{Value: v, OK: true}
}

// Summary bundles the descriptive statistics of one value set.
type Summary struct {
	Count    int
	Mean     Value
	Median   Value
	Mode     Value
	Range    Value
	Midrange Value
	Min      Value
	Max      Value
}

// Summarize computes every statistic over xs. Fields are absent for empty input.
func Summarize(xs []float64) Summary {
	return Summary{
		Count:    len(xs),
		Mean:     valueOf(Mean, xs),
		Median:   valueOf(Median, xs),
		Mode:     valueOf(Mode, xs),
		Range:    valueOf(Range, xs),
		Midrange: valueOf(Midrange, xs),
		Min:      valueOf(Min, xs),
		Max:      valueOf(Max, xs),
	}
}

// SummarizeReadings summarises the outputs of a reading set.
func SummarizeReadings(rs []readings.Reading) Summary {
	return Summarize(readings.Outputs(rs))
}

// SummarizeBySource summarises every source, including sources with no readings.
func SummarizeBySource(rs []readings.Reading) map[readings.Source]Summary {
	groups := readings.GroupBySource(rs)
	out := make(map[readings.Source]Summary, len(readings.AllSources()))
	for _, source := range readings.AllSources() {
		out[source] = SummarizeReadings(groups[source])
	}
	return out
}
