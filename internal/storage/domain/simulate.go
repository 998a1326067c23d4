package storage

import (
	"fmt"
	"math"
	"strings"

	readings "renewable-monitor/internal/readings/domain"
)

// Projection is the outcome of a what-if run.
type Projection struct {
	Start     float64
	Projected float64
	Delta     float64
	NetRate   float64
	Hours     float64
	Status    Status
	Summary   string
}

// Simulate projects level forward using nominal source power only. Recorded
// readings play no part; use Update for historically grounded changes.
func (m Model) Simulate(level float64, solarOn, windOn, hydroOn bool, hours float64) Projection {
	start := m.Clamp(level)
	if !(hours > 0) || math.IsInf(hours, 0) {
		hours = 0
	}
	enabled := map[readings.Source]bool{
		readings.SourceSolar: solarOn,
		readings.SourceWind:  windOn,
		readings.SourceHydro: hydroOn,
	}
	production := 0.0
	for _, source := range readings.AllSources() {
		if enabled[source] {
			production += m.Nominal[source]
		}
	}
	net := production - m.ConsumptionRate
	projected := start
	if hours > 0 {
		projected = m.Clamp(start + net*hours)
	}
	p := Projection{
		Start:     start,
		Projected: projected,
		Delta:     projected - start,
		NetRate:   net,
		Hours:     hours,
		Status:    m.Status(projected),
	}
	p.Summary = m.summarize(p, enabled)
	return p
}

func (m Model) summarize(p Projection, enabled map[readings.Source]bool) string {
	var on []string
	for _, source := range readings.AllSources() {
		if enabled[source] {
			on = append(on, source.Label())
		}
	}
	sources := "no sources"
	if len(on) > 0 {
		sources = strings.Join(on, ", ")
	}

	var b strings.Builder
	switch {
	case p.Delta > 0:
		fmt.Fprintf(&b, "Storage increases by %.2f MWh to %.2f MWh", p.Delta, p.Projected)
	case p.Delta < 0:
		fmt.Fprintf(&b, "Storage decreases by %.2f MWh to %.2f MWh", -p.Delta, p.Projected)
	default:
		fmt.Fprintf(&b, "Storage remains at %.2f MWh", p.Projected)
	}
	fmt.Fprintf(&b, " (%.1f%%, %s) over %.1fh with %s, net %+.2f MW", m.Percent(p.Projected), p.Status, p.Hours, sources, p.NetRate)
	switch {
	case p.Projected >= m.Capacity && p.NetRate > 0:
		b.WriteString("; capacity reached")
	case p.Projected <= 0 && p.NetRate < 0:
		b.WriteString("; storage depleted")
	}
	if p.NetRate < 0 && p.Projected > 0 {
		fmt.Fprintf(&b, "; empty in %.1fh", RemainingHours(p.Projected, -p.NetRate))
	}
	return b.String()
}
