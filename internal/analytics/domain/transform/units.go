package transform

import "strings"

// Unit is a power or energy unit.
type Unit string

const (
	UnitW   Unit = "W"
	UnitKW  Unit = "kW"
	UnitMW  Unit = "MW"
	UnitGW  Unit = "GW"
	UnitWh  Unit = "Wh"
	UnitKWh Unit = "kWh"
	UnitMWh Unit = "MWh"
	UnitGWh Unit = "GWh"
)

type unitPair struct {
	from Unit
	to   Unit
}

// conversionFactors lists every supported pair within one dimension.
var conversionFactors = buildConversionTable()

func buildConversionTable() map[unitPair]float64 {
	dimensions := [][]Unit{
		{UnitW, UnitKW, UnitMW, UnitGW},
		{UnitWh, UnitKWh, UnitMWh, UnitGWh},
	}
	table := make(map[unitPair]float64)
	for _, units := range dimensions {
		scale := 1.0
		scales := make([]float64, len(units))
		for i := range units {
			scales[i] = scale
			scale *= 1000
		}
		for i, from := range units {
			for j, to := range units {
				table[unitPair{from: from, to: to}] = scales[i] / scales[j]
			}
		}
	}
	return table
}

// ConversionFactor returns the multiplier from one unit to another.
// Unknown or cross-dimension pairs yield 1.
func ConversionFactor(from, to Unit) float64 {
	factor, ok := conversionFactors[unitPair{from: from, to: to}]
	if !ok {
		return 1
	}
	return factor
}

// ParseUnit resolves a case-insensitive unit name. The second result is
// false when the unit is not in the table.
func ParseUnit(value string) (Unit, bool) {
	value = strings.TrimSpace(value)
	for _, unit := range []Unit{UnitW, UnitKW, UnitMW, UnitGW, UnitWh, UnitKWh, UnitMWh, UnitGWh} {
		if strings.EqualFold(string(unit), value) {
			return unit, true
		}
	}
	return Unit(value), false
}
