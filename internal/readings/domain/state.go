package readings

// AppState is the console session state. Methods never modify the receiver;
// each returns the next state.
type AppState struct {
	StorageLevel float64
	SolarOn      bool
	WindOn       bool
	HydroOn      bool
	Readings     []Reading
}

// NewAppState starts a session with every source enabled.
func NewAppState(initialLevel float64) AppState {
	return AppState{
		StorageLevel: initialLevel,
		SolarOn:      true,
		WindOn:       true,
		HydroOn:      true,
	}
}

// WithReadings replaces the readings.
func (s AppState) WithReadings(rs []Reading) AppState {
	s.Readings = append([]Reading(nil), rs...)
	return s
}

// AppendReadings adds readings after the existing ones.
func (s AppState) AppendReadings(rs []Reading) AppState {
	next := make([]Reading, 0, len(s.Readings)+len(rs))
	next = append(next, s.Readings...)
	next = append(next, rs...)
	s.Readings = next
	return s
}

// WithStorageLevel replaces the storage level.
func (s AppState) WithStorageLevel(level float64) AppState {
	s.StorageLevel = level
	return s
}

// IsOn reports whether a source is enabled.
func (s AppState) IsOn(source Source) bool {
	switch source {
	case SourceSolar:
		return s.SolarOn
	case SourceWind:
		return s.WindOn
	case SourceHydro:
		return s.HydroOn
	default:
		return false
	}
}

// Toggle flips the on/off flag of a source. Unknown sources are ignored.
func (s AppState) Toggle(source Source) AppState {
	switch source {
	case SourceSolar:
		s.SolarOn = !s.SolarOn
	case SourceWind:
		s.WindOn = !s.WindOn
	case SourceHydro:
		s.HydroOn = !s.HydroOn
	}
	return s
}

// Enabled lists the sources that are switched on.
func (s AppState) Enabled() []Source {
	var out []Source
	for _, source := range AllSources() {
		if s.IsOn(source) {
			out = append(out, source)
		}
	}
	return out
}
