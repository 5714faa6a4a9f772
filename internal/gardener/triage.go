package gardener

import (
	"github.com/talgya/terraform-garden/internal/weather"
)

// Crisis levels, most urgent first.
const (
	Critical = "CRITICAL" // countdown running
	Warning  = "WARNING"  // a destructive event is announced or forecast
	Watch    = "WATCH"    // garden mostly empty
	Healthy  = "HEALTHY"
)

// Health holds derived signals computed from a Snapshot.
type Health struct {
	Occupied    int
	Free        int // plantable cells
	Dented      int
	Coverage    float64 // occupied / plantable capacity
	Threat      weather.Kind
	CrisisLevel string
}

// Triage computes a Health from the snapshot.
func Triage(snap *Snapshot) *Health {
	h := &Health{
		Occupied: snap.Grid.Occupied,
		Dented:   snap.Grid.Dented,
	}
	h.Free = len(snap.Grid.Cells) - h.Occupied - h.Dented
	if capacity := h.Occupied + h.Free; capacity > 0 {
		h.Coverage = float64(h.Occupied) / float64(capacity)
	}

	switch {
	case snap.Weather.Phase == weather.Warning && snap.Weather.Kind.Destructive():
		h.Threat = snap.Weather.Kind
	case snap.Forecast.Known && snap.Forecast.Kind.Destructive():
		h.Threat = snap.Forecast.Kind
	}

	h.CrisisLevel = Healthy
	switch {
	case snap.Countdown.Active:
		h.CrisisLevel = Critical
	case h.Threat != weather.None:
		h.CrisisLevel = Warning
	case h.Coverage < 0.25:
		h.CrisisLevel = Watch
	}
	return h
}
