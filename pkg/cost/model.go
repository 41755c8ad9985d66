// Package cost converts distances and charge deficits into elapsed time.
//
// All durations are whole multiples of Model.Unit, rounded half-up, so the
// same inputs always produce the same route times.
package cost

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidModel is returned when a model constant is unusable.
var ErrInvalidModel = errors.New("invalid cost model")

// Defaults used by the reference dataset.
const (
	DefaultMaxRangeKm   = 320.0
	DefaultRoadSpeedKmh = 105.0
	DefaultUnit         = time.Millisecond
)

// Model holds the per-deployment vehicle constants.
type Model struct {
	MaxRangeKm   float64       // range on a full charge
	RoadSpeedKmh float64       // uniform speed on every edge
	Unit         time.Duration // granularity of every computed duration
}

// DefaultModel returns the reference constants.
func DefaultModel() Model {
	return Model{
		MaxRangeKm:   DefaultMaxRangeKm,
		RoadSpeedKmh: DefaultRoadSpeedKmh,
		Unit:         DefaultUnit,
	}
}

// Validate checks that every constant is positive and finite.
func (m Model) Validate() error {
	if !(m.MaxRangeKm > 0) || math.IsInf(m.MaxRangeKm, 0) {
		return fmt.Errorf("%w: max range %v km", ErrInvalidModel, m.MaxRangeKm)
	}
	if !(m.RoadSpeedKmh > 0) || math.IsInf(m.RoadSpeedKmh, 0) {
		return fmt.Errorf("%w: road speed %v km/h", ErrInvalidModel, m.RoadSpeedKmh)
	}
	if m.Unit <= 0 {
		return fmt.Errorf("%w: time unit %v", ErrInvalidModel, m.Unit)
	}
	return nil
}

// TravelTime returns the time needed to drive km at the road speed.
func (m Model) TravelTime(km float64) time.Duration {
	return m.fromHours(km / m.RoadSpeedKmh)
}

// TimeToPartialCharge returns the time needed to raise the remaining range
// from current to target at rate km/h. It is zero when target <= current.
func (m Model) TimeToPartialCharge(current, target, rate float64) time.Duration {
	if target <= current {
		return 0
	}
	return m.fromHours((target - current) / rate)
}

// TimeToFullCharge returns the time needed to charge from current to MaxRangeKm.
func (m Model) TimeToFullCharge(current, rate float64) time.Duration {
	return m.TimeToPartialCharge(current, m.MaxRangeKm, rate)
}

// Hours converts a duration to fractional hours.
func (m Model) Hours(d time.Duration) float64 {
	return float64(d/m.Unit) / m.unitsPerHour()
}

func (m Model) unitsPerHour() float64 {
	return float64(time.Hour) / float64(m.Unit)
}

// fromHours rounds half-up to the nearest whole unit.
func (m Model) fromHours(h float64) time.Duration {
	return time.Duration(math.Floor(h*m.unitsPerHour()+0.5)) * m.Unit
}
