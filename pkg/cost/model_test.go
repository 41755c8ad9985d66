package cost

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTravelTime(t *testing.T) {
	m := DefaultModel()

	tests := []struct {
		name string
		km   float64
		want time.Duration
	}{
		{name: "zero", km: 0, want: 0},
		{name: "one hour", km: 105, want: time.Hour},
		{name: "300 km", km: 300, want: 10285714 * time.Millisecond}, // 2.857142857h
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.TravelTime(tt.km))
		})
	}
}

func TestRoundHalfUp(t *testing.T) {
	m := Model{MaxRangeKm: 320, RoadSpeedKmh: 100, Unit: time.Hour}

	assert.Equal(t, 2*time.Hour, m.TravelTime(150))
	assert.Equal(t, time.Hour, m.TravelTime(149))
	assert.Equal(t, time.Hour, m.TravelTime(50))
	assert.Equal(t, time.Duration(0), m.TravelTime(49))
}

func TestTimeToPartialCharge(t *testing.T) {
	m := DefaultModel()

	assert.Equal(t, 20160000*time.Millisecond, m.TimeToPartialCharge(20, 300, 50))
	assert.Equal(t, time.Duration(0), m.TimeToPartialCharge(300, 300, 50))
	assert.Equal(t, time.Duration(0), m.TimeToPartialCharge(310, 300, 50))
}

func TestTimeToFullCharge(t *testing.T) {
	m := DefaultModel()

	assert.Equal(t, 6*time.Hour, m.TimeToFullCharge(20, 50))
	assert.Equal(t, time.Duration(0), m.TimeToFullCharge(m.MaxRangeKm, 50))
	assert.Equal(t, m.TimeToPartialCharge(0, m.MaxRangeKm, 120), m.TimeToFullCharge(0, 120))
}

func TestDurationsAreWholeUnits(t *testing.T) {
	m := Model{MaxRangeKm: 320, RoadSpeedKmh: 105, Unit: time.Second}

	d := m.TravelTime(123.456)
	assert.Zero(t, d%time.Second)
	assert.Equal(t, 4233*time.Second, d) // 1.17577h = 4232.7s

	c := m.TimeToPartialCharge(10, 11, 7)
	assert.Zero(t, c%time.Second)
	assert.Equal(t, 514*time.Second, c) // 514.29s
}

func TestHours(t *testing.T) {
	m := DefaultModel()

	assert.Equal(t, 5.6, m.Hours(m.TimeToPartialCharge(20, 300, 50)))
	assert.Equal(t, 0.0, m.Hours(0))
	assert.InDelta(t, 2.857142, m.Hours(m.TravelTime(300)), 1e-6)
}

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultModel().Validate())

	bad := []Model{
		{MaxRangeKm: 0, RoadSpeedKmh: 105, Unit: time.Millisecond},
		{MaxRangeKm: 320, RoadSpeedKmh: -1, Unit: time.Millisecond},
		{MaxRangeKm: 320, RoadSpeedKmh: 105, Unit: 0},
	}
	for _, m := range bad {
		err := m.Validate()
		assert.True(t, errors.Is(err, ErrInvalidModel), "model %+v: %v", m, err)
	}
}
