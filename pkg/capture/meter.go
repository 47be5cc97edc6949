package capture

import (
	"math"
	"sync"
)

// Power levels are expressed on a dBFS-like scale: 0 is full scale,
// -160 is near silence. These bounds match the running min/max seeds.
const (
	maxPower = 0.0
	minPower = -160.0
)

// Meter tracks instantaneous and running peak/average power of a PCM16
// stream. Feed is called from the capture copy loop; Levels and the
// running accessors are called from the metering timer, so the meter is
// locked.
type Meter struct {
	mu sync.Mutex

	fed     bool
	peak    float64
	average float64

	minPeak    float64
	maxPeak    float64
	minAverage float64
	maxAverage float64
}

// NewMeter creates a meter. Running minimums start at full scale and
// running maximums at silence, so the first reading establishes both.
func NewMeter() *Meter {
	return &Meter{
		minPeak:    maxPower,
		maxPeak:    minPower,
		minAverage: maxPower,
		maxAverage: minPower,
	}
}

// Feed updates the meter with one frame of little-endian PCM16 samples.
// Partial trailing bytes are ignored.
func (m *Meter) Feed(pcm []byte) {
	n := len(pcm) / 2
	if n == 0 {
		return
	}
	var peakAbs float64
	var sumSquares float64
	for i := 0; i < n; i++ {
		s := float64(int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8))
		if a := math.Abs(s); a > peakAbs {
			peakAbs = a
		}
		sumSquares += s * s
	}
	rms := math.Sqrt(sumSquares / float64(n))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.fed = true
	m.peak = toDB(peakAbs)
	m.average = toDB(rms)
	m.minPeak = math.Min(m.minPeak, m.peak)
	m.maxPeak = math.Max(m.maxPeak, m.peak)
	m.minAverage = math.Min(m.minAverage, m.average)
	m.maxAverage = math.Max(m.maxAverage, m.average)
}

// Fed reports whether the meter has seen at least one complete sample.
// Until then the levels and running extremes only hold their seeds.
func (m *Meter) Fed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fed
}

// Levels returns the most recent instantaneous peak and average power.
func (m *Meter) Levels() (peak, average float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak, m.average
}

// MinAverage returns the lowest average power observed so far.
func (m *Meter) MinAverage() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.minAverage
}

// MaxAverage returns the highest average power observed so far.
func (m *Meter) MaxAverage() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxAverage
}

// PeakRange returns the lowest and highest peak power observed so far.
func (m *Meter) PeakRange() (min, max float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.minPeak, m.maxPeak
}

// toDB converts a linear sample magnitude (0..32768) to dBFS, clamped
// to [-160, 0].
func toDB(x float64) float64 {
	if x <= 0 {
		return minPower
	}
	db := 20 * math.Log10(x/32768)
	if db < minPower {
		return minPower
	}
	if db > maxPower {
		return maxPower
	}
	return db
}
