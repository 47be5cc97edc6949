package capture

// Endpointer decides when the speaker has stopped talking, from a
// sequence of average-power readings taken at a fixed interval.
//
// On the first reading it arms itself: the trigger threshold becomes
// the running minimum average power plus a fixed offset, and that
// reading is not evaluated. From then on, each reading below the
// threshold extends a consecutive run; once the run exceeds
// MaxConsecutive the endpointer fires and resets. A reading at or above
// the threshold resets the run immediately.
//
// The caller is responsible for withholding readings during the
// initial grace period; the Endpointer only sees post-grace ticks.
type Endpointer struct {
	// Offset is how far above the running minimum the trigger
	// threshold sits, in dB. Default 3.
	Offset float64

	// MaxConsecutive is the number of below-threshold readings that
	// must be exceeded before firing, so the fire happens on reading
	// MaxConsecutive+1 of a run. Default 3.
	MaxConsecutive int

	threshold   float64
	armed       bool
	consecutive int
}

// NewEndpointer creates an endpointer with the default 3 dB offset and
// a fire on the 4th consecutive quiet reading.
func NewEndpointer() *Endpointer {
	return &Endpointer{Offset: 3, MaxConsecutive: 3}
}

// Feed evaluates one average-power reading against the running minimum
// average observed so far and reports whether end-of-speech fired.
func (e *Endpointer) Feed(average, runningMinAverage float64) bool {
	if !e.armed {
		e.threshold = runningMinAverage + e.Offset
		e.armed = true
		return false
	}
	if average < e.threshold {
		e.consecutive++
		if e.consecutive > e.MaxConsecutive {
			e.consecutive = 0
			return true
		}
		return false
	}
	e.consecutive = 0
	return false
}

// Threshold returns the armed trigger threshold and whether it has been
// set yet.
func (e *Endpointer) Threshold() (float64, bool) {
	return e.threshold, e.armed
}

// Reset disarms the endpointer for a fresh capture.
func (e *Endpointer) Reset() {
	e.armed = false
	e.consecutive = 0
	e.threshold = 0
}
