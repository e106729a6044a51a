package svpwm

// Config holds the immutable timing parameters of the modulator.
type Config struct {
	ControlPeriodS float64 // control tick period [s]
	PeriodTicks    uint32  // PWM counter period; duty 1.0 maps to this
}

// State is the full result record of one modulation tick. It is
// overwritten as a whole by RunTick and read by diagnostic consumers.
type State struct {
	Sector   Sector
	T1       float64
	T2       float64
	T0       float64
	CompareA uint32
	CompareB uint32
	CompareC uint32
}

// Modulator runs the classify → times → duties → quantize pipeline
// once per control tick and keeps the last result.
//
// RunTick and Stop must be called from the single periodic driver
// goroutine. State may be read concurrently by a lower-priority
// diagnostic consumer; a torn read (fields from two adjacent ticks) is
// permitted by contract, callers needing a consistent snapshot must
// serialize against the driver.
type Modulator struct {
	cfg   Config
	state State
}

// New returns a modulator in its power-on state: sector 1, full zero
// vector, all compare outputs low.
func New(cfg Config) *Modulator {
	return &Modulator{
		cfg: cfg,
		state: State{
			Sector: 1,
			T0:     1,
		},
	}
}

// Config returns the modulator's timing parameters.
func (m *Modulator) Config() Config { return m.cfg }

// RunTick converts the commanded voltage vector into the three phase
// compare values and publishes the new state record. It never fails;
// all edge cases are absorbed by clamping and renormalization.
func (m *Modulator) RunTick(alpha, beta float64) State {
	sector := Classify(alpha, beta)
	t1, t2, t0 := CalcTimes(alpha, beta, sector)
	a, b, c := Duties(sector, t1, t2, t0)

	m.state = State{
		Sector:   sector,
		T1:       t1,
		T2:       t2,
		T0:       t0,
		CompareA: Quantize(a, m.cfg.PeriodTicks),
		CompareB: Quantize(b, m.cfg.PeriodTicks),
		CompareC: Quantize(c, m.cfg.PeriodTicks),
	}
	return m.state
}

// Stop forces all three compare outputs to zero without touching the
// sector or time fractions, so the caller can disable the bridge while
// reference integration continues independently.
func (m *Modulator) Stop() State {
	m.state.CompareA = 0
	m.state.CompareB = 0
	m.state.CompareC = 0
	return m.state
}

// State returns a copy of the last published record.
func (m *Modulator) State() State { return m.state }
