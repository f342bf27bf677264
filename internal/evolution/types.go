package evolution

// #region config

// Config holds the tunables for a single explicit-Euler evolution step (§4.7).
type Config struct {
	ActiveDim   int
	StorageDim  int
	Dt          float64 // step size, default 0.01
	FiniteDiffH float64 // default 1e-6
	CThreshold  float64 // C_thr, default 0.7
	Alpha       float64 // autopoietic alpha, default 1.0
	Beta        float64 // autopoietic beta, default 2.0
	Humility0   float64 // humility damping coefficient, default 0.1
	DetFloor    float64 // det_floor guarding the metric inversion, default 1e-10
	TikhonovAdd float64 // tikhonov_add guarding the metric inversion, default 1e-6
}

// DefaultConfig returns the §6 evolution defaults.
func DefaultConfig() Config {
	return Config{
		ActiveDim:   100,
		StorageDim:  2000,
		Dt:          0.01,
		FiniteDiffH: 1e-6,
		CThreshold:  0.7,
		Alpha:       1.0,
		Beta:        2.0,
		Humility0:   0.1,
		DetFloor:    1e-10,
		TikhonovAdd: 1e-6,
	}
}

// #endregion config

// #region result

// TermNorms captures the L2 norm of each additive term in a step, useful
// for diagnosing which force dominated a given update.
type TermNorms struct {
	DAlembertian float64
	Attractor    float64
	Autopoietic  float64
	Humility     float64
}

// Result bundles the new coherence field with per-term telemetry.
type Result struct {
	NewCoherenceField []float64 // length StorageDim
	Norms             TermNorms
	StepTimeMs        int64
}

// #endregion result
