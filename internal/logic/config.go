package logic

// Config holds the engine's fixed tuning constants.
type Config struct {
	// Smoothing
	WindowDepth int

	// Detection
	Threshold  int     // raw units below baseline before a channel counts as crossing
	AngleLimit float64 // half-angle of each sensor's detection cone, degrees

	// Geometry (cm)
	Positions         [NumChannels]float64
	AssumedDistance   float64
	MaxDiff           int     // relative intensity normalisation, raw units
	MinTotalIntensity float64 // below this, triangulation returns 0

	// Confidence
	ConfidenceDivisor    float64
	NoiseFloor           float64
	InconsistencyPenalty float64

	// Ambient tracking
	EMAWeight       float64
	CooldownMs      uint32
	MinDriftSamples uint32
	DriftThreshold  float64
	SampleCeiling   uint32
	InitialBaseline int
	DriftCheckMs    uint32

	// Calibration sampling
	CalibrationSettleMs  uint32
	CalibrationSamples   int
	CalibrationSpacingMs uint32
}

// DefaultConfig returns the constants used by the reference hardware.
func DefaultConfig() Config {
	return Config{
		WindowDepth: 5,

		Threshold:  5,
		AngleLimit: 30.0,

		Positions:         [NumChannels]float64{Right: 5.0, Left: -5.0, Middle: 0.0},
		AssumedDistance:   10.0,
		MaxDiff:           500,
		MinTotalIntensity: 0.01,

		ConfidenceDivisor:    1.5,
		NoiseFloor:           0.1,
		InconsistencyPenalty: 0.7,

		EMAWeight:       0.05,
		CooldownMs:      3000,
		MinDriftSamples: 50,
		DriftThreshold:  2,
		SampleCeiling:   0xFFFF,
		InitialBaseline: 1023,
		DriftCheckMs:    5000,

		CalibrationSettleMs:  1000,
		CalibrationSamples:   20,
		CalibrationSpacingMs: 100,
	}
}
