package entity

// EnergySignature characterizes an energy quantum.
// Frequency is the only parameter for now; it maps onto a color spectrum.
type EnergySignature struct {
	// Frequency is in the range 0.0-1.0.
	Frequency float32 `cbor:"1,keyasint" json:"frequency"`
}

// Band returns the broad frequency band for grouping similar energies.
func (s EnergySignature) Band() FrequencyBand {
	switch f := s.Frequency; {
	case f < 0.15:
		return BandDeepRed
	case f < 0.3:
		return BandRed
	case f < 0.45:
		return BandOrange
	case f < 0.6:
		return BandYellow
	case f < 0.75:
		return BandGreen
	case f < 0.9:
		return BandBlue
	default:
		return BandViolet
	}
}

// Hash returns a stable identifier for the signature, rounded to three
// decimal places of frequency. Matches the server's discovery hash.
func (s EnergySignature) Hash() uint64 {
	return uint64(s.Frequency*1000.0) << 32
}

// FrequencyBand is a broad grouping of energy frequencies for display.
type FrequencyBand uint8

const (
	BandDeepRed FrequencyBand = iota // 0.0-0.15
	BandRed                          // 0.15-0.3
	BandOrange                       // 0.3-0.45
	BandYellow                       // 0.45-0.6
	BandGreen                        // 0.6-0.75
	BandBlue                         // 0.75-0.9
	BandViolet                       // 0.9-1.0
)

// String returns the band's display name.
func (b FrequencyBand) String() string {
	switch b {
	case BandDeepRed:
		return "Deep Red"
	case BandRed:
		return "Red"
	case BandOrange:
		return "Orange"
	case BandYellow:
		return "Yellow"
	case BandGreen:
		return "Green"
	case BandBlue:
		return "Blue"
	case BandViolet:
		return "Violet"
	default:
		return "Unknown"
	}
}

// ColorCode returns the band's RGB color for rendering.
func (b FrequencyBand) ColorCode() (r, g, bl float32) {
	switch b {
	case BandDeepRed:
		return 0.8, 0.1, 0.1
	case BandRed:
		return 1.0, 0.2, 0.2
	case BandOrange:
		return 1.0, 0.6, 0.2
	case BandYellow:
		return 1.0, 1.0, 0.2
	case BandGreen:
		return 0.2, 1.0, 0.2
	case BandBlue:
		return 0.2, 0.2, 1.0
	case BandViolet:
		return 0.8, 0.2, 1.0
	default:
		return 1.0, 1.0, 1.0
	}
}
