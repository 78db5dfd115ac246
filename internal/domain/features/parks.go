package features

// NeutralParkFactor is the park factor of a venue with no entry.
const NeutralParkFactor = 100.0

// ParkFactors maps venue ids to park factors on the 100-centered scale.
type ParkFactors map[int]float64

// Factor returns the venue's park factor normalized so 1.0 is neutral.
func (p ParkFactors) Factor(venueID int) float64 {
	if f, ok := p[venueID]; ok && f > 0 {
		return f / NeutralParkFactor
	}
	return 1.0
}
