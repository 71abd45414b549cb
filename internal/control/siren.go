package control

import "github.com/sweeney/flame-sensor/internal/logic"

// Siren alternates two warning lights while a flame is present.
type Siren struct {
	interval   uint32
	state      bool
	lastToggle logic.Millis
}

// NewSiren creates a Siren that toggles every intervalMs.
func NewSiren(intervalMs uint32) *Siren {
	return &Siren{interval: intervalMs}
}

// Update returns the two light states. They are in anti-phase while a flame
// is present and both off otherwise.
func (s *Siren) Update(now logic.Millis, detected bool) (bool, bool) {
	if !detected {
		s.state = false
		return false, false
	}
	if now.Sub(s.lastToggle) >= s.interval {
		s.state = !s.state
		s.lastToggle = now
	}
	return s.state, !s.state
}
