package entitlement

import (
	"math"
	"time"
)

// Trial is what the paywall page shows about the free trial.
type Trial struct {
	EndsAt    time.Time `json:"ends_at"`
	Ended     bool      `json:"ended"`
	HoursLeft int       `json:"hours_left"`
}

// TrialInfo summarizes the trial for display. It returns nil when the
// snapshot has no trial end. Partial hours round up.
func TrialInfo(s *Snapshot, now time.Time) *Trial {
	if s == nil || s.TrialEndsAt == nil {
		return nil
	}
	remaining := s.TrialEndsAt.Sub(now)
	hours := 0
	if remaining > 0 {
		hours = int(math.Ceil(remaining.Hours()))
	}
	return &Trial{
		EndsAt:    *s.TrialEndsAt,
		Ended:     remaining <= 0,
		HoursLeft: hours,
	}
}
