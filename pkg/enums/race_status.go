package enums

import "fmt"

// RaceStatus tracks a race from scheduling through settlement.
// Transitions are one-way: upcoming, then in_progress, then completed.
type RaceStatus string

const (
	RaceStatusUpcoming   RaceStatus = "upcoming"
	RaceStatusInProgress RaceStatus = "in_progress"
	RaceStatusCompleted  RaceStatus = "completed"
)

var validRaceStatuses = []RaceStatus{
	RaceStatusUpcoming,
	RaceStatusInProgress,
	RaceStatusCompleted,
}

// String implements fmt.Stringer.
func (s RaceStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RaceStatus.
func (s RaceStatus) IsValid() bool {
	for _, candidate := range validRaceStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseRaceStatus converts raw input into a RaceStatus.
func ParseRaceStatus(value string) (RaceStatus, error) {
	for _, candidate := range validRaceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid race status %q", value)
}
