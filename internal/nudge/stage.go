package nudge

// Stage acknowledges how long an intention has been held.
type Stage string

const (
	StageEarly Stage = "early"
	StageMid   Stage = "mid"
	StageLate  Stage = "late"
)

// Whole days an intention must be held to reach each stage.
const (
	EarlyStageDays = 3
	MidStageDays   = 7
	LateStageDays  = 14
)

// StageFor maps elapsed whole days to a stage. ok is false below
// EarlyStageDays.
func StageFor(days int) (Stage, bool) {
	switch {
	case days >= LateStageDays:
		return StageLate, true
	case days >= MidStageDays:
		return StageMid, true
	case days >= EarlyStageDays:
		return StageEarly, true
	}
	return "", false
}
