package cadence

// ThresholdID identifies a time-line message trigger.
type ThresholdID string

const (
	ReturnNextDay ThresholdID = "return.1"
	ReturnGap     ThresholdID = "return.3"
	ReturnWeek    ThresholdID = "return.7"
	Return21      ThresholdID = "return.21"
	Streak3       ThresholdID = "streak.3"
	Streak7       ThresholdID = "streak.7"
	Streak14      ThresholdID = "streak.14"
	Streak21      ThresholdID = "streak.21"
	WeekFive      ThresholdID = "week.5"
)

// Threshold describes one trigger: how long it stays quiet after firing,
// how strongly it pulls the fire probability up, and what it says.
type Threshold struct {
	ID           ThresholdID
	CooldownDays int
	Salience     float64
	BigMoment    bool
	Message      string
}

var thresholds = map[ThresholdID]Threshold{
	Return21: {
		ID:           Return21,
		CooldownDays: 14,
		Salience:     0.35,
		BigMoment:    true,
		Message:      "Three weeks away, and you still found your way back. Welcome home.",
	},
	ReturnWeek: {
		ID:           ReturnWeek,
		CooldownDays: 14,
		Salience:     0.20,
		Message:      "It's been a week or so. No catching up needed, just begin here.",
	},
	ReturnGap: {
		ID:           ReturnGap,
		CooldownDays: 7,
		Salience:     0.10,
		Message:      "A few days away. The quiet was part of it too.",
	},
	Streak21: {
		ID:           Streak21,
		CooldownDays: 30,
		Salience:     0.30,
		BigMoment:    true,
		Message:      "Twenty-one days in a row. This is a practice now.",
	},
	Streak14: {
		ID:           Streak14,
		CooldownDays: 30,
		Salience:     0.22,
		Message:      "Two weeks of showing up. Something is taking root.",
	},
	Streak7: {
		ID:           Streak7,
		CooldownDays: 30,
		Salience:     0.15,
		Message:      "A full week, every day. Notice how that feels.",
	},
	Streak3: {
		ID:           Streak3,
		CooldownDays: 30,
		Salience:     0.08,
		Message:      "Three days in a row. A rhythm is forming.",
	},
	WeekFive: {
		ID:           WeekFive,
		CooldownDays: 14,
		Salience:     0.12,
		Message:      "Five days this week. You've been making room for yourself.",
	},
	ReturnNextDay: {
		ID:           ReturnNextDay,
		CooldownDays: 7,
		Salience:     0.02,
		Message:      "Back again today. Small returns add up.",
	},
}

// streakMilestones are checked highest first.
var streakMilestones = []struct {
	length int
	id     ThresholdID
}{
	{21, Streak21},
	{14, Streak14},
	{7, Streak7},
	{3, Streak3},
}

// weekVolumeMilestone is the distinct-days-this-week count that fires WeekFive.
const weekVolumeMilestone = 5

// Lookup returns the definition of a threshold.
func Lookup(id ThresholdID) (Threshold, bool) {
	t, ok := thresholds[id]
	return t, ok
}

// AllThresholds returns every threshold id in evaluation priority order.
func AllThresholds() []ThresholdID {
	return []ThresholdID{
		Return21, ReturnWeek, ReturnGap,
		Streak21, Streak14, Streak7, Streak3,
		WeekFive,
		ReturnNextDay,
	}
}

// candidates lists the thresholds whose trigger condition holds, in
// priority order. The return family contributes at most one id, chosen by
// gap length.
func candidates(s *State, daysSince int, hasPrev bool) []ThresholdID {
	var ids []ThresholdID

	if hasPrev {
		switch {
		case daysSince >= 21:
			ids = append(ids, Return21)
		case daysSince >= 7:
			ids = append(ids, ReturnWeek)
		case daysSince >= 3:
			ids = append(ids, ReturnGap)
		}
	}

	for _, m := range streakMilestones {
		if s.Streak == m.length {
			ids = append(ids, m.id)
		}
	}

	if s.WeekCount == weekVolumeMilestone {
		ids = append(ids, WeekFive)
	}

	if hasPrev && daysSince == 1 {
		ids = append(ids, ReturnNextDay)
	}
	return ids
}

// cooledDown reports whether id may fire again on today.
func cooledDown(s *State, id ThresholdID, today string) bool {
	last, ok := s.ShownDates[id]
	if !ok {
		return true
	}
	days, ok := DaysBetween(last, today)
	if !ok {
		return true
	}
	return days >= thresholds[id].CooldownDays
}

// selectThreshold returns the first candidate whose cooldown has expired.
func selectThreshold(s *State, daysSince int, hasPrev bool, today string) (Threshold, bool) {
	for _, id := range candidates(s, daysSince, hasPrev) {
		if cooledDown(s, id, today) {
			return thresholds[id], true
		}
	}
	return Threshold{}, false
}
