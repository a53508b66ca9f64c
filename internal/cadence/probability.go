package cadence

import "time"

const (
	baseProbability = 0.18

	minProbability          = 0.05
	maxProbability          = 0.70
	maxBigMomentProbability = 0.95

	// Continuous bonuses, capped at gapBonusCap and streakBonusCap units.
	gapBonusPerDay    = 0.004
	gapBonusCap       = 30
	streakBonusPerDay = 0.003
	streakBonusCap    = 21
	busyWeekBonus     = 0.03
)

// recencyAdjustment rewards long silences and damps recent messages.
// A state that has never shown a message counts as the longest silence.
func recencyAdjustment(lastShown *time.Time, now time.Time) float64 {
	if lastShown == nil {
		return 0.10
	}
	silent := int(now.Sub(*lastShown).Hours() / 24)
	switch {
	case silent >= 14:
		return 0.10
	case silent >= 10:
		return 0.08
	case silent >= 7:
		return 0.06
	case silent <= 3:
		return -0.06
	case silent <= 5:
		return -0.03
	}
	return 0
}

// fireProbability computes the chance that an eligible threshold actually
// surfaces on this tick.
func fireProbability(th Threshold, s *State, daysSince int, now time.Time) float64 {
	p := baseProbability
	p += recencyAdjustment(s.LastTimeLineAt, now)
	p += th.Salience

	if daysSince > 0 {
		p += float64(min(daysSince, gapBonusCap)) * gapBonusPerDay
	}
	p += float64(min(s.Streak, streakBonusCap)) * streakBonusPerDay
	if s.WeekCount >= weekVolumeMilestone {
		p += busyWeekBonus
	}

	ceiling := maxProbability
	if th.BigMoment {
		ceiling = maxBigMomentProbability
	}
	return max(minProbability, min(p, ceiling))
}
