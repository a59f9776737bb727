package cache

import (
	"math"
	"time"
)

// HeatScore rates how hot an entry is: accesses per hour of age, decayed by
// decay^hours since the last access. Both hour counts are floored. Never negative.
func HeatScore(accessCount int64, createdAt, lastAccessed, now time.Time, decay float64) float64 {
	ageHours := wholeHours(now.Sub(createdAt))
	idleHours := wholeHours(now.Sub(lastAccessed))

	base := float64(accessCount) / math.Max(ageHours, 1)
	score := base * math.Pow(decay, idleHours)
	if score < 0 || math.IsNaN(score) {
		return 0
	}
	return score
}

func wholeHours(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return math.Floor(d.Hours())
}
