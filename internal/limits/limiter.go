package limits

import (
	"fmt"
	"time"
)

// Snapshot is the usage picture taken during an admission check.
type Snapshot struct {
	Minute   int      `json:"minute"`
	Day      int      `json:"day"`
	Month    int      `json:"month"`
	Ceilings Ceilings `json:"limits"`
}

// Used returns the snapshot count for one period.
func (s Snapshot) Used(period Period) int {
	switch period {
	case PeriodMinute:
		return s.Minute
	case PeriodDay:
		return s.Day
	case PeriodMonth:
		return s.Month
	default:
		return 0
	}
}

// Remaining computes the quota left in one period after n further requests.
// Unlimited ceilings stay Unlimited.
func (s Snapshot) Remaining(period Period, n int) int {
	limit := s.Ceilings.For(period)
	if limit == Unlimited {
		return Unlimited
	}
	remaining := limit - s.Used(period) - n
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// ExceededError reports an admission rejection: which period tripped, the
// observed count, the ceiling, and when that window resets.
type ExceededError struct {
	Period  Period
	Current int
	Limit   int
	Tier    Tier
	ResetAt time.Time
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded for period %s: %d/%d (tier %s, resets %s)",
		e.Period, e.Current, e.Limit, e.Tier, e.ResetAt.Format(time.RFC3339))
}

// Limiter admits or rejects requests against tier ceilings.
type Limiter struct {
	tracker *Tracker
	now     func() time.Time
}

// NewLimiter constructs a limiter over the given tracker.
func NewLimiter(tracker *Tracker) *Limiter {
	return &Limiter{tracker: tracker, now: time.Now}
}

// Check consults all three granularities in order minute, day, month and
// rejects the moment any is at or above its ceiling, reporting the first
// exceeded period. On success it returns the usage snapshot taken.
func (l *Limiter) Check(customerID string, tier Tier) (Snapshot, error) {
	snap := Snapshot{
		Minute:   l.tracker.Usage(customerID, PeriodMinute),
		Day:      l.tracker.Usage(customerID, PeriodDay),
		Month:    l.tracker.Usage(customerID, PeriodMonth),
		Ceilings: CeilingsFor(tier),
	}

	for _, period := range periods {
		limit := snap.Ceilings.For(period)
		if limit == Unlimited {
			continue
		}
		if current := snap.Used(period); current >= limit {
			return snap, &ExceededError{
				Period:  period,
				Current: current,
				Limit:   limit,
				Tier:    tier,
				ResetAt: resetTime(period, l.now()),
			}
		}
	}
	return snap, nil
}

// resetTime computes when the current bucket for a period rolls over.
func resetTime(period Period, now time.Time) time.Time {
	now = now.UTC()
	switch period {
	case PeriodMinute:
		return now.Truncate(time.Minute).Add(time.Minute)
	case PeriodDay:
		year, month, day := now.Date()
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	case PeriodMonth:
		year, month, _ := now.Date()
		return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	default:
		return now.Add(time.Hour)
	}
}
