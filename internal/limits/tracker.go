// Package limits implements tier-aware admission control: a per-customer
// usage tracker over fixed minute/day/month windows and the rate limiter
// that consults it. Usage is in-memory only; counters do not survive a
// process restart and no cross-instance coordination is attempted.
package limits

import (
	"fmt"
	"sync"
	"time"
)

// Period is one rate-limiting granularity.
type Period string

// Periods, checked in this order.
const (
	PeriodMinute Period = "minute"
	PeriodDay    Period = "day"
	PeriodMonth  Period = "month"
)

var periods = []Period{PeriodMinute, PeriodDay, PeriodMonth}

func bucketKey(period Period, now time.Time) string {
	now = now.UTC()
	switch period {
	case PeriodMinute:
		return string(period) + ":" + now.Format("2006-01-02 15:04")
	case PeriodDay:
		return string(period) + ":" + now.Format("2006-01-02")
	case PeriodMonth:
		return string(period) + ":" + now.Format("2006-01")
	default:
		return string(period) + ":"
	}
}

// Tracker counts requests per customer in the current minute, day, and month
// buckets. It is the only shared mutable state in the request path; all
// access goes through one mutex so concurrent increments are never lost.
type Tracker struct {
	mu          sync.Mutex
	usage       map[string]map[string]int
	lastRequest map[string]time.Time
	now         func() time.Time
}

// NewTracker constructs an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		usage:       make(map[string]map[string]int),
		lastRequest: make(map[string]time.Time),
		now:         time.Now,
	}
}

// RecordRequest increments the customer's current bucket in every period and
// stamps the last-request time. The three increments are applied atomically.
func (t *Tracker) RecordRequest(customerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	buckets := t.usage[customerID]
	if buckets == nil {
		buckets = make(map[string]int)
		t.usage[customerID] = buckets
	}
	for _, period := range periods {
		buckets[bucketKey(period, now)]++
	}
	t.lastRequest[customerID] = now.UTC()
}

// Usage reads the customer's count in the current bucket for one period.
// Buckets are never pre-created; an absent bucket reads as zero.
func (t *Tracker) Usage(customerID string, period Period) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.usage[customerID][bucketKey(period, t.now())]
}

// LastRequest returns the customer's most recent request time.
func (t *Tracker) LastRequest(customerID string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ts, ok := t.lastRequest[customerID]
	return ts, ok
}

// ActivePeriods counts how many distinct buckets the customer has touched.
func (t *Tracker) ActivePeriods(customerID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.usage[customerID])
}

// Reset clears a customer's counters for one period, or for everything when
// period is empty. Admin operation; buckets are never deleted otherwise.
func (t *Tracker) Reset(customerID string, period Period) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if period == "" {
		delete(t.usage, customerID)
		return nil
	}
	switch period {
	case PeriodMinute, PeriodDay, PeriodMonth:
		if buckets := t.usage[customerID]; buckets != nil {
			delete(buckets, bucketKey(period, t.now()))
		}
		return nil
	default:
		return fmt.Errorf("invalid period: %s", period)
	}
}
