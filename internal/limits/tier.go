package limits

// Tier is a customer's subscription class, driving rate ceilings and
// administrative privilege.
type Tier string

// Tiers, ordered lowest to highest.
const (
	TierDemo         Tier = "demo"
	TierStartup      Tier = "startup"
	TierProfessional Tier = "professional"
	TierEnterprise   Tier = "enterprise"
)

var tierOrder = map[Tier]int{
	TierDemo:         0,
	TierStartup:      1,
	TierProfessional: 2,
	TierEnterprise:   3,
}

// ParseTier normalizes a raw tier label, defaulting unknown values to demo.
func ParseTier(value string) Tier {
	t := Tier(value)
	if _, ok := tierOrder[t]; ok {
		return t
	}
	return TierDemo
}

// AtLeast reports whether t sits at or above min in the tier hierarchy.
func (t Tier) AtLeast(min Tier) bool {
	return tierOrder[t] >= tierOrder[min]
}

// Unlimited marks a ceiling that never triggers.
const Unlimited = -1

// Ceilings are a tier's request ceilings per period.
type Ceilings struct {
	PerMinute int `json:"minute"`
	PerDay    int `json:"day"`
	PerMonth  int `json:"month"`
}

var tierCeilings = map[Tier]Ceilings{
	TierDemo:         {PerMinute: 1, PerDay: 3, PerMonth: 3},
	TierStartup:      {PerMinute: 5, PerDay: 10, PerMonth: 100},
	TierProfessional: {PerMinute: 20, PerDay: 100, PerMonth: 1000},
	TierEnterprise:   {PerMinute: 100, PerDay: Unlimited, PerMonth: Unlimited},
}

// CeilingsFor returns the ceilings for a tier; unknown tiers get demo limits.
func CeilingsFor(tier Tier) Ceilings {
	if c, ok := tierCeilings[tier]; ok {
		return c
	}
	return tierCeilings[TierDemo]
}

// For returns the ceiling for one period.
func (c Ceilings) For(period Period) int {
	switch period {
	case PeriodMinute:
		return c.PerMinute
	case PeriodDay:
		return c.PerDay
	case PeriodMonth:
		return c.PerMonth
	default:
		return 0
	}
}
