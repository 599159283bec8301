package entitlements

import (
	"strings"
	"time"
)

type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// Unlimited marks a plan dimension without a cap.
const Unlimited = -1

// Normalize maps arbitrary stored plan strings onto a known Plan.
func Normalize(plan string) Plan {
	if Plan(strings.ToLower(strings.TrimSpace(plan))) == PlanPro {
		return PlanPro
	}
	return PlanFree
}

// Effective computes the plan a user actually gets right now. A pro plan
// whose paid window has lapsed reads as free; proUntil == nil means the pro
// grant has no expiry (Stripe-managed subscriptions are downgraded by
// webhook instead).
func Effective(plan string, proUntil *time.Time, now time.Time) Plan {
	p := Normalize(plan)
	if p != PlanPro {
		return PlanFree
	}
	if proUntil != nil && proUntil.Before(now) {
		return PlanFree
	}
	return PlanPro
}

// MaxSeries returns how many series a plan may create.
func MaxSeries(plan Plan) int {
	if plan == PlanPro {
		return Unlimited
	}
	return 1
}

// MaxChaptersPerSeries returns how many chapters per series a plan may create.
func MaxChaptersPerSeries(plan Plan) int {
	if plan == PlanPro {
		return Unlimited
	}
	return 5
}

// WithinLimit reports whether one more of something is allowed under cap.
func WithinLimit(count int64, cap int) bool {
	return cap == Unlimited || count < int64(cap)
}
