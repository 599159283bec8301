package entitlements

import (
	"testing"
	"time"
)

func TestEffective(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name     string
		plan     string
		proUntil *time.Time
		want     Plan
	}{
		{name: "free stays free", plan: "free", want: PlanFree},
		{name: "unknown plan is free", plan: "platinum", want: PlanFree},
		{name: "pro without expiry", plan: "pro", want: PlanPro},
		{name: "pro with future expiry", plan: "pro", proUntil: &future, want: PlanPro},
		{name: "pro with lapsed expiry", plan: "pro", proUntil: &past, want: PlanFree},
		{name: "plan string is trimmed and lowercased", plan: "  PRO ", proUntil: &future, want: PlanPro},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Effective(tt.plan, tt.proUntil, now); got != tt.want {
				t.Fatalf("Effective(%q) = %q, want %q", tt.plan, got, tt.want)
			}
		})
	}
}

func TestLimits(t *testing.T) {
	if got := MaxSeries(PlanFree); got != 1 {
		t.Fatalf("MaxSeries(free) = %d, want 1", got)
	}
	if got := MaxChaptersPerSeries(PlanFree); got != 5 {
		t.Fatalf("MaxChaptersPerSeries(free) = %d, want 5", got)
	}
	if MaxSeries(PlanPro) != Unlimited || MaxChaptersPerSeries(PlanPro) != Unlimited {
		t.Fatal("pro plan should be unlimited")
	}

	if !WithinLimit(0, 1) || WithinLimit(1, 1) {
		t.Fatal("WithinLimit cap=1 misbehaves")
	}
	if !WithinLimit(1_000_000, Unlimited) {
		t.Fatal("WithinLimit should always pass for Unlimited")
	}
}
