package model

import (
	"fmt"
	"strings"
)

// Plan is the subscription tier of an API key. It is informational to the
// gateway; costs do not vary by plan.
type Plan int

const (
	PlanLite Plan = iota
	PlanBasic
	PlanPro
	PlanEnterprise
)

var planNames = [...]string{"lite", "basic", "pro", "enterprise"}

// Valid reports whether p is one of the known tiers.
func (p Plan) Valid() bool {
	return p >= PlanLite && p <= PlanEnterprise
}

func (p Plan) String() string {
	if !p.Valid() {
		return fmt.Sprintf("plan(%d)", int(p))
	}
	return planNames[p]
}

// ParsePlan maps a tier name (case-insensitive) to a Plan.
func ParsePlan(s string) (Plan, error) {
	for i, name := range planNames {
		if strings.EqualFold(s, name) {
			return Plan(i), nil
		}
	}
	return 0, fmt.Errorf("unknown plan %q", s)
}
