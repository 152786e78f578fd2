package questions

import "strings"

const (
	// RoleAny marks a record that applies to every role.
	RoleAny = "any"
	// DefaultWeight is used when a record carries no weight.
	DefaultWeight = 1.5
)

// Record is a pre-authored interview question. UsageCount is the only mutable field.
type Record struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Stage      string  `json:"stage"`
	Role       string  `json:"role"`
	Domain     string  `json:"domain,omitempty"`
	Skill      string  `json:"skill,omitempty"`
	Difficulty int     `json:"difficulty,omitempty"`
	Weight     float64 `json:"weight,omitempty"`
	UsageCount int     `json:"usageCount"`
}

// EffectiveWeight returns Weight, or DefaultWeight when unset.
func (r Record) EffectiveWeight() float64 {
	if r.Weight <= 0 {
		return DefaultWeight
	}
	return r.Weight
}

// AnyRole reports whether the record applies to every role.
func (r Record) AnyRole() bool {
	role := strings.ToLower(strings.TrimSpace(r.Role))
	return role == "" || role == RoleAny
}
