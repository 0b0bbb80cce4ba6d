package lint

import (
	"fmt"
	"sort"
	"sync"
)

// Registry stores lint rules for one source language.
type Registry struct {
	mu    sync.RWMutex
	group string
	rules map[string]RuleDef // keyed by ID
}

// NewRegistry creates an empty registry for a rule group.
func NewRegistry(group string) *Registry {
	return &Registry{group: group, rules: make(map[string]RuleDef)}
}

// Group returns the group every rule in the registry belongs to.
func (r *Registry) Group() string {
	return r.group
}

// Register adds a rule. Call this from init() functions in rule packages.
// It panics on a duplicate ID or a rule from another group.
func (r *Registry) Register(rule RuleDef) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rule.Group == "" {
		rule.Group = r.group
	}
	if rule.Group != r.group {
		panic(fmt.Sprintf("lint: rule %s belongs to group %q, not %q", rule.ID, rule.Group, r.group))
	}
	if _, dup := r.rules[rule.ID]; dup {
		panic(fmt.Sprintf("lint: rule %s registered twice", rule.ID))
	}
	r.rules[rule.ID] = rule
}

// All returns all registered rules sorted by ID.
func (r *Registry) All() []RuleDef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rules := make([]RuleDef, 0, len(r.rules))
	for _, rule := range r.rules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules
}

// Get returns a rule by its ID.
func (r *Registry) Get(id string) (RuleDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	return rule, ok
}

// Count returns the number of registered rules.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}
