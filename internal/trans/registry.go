package trans

import "github.com/liudvikasakelis/dbplyr/internal/dialect"

// Registry is an ordered function-name to rule table with an optional
// parent. Registration happens during dialect construction only; after
// that every use is a lock-free read, so a registry is safe to share
// across concurrent translations.
type Registry struct {
	context string
	parent  *Registry
	order   []string
	rules   map[string]Rule
}

// NewRegistry returns an empty registry for an evaluation context
// ("scalar", "aggregate" or "window"), falling back to parent on misses.
func NewRegistry(context string, parent *Registry) *Registry {
	return &Registry{
		context: context,
		parent:  parent,
		rules:   make(map[string]Rule),
	}
}

// Context reports the evaluation context this registry serves.
func (r *Registry) Context() string { return r.context }

// Register adds or overrides a rule. An override shadows the parent's
// entry for the same name.
func (r *Registry) Register(name string, rule Rule) {
	if _, ok := r.rules[name]; !ok {
		r.order = append(r.order, name)
	}
	r.rules[name] = rule
}

// Resolve walks self then the parent chain, failing with
// UnknownFunctionError when the chain is exhausted.
func (r *Registry) Resolve(t dialect.Tag, name string) (Rule, error) {
	for reg := r; reg != nil; reg = reg.parent {
		if rule, ok := reg.rules[name]; ok {
			return rule, nil
		}
	}
	return Rule{}, &dialect.UnknownFunctionError{
		Name:    name,
		Context: r.context,
		Dialect: t,
	}
}

// Names returns every resolvable name in the chain, self overrides first,
// then inherited names in their registration order.
func (r *Registry) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for reg := r; reg != nil; reg = reg.parent {
		for _, n := range reg.order {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names
}
