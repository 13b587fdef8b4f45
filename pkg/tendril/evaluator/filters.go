package evaluator

import "sync"

// FilterFunc transforms a piped-in value. Extra ':'-separated expression
// arguments arrive in order after the input.
type FilterFunc func(input Object, args ...Object) Object

// Filter pairs a filter function with its statefulness marker. Stateful
// filters are treated by the analyser as non-constant and as opaque inputs.
type Filter struct {
	Fn       FilterFunc
	Stateful bool
}

// FilterFactory produces a filter. Factories run once, at registration.
type FilterFactory func() *Filter

// FilterRegistry maps filter names to filters. Compilation resolves filter
// names eagerly, so every filter an expression mentions must be registered
// before the expression compiles.
type FilterRegistry struct {
	mu      sync.RWMutex
	filters map[string]*Filter
}

// NewEmptyRegistry creates a registry with no filters
func NewEmptyRegistry() *FilterRegistry {
	return &FilterRegistry{filters: make(map[string]*Filter)}
}

// NewRegistry creates a registry preloaded with the builtin filters
func NewRegistry() *FilterRegistry {
	r := NewEmptyRegistry()
	r.RegisterMap(builtinFilters())
	return r
}

// Register invokes the factory once and caches the produced filter
func (r *FilterRegistry) Register(name string, factory FilterFactory) {
	filter := factory()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[name] = filter
}

// RegisterMap registers every factory in the map
func (r *FilterRegistry) RegisterMap(factories map[string]FilterFactory) {
	for name, factory := range factories {
		r.Register(name, factory)
	}
}

// Get returns the cached filter, or nil when the name is unknown
func (r *FilterRegistry) Get(name string) *Filter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filters[name]
}

// Stateful reports whether the named filter is registered and stateful
func (r *FilterRegistry) Stateful(name string) bool {
	f := r.Get(name)
	return f != nil && f.Stateful
}
