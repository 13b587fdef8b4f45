// Package tendril provides the public API for embedding the Tendril
// expression and binding runtime.
package tendril

import (
	"sync"

	"github.com/sambeau/bindweed/pkg/tendril/evaluator"
	"github.com/sambeau/bindweed/pkg/tendril/scope"
)

// Engine owns a filter registry and a cache of compiled expressions.
// Compiling the same source text twice returns the same Program, so
// binding-heavy callers pay for lexing and lowering once.
type Engine struct {
	registry *evaluator.FilterRegistry

	cacheMu sync.RWMutex
	cache   map[string]*evaluator.Program
}

// NewEngine creates an engine with the builtin filters registered
func NewEngine() *Engine {
	return NewEngineWithRegistry(evaluator.NewRegistry())
}

// NewEngineWithRegistry creates an engine around an existing registry
func NewEngineWithRegistry(registry *evaluator.FilterRegistry) *Engine {
	return &Engine{
		registry: registry,
		cache:    make(map[string]*evaluator.Program),
	}
}

// Registry returns the engine's filter registry
func (e *Engine) Registry() *evaluator.FilterRegistry { return e.registry }

// Compile parses expression text into a reusable Program. Results are
// cached per source text; the '::' one-time prefix is part of the key.
func (e *Engine) Compile(src string) (*evaluator.Program, error) {
	e.cacheMu.RLock()
	prog, ok := e.cache[src]
	e.cacheMu.RUnlock()
	if ok {
		return prog, nil
	}

	prog, err := evaluator.Compile(src, e.registry)
	if err != nil {
		return nil, err
	}

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	if cached, ok := e.cache[src]; ok {
		return cached, nil
	}
	e.cache[src] = prog
	return prog, nil
}

// NewScope creates a scope wired to the engine's filter registry
func (e *Engine) NewScope(opts ...scope.Option) *scope.Scope {
	opts = append([]scope.Option{scope.WithRegistry(e.registry)}, opts...)
	return scope.New(opts...)
}

// defaultEngine backs the package-level Parse
var (
	defaultEngineOnce sync.Once
	defaultEngine     *Engine
)

// Parse compiles expression text against the default engine
func Parse(src string) (*evaluator.Program, error) {
	defaultEngineOnce.Do(func() { defaultEngine = NewEngine() })
	return defaultEngine.Compile(src)
}
