package scope

import (
	"github.com/sambeau/bindweed/pkg/tendril/evaluator"
)

// WatchExpr compiles expression text and watches its value, picking the
// cheapest watch strategy the compiled program allows: constant programs
// deregister after their first fire, one-time programs stop once the value
// settles defined, and programs with an input set only re-evaluate when an
// input moved.
func (s *Scope) WatchExpr(src string, listener ListenerFunc, byValue bool) (func(), error) {
	prog, err := evaluator.Compile(src, s.registry)
	if err != nil {
		return nil, err
	}
	return s.WatchProgram(prog, listener, byValue), nil
}

// WatchProgram watches an already-compiled program
func (s *Scope) WatchProgram(prog *evaluator.Program, listener ListenerFunc, byValue bool) func() {
	switch {
	case prog.OneTime:
		return s.oneTimeWatch(prog, listener, byValue)
	case prog.Constant:
		return s.constantWatch(prog, listener, byValue)
	case len(prog.Inputs()) > 0:
		return s.inputsWatch(prog, listener, byValue)
	default:
		return s.Watch(programWatch(prog), listener, byValue)
	}
}

func programWatch(prog *evaluator.Program) WatchFunc {
	return func(s *Scope) evaluator.Object {
		return prog.Evaluate(s, nil)
	}
}

// constantWatch fires once, then removes itself: a constant can never
// change again.
func (s *Scope) constantWatch(prog *evaluator.Program, listener ListenerFunc, byValue bool) func() {
	var unwatch func()
	unwatch = s.Watch(programWatch(prog), func(newValue, oldValue evaluator.Object, sc *Scope) {
		if listener != nil {
			listener(newValue, oldValue, sc)
		}
		unwatch()
	}, byValue)
	return unwatch
}

// oneTimeWatch keeps watching until the value settles to something
// defined: the deregistration happens post-digest, so a value that turns
// undefined again within the same digest keeps the watcher alive.
func (s *Scope) oneTimeWatch(prog *evaluator.Program, listener ListenerFunc, byValue bool) func() {
	var lastValue evaluator.Object
	var unwatch func()

	unwatch = s.Watch(programWatch(prog), func(newValue, oldValue evaluator.Object, sc *Scope) {
		lastValue = newValue
		if listener != nil {
			listener(newValue, oldValue, sc)
		}
		if isDefined(newValue) {
			sc.PostDigest(func(*Scope) {
				if isDefined(lastValue) {
					unwatch()
				}
			})
		}
	}, byValue)
	return unwatch
}

// inputsWatch re-evaluates the full expression only when one of its
// analysed inputs moved; otherwise the cached result is returned to the
// digest's comparison.
func (s *Scope) inputsWatch(prog *evaluator.Program, listener ListenerFunc, byValue bool) func() {
	inputs := prog.Inputs()
	lastInputs := make([]evaluator.Object, len(inputs))
	for i := range lastInputs {
		lastInputs[i] = initWatchVal
	}
	lastResult := evaluator.Object(evaluator.UNDEFINED)

	watchFn := func(sc *Scope) evaluator.Object {
		changed := false
		for i, input := range inputs {
			value := input.Evaluate(sc, nil)
			if evaluator.IsError(value) {
				return value
			}
			if !evaluator.WatchEquals(value, lastInputs[i]) {
				lastInputs[i] = value
				changed = true
			}
		}
		if changed {
			lastResult = prog.Evaluate(sc, nil)
		}
		return lastResult
	}

	return s.Watch(watchFn, listener, byValue)
}

func isDefined(v evaluator.Object) bool {
	return v != nil && v.Type() != evaluator.UNDEFINED_OBJ
}
