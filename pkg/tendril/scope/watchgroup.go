package scope

import (
	"github.com/sambeau/bindweed/pkg/tendril/evaluator"
)

// GroupListenerFunc receives the per-slot current and previous values of a
// watch group. On the first invocation both slices are the same instance.
type GroupListenerFunc func(newValues, oldValues []evaluator.Object, s *Scope)

// WatchGroup registers one watcher per watch function and calls the
// listener at most once per digest, however many members changed. An empty
// group fires the listener exactly once, with two empty value slices,
// unless deregistered first. The returned function removes every
// underlying watcher at once.
func (s *Scope) WatchGroup(watchFns []WatchFunc, listener GroupListenerFunc) func() {
	if len(watchFns) == 0 {
		shouldCall := true
		s.EvalAsync(func(sc *Scope, _ evaluator.Object) evaluator.Object {
			if shouldCall {
				listener([]evaluator.Object{}, []evaluator.Object{}, sc)
			}
			return nil
		})
		return func() { shouldCall = false }
	}

	newValues := make([]evaluator.Object, len(watchFns))
	oldValues := make([]evaluator.Object, len(watchFns))
	deregisterFns := make([]func(), 0, len(watchFns))
	firstRun := true
	changeReactionScheduled := false

	groupAction := func(sc *Scope, _ evaluator.Object) evaluator.Object {
		changeReactionScheduled = false
		if firstRun {
			firstRun = false
			listener(newValues, newValues, sc)
		} else {
			listener(newValues, oldValues, sc)
		}
		return nil
	}

	for i, watchFn := range watchFns {
		slot := i
		deregisterFns = append(deregisterFns, s.Watch(watchFn,
			func(newValue, oldValue evaluator.Object, sc *Scope) {
				newValues[slot] = newValue
				oldValues[slot] = oldValue
				if !changeReactionScheduled {
					changeReactionScheduled = true
					sc.EvalAsync(groupAction)
				}
			}, false))
	}

	return func() {
		for _, deregister := range deregisterFns {
			deregister()
		}
	}
}

// WatchGroupExprs compiles each expression and watches the group
func (s *Scope) WatchGroupExprs(srcs []string, listener GroupListenerFunc) (func(), error) {
	watchFns := make([]WatchFunc, len(srcs))
	for i, src := range srcs {
		prog, err := evaluator.Compile(src, s.registry)
		if err != nil {
			return nil, err
		}
		watchFns[i] = programWatch(prog)
	}
	return s.WatchGroup(watchFns, listener), nil
}
