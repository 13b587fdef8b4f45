// Package scope implements the dirty-checking half of the binding runtime:
// a Scope holds the values expressions resolve against, the watchers that
// observe them, and the digest loop that polls watchers to a fixed point.
package scope

import (
	terrors "github.com/sambeau/bindweed/pkg/tendril/errors"
	"github.com/sambeau/bindweed/pkg/tendril/evaluator"
)

// Phase names, observable through Phase() while a digest or apply runs
const (
	PhaseDigest = "$digest"
	PhaseApply  = "$apply"
)

// WatchFunc produces the value a watcher observes
type WatchFunc func(s *Scope) evaluator.Object

// ListenerFunc is told about a changed value. On the very first dispatch
// oldValue equals newValue.
type ListenerFunc func(newValue, oldValue evaluator.Object, s *Scope)

// EvalFunc is work executed against the scope by Eval, Apply and the
// async queues
type EvalFunc func(s *Scope, arg evaluator.Object) evaluator.Object

// initWatchVal is the never-seen sentinel stored as a fresh watcher's last
// value; it compares unequal to everything, so the first pass always fires.
var initWatchVal evaluator.Object = &evaluator.Host{Value: "initial watch value"}

type watcher struct {
	watch    WatchFunc
	listener ListenerFunc
	byValue  bool
	last     evaluator.Object
}

// Scope owns an ordered watcher list, the async work queues and the digest
// phase state. It implements evaluator.Container, so it is the object graph
// expressions resolve free identifiers against, and the value of 'this'.
//
// A scope assumes one logical executor: nothing here is safe for parallel
// mutation. The only suspension points are the deferred digests scheduled
// by EvalAsync and ApplyAsync.
type Scope struct {
	values map[string]evaluator.Object

	watchers  []*watcher
	lastDirty *watcher

	asyncQueue      []EvalFunc
	applyAsyncQueue []EvalFunc
	postDigestQueue []func(*Scope)

	phase            string
	ttl              int
	logger           evaluator.Logger
	scheduler        Scheduler
	registry         *evaluator.FilterRegistry
	cancelApplyAsync func()
}

// Option configures a scope at construction
type Option func(*Scope)

// WithLogger injects the logger digest exceptions are reported to
func WithLogger(logger evaluator.Logger) Option {
	return func(s *Scope) { s.logger = logger }
}

// WithScheduler injects the deferred-work scheduler
func WithScheduler(scheduler Scheduler) Option {
	return func(s *Scope) { s.scheduler = scheduler }
}

// WithTTL overrides the digest iteration bound
func WithTTL(ttl int) Option {
	return func(s *Scope) { s.ttl = ttl }
}

// WithRegistry injects the filter registry expression watches compile with
func WithRegistry(registry *evaluator.FilterRegistry) Option {
	return func(s *Scope) { s.registry = registry }
}

// New creates an empty scope
func New(opts ...Option) *Scope {
	s := &Scope{
		values:    make(map[string]evaluator.Object),
		ttl:       10,
		logger:    evaluator.DefaultLogger,
		scheduler: AsyncScheduler{},
		registry:  evaluator.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Phase returns "$digest" or "$apply" while one is running, "" otherwise
func (s *Scope) Phase() string { return s.phase }

// Type implements evaluator.Object
func (s *Scope) Type() evaluator.ObjectType { return evaluator.SCOPE_OBJ }

// Inspect implements evaluator.Object
func (s *Scope) Inspect() string { return "[scope]" }

// GetMember implements evaluator.Container
func (s *Scope) GetMember(name string) (evaluator.Object, bool) {
	v, ok := s.values[name]
	return v, ok
}

// SetMember implements evaluator.Container
func (s *Scope) SetMember(name string, val evaluator.Object) {
	s.values[name] = val
}

// HasMember implements evaluator.Container
func (s *Scope) HasMember(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Set stores a value on the scope
func (s *Scope) Set(name string, val evaluator.Object) { s.SetMember(name, val) }

// SetFunc exposes a Go function to expressions under the name
func (s *Scope) SetFunc(name string, fn evaluator.BuiltinFunction) {
	s.SetMember(name, evaluator.NewBuiltin(name, fn))
}

// Get reads a value from the scope; missing names are undefined
func (s *Scope) Get(name string) evaluator.Object {
	if v, ok := s.values[name]; ok {
		return v
	}
	return evaluator.UNDEFINED
}

// Watch registers a watcher and returns its deregistration function.
// Deregistering is safe at any time, including from inside a listener
// during a digest: the slot is tombstoned, never shifted, so the current
// pass neither skips nor double-visits anyone.
func (s *Scope) Watch(watchFn WatchFunc, listener ListenerFunc, byValue bool) func() {
	w := &watcher{
		watch:    watchFn,
		listener: listener,
		byValue:  byValue,
		last:     initWatchVal,
	}
	s.watchers = append(s.watchers, w)
	// A new watcher invalidates the short-circuit marker: it must be seen
	// at least once even if everything before it settled.
	s.lastDirty = nil

	return func() {
		for i, cur := range s.watchers {
			if cur == w {
				s.watchers[i] = nil
				s.lastDirty = nil
				return
			}
		}
	}
}

// Digest polls every watcher, in registration order, until none reports a
// change, draining the async queue before each pass. The loop is bounded:
// a watcher set that keeps changing for 10 passes fails with a
// digest-class error, leaving the scope usable.
func (s *Scope) Digest() error {
	if s.phase != "" {
		return terrors.Newf(terrors.ClassState, "STATE-0001",
			"%s already in progress", s.phase)
	}
	s.phase = PhaseDigest
	defer func() { s.phase = "" }()

	// A digest starting before the deferred applyAsync flush fires takes
	// the work over: cancel the handle and drain the queue inline.
	if s.cancelApplyAsync != nil {
		s.cancelApplyAsync()
		s.cancelApplyAsync = nil
		s.flushApplyAsyncQueue()
	}

	s.lastDirty = nil
	ttl := s.ttl
	dirty := true

	for dirty || len(s.asyncQueue) > 0 {
		if ttl == 0 {
			return terrors.Newf(terrors.ClassDigest, "DIGEST-0001",
				"%d digest iterations reached without settling", s.ttl)
		}
		ttl--
		dirty = false

		for len(s.asyncQueue) > 0 {
			task := s.asyncQueue[0]
			s.asyncQueue = s.asyncQueue[1:]
			s.runGuarded("async task", func() {
				if v := task(s, nil); evaluator.IsError(v) {
					s.logger.LogLine("tendril: async task:", v.Inspect())
				}
			})
		}

		// Watchers registered during this pass become visible next pass
		count := len(s.watchers)
		for i := 0; i < count; i++ {
			w := s.watchers[i]
			if w == nil {
				continue
			}
			value, ok := s.watchValue(w)
			if !ok {
				continue
			}
			if !watchEquals(value, w.last, w.byValue) {
				dirty = true
				s.lastDirty = w
				previous := w.last
				if w.byValue {
					w.last = evaluator.Copy(value)
				} else {
					w.last = value
				}
				if previous == initWatchVal {
					previous = value
				}
				if w.listener != nil {
					s.runGuarded("listener", func() { w.listener(value, previous, s) })
				}
			} else if w == s.lastDirty {
				// Everything since the last dirty watcher was clean this
				// pass and everything after it was clean last pass.
				dirty = false
				break
			}
		}
	}

	s.compactWatchers()

	for len(s.postDigestQueue) > 0 {
		task := s.postDigestQueue[0]
		s.postDigestQueue = s.postDigestQueue[1:]
		s.runGuarded("postDigest task", func() { task(s) })
	}

	return nil
}

// watchValue evaluates a watch function; panics and error values are
// logged and reported as not-observed, so the digest continues and the
// watcher's last value stays put.
func (s *Scope) watchValue(w *watcher) (value evaluator.Object, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.LogLine("tendril: watch panic:", r)
			ok = false
		}
	}()
	value = w.watch(s)
	if evaluator.IsError(value) {
		s.logger.LogLine("tendril: watch:", value.Inspect())
		return nil, false
	}
	return value, true
}

func (s *Scope) runGuarded(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.LogLine("tendril: "+what+" panic:", r)
		}
	}()
	fn()
}

func watchEquals(a, b evaluator.Object, byValue bool) bool {
	if byValue {
		return evaluator.DeepEquals(a, b)
	}
	return evaluator.WatchEquals(a, b)
}

// compactWatchers drops tombstoned slots once no traversal is in flight
func (s *Scope) compactWatchers() {
	live := s.watchers[:0]
	for _, w := range s.watchers {
		if w != nil {
			live = append(live, w)
		}
	}
	s.watchers = live
}

// Eval runs fn synchronously against the scope and returns its value
func (s *Scope) Eval(fn EvalFunc, arg evaluator.Object) evaluator.Object {
	if fn == nil {
		return evaluator.UNDEFINED
	}
	return fn(s, arg)
}

// EvalExpr compiles and evaluates expression text against the scope
func (s *Scope) EvalExpr(src string) (evaluator.Object, error) {
	prog, err := evaluator.Compile(src, s.registry)
	if err != nil {
		return nil, err
	}
	v := prog.Evaluate(s, nil)
	if evaluator.IsError(v) {
		return nil, evaluator.AsError(v)
	}
	return v, nil
}

// Apply runs fn, then digests, the digest guaranteed even when fn panics.
// A nested Apply (called while a digest or apply is in progress) only
// evaluates: the enclosing phase keeps control of the final digest.
func (s *Scope) Apply(fn EvalFunc) (value evaluator.Object, err error) {
	if s.phase != "" {
		return s.Eval(fn, nil), nil
	}

	s.phase = PhaseApply
	func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.LogLine("tendril: apply panic:", r)
			}
			s.phase = ""
		}()
		value = s.Eval(fn, nil)
	}()

	err = s.Digest()
	return value, err
}

// ApplyExpr compiles expression text and applies it
func (s *Scope) ApplyExpr(src string) (evaluator.Object, error) {
	prog, err := evaluator.Compile(src, s.registry)
	if err != nil {
		return nil, err
	}
	return s.Apply(func(sc *Scope, _ evaluator.Object) evaluator.Object {
		return prog.Evaluate(sc, nil)
	})
}

// EvalAsync queues fn to run at the start of the next digest pass. If no
// digest is running and no flush is pending, a deferred digest is
// scheduled.
func (s *Scope) EvalAsync(fn EvalFunc) {
	if s.phase == "" && len(s.asyncQueue) == 0 && s.cancelApplyAsync == nil {
		s.scheduler.Schedule(func() {
			if len(s.asyncQueue) > 0 {
				if err := s.Digest(); err != nil {
					s.logger.LogLine("tendril: deferred digest:", err.Error())
				}
			}
		})
	}
	s.asyncQueue = append(s.asyncQueue, fn)
}

// EvalAsyncExpr compiles expression text and queues its evaluation
func (s *Scope) EvalAsyncExpr(src string) error {
	prog, err := evaluator.Compile(src, s.registry)
	if err != nil {
		return err
	}
	s.EvalAsync(func(sc *Scope, _ evaluator.Object) evaluator.Object {
		return prog.Evaluate(sc, nil)
	})
	return nil
}

// ApplyAsync queues fn for a coalesced deferred apply: however many
// callbacks pile up before the flush fires, they drain inside a single
// apply, in enqueue order.
func (s *Scope) ApplyAsync(fn EvalFunc) {
	s.applyAsyncQueue = append(s.applyAsyncQueue, fn)
	s.scheduleApplyAsyncFlush()
}

// ApplyAsyncExpr compiles expression text and queues it for the flush
func (s *Scope) ApplyAsyncExpr(src string) error {
	prog, err := evaluator.Compile(src, s.registry)
	if err != nil {
		return err
	}
	s.ApplyAsync(func(sc *Scope, _ evaluator.Object) evaluator.Object {
		return prog.Evaluate(sc, nil)
	})
	return nil
}

func (s *Scope) scheduleApplyAsyncFlush() {
	if s.cancelApplyAsync != nil {
		return
	}
	s.cancelApplyAsync = s.scheduler.Schedule(func() {
		s.cancelApplyAsync = nil
		if _, err := s.Apply(func(sc *Scope, _ evaluator.Object) evaluator.Object {
			sc.flushApplyAsyncQueue()
			return nil
		}); err != nil {
			s.logger.LogLine("tendril: applyAsync flush:", err.Error())
		}
	})
}

func (s *Scope) flushApplyAsyncQueue() {
	for len(s.applyAsyncQueue) > 0 {
		task := s.applyAsyncQueue[0]
		s.applyAsyncQueue = s.applyAsyncQueue[1:]
		s.runGuarded("applyAsync task", func() {
			if v := task(s, nil); evaluator.IsError(v) {
				s.logger.LogLine("tendril: applyAsync task:", v.Inspect())
			}
		})
	}
}

// PostDigest queues fn to run once, after the next digest settles
func (s *Scope) PostDigest(fn func(*Scope)) {
	s.postDigestQueue = append(s.postDigestQueue, fn)
}
