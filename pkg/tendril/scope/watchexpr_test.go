package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sambeau/bindweed/pkg/tendril/evaluator"
)

func TestWatchExprPlain(t *testing.T) {
	s, _ := newTestScope()
	s.Set("user", str("ada"))

	seen := []string{}
	_, err := s.WatchExpr("user", func(newValue, _ evaluator.Object, sc *Scope) {
		seen = append(seen, newValue.Inspect())
	}, false)
	require.NoError(t, err)

	require.NoError(t, s.Digest())
	s.Set("user", str("grace"))
	require.NoError(t, s.Digest())
	assert.Equal(t, []string{"ada", "grace"}, seen)
}

func TestWatchExprCompileError(t *testing.T) {
	s, _ := newTestScope()
	_, err := s.WatchExpr("a +", nil, false)
	require.Error(t, err)
}

// TestWatchExprConstant checks the constant delegate: one fire, then the
// watcher removes itself.
func TestWatchExprConstant(t *testing.T) {
	s, _ := newTestScope()

	calls := 0
	_, err := s.WatchExpr("40 + 2", func(newValue, _ evaluator.Object, sc *Scope) {
		calls++
		assert.Equal(t, 42.0, toNum(newValue))
	}, false)
	require.NoError(t, err)

	require.NoError(t, s.Digest())
	require.NoError(t, s.Digest())
	assert.Equal(t, 1, calls)

	// The watcher list no longer holds it
	require.NoError(t, s.Digest())
	assert.Equal(t, 1, calls)
}

// TestWatchExprOneTime checks the one-time delegate: the watcher stays
// alive while the value is undefined and stops once it settles defined.
func TestWatchExprOneTime(t *testing.T) {
	s, _ := newTestScope()

	seen := []string{}
	_, err := s.WatchExpr("::name", func(newValue, _ evaluator.Object, sc *Scope) {
		seen = append(seen, newValue.Inspect())
	}, false)
	require.NoError(t, err)

	// The first dispatch fires like any watcher, but an undefined value
	// keeps the watcher alive
	require.NoError(t, s.Digest())
	assert.Equal(t, []string{"undefined"}, seen)

	s.Set("name", str("ada"))
	require.NoError(t, s.Digest())
	assert.Equal(t, []string{"undefined", "ada"}, seen)

	// Settled defined: later changes are not observed
	s.Set("name", str("grace"))
	require.NoError(t, s.Digest())
	assert.Equal(t, []string{"undefined", "ada"}, seen)
}

// The one-time evaluator returns the same value as its plain counterpart
func TestOneTimeMatchesPlainValue(t *testing.T) {
	s, _ := newTestScope()
	s.Set("n", num(20))

	one, err := s.EvalExpr("::n + 1")
	require.NoError(t, err)
	plain, err := s.EvalExpr("n + 1")
	require.NoError(t, err)
	assert.Equal(t, toNum(plain), toNum(one))
}

// TestWatchExprInputs checks the input-set fast path: the full expression
// recomputes only when one of its inputs moved.
func TestWatchExprInputs(t *testing.T) {
	recomputes := 0
	registry := evaluator.NewRegistry()
	registry.Register("probe", func() *evaluator.Filter {
		return &evaluator.Filter{Fn: func(input evaluator.Object, args ...evaluator.Object) evaluator.Object {
			recomputes++
			return input
		}}
	})

	sched := &ManualScheduler{}
	s := New(WithScheduler(sched), WithLogger(&captureLogger{}), WithRegistry(registry))
	s.Set("a", num(1))
	s.Set("unrelated", num(0))

	calls := 0
	_, err := s.WatchExpr("a | probe", func(_, _ evaluator.Object, sc *Scope) { calls++ }, false)
	require.NoError(t, err)

	require.NoError(t, s.Digest())
	assert.Equal(t, 1, calls)
	firstRecomputes := recomputes
	assert.Greater(t, firstRecomputes, 0)

	// An unrelated change digests without recomputing the filter chain
	s.Set("unrelated", num(1))
	require.NoError(t, s.Digest())
	assert.Equal(t, firstRecomputes, recomputes)

	// An input change recomputes
	s.Set("a", num(2))
	require.NoError(t, s.Digest())
	assert.Greater(t, recomputes, firstRecomputes)
	assert.Equal(t, 2, calls)
}

// Watch errors inside expressions are reported to the logger, and the
// watcher's last value stays put
func TestWatchExprSecurityErrorLogged(t *testing.T) {
	logger := &captureLogger{}
	sched := &ManualScheduler{}
	s := New(WithScheduler(sched), WithLogger(logger))
	s.Set("wd", hostGlobalValue())

	_, err := s.WatchExpr("wd", nil, false)
	require.NoError(t, err)

	require.NoError(t, s.Digest())
	assert.NotEmpty(t, logger.lines)
}
