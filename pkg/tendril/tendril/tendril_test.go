package tendril

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sambeau/bindweed/pkg/tendril/evaluator"
	"github.com/sambeau/bindweed/pkg/tendril/scope"
)

func TestEngineCompileCache(t *testing.T) {
	engine := NewEngine()

	first, err := engine.Compile("a.b + 1")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	second, err := engine.Compile("a.b + 1")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if first != second {
		t.Fatalf("expected the cached program instance")
	}

	// The one-time prefix is part of the cache key
	oneTime, err := engine.Compile("::a.b + 1")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if oneTime == first {
		t.Fatalf("one-time variant must not share the plain cache entry")
	}
	if !oneTime.OneTime || first.OneTime {
		t.Fatalf("one-time flags wrong: %v %v", oneTime.OneTime, first.OneTime)
	}
}

func TestEngineCompileErrorNotCached(t *testing.T) {
	engine := NewEngine()
	if _, err := engine.Compile("1 +"); err == nil {
		t.Fatalf("expected compile error")
	}
	// Still fails the second time
	if _, err := engine.Compile("1 +"); err == nil {
		t.Fatalf("expected compile error on the retry")
	}
}

func TestParse(t *testing.T) {
	prog, err := Parse("233")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	v := prog.Evaluate(nil, nil)
	if v.Inspect() != "233" {
		t.Fatalf("expected 233, got %s", v.Inspect())
	}
	if !prog.Literal || !prog.Constant {
		t.Fatalf("233 should be literal and constant")
	}
}

func TestEngineNewScope(t *testing.T) {
	engine := NewEngine()
	engine.Registry().Register("shout", func() *evaluator.Filter {
		return &evaluator.Filter{Fn: func(input evaluator.Object, args ...evaluator.Object) evaluator.Object {
			if s, ok := input.(*evaluator.String); ok {
				return &evaluator.String{Value: strings.ToUpper(s.Value) + "!"}
			}
			return input
		}}
	})

	s := engine.NewScope(scope.WithScheduler(&scope.ManualScheduler{}), scope.WithLogger(NullLogger()))
	s.Set("name", &evaluator.String{Value: "ada"})

	v, err := s.EvalExpr("name | shout")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v.Inspect() != "ADA!" {
		t.Fatalf("expected ADA!, got %s", v.Inspect())
	}
}

func TestEndToEndBinding(t *testing.T) {
	engine := NewEngine()
	s := engine.NewScope(scope.WithScheduler(&scope.ManualScheduler{}), scope.WithLogger(NullLogger()))

	if _, err := s.EvalExpr("user = {name: 'ada', langs: ['go', 'js']}"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	seen := []string{}
	if _, err := s.WatchExpr("user.name | uppercase", func(newValue, _ evaluator.Object, sc *scope.Scope) {
		seen = append(seen, newValue.Inspect())
	}, false); err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := s.Digest(); err != nil {
		t.Fatalf("digest: %v", err)
	}
	if _, err := s.ApplyExpr("user.name = 'grace'"); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if diff := cmp.Diff([]string{"ADA", "GRACE"}, seen); diff != "" {
		t.Fatalf("watch values mismatch (-want +got):\n%s", diff)
	}

	v, err := s.EvalExpr("user | json:0")
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if diff := cmp.Diff(`{"langs":["go","js"],"name":"grace"}`, v.Inspect()); diff != "" {
		t.Fatalf("json mismatch (-want +got):\n%s", diff)
	}
}

func TestBufferedLogger(t *testing.T) {
	logger := NewBufferedLogger()
	logger.LogLine("first", 1)
	logger.Log("par")
	logger.LogLine("tial")

	lines := logger.Lines()
	if diff := cmp.Diff([]string{"first 1", "partial"}, lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}

	logger.Reset()
	if len(logger.Lines()) != 0 {
		t.Fatalf("reset did not clear the logger")
	}
}

func TestWriterLogger(t *testing.T) {
	var sb strings.Builder
	logger := WriterLogger(&sb)
	logger.LogLine("hello", "world")
	if sb.String() != "hello world\n" {
		t.Fatalf("got %q", sb.String())
	}
}
