package evaluator

import (
	"testing"

	terrors "github.com/sambeau/bindweed/pkg/tendril/errors"
)

func expectSecurityError(t *testing.T, obj Object) {
	t.Helper()
	e, ok := obj.(*Error)
	if !ok {
		t.Fatalf("expected a security error, got %s (%s)", obj.Type(), obj.Inspect())
	}
	if e.Err.Class != terrors.ClassSecurity {
		t.Fatalf("expected security class, got %s: %s", e.Err.Class, e.Err.Message)
	}
}

func expectCompileSecurityError(t *testing.T, src string) {
	t.Helper()
	_, err := Compile(src, nil)
	if err == nil {
		t.Fatalf("%q: expected a compile-time security rejection", src)
	}
	if !terrors.IsSecurity(err) {
		t.Fatalf("%q: expected security class, got %v", src, terrors.ClassOf(err))
	}
}

// hostGlobal builds a value with the shape of the host global object
func hostGlobal() *Dictionary {
	return dictOf(
		"document", TRUE,
		"location", TRUE,
		"alert", NewBuiltin("alert", nil),
		"setTimeout", NewBuiltin("setTimeout", nil),
	)
}

// domNode builds a value with the shape of a document node
func domNode() *Dictionary {
	return dictOf(
		"nodeType", &Number{Value: 1},
		"nodeName", &String{Value: "DIV"},
	)
}

func TestBlacklistedMemberNames(t *testing.T) {
	names := []string{
		"constructor", "__proto__", "__defineGetter__", "__defineSetter__",
		"__lookupGetter__", "__lookupSetter__",
	}
	for _, name := range names {
		// As a bare identifier and as a non-computed member: rejected at
		// compile time
		expectCompileSecurityError(t, name)
		expectCompileSecurityError(t, "a."+name)
	}

	// As a computed member: rejected at evaluation time
	prog := testCompile(t, "a[key]")
	scope := dictOf("a", NewDictionary(), "key", &String{Value: "__proto__"})
	expectSecurityError(t, prog.Evaluate(scope, nil))
}

func TestHostGlobalRejected(t *testing.T) {
	// Via identifier read
	expectSecurityError(t, testEval(t, "wd", dictOf("wd", hostGlobal())))

	// Via member dereference
	expectSecurityError(t, testEval(t, "a.wd", dictOf("a", dictOf("wd", hostGlobal()))))

	// Via call argument
	scope := dictOf(
		"fn", NewBuiltin("fn", func(recv Object, args []Object) Object { return NULL }),
		"wd", hostGlobal(),
	)
	expectSecurityError(t, testEval(t, "fn(wd)", scope))

	// Via call return
	scope = dictOf(
		"fn", NewBuiltin("fn", func(recv Object, args []Object) Object { return hostGlobal() }),
	)
	expectSecurityError(t, testEval(t, "fn()", scope))

	// Via assignment RHS
	prog := testCompile(t, "target = wd")
	expectSecurityError(t, prog.Evaluate(dictOf("wd", hostGlobal()), nil))
}

func TestFunctionConstructorRejected(t *testing.T) {
	expectSecurityError(t, testEval(t, "f", dictOf("f", FunctionConstructor)))

	// The self-referential constructor shape is caught too
	circular := NewDictionary()
	circular.SetMember("constructor", circular)
	expectSecurityError(t, testEval(t, "c", dictOf("c", circular)))
}

func TestReflectionApisRejected(t *testing.T) {
	objectLike := dictOf("getOwnPropertyNames", NewBuiltin("getOwnPropertyNames", nil))
	expectSecurityError(t, testEval(t, "o", dictOf("o", objectLike)))

	objectLike = dictOf("getOwnPropertyDescriptor", NewBuiltin("getOwnPropertyDescriptor", nil))
	expectSecurityError(t, testEval(t, "o", dictOf("o", objectLike)))
}

func TestDomNodeRejected(t *testing.T) {
	expectSecurityError(t, testEval(t, "el", dictOf("el", domNode())))

	// Shape requires both members with the right types
	half := dictOf("nodeType", &Number{Value: 1})
	if v := testEval(t, "el", dictOf("el", half)); IsError(v) {
		t.Fatalf("nodeType alone should not be rejected: %s", v.Inspect())
	}
	wrongType := dictOf("nodeType", &String{Value: "1"}, "nodeName", &String{Value: "DIV"})
	if v := testEval(t, "el", dictOf("el", wrongType)); IsError(v) {
		t.Fatalf("string nodeType should not be rejected: %s", v.Inspect())
	}
}

func TestCallApplyBindRejected(t *testing.T) {
	scope := dictOf(
		"fn", NewBuiltin("fn", func(recv Object, args []Object) Object { return NULL }),
	)
	// Accessing fn.call resolves to the call primitive, which the object
	// guard lets through but the function guard rejects at call time
	expectSecurityError(t, testEval(t, "fn.call()", scope))
	expectSecurityError(t, testEval(t, "fn.apply()", scope))
	expectSecurityError(t, testEval(t, "fn.bind()", scope))
}

func TestSafeExpressionsStillWork(t *testing.T) {
	scope := dictOf(
		"user", dictOf("name", &String{Value: "ada"}),
		"fn", NewBuiltin("fn", func(recv Object, args []Object) Object {
			return &String{Value: "ok"}
		}),
	)
	expectString(t, testEval(t, "user.name", scope), "ada")
	expectString(t, testEval(t, "fn()", scope), "ok")
}
