package evaluator

// The sandbox confines expressions to plain data and the functions the
// embedder put on the scope. Three predicates guard every identifier read,
// member dereference, call and assignment; each returns a security-class
// error value, or nil when the check passes.

// unsafeMemberNames are rejected wherever a member name appears: literal
// property names at compile time, computed keys and identifiers at runtime.
var unsafeMemberNames = map[string]bool{
	"constructor":      true,
	"__proto__":        true,
	"__defineGetter__": true,
	"__defineSetter__": true,
	"__lookupGetter__": true,
	"__lookupSetter__": true,
}

// ensureSafeMemberName rejects the blacklisted reflection member names
func ensureSafeMemberName(name string) *Error {
	if unsafeMemberNames[name] {
		return newSecurityError("SEC-0001",
			"referencing member '"+name+"' in expressions is disallowed")
	}
	return nil
}

// ensureSafeObject rejects values whose shape marks them as host globals,
// function constructors, reflection surfaces or document nodes. The checks
// are structural: a prototype-derived clone of the host global is caught by
// the same member probes as the real one.
func ensureSafeObject(obj Object) *Error {
	if obj == nil || !isTruthy(obj) {
		return nil
	}

	if b, ok := obj.(*Builtin); ok && b.kind == builtinFnConstructor {
		return newSecurityError("SEC-0002",
			"referencing the function constructor in expressions is disallowed")
	}

	c, ok := asContainer(obj)
	if !ok {
		return nil
	}

	if hasTruthyMember(c, "document") && hasTruthyMember(c, "location") &&
		hasTruthyMember(c, "alert") && hasTruthyMember(c, "setTimeout") {
		return newSecurityError("SEC-0003",
			"referencing the host global in expressions is disallowed")
	}

	if v, found := c.GetMember("constructor"); found && v == obj {
		return newSecurityError("SEC-0002",
			"referencing the function constructor in expressions is disallowed")
	}

	if c.HasMember("getOwnPropertyNames") || c.HasMember("getOwnPropertyDescriptor") {
		return newSecurityError("SEC-0004",
			"referencing reflection APIs in expressions is disallowed")
	}

	nodeType, hasType := c.GetMember("nodeType")
	nodeName, hasName := c.GetMember("nodeName")
	if hasType && hasName && nodeType != nil && nodeName != nil &&
		nodeType.Type() == NUMBER_OBJ && nodeName.Type() == STRING_OBJ {
		return newSecurityError("SEC-0005",
			"referencing document nodes in expressions is disallowed")
	}

	return nil
}

// ensureSafeFunction rejects calling the function constructor and the
// bound-call primitives (call, apply, bind)
func ensureSafeFunction(obj Object) *Error {
	b, ok := obj.(*Builtin)
	if !ok {
		return nil
	}
	switch b.kind {
	case builtinFnConstructor:
		return newSecurityError("SEC-0002",
			"referencing the function constructor in expressions is disallowed")
	case builtinCallPrimitive:
		return newSecurityError("SEC-0006",
			"referencing call, apply or bind in expressions is disallowed")
	}
	return nil
}

func hasTruthyMember(c Container, name string) bool {
	v, ok := c.GetMember(name)
	return ok && isTruthy(v)
}
