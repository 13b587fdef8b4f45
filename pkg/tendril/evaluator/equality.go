package evaluator

import "math"

// StrictEquals implements the '===' operator: same type, same value, with
// reference identity for containers and functions. NaN is not equal to NaN
// here; the digest comparison has its own rule (WatchEquals).
func StrictEquals(a, b Object) bool {
	if a == nil {
		a = UNDEFINED
	}
	if b == nil {
		b = UNDEFINED
	}
	if a.Type() != b.Type() {
		return false
	}
	switch av := a.(type) {
	case *Undefined, *Null:
		return true
	case *Boolean:
		return av.Value == b.(*Boolean).Value
	case *Number:
		return av.Value == b.(*Number).Value
	case *String:
		return av.Value == b.(*String).Value
	default:
		// Containers, builtins, host values: reference identity
		return a == b
	}
}

// LooseEquals implements the '==' operator: null equals undefined, numbers
// and strings compare after numeric coercion, booleans coerce to numbers.
func LooseEquals(a, b Object) bool {
	if a == nil {
		a = UNDEFINED
	}
	if b == nil {
		b = UNDEFINED
	}
	if a.Type() == b.Type() {
		return StrictEquals(a, b)
	}

	aNil := a.Type() == NULL_OBJ || a.Type() == UNDEFINED_OBJ
	bNil := b.Type() == NULL_OBJ || b.Type() == UNDEFINED_OBJ
	if aNil || bNil {
		return aNil && bNil
	}

	switch {
	case a.Type() == NUMBER_OBJ && b.Type() == STRING_OBJ,
		a.Type() == STRING_OBJ && b.Type() == NUMBER_OBJ,
		a.Type() == BOOLEAN_OBJ || b.Type() == BOOLEAN_OBJ:
		return toNumber(a) == toNumber(b)
	}
	return false
}

// WatchEquals is the digest's reference comparison: strict equality with
// the explicit exception that two NaN values are equal, so a NaN-valued
// watcher settles.
func WatchEquals(a, b Object) bool {
	if StrictEquals(a, b) {
		return true
	}
	an, aok := a.(*Number)
	bn, bok := b.(*Number)
	return aok && bok && math.IsNaN(an.Value) && math.IsNaN(bn.Value)
}

// DeepEquals is the by-value comparison: structural over arrays and
// dictionaries, NaN equal to NaN, reference identity for functions and
// host values.
func DeepEquals(a, b Object) bool {
	if a == nil {
		a = UNDEFINED
	}
	if b == nil {
		b = UNDEFINED
	}
	if a.Type() != b.Type() {
		return false
	}
	switch av := a.(type) {
	case *Number:
		bv := b.(*Number)
		if math.IsNaN(av.Value) && math.IsNaN(bv.Value) {
			return true
		}
		return av.Value == bv.Value
	case *Array:
		bv := b.(*Array)
		if len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !DeepEquals(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *Dictionary:
		bv := b.(*Dictionary)
		if av.Len() != bv.Len() {
			return false
		}
		for _, key := range av.keys {
			bval, ok := bv.GetMember(key)
			if !ok {
				return false
			}
			if !DeepEquals(av.store[key], bval) {
				return false
			}
		}
		return true
	default:
		return StrictEquals(a, b)
	}
}

// Copy deep-clones arrays and dictionaries so a by-value watcher's snapshot
// cannot be mutated from outside. Scalars are immutable and returned as-is;
// functions, host values and scopes are shared by reference.
func Copy(obj Object) Object {
	switch o := obj.(type) {
	case *Array:
		elements := make([]Object, len(o.Elements))
		for i, e := range o.Elements {
			elements[i] = Copy(e)
		}
		return &Array{Elements: elements}
	case *Dictionary:
		clone := NewDictionary()
		for _, key := range o.keys {
			clone.SetMember(key, Copy(o.store[key]))
		}
		return clone
	default:
		return obj
	}
}
