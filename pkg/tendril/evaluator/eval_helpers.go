package evaluator

import (
	"math"
	"strconv"
	"strings"
)

// isTruthy implements the expression language's truthiness: false, 0, NaN, "",
// null and undefined are falsy; every other value is truthy.
func isTruthy(obj Object) bool {
	switch o := obj.(type) {
	case nil, *Undefined, *Null:
		return false
	case *Boolean:
		return o.Value
	case *Number:
		return o.Value != 0 && !math.IsNaN(o.Value)
	case *String:
		return o.Value != ""
	case *Error:
		return false
	default:
		return true
	}
}

// toNumber coerces a value to a number: booleans to 0/1, null to 0,
// undefined to NaN, strings parsed (empty string is 0).
func toNumber(obj Object) float64 {
	switch o := obj.(type) {
	case *Number:
		return o.Value
	case *Boolean:
		if o.Value {
			return 1
		}
		return 0
	case *Null:
		return 0
	case *String:
		s := strings.TrimSpace(o.Value)
		if s == "" {
			return 0
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return v
	default:
		return math.NaN()
	}
}

// toDisplayString renders a value for string concatenation
func toDisplayString(obj Object) string {
	switch o := obj.(type) {
	case nil:
		return "undefined"
	case *String:
		return o.Value
	default:
		return o.Inspect()
	}
}

// asContainer reports whether obj supports named members
func asContainer(obj Object) (Container, bool) {
	c, ok := obj.(Container)
	return c, ok
}

// ownsMember reports whether obj is a container owning the name
func ownsMember(obj Object, name string) bool {
	c, ok := asContainer(obj)
	return ok && c.HasMember(name)
}

// getMember resolves non-computed member access on a value. Missing members
// yield undefined rather than an error.
func getMember(obj Object, name string) Object {
	switch o := obj.(type) {
	case Container:
		if v, ok := o.GetMember(name); ok && v != nil {
			return v
		}
		return UNDEFINED
	case *Array:
		if name == "length" {
			return &Number{Value: float64(len(o.Elements))}
		}
		return UNDEFINED
	case *String:
		if name == "length" {
			return &Number{Value: float64(len([]rune(o.Value)))}
		}
		return UNDEFINED
	case *Builtin:
		switch name {
		case "call":
			return CallPrimitive
		case "apply":
			return ApplyPrimitive
		case "bind":
			return BindPrimitive
		}
		return UNDEFINED
	default:
		return UNDEFINED
	}
}

// getIndex resolves computed member access on a value
func getIndex(obj Object, key Object) Object {
	if a, ok := obj.(*Array); ok {
		if n, ok := key.(*Number); ok {
			idx := int(n.Value)
			if float64(idx) != n.Value || idx < 0 || idx >= len(a.Elements) {
				return UNDEFINED
			}
			if a.Elements[idx] == nil {
				return UNDEFINED
			}
			return a.Elements[idx]
		}
	}
	if s, ok := obj.(*String); ok {
		if n, ok := key.(*Number); ok {
			runes := []rune(s.Value)
			idx := int(n.Value)
			if float64(idx) != n.Value || idx < 0 || idx >= len(runes) {
				return UNDEFINED
			}
			return &String{Value: string(runes[idx])}
		}
	}
	return getMember(obj, memberKeyString(key))
}

// setMember assigns into a container or array slot; assigning past the end
// of an array grows it with undefined fill
func setMember(obj Object, name string, val Object) Object {
	if a, ok := obj.(*Array); ok {
		if idx, err := strconv.Atoi(name); err == nil && idx >= 0 {
			for len(a.Elements) <= idx {
				a.Elements = append(a.Elements, UNDEFINED)
			}
			a.Elements[idx] = val
			return val
		}
		return newOperatorError("OP-0001", "cannot assign member '"+name+"' of an array")
	}
	if c, ok := asContainer(obj); ok {
		c.SetMember(name, val)
		return val
	}
	return newOperatorError("OP-0002", "cannot assign member '"+name+"' of "+typeName(obj))
}

// memberKeyString converts a computed key to its member-name spelling
func memberKeyString(key Object) string {
	switch k := key.(type) {
	case *String:
		return k.Value
	case nil:
		return "undefined"
	default:
		return k.Inspect()
	}
}

// typeName renders an object's type for error messages
func typeName(obj Object) string {
	if obj == nil {
		return "undefined"
	}
	return strings.ToLower(string(obj.Type()))
}
