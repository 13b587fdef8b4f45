package evaluator

import (
	"encoding/json"
	"math"
	"strings"
)

// builtinFilters returns the factories preloaded into NewRegistry
func builtinFilters() map[string]FilterFactory {
	return map[string]FilterFactory{
		"json":      func() *Filter { return &Filter{Fn: jsonFilter} },
		"lowercase": func() *Filter { return &Filter{Fn: lowercaseFilter} },
		"uppercase": func() *Filter { return &Filter{Fn: uppercaseFilter} },
		"limitTo":   func() *Filter { return &Filter{Fn: limitToFilter} },
		"number":    func() *Filter { return &Filter{Fn: numberFilter} },
		"currency":  func() *Filter { return &Filter{Fn: currencyFilter} },
		"date":      func() *Filter { return &Filter{Fn: dateFilter} },
		"markdown":  func() *Filter { return &Filter{Fn: markdownFilter} },
	}
}

// ToNative projects a value onto plain Go types for interop with encoders.
// Integral numbers come back as int64 so they round-trip without a decimal
// point.
func ToNative(obj Object) any {
	switch o := obj.(type) {
	case nil, *Undefined, *Null:
		return nil
	case *Boolean:
		return o.Value
	case *Number:
		if o.Value == math.Trunc(o.Value) && !math.IsInf(o.Value, 0) && math.Abs(o.Value) < 1e15 {
			return int64(o.Value)
		}
		return o.Value
	case *String:
		return o.Value
	case *Array:
		out := make([]any, len(o.Elements))
		for i, e := range o.Elements {
			out[i] = ToNative(e)
		}
		return out
	case *Dictionary:
		out := make(map[string]any, o.Len())
		for _, key := range o.keys {
			out[key] = ToNative(o.store[key])
		}
		return out
	case *Host:
		return o.Value
	default:
		return o.Inspect()
	}
}

// FromNative lifts plain Go values into the expression value domain
func FromNative(v any) Object {
	switch n := v.(type) {
	case nil:
		return NULL
	case bool:
		return nativeBoolToBoolean(n)
	case int:
		return &Number{Value: float64(n)}
	case int64:
		return &Number{Value: float64(n)}
	case float64:
		return &Number{Value: n}
	case string:
		return &String{Value: n}
	case []any:
		elements := make([]Object, len(n))
		for i, e := range n {
			elements[i] = FromNative(e)
		}
		return &Array{Elements: elements}
	case map[string]any:
		dict := NewDictionary()
		for key, val := range n {
			dict.SetMember(key, FromNative(val))
		}
		return dict
	case Object:
		return n
	default:
		return &Host{Value: v}
	}
}

// jsonFilter serializes its input as JSON. The optional argument sets the
// indent width (default 2); 0 produces compact output.
func jsonFilter(input Object, args ...Object) Object {
	if input == nil || input.Type() == UNDEFINED_OBJ {
		return UNDEFINED
	}
	spacing := 2
	if len(args) > 0 {
		if n, ok := args[0].(*Number); ok {
			spacing = int(n.Value)
		}
	}
	native := ToNative(input)
	var out []byte
	var err error
	if spacing > 0 {
		out, err = json.MarshalIndent(native, "", strings.Repeat(" ", spacing))
	} else {
		out, err = json.Marshal(native)
	}
	if err != nil {
		return newOperatorError("FILTER-0002", "json: "+err.Error())
	}
	return &String{Value: string(out)}
}

// lowercaseFilter lowercases strings and passes everything else through
func lowercaseFilter(input Object, args ...Object) Object {
	if s, ok := input.(*String); ok {
		return &String{Value: strings.ToLower(s.Value)}
	}
	return input
}

// uppercaseFilter uppercases strings and passes everything else through
func uppercaseFilter(input Object, args ...Object) Object {
	if s, ok := input.(*String); ok {
		return &String{Value: strings.ToUpper(s.Value)}
	}
	return input
}

// limitToFilter keeps the first (or, negative, last) n elements of an
// array or characters of a string. A second argument offsets the start.
func limitToFilter(input Object, args ...Object) Object {
	if len(args) == 0 {
		return input
	}
	n, ok := args[0].(*Number)
	if !ok {
		return input
	}
	limit := int(n.Value)

	begin := 0
	if len(args) > 1 {
		if b, ok := args[1].(*Number); ok {
			begin = int(b.Value)
		}
	}

	switch o := input.(type) {
	case *Array:
		return &Array{Elements: sliceLimit(o.Elements, limit, begin)}
	case *String:
		runes := []rune(o.Value)
		return &String{Value: string(sliceLimit(runes, limit, begin))}
	default:
		return input
	}
}

func sliceLimit[T any](items []T, limit, begin int) []T {
	length := len(items)
	if begin < 0 {
		begin = length + begin
	}
	if begin < 0 {
		begin = 0
	}
	if begin > length {
		begin = length
	}

	var lo, hi int
	if limit >= 0 {
		lo, hi = begin, begin+limit
	} else {
		lo, hi = length+limit, length
		if lo < begin {
			lo = begin
		}
	}
	if hi > length {
		hi = length
	}
	if lo > hi {
		lo = hi
	}
	out := make([]T, hi-lo)
	copy(out, items[lo:hi])
	return out
}
