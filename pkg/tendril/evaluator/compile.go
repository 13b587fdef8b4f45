package evaluator

import (
	"strings"

	"github.com/sambeau/bindweed/pkg/tendril/ast"
	terrors "github.com/sambeau/bindweed/pkg/tendril/errors"
	"github.com/sambeau/bindweed/pkg/tendril/lexer"
	"github.com/sambeau/bindweed/pkg/tendril/parser"
)

// stage tags which function of a program is being lowered. The inputs
// stage resolves identifiers against the scope only, never locals.
type stage int

const (
	stageMain stage = iota
	stageInputs
	stageAssign
)

// evalFn is a lowered expression: a closure from (scope, locals) to a value
type evalFn func(scope, locals Object) Object

// ref is the result of lowering an expression in reference position: the
// resolved value plus the container and member name it came from, so calls
// know their receiver and assignments their target. context is nil when the
// expression has no meaningful container (or when value holds a hard error).
type ref struct {
	value   Object
	context Object
	name    string
}

type refFn func(scope, locals Object) ref

// Program is a compiled expression: a reusable evaluator plus the metadata
// the scope consults for one-time bindings and input fast paths. All fields
// are fixed at compile time.
type Program struct {
	Source   string
	Literal  bool
	Constant bool
	OneTime  bool

	fn        evalFn
	inputs    []*Program
	assign    evalFn
	valueSlot *Object
}

// Evaluate runs the expression against a scope and optional locals.
// Evaluation never panics; failures come back as error values.
func (p *Program) Evaluate(scope, locals Object) Object {
	return p.fn(scope, locals)
}

// Inputs returns the per-input evaluators produced by the input-set
// analysis, or nil when the expression must be watched whole.
func (p *Program) Inputs() []*Program {
	return p.inputs
}

// Assignable reports whether the expression can be assigned through
func (p *Program) Assignable() bool {
	return p.assign != nil
}

// Assign writes a value through the expression: 'a.b' assigns into b on a,
// auto-vivifying the chain. A non-assignable expression is a no-op that
// returns the value unchanged.
func (p *Program) Assign(scope, value, locals Object) Object {
	if p.assign == nil {
		return value
	}
	*p.valueSlot = value
	defer func() { *p.valueSlot = nil }()
	return p.assign(scope, locals)
}

// Compile turns expression text into a reusable Program. A leading '::'
// marks the program one-time and is stripped before lexing. A nil registry
// gets the builtin filters.
func Compile(src string, registry *FilterRegistry) (*Program, error) {
	if registry == nil {
		registry = NewRegistry()
	}

	text := strings.TrimSpace(src)
	oneTime := false
	if strings.HasPrefix(text, "::") {
		oneTime = true
		text = strings.TrimSpace(text[2:])
	}

	p := parser.New(lexer.New(text))
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}

	ast.Annotate(prog, registry.Stateful)

	c := &compiler{registry: registry, valueSlot: new(Object)}

	stmtFns := make([]evalFn, 0, len(prog.Statements))
	for _, stmt := range prog.Statements {
		fn, err := c.compile(stmt, false)
		if err != nil {
			return nil, err
		}
		stmtFns = append(stmtFns, fn)
	}

	program := &Program{
		Source:    src,
		Literal:   ast.IsLiteral(prog),
		Constant:  prog.Constant,
		OneTime:   oneTime,
		valueSlot: c.valueSlot,
	}
	program.fn = func(scope, locals Object) Object {
		result := Object(UNDEFINED)
		for _, fn := range stmtFns {
			result = fn(scope, locals)
			if IsError(result) {
				return result
			}
		}
		return result
	}

	for _, inputExpr := range ast.Inputs(prog) {
		ic := &compiler{registry: registry, stage: stageInputs, valueSlot: c.valueSlot}
		fn, err := ic.compile(inputExpr, false)
		if err != nil {
			return nil, err
		}
		program.inputs = append(program.inputs, &Program{Source: inputExpr.String(), fn: fn})
	}

	if assignable := ast.AssignableAST(prog); assignable != nil {
		ac := &compiler{registry: registry, stage: stageAssign, valueSlot: c.valueSlot}
		fn, err := ac.compile(assignable, false)
		if err != nil {
			return nil, err
		}
		program.assign = fn
	}

	return program, nil
}

// compiler lowers one function of a program (main, one input, or assign)
type compiler struct {
	registry  *FilterRegistry
	stage     stage
	valueSlot *Object
}

// compile lowers a node in value position. When create is set the node is
// an intermediate step of an assignment target: missing members vivify as
// empty dictionaries on the side actually resolved.
func (c *compiler) compile(node ast.Expression, create bool) (evalFn, *terrors.TendrilError) {
	switch e := node.(type) {
	case *ast.NumberLiteral:
		value := &Number{Value: e.Value}
		return func(scope, locals Object) Object { return value }, nil

	case *ast.StringLiteral:
		value := &String{Value: e.Value}
		return func(scope, locals Object) Object { return value }, nil

	case *ast.BooleanLiteral:
		value := nativeBoolToBoolean(e.Value)
		return func(scope, locals Object) Object { return value }, nil

	case *ast.NullLiteral:
		return func(scope, locals Object) Object { return NULL }, nil

	case *ast.UndefinedLiteral:
		return func(scope, locals Object) Object { return UNDEFINED }, nil

	case *ast.ArrayLiteral:
		elementFns := make([]evalFn, len(e.Elements))
		for i, el := range e.Elements {
			fn, err := c.compile(el, false)
			if err != nil {
				return nil, err
			}
			elementFns[i] = fn
		}
		return func(scope, locals Object) Object {
			elements := make([]Object, len(elementFns))
			for i, fn := range elementFns {
				v := fn(scope, locals)
				if IsError(v) {
					return v
				}
				elements[i] = v
			}
			return &Array{Elements: elements}
		}, nil

	case *ast.ObjectLiteral:
		keys := make([]string, len(e.Properties))
		valueFns := make([]evalFn, len(e.Properties))
		for i, prop := range e.Properties {
			switch k := prop.Key.(type) {
			case *ast.Identifier:
				keys[i] = k.Value
			case *ast.StringLiteral:
				keys[i] = k.Value
			case *ast.NumberLiteral:
				keys[i] = (&Number{Value: k.Value}).Inspect()
			}
			fn, err := c.compile(prop.Value, false)
			if err != nil {
				return nil, err
			}
			valueFns[i] = fn
		}
		return func(scope, locals Object) Object {
			dict := NewDictionary()
			for i, fn := range valueFns {
				v := fn(scope, locals)
				if IsError(v) {
					return v
				}
				dict.SetMember(keys[i], v)
			}
			return dict
		}, nil

	case *ast.Identifier:
		name := e.Value
		if serr := ensureSafeMemberName(name); serr != nil {
			return nil, serr.Err
		}
		st := c.stage
		return func(scope, locals Object) Object {
			container := resolveContainer(scope, locals, name, st)
			if container == nil {
				return UNDEFINED
			}
			if create {
				vivifyMember(container, name)
			}
			v := getMember(container, name)
			if serr := ensureSafeObject(v); serr != nil {
				return serr
			}
			return v
		}, nil

	case *ast.ThisExpression:
		return func(scope, locals Object) Object {
			if scope == nil {
				return UNDEFINED
			}
			return scope
		}, nil

	case *ast.MemberExpression:
		name := e.Property.Value
		if serr := ensureSafeMemberName(name); serr != nil {
			return nil, serr.Err
		}
		objFn, err := c.compile(e.Object, create)
		if err != nil {
			return nil, err
		}
		return func(scope, locals Object) Object {
			o := objFn(scope, locals)
			if IsError(o) {
				return o
			}
			if !isTruthy(o) {
				return UNDEFINED
			}
			if create {
				vivifyMember(o, name)
			}
			v := getMember(o, name)
			if serr := ensureSafeObject(v); serr != nil {
				return serr
			}
			return v
		}, nil

	case *ast.IndexExpression:
		objFn, err := c.compile(e.Object, create)
		if err != nil {
			return nil, err
		}
		keyFn, err := c.compile(e.Index, false)
		if err != nil {
			return nil, err
		}
		return func(scope, locals Object) Object {
			o := objFn(scope, locals)
			if IsError(o) {
				return o
			}
			key := keyFn(scope, locals)
			if IsError(key) {
				return key
			}
			name := memberKeyString(key)
			if serr := ensureSafeMemberName(name); serr != nil {
				return serr
			}
			if !isTruthy(o) {
				return UNDEFINED
			}
			if create {
				vivifyMember(o, name)
			}
			v := getIndex(o, key)
			if serr := ensureSafeObject(v); serr != nil {
				return serr
			}
			return v
		}, nil

	case *ast.CallExpression:
		calleeFn, err := c.compileRef(e.Callee)
		if err != nil {
			return nil, err
		}
		argFns := make([]evalFn, len(e.Arguments))
		for i, arg := range e.Arguments {
			fn, err := c.compile(arg, false)
			if err != nil {
				return nil, err
			}
			argFns[i] = fn
		}
		return func(scope, locals Object) Object {
			r := calleeFn(scope, locals)
			if IsError(r.value) && r.context == nil {
				return r.value
			}
			args := make([]Object, len(argFns))
			for i, fn := range argFns {
				v := fn(scope, locals)
				if IsError(v) {
					return v
				}
				if serr := ensureSafeObject(v); serr != nil {
					return serr
				}
				args[i] = v
			}
			if IsError(r.value) {
				return r.value
			}
			if serr := ensureSafeObject(r.context); serr != nil {
				return serr
			}
			if serr := ensureSafeFunction(r.value); serr != nil {
				return serr
			}
			if !isTruthy(r.value) {
				return UNDEFINED
			}
			builtin, ok := r.value.(*Builtin)
			if !ok {
				return newTypeError("TYPE-0001", typeName(r.value)+" is not a function")
			}
			recv := r.context
			if recv == nil {
				recv = UNDEFINED
			}
			result := builtin.Fn(recv, args)
			if result == nil {
				result = UNDEFINED
			}
			if IsError(result) {
				return result
			}
			if serr := ensureSafeObject(result); serr != nil {
				return serr
			}
			return result
		}, nil

	case *ast.FilterExpression:
		filter := c.registry.Get(e.Name.Value)
		if filter == nil {
			return nil, terrors.Newf(terrors.ClassUndefined, "FILTER-0001",
				"unknown filter '%s'", e.Name.Value).
				WithPos(e.Name.Token.Line, e.Name.Token.Column)
		}
		inputFn, err := c.compile(e.Input, false)
		if err != nil {
			return nil, err
		}
		argFns := make([]evalFn, len(e.Arguments))
		for i, arg := range e.Arguments {
			fn, err := c.compile(arg, false)
			if err != nil {
				return nil, err
			}
			argFns[i] = fn
		}
		return func(scope, locals Object) Object {
			input := inputFn(scope, locals)
			if IsError(input) {
				return input
			}
			args := make([]Object, len(argFns))
			for i, fn := range argFns {
				v := fn(scope, locals)
				if IsError(v) {
					return v
				}
				args[i] = v
			}
			result := filter.Fn(input, args...)
			if result == nil {
				return UNDEFINED
			}
			return result
		}, nil

	case *ast.AssignmentExpression:
		switch e.Left.(type) {
		case *ast.Identifier, *ast.MemberExpression, *ast.IndexExpression:
		default:
			return nil, terrors.New(terrors.ClassCompile, "COMPILE-0001",
				"cannot assign to this expression")
		}
		targetFn, err := c.compileRefCreate(e.Left)
		if err != nil {
			return nil, err
		}
		rightFn, err := c.compile(e.Right, false)
		if err != nil {
			return nil, err
		}
		return func(scope, locals Object) Object {
			r := targetFn(scope, locals)
			if r.context == nil {
				if IsError(r.value) {
					return r.value
				}
				return newTypeError("TYPE-0002", "cannot assign: no target container")
			}
			rv := rightFn(scope, locals)
			if IsError(rv) {
				return rv
			}
			if serr := ensureSafeObject(rv); serr != nil {
				return serr
			}
			return setMember(r.context, r.name, rv)
		}, nil

	case *ast.PrefixExpression:
		rightFn, err := c.compile(e.Right, false)
		if err != nil {
			return nil, err
		}
		operator := e.Operator
		return func(scope, locals Object) Object {
			v := rightFn(scope, locals)
			if IsError(v) {
				return v
			}
			return evalPrefixExpression(operator, v)
		}, nil

	case *ast.InfixExpression:
		leftFn, err := c.compile(e.Left, false)
		if err != nil {
			return nil, err
		}
		rightFn, err := c.compile(e.Right, false)
		if err != nil {
			return nil, err
		}
		operator := e.Operator
		return func(scope, locals Object) Object {
			l := leftFn(scope, locals)
			if IsError(l) {
				return l
			}
			r := rightFn(scope, locals)
			if IsError(r) {
				return r
			}
			return evalInfixExpression(operator, l, r)
		}, nil

	case *ast.LogicalExpression:
		leftFn, err := c.compile(e.Left, false)
		if err != nil {
			return nil, err
		}
		rightFn, err := c.compile(e.Right, false)
		if err != nil {
			return nil, err
		}
		and := e.Operator == "&&"
		return func(scope, locals Object) Object {
			l := leftFn(scope, locals)
			if IsError(l) {
				return l
			}
			if and != isTruthy(l) {
				// '&&' with falsy left, or '||' with truthy left:
				// short-circuit to the left operand itself
				return l
			}
			return rightFn(scope, locals)
		}, nil

	case *ast.ConditionalExpression:
		testFn, err := c.compile(e.Test, false)
		if err != nil {
			return nil, err
		}
		consequentFn, err := c.compile(e.Consequent, false)
		if err != nil {
			return nil, err
		}
		alternateFn, err := c.compile(e.Alternate, false)
		if err != nil {
			return nil, err
		}
		return func(scope, locals Object) Object {
			t := testFn(scope, locals)
			if IsError(t) {
				return t
			}
			if isTruthy(t) {
				return consequentFn(scope, locals)
			}
			return alternateFn(scope, locals)
		}, nil

	case *ast.ValueParameter:
		slot := c.valueSlot
		return func(scope, locals Object) Object {
			if *slot == nil {
				return UNDEFINED
			}
			return *slot
		}, nil

	default:
		return nil, terrors.Newf(terrors.ClassCompile, "COMPILE-0002",
			"unknown expression node %T", node)
	}
}

// compileRef lowers a node in reference position for a call, so the
// receiver is known: bare identifiers resolve against their container,
// member accesses against their object. Other nodes have no receiver.
func (c *compiler) compileRef(node ast.Expression) (refFn, *terrors.TendrilError) {
	return c.compileRefMode(node, false)
}

// compileRefCreate lowers an assignment target: the member chain above the
// final element vivifies missing containers.
func (c *compiler) compileRefCreate(node ast.Expression) (refFn, *terrors.TendrilError) {
	return c.compileRefMode(node, true)
}

func (c *compiler) compileRefMode(node ast.Expression, create bool) (refFn, *terrors.TendrilError) {
	switch e := node.(type) {
	case *ast.Identifier:
		name := e.Value
		if serr := ensureSafeMemberName(name); serr != nil {
			return nil, serr.Err
		}
		st := c.stage
		return func(scope, locals Object) ref {
			container := resolveContainer(scope, locals, name, st)
			if container == nil {
				return ref{value: UNDEFINED, name: name}
			}
			r := ref{context: container, name: name}
			v := getMember(container, name)
			if serr := ensureSafeObject(v); serr != nil {
				r.value = serr
			} else {
				r.value = v
			}
			return r
		}, nil

	case *ast.MemberExpression:
		name := e.Property.Value
		if serr := ensureSafeMemberName(name); serr != nil {
			return nil, serr.Err
		}
		objFn, err := c.compile(e.Object, create)
		if err != nil {
			return nil, err
		}
		return func(scope, locals Object) ref {
			o := objFn(scope, locals)
			if IsError(o) {
				return ref{value: o}
			}
			if !isTruthy(o) {
				return ref{value: UNDEFINED, name: name}
			}
			r := ref{context: o, name: name}
			v := getMember(o, name)
			if serr := ensureSafeObject(v); serr != nil {
				r.value = serr
			} else {
				r.value = v
			}
			return r
		}, nil

	case *ast.IndexExpression:
		objFn, err := c.compile(e.Object, create)
		if err != nil {
			return nil, err
		}
		keyFn, err := c.compile(e.Index, false)
		if err != nil {
			return nil, err
		}
		return func(scope, locals Object) ref {
			o := objFn(scope, locals)
			if IsError(o) {
				return ref{value: o}
			}
			key := keyFn(scope, locals)
			if IsError(key) {
				return ref{value: key}
			}
			name := memberKeyString(key)
			if serr := ensureSafeMemberName(name); serr != nil {
				return ref{value: serr}
			}
			if !isTruthy(o) {
				return ref{value: UNDEFINED, name: name}
			}
			r := ref{context: o, name: name}
			v := getIndex(o, key)
			if serr := ensureSafeObject(v); serr != nil {
				r.value = serr
			} else {
				r.value = v
			}
			return r
		}, nil

	default:
		fn, err := c.compile(node, false)
		if err != nil {
			return nil, err
		}
		return func(scope, locals Object) ref {
			return ref{value: fn(scope, locals)}
		}, nil
	}
}

// resolveContainer picks the container an identifier resolves against:
// locals when they own the name (never in the inputs stage), the scope
// otherwise.
func resolveContainer(scope, locals Object, name string, st stage) Object {
	if st != stageInputs && locals != nil && ownsMember(locals, name) {
		return locals
	}
	if scope == nil || scope.Type() == UNDEFINED_OBJ || scope.Type() == NULL_OBJ {
		return nil
	}
	return scope
}

// vivifyMember creates an empty dictionary at a missing step of an
// assignment target's member chain
func vivifyMember(obj Object, name string) {
	current := getMember(obj, name)
	if current == nil || current.Type() == UNDEFINED_OBJ || current.Type() == NULL_OBJ {
		setMember(obj, name, NewDictionary())
	}
}
