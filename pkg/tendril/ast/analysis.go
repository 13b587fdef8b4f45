package ast

// StatefulFilterFn reports whether the named filter is stateful. Stateful
// filters are treated as non-constant and as opaque inputs.
type StatefulFilterFn func(name string) bool

// Annotate computes the constant and watch decorations for every node in
// the program. It runs once, immediately after parsing; nodes are immutable
// afterwards.
func Annotate(program *Program, stateful StatefulFilterFn) {
	if stateful == nil {
		stateful = func(string) bool { return false }
	}
	allConstant := true
	for _, stmt := range program.Statements {
		annotate(stmt, stateful)
		allConstant = allConstant && stmt.Decor().Constant
	}
	program.Constant = allConstant
}

func annotate(expr Expression, stateful StatefulFilterFn) {
	d := expr.Decor()

	switch e := expr.(type) {
	case *NumberLiteral, *StringLiteral, *BooleanLiteral, *NullLiteral, *UndefinedLiteral:
		d.Constant = true
		d.Watch = nil

	case *ArrayLiteral:
		allConstant := true
		var watch []Expression
		for _, el := range e.Elements {
			annotate(el, stateful)
			allConstant = allConstant && el.Decor().Constant
			watch = append(watch, el.Decor().Watch...)
		}
		d.Constant = allConstant
		d.Watch = watch

	case *ObjectLiteral:
		allConstant := true
		var watch []Expression
		for _, p := range e.Properties {
			annotate(p.Value, stateful)
			allConstant = allConstant && p.Value.Decor().Constant
			watch = append(watch, p.Value.Decor().Watch...)
		}
		d.Constant = allConstant
		d.Watch = watch

	case *Identifier:
		d.Constant = false
		d.Watch = []Expression{e}

	case *ThisExpression:
		d.Constant = false
		d.Watch = nil

	case *MemberExpression:
		annotate(e.Object, stateful)
		d.Constant = e.Object.Decor().Constant
		d.Watch = []Expression{e}

	case *IndexExpression:
		annotate(e.Object, stateful)
		annotate(e.Index, stateful)
		d.Constant = e.Object.Decor().Constant && e.Index.Decor().Constant
		d.Watch = []Expression{e}

	case *CallExpression:
		annotate(e.Callee, stateful)
		for _, a := range e.Arguments {
			annotate(a, stateful)
		}
		d.Constant = false
		d.Watch = []Expression{e}

	case *FilterExpression:
		stateless := !stateful(e.Name.Value)
		allConstant := stateless
		var watch []Expression
		annotate(e.Input, stateful)
		allConstant = allConstant && e.Input.Decor().Constant
		watch = append(watch, e.Input.Decor().Watch...)
		for _, a := range e.Arguments {
			annotate(a, stateful)
			allConstant = allConstant && a.Decor().Constant
			watch = append(watch, a.Decor().Watch...)
		}
		d.Constant = allConstant
		if stateless {
			d.Watch = watch
		} else {
			d.Watch = []Expression{e}
		}

	case *AssignmentExpression:
		annotate(e.Left, stateful)
		annotate(e.Right, stateful)
		d.Constant = e.Left.Decor().Constant && e.Right.Decor().Constant
		d.Watch = []Expression{e}

	case *PrefixExpression:
		annotate(e.Right, stateful)
		d.Constant = e.Right.Decor().Constant
		d.Watch = e.Right.Decor().Watch

	case *InfixExpression:
		annotate(e.Left, stateful)
		annotate(e.Right, stateful)
		d.Constant = e.Left.Decor().Constant && e.Right.Decor().Constant
		d.Watch = append(append([]Expression{}, e.Left.Decor().Watch...), e.Right.Decor().Watch...)

	case *LogicalExpression:
		annotate(e.Left, stateful)
		annotate(e.Right, stateful)
		d.Constant = e.Left.Decor().Constant && e.Right.Decor().Constant
		d.Watch = []Expression{e}

	case *ConditionalExpression:
		annotate(e.Test, stateful)
		annotate(e.Consequent, stateful)
		annotate(e.Alternate, stateful)
		d.Constant = e.Test.Decor().Constant && e.Consequent.Decor().Constant && e.Alternate.Decor().Constant
		d.Watch = []Expression{e}

	case *ValueParameter:
		d.Constant = false
		d.Watch = nil
	}
}

// IsLiteral reports whether the program is an empty body or a single
// literal, array or object statement.
func IsLiteral(program *Program) bool {
	if len(program.Statements) == 0 {
		return true
	}
	if len(program.Statements) != 1 {
		return false
	}
	switch program.Statements[0].(type) {
	case *NumberLiteral, *StringLiteral, *BooleanLiteral, *NullLiteral, *UndefinedLiteral,
		*ArrayLiteral, *ObjectLiteral:
		return true
	}
	return false
}

// Inputs returns the input sub-expressions of a single-statement program,
// or nil when the statement is its own only input (watch the whole
// expression) or the program has zero or several statements.
func Inputs(program *Program) []Expression {
	if len(program.Statements) != 1 {
		return nil
	}
	stmt := program.Statements[0]
	watch := stmt.Decor().Watch
	if len(watch) == 1 && watch[0] == stmt {
		return nil
	}
	return watch
}

// AssignableAST returns a synthetic assignment with the program's single
// statement as target and a ValueParameter placeholder as the value, or nil
// when the statement is not an assignable variant.
func AssignableAST(program *Program) *AssignmentExpression {
	if len(program.Statements) != 1 {
		return nil
	}
	stmt := program.Statements[0]
	switch stmt.(type) {
	case *Identifier, *MemberExpression, *IndexExpression:
		return &AssignmentExpression{Left: stmt, Right: &ValueParameter{}}
	}
	return nil
}
