package expr

import (
	"fmt"
	"math"

	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/pathtuple"
	"github.com/plasmagraph/plasmadb/internal/perr"
)

// Eval evaluates e against pt, substituting every PVarProperty with the
// current value of that property on the node bound at PVarOp.
// Evaluation errors (wrong-typed property, unknown operator) come back
// as *perr.Error{Kind: TypeMismatch} so the runtime can drop the
// offending PT rather than aborting the query. Arity is not checked: a
// missing argument evaluates as null and extra arguments are ignored.
func Eval(e Expr, pt pathtuple.PT) (graph.Value, error) {
	switch n := e.(type) {
	case Literal:
		return n.Value, nil
	case *PVarProperty:
		return evalPVarProperty(n, pt)
	case *Call:
		return evalCall(n, pt)
	default:
		return graph.Value{}, perr.New(perr.TypeMismatch, fmt.Sprintf("unknown expression node %T", e))
	}
}

func evalPVarProperty(p *PVarProperty, pt pathtuple.PT) (graph.Value, error) {
	b, ok := pt.Get(p.PVarOp)
	if !ok {
		return graph.Value{}, perr.New(perr.TypeMismatch, fmt.Sprintf("pvar %q not bound in path tuple", p.PVar))
	}
	if b.Props == nil {
		return graph.Value{}, perr.New(perr.TypeMismatch, fmt.Sprintf("property %q not loaded for pvar %q", p.Property, p.PVar))
	}
	v, ok := b.Props[p.Property]
	if !ok {
		return graph.Value{}, perr.New(perr.TypeMismatch, fmt.Sprintf("node missing property %q", p.Property))
	}
	return v, nil
}

func evalCall(c *Call, pt pathtuple.PT) (graph.Value, error) {
	if !IsKnownOp(c.Op) {
		return graph.Value{}, perr.New(perr.TypeMismatch, fmt.Sprintf("unknown operator %q", c.Op))
	}

	switch c.Op {
	case "not", "bit-not":
		a, err := Eval(arg(c, 0), pt)
		if err != nil {
			return graph.Value{}, err
		}
		return evalUnary(c.Op, a)
	case "and", "or":
		return evalLogical(c, pt)
	default:
		return evalBinaryOrTernary(c, pt)
	}
}

func arg(c *Call, i int) Expr {
	if i >= len(c.Args) {
		return Literal{Value: graph.Null()}
	}
	return c.Args[i]
}

func evalUnary(op string, a graph.Value) (graph.Value, error) {
	switch op {
	case "not":
		b, ok := a.AsBool()
		if !ok {
			return graph.Value{}, perr.New(perr.TypeMismatch, "not: operand is not a bool")
		}
		return graph.Bool(!b), nil
	case "bit-not":
		i, ok := asInt(a)
		if !ok {
			return graph.Value{}, perr.New(perr.TypeMismatch, "bit-not: operand is not an int")
		}
		return graph.Int(^i), nil
	}
	return graph.Value{}, perr.New(perr.TypeMismatch, "unreachable unary op "+op)
}

func evalLogical(c *Call, pt pathtuple.PT) (graph.Value, error) {
	left, err := Eval(arg(c, 0), pt)
	if err != nil {
		return graph.Value{}, err
	}
	lb, ok := left.AsBool()
	if !ok {
		return graph.Value{}, perr.New(perr.TypeMismatch, c.Op+": left operand is not a bool")
	}
	if c.Op == "and" && !lb {
		return graph.Bool(false), nil
	}
	if c.Op == "or" && lb {
		return graph.Bool(true), nil
	}
	right, err := Eval(arg(c, 1), pt)
	if err != nil {
		return graph.Value{}, err
	}
	rb, ok := right.AsBool()
	if !ok {
		return graph.Value{}, perr.New(perr.TypeMismatch, c.Op+": right operand is not a bool")
	}
	return graph.Bool(rb), nil
}

func evalBinaryOrTernary(c *Call, pt pathtuple.PT) (graph.Value, error) {
	left, err := Eval(arg(c, 0), pt)
	if err != nil {
		return graph.Value{}, err
	}
	right, err := Eval(arg(c, 1), pt)
	if err != nil {
		return graph.Value{}, err
	}

	switch c.Op {
	case "=", "==", "not=", "<", ">", "<=", ">=":
		return evalComparison(c.Op, left, right)
	case "+", "-", "*", "/", "mod", "pow", "abs":
		return evalArithmetic(c.Op, left, right)
	case "bit-and", "bit-or", "bit-xor", "bit-shift-left", "bit-shift-right":
		return evalBitwise(c.Op, left, right)
	case "sin", "cos", "tan", "asin", "acos", "atan", "atan2":
		return evalTrig(c.Op, left, right)
	default:
		return graph.Value{}, perr.New(perr.TypeMismatch, "unsupported operator "+c.Op)
	}
}

func evalComparison(op string, l, r graph.Value) (graph.Value, error) {
	if l.Kind == graph.KindString && r.Kind == graph.KindString {
		switch op {
		case "=", "==":
			return graph.Bool(l.Str == r.Str), nil
		case "not=":
			return graph.Bool(l.Str != r.Str), nil
		case "<":
			return graph.Bool(l.Str < r.Str), nil
		case ">":
			return graph.Bool(l.Str > r.Str), nil
		case "<=":
			return graph.Bool(l.Str <= r.Str), nil
		case ">=":
			return graph.Bool(l.Str >= r.Str), nil
		}
	}
	lf, lok := l.AsFloat()
	rf, rok := r.AsFloat()
	if !lok || !rok {
		return graph.Value{}, perr.New(perr.TypeMismatch, fmt.Sprintf("%s: operands not comparable (%v, %v)", op, l.Any(), r.Any()))
	}
	switch op {
	case "=", "==":
		return graph.Bool(lf == rf), nil
	case "not=":
		return graph.Bool(lf != rf), nil
	case "<":
		return graph.Bool(lf < rf), nil
	case ">":
		return graph.Bool(lf > rf), nil
	case "<=":
		return graph.Bool(lf <= rf), nil
	case ">=":
		return graph.Bool(lf >= rf), nil
	}
	return graph.Value{}, perr.New(perr.TypeMismatch, "unreachable comparison op "+op)
}

func evalArithmetic(op string, l, r graph.Value) (graph.Value, error) {
	if op == "+" && l.Kind == graph.KindString && r.Kind == graph.KindString {
		return graph.String(l.Str + r.Str), nil
	}
	if op == "abs" {
		lf, ok := l.AsFloat()
		if !ok {
			return graph.Value{}, perr.New(perr.TypeMismatch, "abs: operand is not numeric")
		}
		return floatOrInt(math.Abs(lf), l), nil
	}

	lf, lok := l.AsFloat()
	rf, rok := r.AsFloat()
	if !lok || !rok {
		return graph.Value{}, perr.New(perr.TypeMismatch, fmt.Sprintf("%s: non-numeric operand", op))
	}
	isFloat := l.Kind == graph.KindFloat || r.Kind == graph.KindFloat

	var result float64
	switch op {
	case "+":
		result = lf + rf
	case "-":
		result = lf - rf
	case "*":
		result = lf * rf
	case "/":
		if rf == 0 {
			return graph.Value{}, perr.New(perr.TypeMismatch, "division by zero")
		}
		result = lf / rf
		isFloat = true
	case "mod":
		if rf == 0 {
			return graph.Value{}, perr.New(perr.TypeMismatch, "modulo by zero")
		}
		result = math.Mod(lf, rf)
	case "pow":
		result = math.Pow(lf, rf)
		isFloat = true
	default:
		return graph.Value{}, perr.New(perr.TypeMismatch, "unreachable arithmetic op "+op)
	}

	if isFloat {
		return graph.Float(result), nil
	}
	return graph.Int(int64(result)), nil
}

func floatOrInt(f float64, like graph.Value) graph.Value {
	if like.Kind == graph.KindFloat {
		return graph.Float(f)
	}
	return graph.Int(int64(f))
}

func evalBitwise(op string, l, r graph.Value) (graph.Value, error) {
	li, lok := asInt(l)
	ri, rok := asInt(r)
	if !lok || !rok {
		return graph.Value{}, perr.New(perr.TypeMismatch, op+": operands are not ints")
	}
	switch op {
	case "bit-and":
		return graph.Int(li & ri), nil
	case "bit-or":
		return graph.Int(li | ri), nil
	case "bit-xor":
		return graph.Int(li ^ ri), nil
	case "bit-shift-left":
		return graph.Int(li << uint(ri)), nil
	case "bit-shift-right":
		return graph.Int(li >> uint(ri)), nil
	}
	return graph.Value{}, perr.New(perr.TypeMismatch, "unreachable bitwise op "+op)
}

func asInt(v graph.Value) (int64, bool) {
	if v.Kind == graph.KindInt {
		return v.Int, true
	}
	return 0, false
}

func evalTrig(op string, l, r graph.Value) (graph.Value, error) {
	lf, ok := l.AsFloat()
	if !ok {
		return graph.Value{}, perr.New(perr.TypeMismatch, op+": operand is not numeric")
	}
	switch op {
	case "sin":
		return graph.Float(math.Sin(lf)), nil
	case "cos":
		return graph.Float(math.Cos(lf)), nil
	case "tan":
		return graph.Float(math.Tan(lf)), nil
	case "asin":
		return graph.Float(math.Asin(lf)), nil
	case "acos":
		return graph.Float(math.Acos(lf)), nil
	case "atan":
		return graph.Float(math.Atan(lf)), nil
	case "atan2":
		rf, ok := r.AsFloat()
		if !ok {
			return graph.Value{}, perr.New(perr.TypeMismatch, "atan2: second operand is not numeric")
		}
		return graph.Float(math.Atan2(lf, rf)), nil
	}
	return graph.Value{}, perr.New(perr.TypeMismatch, "unreachable trig op "+op)
}

// EvalBool evaluates e and requires a boolean result, for select
// predicates.
func EvalBool(e Expr, pt pathtuple.PT) (bool, error) {
	v, err := Eval(e, pt)
	if err != nil {
		return false, err
	}
	b, ok := v.AsBool()
	if !ok {
		return false, perr.New(perr.TypeMismatch, "predicate did not evaluate to a bool")
	}
	return b, nil
}
