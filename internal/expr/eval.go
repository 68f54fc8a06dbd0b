package expr

import "math"

// Evaluate walks the tree and computes the numeric result against the
// supplied binding map using float64 arithmetic. Division by zero and
// unbound identifiers are hard errors; they are never folded into Inf, NaN
// or a default value, because a silently wrong tolerance bound corrupts the
// audit trail downstream.
func (e *Expr) Evaluate(bindings map[string]float64) (float64, error) {
	return e.root.eval(bindings)
}

func (n *numberNode) eval(map[string]float64) (float64, error) {
	return n.value, nil
}

func (n *variableNode) eval(bindings map[string]float64) (float64, error) {
	value, ok := bindings[n.name]
	if !ok {
		return 0, &EvalError{Kind: ErrKindUnboundVariable, Variable: n.name}
	}
	return value, nil
}

func (n *unaryNode) eval(bindings map[string]float64) (float64, error) {
	operand, err := n.operand.eval(bindings)
	if err != nil {
		return 0, err
	}
	if n.op != tokenMinus {
		return 0, &EvalError{Kind: ErrKindDisallowedConstruct}
	}
	return -operand, nil
}

func (n *binaryNode) eval(bindings map[string]float64) (float64, error) {
	left, err := n.left.eval(bindings)
	if err != nil {
		return 0, err
	}
	right, err := n.right.eval(bindings)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case tokenPlus:
		return left + right, nil
	case tokenMinus:
		return left - right, nil
	case tokenStar:
		return left * right, nil
	case tokenSlash:
		if right == 0 {
			return 0, &EvalError{Kind: ErrKindDivisionByZero}
		}
		return left / right, nil
	case tokenCaret:
		return math.Pow(left, right), nil
	default:
		return 0, &EvalError{Kind: ErrKindDisallowedConstruct}
	}
}

func (n *callNode) eval(bindings map[string]float64) (float64, error) {
	args := make([]float64, len(n.args))
	for i, arg := range n.args {
		value, err := arg.eval(bindings)
		if err != nil {
			return 0, err
		}
		args[i] = value
	}
	switch n.fn {
	case "abs":
		return math.Abs(args[0]), nil
	case "min":
		result := args[0]
		for _, v := range args[1:] {
			result = math.Min(result, v)
		}
		return result, nil
	case "max":
		result := args[0]
		for _, v := range args[1:] {
			result = math.Max(result, v)
		}
		return result, nil
	default:
		// Parse already rejected unknown names; reaching this branch
		// means the tree was built outside Parse.
		return 0, &EvalError{Kind: ErrKindDisallowedConstruct}
	}
}
