package rkexpr

// shunt converts an infix token sequence into a postfix program with the
// shunting-yard algorithm. It also returns the greatest operand stack depth
// the program reaches during evaluation.
func shunt(infix []lexToken) (Program, int, error) {
	out := make([]lexToken, 0, len(infix))
	ops := make([]lexToken, 0, len(infix)/2)
	// args counts separators seen inside each open parenthesis.
	var args []int
	pop := func() {
		out = append(out, ops[len(ops)-1])
		ops = ops[:len(ops)-1]
	}
	for i, l := range infix {
		t := l.tok
		if i > 0 && infix[i-1].tok.Class() == ClassFunction && t.Kind != LeftParen {
			return nil, 0, callError(infix[i-1])
		}
		switch t.Class() {
		case ClassNumber, ClassVariable:
			out = append(out, l)
		case ClassLeftParen:
			ops = append(ops, l)
			args = append(args, 0)
		case ClassFunction:
			ops = append(ops, l)
		case ClassOperator:
			for len(ops) > 0 {
				top := ops[len(ops)-1].tok
				if top.Class() == ClassFunction {
					pop()
					continue
				}
				if top.Class() == ClassOperator && (top.Prec() < t.Prec() || top.Prec() == t.Prec() && t.leftAssoc()) {
					pop()
					continue
				}
				break
			}
			ops = append(ops, l)
		case ClassDelimiter:
			// Flush the current argument. The separator must be inside the
			// argument list of a function call.
			for len(ops) > 0 && ops[len(ops)-1].tok.Kind != LeftParen {
				pop()
			}
			if len(ops) < 2 || ops[len(ops)-2].tok.Class() != ClassFunction {
				return nil, 0, &SeparatorError{Col: l.pos, Sep: ","}
			}
			args[len(args)-1]++
			if f := ops[len(ops)-2]; args[len(args)-1] >= f.tok.Arity() {
				col := l.pos
				if i+1 < len(infix) {
					col = infix[i+1].pos
				}
				return nil, 0, &SyntaxError{Col: col, Msg: "too many arguments to " + f.tok.symbol()}
			}
		case ClassRightParen:
			for len(ops) > 0 && ops[len(ops)-1].tok.Kind != LeftParen {
				pop()
			}
			if len(ops) == 0 {
				return nil, 0, &BracketError{Col: l.pos, Right: ")"}
			}
			ops = ops[:len(ops)-1]
			args = args[:len(args)-1]
			if len(ops) > 0 && ops[len(ops)-1].tok.Class() == ClassFunction {
				pop()
			}
		default:
			panic("rkexpr: invalid token " + l.String())
		}
	}
	if n := len(infix); n > 0 && infix[n-1].tok.Class() == ClassFunction {
		return nil, 0, callError(infix[n-1])
	}
	for len(ops) > 0 {
		if top := ops[len(ops)-1]; top.tok.Kind == LeftParen {
			return nil, 0, &BracketError{Col: top.pos, Left: "("}
		}
		pop()
	}
	return check(out)
}

// callError reports a function not followed by its argument list.
func callError(f lexToken) error {
	return &SyntaxError{Col: f.pos, Msg: f.tok.symbol() + " without argument list"}
}

// check verifies that a postfix sequence never underflows the operand stack
// and leaves exactly one value.
func check(out []lexToken) (Program, int, error) {
	if len(out) == 0 {
		return nil, 0, &EmptyExpressionError{Col: 1}
	}
	p := make(Program, len(out))
	// starts holds the column where each operand on the stack begins.
	starts := make([]int, 0, len(out))
	most := 0
	for i, l := range out {
		n := l.tok.Arity()
		if len(starts) < n {
			return nil, 0, &SyntaxError{Col: l.pos, Msg: "missing operand for " + l.tok.symbol()}
		}
		col := l.pos
		for _, c := range starts[len(starts)-n:] {
			col = min(col, c)
		}
		starts = append(starts[:len(starts)-n], col)
		most = max(most, len(starts))
		p[i] = l.tok
	}
	if len(starts) != 1 {
		return nil, 0, &SyntaxError{Col: starts[1], Msg: "missing operator"}
	}
	return p, most, nil
}
